package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Name  string
	Terms map[string][]uint32
}

func TestSaveLoadGob(t *testing.T) {
	want := snapshot{Name: "Terms", Terms: map[string][]uint32{"gr": {1, 2}, "ro": {1}}}

	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "zstd"}[compress], func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "snapshot.gob")
			require.NoError(t, SaveGob(path, want, compress))

			var got snapshot
			require.NoError(t, LoadGob(path, &got))
			assert.Equal(t, want, got)

			// no temp files are left behind
			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestLoadGobMissingFile(t *testing.T) {
	var got snapshot
	err := LoadGob(filepath.Join(t.TempDir(), "missing.gob"), &got)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadGobCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0600))

	var got snapshot
	assert.Error(t, LoadGob(path, &got))
}

func TestSaveGobOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.gob")
	require.NoError(t, SaveGob(path, snapshot{Name: "old"}, false))
	require.NoError(t, SaveGob(path, snapshot{Name: "new"}, true))

	var got snapshot
	require.NoError(t, LoadGob(path, &got))
	assert.Equal(t, "new", got.Name)
}

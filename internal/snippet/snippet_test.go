package snippet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
)

const columnStoreText = "ラングバプロジェクトはカラムストア機能も" +
	"備える高速・高機能な全文検索エンジンgroonga" +
	"の機能をRubyから利用するためのライブラリを" +
	"提供するプロジェクトです。groongaの機能を" +
	"Rubyらしい読み書きしやすい構文で利用できる" +
	"ことが利点です。"

func TestExecuteWithCyclingTags(t *testing.T) {
	s, err := NewWithKeywords(Options{Width: 30},
		[]Tag{{"[[", "]]"}, {"<", ">"}},
		[]string{"ラングバ", "Ruby", "groonga"})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Execute(columnStoreText)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[[ラングバ]]プロジェクト",
		"ン[[groonga]]の機能を<Ruby>か",
		"。[[groonga]]の機能を<Ruby>ら",
	}, got)
}

func TestExecuteWithoutTags(t *testing.T) {
	s, err := NewWithKeywords(Options{Width: 30}, nil, []string{"ラングバ"})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Execute("ラングバプロジェクトはカラムストア機能も")
	require.NoError(t, err)
	assert.Equal(t, []string{"ラングバプロジェクト"}, got)
}

func TestExecuteWindowing(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		words []string
		text  string
		want  []string
	}{
		{
			name:  "centered on match",
			opts:  Options{Width: 10},
			words: []string{"key"},
			text:  "aaaaaaaaaa key bbbbbbbbbb",
			want:  []string{"aa [key] bbb"},
		},
		{
			name:  "nearby matches merged",
			opts:  Options{Width: 12},
			words: []string{"a", "b"},
			text:  "xxxx a b yyyyyyyy",
			want:  []string{"xxx [a] [b] yyyy"},
		},
		{
			name:  "max results",
			opts:  Options{Width: 3, MaxResults: 2},
			words: []string{"k"},
			text:  "k....k....k",
			want:  []string{"[k]..", ".[k]."},
		},
		{
			name:  "no match",
			opts:  Options{Width: 10},
			words: []string{"zzz"},
			text:  "nothing here",
			want:  []string{},
		},
		{
			name:  "html escaped",
			opts:  Options{Width: 20, HTMLEscape: true},
			words: []string{"b"},
			text:  "<a>&b",
			want:  []string{"&lt;a&gt;&amp;[b]"},
		},
		{
			name:  "overlapping keywords keep earlier match",
			opts:  Options{Width: 20},
			words: []string{"groonga", "onga"},
			text:  "groonga",
			want:  []string{"[groonga]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewWithKeywords(tt.opts, []Tag{{"[", "]"}}, tt.words)
			require.NoError(t, err)
			defer s.Close()

			got, err := s.Execute(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecuteNeverSplitsRunes(t *testing.T) {
	s, err := NewWithKeywords(Options{Width: 8}, nil, []string{"b"})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Execute("ああbああ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "あbあ", got[0])
}

func TestClosedSnippet(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.AddKeyword("ruby", "", ""))
	assert.Equal(t, []string{"ruby"}, s.Keywords())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Execute("ruby")
	assert.True(t, errors.Is(err, internalErrors.ErrClosed))
	assert.True(t, errors.Is(s.AddKeyword("go", "", ""), internalErrors.ErrClosed))
}

func TestAddKeywordRejectsEmpty(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	assert.True(t, errors.Is(s.AddKeyword("", "<", ">"), internalErrors.ErrInvalidInput))
}

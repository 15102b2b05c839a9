// Package persistence writes and reads gob snapshots, optionally zstd
// compressed.
package persistence

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/gcbaptista/colsearch/internal/logging"
)

// zstdMagic starts every zstd frame. LoadGob uses it to tell compressed
// snapshots from plain ones.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// SaveGob encodes object with gob and writes it to filePath, replacing any
// existing file only once the new one is complete. It creates necessary
// directories if they don't exist.
func SaveGob(filePath string, object interface{}, compress bool) (err error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	buffered := bufio.NewWriter(tmp)
	var w io.Writer = buffered
	var encoder *zstd.Encoder
	if compress {
		if encoder, err = zstd.NewWriter(buffered); err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = encoder
	}

	if err = gob.NewEncoder(w).Encode(object); err != nil {
		return fmt.Errorf("failed to gob encode to file %s: %w", filePath, err)
	}
	if encoder != nil {
		if err = encoder.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream for %s: %w", filePath, err)
		}
	}
	if err = buffered.Flush(); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filePath, err)
	}
	if err = os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to replace file %s: %w", filePath, err)
	}
	return nil
}

// LoadGob decodes a snapshot written by SaveGob into objectPointer,
// compressed or not. If the file does not exist, it returns os.ErrNotExist,
// allowing callers to handle fresh starts gracefully.
func LoadGob(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logging.WithComponent("persistence").Warn("failed to close file", "path", filePath, "error", closeErr)
		}
	}()

	buffered := bufio.NewReader(file)
	var r io.Reader = buffered
	if head, err := buffered.Peek(len(zstdMagic)); err == nil && bytes.Equal(head, zstdMagic) {
		decoder, err := zstd.NewReader(buffered)
		if err != nil {
			return fmt.Errorf("failed to create zstd reader for %s: %w", filePath, err)
		}
		defer decoder.Close()
		r = decoder
	}

	if err := gob.NewDecoder(r).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
	}
	return nil
}

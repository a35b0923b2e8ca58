package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps each record in <Dir>/<record>.json.
type FileBackend struct {
	Dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FileBackend{Dir: dir}, nil
}

func (b *FileBackend) path(record string) string {
	return filepath.Join(b.Dir, record+".json")
}

// Load reads the record file; a missing file is not an error.
func (b *FileBackend) Load(_ context.Context, record string) ([]byte, error) {
	data, err := os.ReadFile(b.path(record))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Save writes to a temp file in the same directory and renames it over the
// record, so readers never observe a half-written document.
func (b *FileBackend) Save(_ context.Context, record string, data []byte) error {
	tmp, err := os.CreateTemp(b.Dir, record+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(record))
}

func (b *FileBackend) Close() error { return nil }

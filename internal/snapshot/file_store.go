// Package snapshot fetches, persists and loads the single kline snapshot.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alanyoungcy/klinechart/internal/atomicfile"
	"github.com/alanyoungcy/klinechart/internal/domain"
)

// FileStore keeps the snapshot as one JSON file on local disk.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save replaces the snapshot file atomically, so readers never observe a
// partial snapshot.
func (s *FileStore) Save(_ context.Context, body []byte) error {
	if err := atomicfile.Write(s.path, body); err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

// Load reads the snapshot file. It returns domain.ErrNotFound when no
// snapshot has been written yet.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("snapshot: load %s: %w", s.path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("snapshot: load %s: %w", s.path, err)
	}
	return data, nil
}

// Location returns the file path.
func (s *FileStore) Location() string { return s.path }

// Pretty re-indents a raw JSON body with two spaces. Number literals are
// copied verbatim, so no float precision is lost.
func Pretty(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("snapshot: indent: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

var _ domain.SnapshotStore = (*FileStore)(nil)

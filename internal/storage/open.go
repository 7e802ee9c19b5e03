package storage

import (
	"fmt"
	"io"
	"path/filepath"
)

// Open builds the Store named by backend ("file" or "sqlite") rooted at
// path. The returned Closer releases backend resources.
func Open(backend, path string) (Store, io.Closer, error) {
	switch backend {
	case "", "file":
		s, err := NewFile(path)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case "sqlite":
		dbPath := path
		if filepath.Ext(dbPath) == "" {
			dbPath = filepath.Join(path, "regenmon.db")
		}
		s, err := OpenSQLite(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

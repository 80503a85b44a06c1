// Package file persists order snapshots as a JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"tienda/pkg/order"
)

// Log is an order.Log backed by a single JSON file. Every Save rewrites the
// whole document through a temp file and a rename.
type Log struct {
	path string
}

// New returns a Log stored at path. The file does not need to exist yet.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the document location.
func (l *Log) Path() string { return l.path }

// Load reads the document. A missing file is an empty snapshot.
func (l *Log) Load(ctx context.Context) (order.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return order.Snapshot{}, err
	}
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return order.Snapshot{}, nil
	}
	if err != nil {
		return order.Snapshot{}, errors.Wrapf(err, "read %s", l.path)
	}
	var s order.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return order.Snapshot{}, errors.Wrapf(err, "decode %s", l.path)
	}
	return s, nil
}

// Save replaces the document with s.
func (l *Log) Save(ctx context.Context, s order.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Orders == nil {
		s.Orders = []order.Order{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return errors.Wrapf(err, "replace %s", l.path)
	}
	return nil
}

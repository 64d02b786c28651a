package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FileStore keeps each document as <dir>/<key>.json. Writes go to a
// temporary file that is renamed over the old one, so a crash mid-write
// leaves the previous document intact.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", errors.Errorf("invalid document key %q", key)
	}
	return filepath.Join(fs.dir, key+".json"), nil
}

// Load decodes <dir>/<key>.json into dst
func (fs *FileStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	path, err := fs.path(key)
	if err != nil {
		return false, err
	}

	fs.mu.Lock()
	data, err := os.ReadFile(path)
	fs.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "read %s", path)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrapf(err, "decode %s", path)
	}
	return true, nil
}

// Save writes src to <dir>/<key>.json, replacing the previous document
func (fs *FileStore) Save(ctx context.Context, key string, src any) error {
	path, err := fs.path(key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(src)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tmp, err := os.CreateTemp(fs.dir, "."+key+"-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", key)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}

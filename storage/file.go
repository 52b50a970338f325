package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

var _ Storage = (*FileStorage)(nil)

// FileStorage persists values into a single JSON file. Writes go through a
// temp file and rename so a crash mid-write never leaves a truncated store.
type FileStorage struct {
	path string
	lock sync.Mutex
}

// NewFileStorage creates a file-backed store at path, creating parent
// directories as needed. The file itself is created lazily on first Set.
func NewFileStorage(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStorage] creating storage directory")
	}
	return &FileStorage{path: path}, nil
}

func (fs *FileStorage) Get(key string) ([]byte, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	values, err := fs.read()
	if err != nil {
		return nil, err
	}
	value, ok := values[key]
	if !ok {
		return nil, KeyNotFoundErr
	}
	return value, nil
}

func (fs *FileStorage) Set(key string, value []byte) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	values, err := fs.read()
	if err != nil {
		return err
	}
	values[key] = value
	return fs.write(values)
}

func (fs *FileStorage) Remove(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	values, err := fs.read()
	if err != nil {
		return err
	}
	delete(values, key)
	return fs.write(values)
}

func (fs *FileStorage) read() (map[string][]byte, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return make(map[string][]byte), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileStorage.read] reading storage file")
	}
	values := make(map[string][]byte)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrap(err, "[FileStorage.read] parsing storage file")
	}
	return values, nil
}

func (fs *FileStorage) write(values map[string][]byte) error {
	data, err := json.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "[FileStorage.write] encoding storage file")
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileStorage.write] writing storage file")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "[FileStorage.write] replacing storage file")
	}
	return nil
}

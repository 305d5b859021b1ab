package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileKV persists every key in a single JSON object on disk.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV creates a file-backed store at path. The file is created lazily on first write.
func NewFileKV(path string) (kv *FileKV, err error) {
	if path == "" {
		err = errors.New("store path is required")
		return kv, err
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create store directory: %s", dir)
		return kv, err
	}

	kv = &FileKV{path: path}
	return kv, err
}

// Path returns the backing file location.
func (f *FileKV) Path() (path string) {
	path = f.path
	return path
}

// Load returns the value stored under key.
func (f *FileKV) Load(_ context.Context, key string) (value string, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var values map[string]string
	values, err = f.read()
	if err != nil {
		return value, ok, err
	}

	value, ok = values[key]
	return value, ok, err
}

// Save stores value under key.
func (f *FileKV) Save(_ context.Context, key, value string) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var values map[string]string
	values, err = f.read()
	if err != nil {
		return err
	}

	values[key] = value
	err = f.write(values)
	return err
}

// Delete removes key.
func (f *FileKV) Delete(_ context.Context, key string) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var values map[string]string
	values, err = f.read()
	if err != nil {
		return err
	}

	if _, found := values[key]; !found {
		return err
	}

	delete(values, key)
	err = f.write(values)
	return err
}

// read loads the whole file. A missing or unparseable file reads as empty.
func (f *FileKV) read() (values map[string]string, err error) {
	values = make(map[string]string)

	var data []byte
	data, err = os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
			return values, err
		}
		err = errors.Wrapf(err, "failed to read store file: %s", f.path)
		return values, err
	}

	if jsonErr := json.Unmarshal(data, &values); jsonErr != nil {
		values = make(map[string]string)
	}

	return values, err
}

func (f *FileKV) write(values map[string]string) (err error) {
	var data []byte
	data, err = json.MarshalIndent(values, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal store")
		return err
	}

	tmp := f.path + ".tmp"
	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write store file: %s", tmp)
		return err
	}

	err = os.Rename(tmp, f.path)
	if err != nil {
		err = errors.Wrapf(err, "failed to replace store file: %s", f.path)
		return err
	}

	return err
}

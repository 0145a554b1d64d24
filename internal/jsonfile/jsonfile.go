// Package jsonfile provides access to a JSON document on disk holding a flat
// collection of records. The whole document is read on every access and
// rewritten wholesale on every mutation.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a collection of T persisted as a single JSON array.
//
// A RWMutex serializes access: Update holds the write lock for the whole
// read-modify-write sequence so concurrent mutations cannot lose updates,
// View holds the read lock so readers never observe a half-written document.
type File[T any] struct {
	path string
	mu   sync.RWMutex
}

// New returns a File backed by the document at path. The file does not have
// to exist yet; a missing or empty file reads as an empty collection.
func New[T any](path string) *File[T] {
	return &File[T]{path: path}
}

// Path returns the path of the backing document.
func (f *File[T]) Path() string {
	return f.path
}

// Ping checks that the backing document can be loaded.
func (f *File[T]) Ping() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if _, err := f.load(); err != nil {
		return fmt.Errorf("failed to ping %s: %w", f.path, err)
	}

	return nil
}

// View calls fn with the current collection. The collection must not be
// retained or mutated by fn.
func (f *File[T]) View(fn func(items []T) error) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	items, err := f.load()
	if err != nil {
		return err
	}

	return fn(items)
}

// Update calls fn with the current collection and persists the returned one,
// replacing the document atomically. If fn returns an error nothing is
// written and the error is passed through unwrapped.
func (f *File[T]) Update(fn func(items []T) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}

	items, err = fn(items)
	if err != nil {
		return err
	}

	return f.save(items)
}

func (f *File[T]) load() ([]T, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var items []T
	if err = json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", f.path, err)
	}

	return items, nil
}

// save writes items to a temporary file in the same directory and renames it
// over the document, so a crash mid-write cannot leave a corrupt file.
func (f *File[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", f.path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if err = writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}

	if err = os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}

	return nil
}

func writeAndClose(tmp *os.File, data []byte) error {
	defer func() {
		_ = tmp.Close()
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}

	return tmp.Close()
}

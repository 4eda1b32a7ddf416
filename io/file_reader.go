// Package io reads and writes whole container files under an advisory lock.
package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNotOpened = errors.New("file not opened")

type FileReader struct {
	path   string
	file   *os.File
	opened bool

	exists bool
}

func NewFileReader(path string) *FileReader {

	_, err := os.Stat(path)

	freader := &FileReader{
		path:   path,
		exists: err == nil,
	}

	return freader
}

func (f *FileReader) Exists() bool {
	return f.exists
}

// Open opens the file and takes a shared lock for reading or an exclusive
// one for writing.
func (f *FileReader) Open(readOnly bool) (topErr error) {

	var perm os.FileMode = 0644

	if readOnly {
		f.file, topErr = os.OpenFile(f.path, os.O_RDONLY, perm)
	} else {
		f.file, topErr = os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY, perm)
	}

	if topErr != nil {
		return topErr
	}

	topErr = lockFile(f.file, !readOnly)
	if topErr != nil {
		f.file.Close()
		return fmt.Errorf("unable to lock %s: %w", f.path, topErr)
	}

	f.opened = true

	return nil
}

func (f *FileReader) Close() error {
	if !f.opened {
		return nil
	}

	f.opened = false
	unlockFile(f.file)

	return f.file.Close()
}

// ReadAll reads the whole file.
func (f *FileReader) ReadAll() ([]byte, error) {
	if !f.opened {
		return nil, ErrNotOpened
	}

	info, err := f.file.Stat()
	if err != nil {
		return nil, err
	}

	out := make([]byte, info.Size())
	if err := f.ReadAt(out, 0, len(out)); err != nil {
		return nil, err
	}

	return out, nil
}

func (f *FileReader) ReadAt(out []byte, off, length int) (err error) {
	if !f.opened {
		return ErrNotOpened
	}

	var readBytes int
	readBytes, err = f.file.ReadAt(out[:length], int64(off))

	if readBytes != length {
		return fmt.Errorf("read bytes mismatch, %d of %d: %w", readBytes, length, err)
	}

	return nil
}

func (f *FileReader) WriteAt(in []byte, off int) (err error) {
	if !f.opened {
		return ErrNotOpened
	}

	var writtenBytes int
	writtenBytes, err = f.file.WriteAt(in, int64(off))
	if writtenBytes != len(in) {
		return fmt.Errorf("written bytes mismatch, %d of %d: %w", writtenBytes, len(in), err)
	}

	return f.file.Sync()
}

// ReadFile reads path under a shared lock.
func ReadFile(path string) ([]byte, error) {
	reader := NewFileReader(path)
	if !reader.Exists() {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}

	if err := reader.Open(true); err != nil {
		return nil, err
	}
	defer reader.Close()

	return reader.ReadAll()
}

// WriteFile replaces the content of path. The data goes to a temporary file
// next to path which is renamed over it, so a failed write leaves the old
// content in place. An existing path is held under an exclusive lock until
// the rename.
func WriteFile(path string, data []byte) (topErr error) {

	target := NewFileReader(path)
	if target.Exists() {
		if err := target.Open(false); err != nil {
			return err
		}
		defer target.Close()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	chmodErr := tmp.Chmod(0644)
	tmp.Close()

	defer func() {
		if topErr != nil {
			os.Remove(tmpPath)
		}
	}()

	if chmodErr != nil {
		return chmodErr
	}

	writer := NewFileReader(tmpPath)
	if err := writer.Open(false); err != nil {
		return err
	}

	writeErr := writer.WriteAt(data, 0)
	closeErr := writer.Close()

	if err := errors.Join(writeErr, closeErr); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("unable to replace %s: %w", path, err)
	}

	return nil
}

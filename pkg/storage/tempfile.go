// File: pkg/storage/tempfile.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

const tempFilePattern = "blobnav-*"

// TempFile is a downloaded blob materialized on local disk. The holder owns the file
// exclusively and must call Release on every exit path.
type TempFile struct {
	path string
	size int64

	once sync.Once
	err  error
}

func (t *TempFile) Path() string {
	return t.path
}

func (t *TempFile) Size() int64 {
	return t.size
}

// Opens the temp file for reading. The caller closes the returned file before Release.
func (t *TempFile) Open() (*os.File, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, Wrap(ErrIO, err)
	}
	return f, nil
}

// Deletes the temp file. Safe to call more than once.
func (t *TempFile) Release() error {
	if t == nil {
		return nil
	}
	t.once.Do(func() {
		if err := os.Remove(t.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.err = Wrap(ErrIO, err)
		}
	})
	return t.err
}

// Creates a temp file and lets fill write the blob into it. If fill fails the file is
// removed before returning, so on error the caller never holds anything to release.
func WriteTempFile(fill func(f *os.File) error) (*TempFile, error) {
	f, err := os.CreateTemp("", tempFilePattern)
	if err != nil {
		return nil, Wrap(ErrIO, fmt.Errorf("failed to create temp file: %w", err))
	}
	path := f.Name()

	fillErr := fill(f)
	closeErr := f.Close()
	if fillErr == nil && closeErr != nil {
		fillErr = Wrap(ErrIO, closeErr)
	}
	if fillErr != nil {
		os.Remove(path)
		return nil, fillErr
	}

	info, err := os.Stat(path)
	if err != nil {
		os.Remove(path)
		return nil, Wrap(ErrIO, err)
	}
	return &TempFile{path: path, size: info.Size()}, nil
}

// Copies r into a new temp file, honoring ctx between reads. Local write failures are
// tagged ErrIO; read failures come back as-is for the backend to classify.
func CopyToTempFile(ctx context.Context, r io.Reader) (*TempFile, error) {
	return WriteTempFile(func(f *os.File) error {
		_, err := io.Copy(tempWriter{f: f}, NewContextReader(ctx, r))
		switch {
		case err == nil, HasKind(err):
			return err
		case IsContextError(err):
			return Wrap(ErrCancelled, err)
		}
		return err
	})
}

type tempWriter struct {
	f *os.File
}

func (w tempWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, Wrap(ErrIO, err)
	}
	return n, nil
}

// File: pkg/storage/local/blobs.go
package local

import (
	"blobnav/pkg/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

func (l *LocalStorage) ListEntries(ctx context.Context, containerName, path string) iter.Seq2[storage.RawEntry, error] {
	return func(yield func(storage.RawEntry, error) bool) {
		l.logger.Debug("Starting local ListEntries operation", "container", containerName, "path", path)

		if err := containerNameRule.Validate(containerName); err != nil {
			yield(storage.RawEntry{}, err)
			return
		}
		if err := l.requireContainer(containerName); err != nil {
			yield(storage.RawEntry{}, err)
			return
		}

		prefix := storage.ToQueryPrefix(path)
		if prefix != "" {
			if err := checkSegments(strings.TrimSuffix(prefix, storage.Delimiter)); err != nil {
				yield(storage.RawEntry{}, err)
				return
			}
		}
		dir := filepath.Join(l.containerDir(containerName), filepath.FromSlash(prefix))

		f, err := os.Open(dir)
		if errors.Is(err, fs.ErrNotExist) {
			// A prefix nothing lives under is an empty folder, same as on the cloud backends
			return
		}
		if err != nil {
			yield(storage.RawEntry{}, mapFSError(err))
			return
		}
		defer f.Close()

		for {
			if err := storage.CheckContext(ctx); err != nil {
				yield(storage.RawEntry{}, err)
				return
			}

			page, err := f.ReadDir(listPageSize)
			for _, entry := range page {
				raw, ok := l.rawEntry(containerName, prefix, entry)
				if !ok {
					continue
				}
				if !yield(raw, nil) {
					return
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// Also covers a prefix that names a file rather than a folder
				if errors.Is(err, syscall.ENOTDIR) {
					return
				}
				yield(storage.RawEntry{}, mapFSError(fmt.Errorf("error reading %s: %w", dir, err)))
				return
			}
		}
	}
}

func (l *LocalStorage) rawEntry(containerName, prefix string, entry fs.DirEntry) (storage.RawEntry, bool) {
	name := entry.Name()
	if strings.HasPrefix(name, uploadTempPrefix) {
		return storage.RawEntry{}, false
	}

	switch {
	case entry.IsDir():
		fullName := prefix + name + storage.Delimiter
		return storage.RawEntry{
			Name:     fullName,
			IsPrefix: true,
			URL:      l.blobURL(containerName, fullName),
		}, true
	case entry.Type().IsRegular():
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			return storage.RawEntry{}, false
		}
		size := info.Size()
		fullName := prefix + name
		return storage.RawEntry{
			Name:          fullName,
			ContentLength: &size,
			URL:           l.blobURL(containerName, fullName),
		}, true
	default:
		return storage.RawEntry{}, false
	}
}

func (l *LocalStorage) UploadBlob(ctx context.Context, containerName, fullName string, content io.Reader) error {
	l.logger.Debug("Starting local UploadBlob operation", "container", containerName, "blob", fullName)

	target, err := l.blobPath(containerName, fullName)
	if err != nil {
		return err
	}
	if err := l.requireContainer(containerName); err != nil {
		return err
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return storage.Wrap(storage.ErrInvalidName, fmt.Errorf("blob %s collides with an existing folder", fullName))
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return mapFSError(fmt.Errorf("failed to create folder for %s: %w", fullName, err))
	}

	tmp, err := os.CreateTemp(dir, uploadTempPattern)
	if err != nil {
		return mapFSError(fmt.Errorf("failed to stage upload: %w", err))
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, storage.NewContextReader(ctx, storage.NewSourceReader(content)))
	closeErr := tmp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil {
		copyErr = os.Rename(tmpPath, target)
	}
	if copyErr != nil {
		os.Remove(tmpPath)
		if storage.IsContextError(copyErr) {
			return storage.Wrap(storage.ErrCancelled, copyErr)
		}
		return mapFSError(fmt.Errorf("failed to write blob %s: %w", fullName, copyErr))
	}
	return nil
}

func (l *LocalStorage) DownloadBlob(ctx context.Context, containerName, fullName string) (*storage.TempFile, error) {
	l.logger.Debug("Starting local DownloadBlob operation", "container", containerName, "blob", fullName)

	source, err := l.blobPath(containerName, fullName)
	if err != nil {
		return nil, err
	}
	if err := storage.CheckContext(ctx); err != nil {
		return nil, err
	}

	info, err := os.Stat(source)
	if err == nil && !info.Mode().IsRegular() {
		err = fs.ErrNotExist
	}
	if err != nil {
		return nil, mapFSError(fmt.Errorf("blob %s: %w", fullName, err))
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, mapFSError(fmt.Errorf("blob %s: %w", fullName, err))
	}
	defer f.Close()

	tmp, err := storage.CopyToTempFile(ctx, f)
	if err != nil {
		return nil, mapFSError(fmt.Errorf("failed to read blob %s: %w", fullName, err))
	}
	return tmp, nil
}

func (l *LocalStorage) DeleteBlob(ctx context.Context, containerName, fullName string) error {
	l.logger.Debug("Starting local DeleteBlob operation", "container", containerName, "blob", fullName)

	target, err := l.blobPath(containerName, fullName)
	if err != nil {
		return err
	}
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}

	info, err := os.Lstat(target)
	if err == nil && info.IsDir() {
		err = fs.ErrNotExist
	}
	if err != nil {
		return mapFSError(fmt.Errorf("blob %s: %w", fullName, err))
	}

	if err := os.Remove(target); err != nil {
		return mapFSError(fmt.Errorf("failed to delete blob %s: %w", fullName, err))
	}

	l.pruneEmptyParents(l.containerDir(containerName), filepath.Dir(target))
	return nil
}

// Removes now-empty folders between dir and the container root. Virtual folders only
// exist while something lives under them.
func (l *LocalStorage) pruneEmptyParents(containerDir, dir string) {
	for dir != containerDir && strings.HasPrefix(dir, containerDir) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Validates both names and maps the blob onto a path inside the container directory
func (l *LocalStorage) blobPath(containerName, fullName string) (string, error) {
	if err := containerNameRule.Validate(containerName); err != nil {
		return "", err
	}
	if err := storage.ValidateBlobName(fullName); err != nil {
		return "", err
	}
	if err := checkSegments(fullName); err != nil {
		return "", err
	}
	return filepath.Join(l.containerDir(containerName), filepath.FromSlash(fullName)), nil
}

// Rejects names that a directory tree cannot hold or that would escape the container
func checkSegments(name string) error {
	for _, segment := range strings.Split(name, storage.Delimiter) {
		if segment == "" || segment == "." || segment == ".." {
			return storage.Wrap(storage.ErrInvalidName, fmt.Errorf("name %q has an empty or relative segment", name))
		}
		if strings.HasPrefix(segment, uploadTempPrefix) {
			return storage.Wrap(storage.ErrInvalidName, fmt.Errorf("name %q uses a reserved prefix", name))
		}
	}
	return nil
}

func mapFSError(err error) error {
	switch {
	case storage.HasKind(err):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return storage.Wrap(storage.ErrNotFound, err)
	case errors.Is(err, fs.ErrExist):
		return storage.Wrap(storage.ErrAlreadyExists, err)
	case errors.Is(err, syscall.ENOSPC):
		return storage.Wrap(storage.ErrQuotaExceeded, err)
	case errors.Is(err, syscall.ENOTDIR):
		return storage.Wrap(storage.ErrInvalidName, err)
	default:
		return storage.Wrap(storage.ErrIO, err)
	}
}

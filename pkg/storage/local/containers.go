// File: pkg/storage/local/containers.go
package local

import (
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func (l *LocalStorage) ListContainers(ctx context.Context) ([]storage.ContainerDescriptor, error) {
	l.logger.Debug("Starting local ListContainers operation", "root", l.root)

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, mapFSError(fmt.Errorf("error reading root %s: %w", l.root, err))
	}

	var containers []storage.ContainerDescriptor
	for _, entry := range entries {
		if err := storage.CheckContext(ctx); err != nil {
			return nil, err
		}
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		desc := storage.ContainerDescriptor{
			Name:         entry.Name(),
			PublicAccess: l.isPublic(entry.Name()),
			Provider:     common.Local,
			UsageBytes:   -1,
		}
		if info, err := entry.Info(); err == nil {
			desc.CreatedAt = info.ModTime()
		}
		if usage, err := l.usage(ctx, entry.Name()); err != nil {
			l.logger.Warn("Could not compute container usage", "container", entry.Name(), "error", err)
		} else {
			desc.UsageBytes = usage
		}

		containers = append(containers, desc)
	}

	return containers, nil
}

func (l *LocalStorage) CreateContainer(ctx context.Context, name string, publicAccess bool) error {
	l.logger.Debug("Starting local CreateContainer operation", "container", name, "public", publicAccess)

	if err := containerNameRule.Validate(name); err != nil {
		return err
	}
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}

	if err := os.Mkdir(l.containerDir(name), 0755); err != nil {
		return mapFSError(fmt.Errorf("failed to create container %s: %w", name, err))
	}

	if publicAccess {
		if err := os.WriteFile(l.publicMarker(name), nil, 0644); err != nil {
			return mapFSError(fmt.Errorf("failed to mark container %s public: %w", name, err))
		}
	}
	return nil
}

func (l *LocalStorage) DeleteContainer(ctx context.Context, name string) error {
	l.logger.Debug("Starting local DeleteContainer operation", "container", name)

	if err := containerNameRule.Validate(name); err != nil {
		return err
	}
	if err := l.requireContainer(name); err != nil {
		return err
	}
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}

	if err := os.RemoveAll(l.containerDir(name)); err != nil {
		return mapFSError(fmt.Errorf("failed to delete container %s: %w", name, err))
	}
	if err := os.Remove(l.publicMarker(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("Could not remove public access marker", "container", name, "error", err)
	}
	return nil
}

func (l *LocalStorage) containerDir(name string) string {
	return filepath.Join(l.root, name)
}

func (l *LocalStorage) publicMarker(name string) string {
	return filepath.Join(l.root, publicMarkerPrefix+name)
}

func (l *LocalStorage) isPublic(name string) bool {
	_, err := os.Stat(l.publicMarker(name))
	return err == nil
}

// Returns ErrNotFound unless the container directory exists
func (l *LocalStorage) requireContainer(name string) error {
	info, err := os.Stat(l.containerDir(name))
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return storage.Wrap(storage.ErrNotFound, fmt.Errorf("container %s does not exist", name))
	}
	if err != nil {
		return mapFSError(err)
	}
	return nil
}

// Sums the sizes of all regular files in the container
func (l *LocalStorage) usage(ctx context.Context, name string) (int64, error) {
	var total int64
	err := filepath.WalkDir(l.containerDir(name), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), uploadTempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

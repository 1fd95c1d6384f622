// File: internal/service/storage_service.go
package service

import (
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Opens a fresh store for a provider tag. Implemented by factory.Factory.
type StoreFactory interface {
	GetStorageProvider(ctx context.Context, providerName string) (storage.ContainerStore, error)
}

// StorageService is the provider-agnostic entry point used by every front end. Each call
// opens its own store and closes it before returning.
type StorageService struct {
	providerFactory StoreFactory
	logger          *slog.Logger
}

func NewStorageService(providerFactory StoreFactory, logger *slog.Logger) *StorageService {
	return &StorageService{
		providerFactory: providerFactory,
		logger:          logger.With("service", "StorageService"),
	}
}

// --- Container Operations ---

func (s *StorageService) ListContainers(ctx context.Context, providerName string) ([]storage.ContainerDescriptor, error) {
	s.logger.Debug("Starting ListContainers operation", "provider", providerName)

	var containers []storage.ContainerDescriptor
	err := s.withStore(ctx, "list containers", providerName, "", "", func(store storage.ContainerStore) error {
		var err error
		containers, err = store.ListContainers(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortContainers(containers)
	return containers, nil
}

// Lists containers across providers concurrently. A failing provider is logged and
// skipped; the operation itself only fails when ctx is cancelled.
func (s *StorageService) ListAllContainers(ctx context.Context, providerNames []string) ([]storage.ContainerDescriptor, error) {
	if len(providerNames) == 0 {
		return nil, nil
	}

	s.logger.Debug("Starting ListAllContainers operation", "providers", providerNames)

	results := make([][]storage.ContainerDescriptor, len(providerNames))
	g, gctx := errgroup.WithContext(ctx)
	for i, pName := range providerNames {
		g.Go(func() error {
			containers, err := s.ListContainers(gctx, pName)
			if err != nil {
				if errors.Is(err, storage.ErrCancelled) {
					return err
				}
				s.logger.Error("Failed to list containers from provider", "provider", pName, "error", err)
				return nil
			}
			results[i] = containers
			s.logger.Debug("Successfully fetched containers", "provider", pName, "count", len(containers))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []storage.ContainerDescriptor
	for _, r := range results {
		all = append(all, r...)
	}
	sortContainers(all)
	return all, nil
}

func sortContainers(containers []storage.ContainerDescriptor) {
	slices.SortStableFunc(containers, func(a, b storage.ContainerDescriptor) int {
		return cmp.Or(
			strings.Compare(string(a.Provider), string(b.Provider)),
			strings.Compare(a.Name, b.Name),
		)
	})
}

func (s *StorageService) CreateContainer(ctx context.Context, providerName, containerName string, publicAccess bool) error {
	s.logger.Debug("Starting CreateContainer operation", "container", containerName, "provider", providerName, "public", publicAccess)

	return s.withStore(ctx, "create container", providerName, containerName, "", func(store storage.ContainerStore) error {
		return store.CreateContainer(ctx, containerName, publicAccess)
	})
}

// Deletion is eventual on some backends; the name may stay unavailable for a while
func (s *StorageService) DeleteContainer(ctx context.Context, providerName, containerName string) error {
	s.logger.Debug("Starting DeleteContainer operation", "container", containerName, "provider", providerName)

	return s.withStore(ctx, "delete container", providerName, containerName, "", func(store storage.ContainerStore) error {
		return store.DeleteContainer(ctx, containerName)
	})
}

// --- Blob Operations ---

// Lists one folder level. Folders and files come back separately, each sorted by name.
func (s *StorageService) ListEntries(ctx context.Context, providerName, containerName, path string) (storage.Listing, error) {
	s.logger.Debug("Starting ListEntries operation", "container", containerName, "provider", providerName, "path", path)

	var handles []storage.BlobHandle
	err := s.withStore(ctx, "list", providerName, containerName, path, func(store storage.ContainerStore) error {
		var err error
		handles, err = storage.AssemblerFor(store).Assemble(ctx, containerName, path, store.ListEntries(ctx, containerName, path))
		return err
	})
	if err != nil {
		return storage.Listing{}, err
	}
	return storage.NewListing(containerName, path, handles), nil
}

// Yields handles in backend order as pages arrive. The store stays open until the
// consumer stops iterating.
func (s *StorageService) StreamEntries(ctx context.Context, providerName, containerName, path string) iter.Seq2[storage.BlobHandle, error] {
	return func(yield func(storage.BlobHandle, error) bool) {
		s.logger.Debug("Starting StreamEntries operation", "container", containerName, "provider", providerName, "path", path)

		store, err := s.openStore(ctx, providerName)
		if err != nil {
			yield(storage.BlobHandle{}, s.opError("list", providerName, containerName, path, err))
			return
		}
		defer store.Close()

		handles := storage.AssemblerFor(store).Handles(ctx, containerName, path, store.ListEntries(ctx, containerName, path))
		for handle, err := range handles {
			if err != nil {
				yield(storage.BlobHandle{}, s.opError("list", providerName, containerName, path, err))
				return
			}
			if !yield(handle, nil) {
				return
			}
		}
	}
}

// Uploads content under fullName, replacing any existing blob
func (s *StorageService) UploadBlob(ctx context.Context, providerName, containerName, fullName string, content io.Reader) error {
	s.logger.Debug("Starting UploadBlob operation", "container", containerName, "provider", providerName, "blob", fullName)

	return s.withStore(ctx, "upload", providerName, containerName, fullName, func(store storage.ContainerStore) error {
		return store.UploadBlob(ctx, containerName, fullName, content)
	})
}

// Uploads a local file into folder, keeping the file's base name. Returns the blob name.
func (s *StorageService) UploadFile(ctx context.Context, providerName, containerName, folder, localPath string) (string, error) {
	fullName := storage.JoinPath(folder, filepath.Base(localPath))

	f, err := os.Open(localPath)
	if err != nil {
		return "", s.opError("upload", providerName, containerName, fullName, storage.Wrap(storage.ErrIO, err))
	}
	defer f.Close()

	if err := s.UploadBlob(ctx, providerName, containerName, fullName, f); err != nil {
		return "", err
	}
	return fullName, nil
}

// Downloads a blob into a temp file. The caller must Release it.
func (s *StorageService) DownloadBlob(ctx context.Context, providerName, containerName, fullName string) (*storage.TempFile, error) {
	s.logger.Debug("Starting DownloadBlob operation", "container", containerName, "provider", providerName, "blob", fullName)

	var tmp *storage.TempFile
	err := s.withStore(ctx, "download", providerName, containerName, fullName, func(store storage.ContainerStore) error {
		var err error
		tmp, err = store.DownloadBlob(ctx, containerName, fullName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tmp, nil
}

// Downloads a blob to dest and always releases the intermediate temp file. When dest is
// an existing directory the blob's base name is used inside it. Returns the written path.
func (s *StorageService) DownloadTo(ctx context.Context, providerName, containerName, fullName, dest string) (string, error) {
	tmp, err := s.DownloadBlob(ctx, providerName, containerName, fullName)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := tmp.Release(); err != nil {
			s.logger.Warn("Failed to remove temp file", "path", tmp.Path(), "error", err)
		}
	}()

	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, filepath.Base(filepath.FromSlash(fullName)))
	}

	if err := copyFile(tmp, dest); err != nil {
		return "", s.opError("download", providerName, containerName, fullName, err)
	}
	return dest, nil
}

func copyFile(tmp *storage.TempFile, dest string) error {
	src, err := tmp.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	return writeFile(dest, src)
}

// Writes src to dest. A failed write removes dest rather than leave a partial file.
func writeFile(dest string, src io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return storage.Wrap(storage.ErrIO, err)
	}
	_, err = io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return storage.Wrap(storage.ErrIO, err)
	}
	return nil
}

func (s *StorageService) DeleteBlob(ctx context.Context, providerName, containerName, fullName string) error {
	s.logger.Debug("Starting DeleteBlob operation", "container", containerName, "provider", providerName, "blob", fullName)

	return s.withStore(ctx, "delete", providerName, containerName, fullName, func(store storage.ContainerStore) error {
		return store.DeleteBlob(ctx, containerName, fullName)
	})
}

// --- Navigation ---

// Turns a handle URL back into the handle by listing its parent folder. Fails with
// ErrNotFound once the blob or folder is gone.
func (s *StorageService) ResolveHandle(ctx context.Context, providerName, rawURL string) (storage.BlobHandle, error) {
	s.logger.Debug("Starting ResolveHandle operation", "provider", providerName, "url", rawURL)

	var found storage.BlobHandle
	err := s.withStore(ctx, "resolve", providerName, "", rawURL, func(store storage.ContainerStore) error {
		containerName, fullName, err := store.ResolveURL(rawURL)
		if err != nil {
			return err
		}
		if fullName == "" {
			return storage.Wrap(storage.ErrInvalidName, fmt.Errorf("url %q names a container, not a blob or folder", rawURL))
		}

		parent := storage.ParentPath(fullName)
		handles := storage.AssemblerFor(store).Handles(ctx, containerName, parent, store.ListEntries(ctx, containerName, parent))
		for handle, err := range handles {
			if err != nil {
				return err
			}
			if handle.FullName() == fullName {
				found = handle
				return nil
			}
		}
		return storage.Wrap(storage.ErrNotFound, fmt.Errorf("%s/%s no longer exists", containerName, fullName))
	})
	if err != nil {
		return storage.BlobHandle{}, err
	}
	return found, nil
}

// Returns the folder above path ("" at the container root)
func (s *StorageService) ParentPath(path string) string {
	return storage.ParentPath(path)
}

// Opens a store, runs fn, and closes the store. Failures come back as *storage.OpError.
func (s *StorageService) withStore(ctx context.Context, op, providerName, containerName, path string, fn func(store storage.ContainerStore) error) error {
	store, err := s.openStore(ctx, providerName)
	if err != nil {
		return s.opError(op, providerName, containerName, path, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			s.logger.Warn("Failed to close provider client", "provider", providerName, "error", err)
		}
	}()

	if err := fn(store); err != nil {
		s.logger.Error("Operation failed", "op", op, "provider", providerName, "container", containerName, "path", path, "error", err)
		return s.opError(op, providerName, containerName, path, err)
	}
	return nil
}

func (s *StorageService) openStore(ctx context.Context, providerName string) (storage.ContainerStore, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return nil, err
	}
	store, err := s.providerFactory.GetStorageProvider(ctx, providerName)
	if err != nil {
		s.logger.Error("Failed to initialize provider", "provider", providerName, "error", err)
		return nil, fmt.Errorf("error initializing provider: %w", err)
	}
	return store, nil
}

func (s *StorageService) opError(op, providerName, containerName, path string, err error) error {
	var opErr *storage.OpError
	if errors.As(err, &opErr) {
		return err
	}
	if storage.IsContextError(err) {
		err = storage.Wrap(storage.ErrCancelled, err)
	}
	return storage.NewOpError(op, common.Provider(strings.ToLower(strings.TrimSpace(providerName))), containerName, path, err)
}

package service

import (
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"blobnav/pkg/storage/local"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackedStore wraps the local backend to observe Close calls and downloaded temp files
type trackedStore struct {
	*local.LocalStorage
	closed   *atomic.Int32
	lastTemp **storage.TempFile
}

func (s *trackedStore) Close() error {
	s.closed.Add(1)
	return s.LocalStorage.Close()
}

func (s *trackedStore) DownloadBlob(ctx context.Context, containerName, fullName string) (*storage.TempFile, error) {
	tmp, err := s.LocalStorage.DownloadBlob(ctx, containerName, fullName)
	*s.lastTemp = tmp
	return tmp, err
}

type fakeFactory struct {
	root     string
	opened   atomic.Int32
	closed   atomic.Int32
	lastTemp *storage.TempFile
}

func (f *fakeFactory) GetStorageProvider(ctx context.Context, providerName string) (storage.ContainerStore, error) {
	if providerName != "local" {
		return nil, storage.Wrap(storage.ErrBackendUnavailable, fmt.Errorf("provider %s is not configured", providerName))
	}
	store, err := local.NewLocalStorage(f.root, nil)
	if err != nil {
		return nil, err
	}
	f.opened.Add(1)
	return &trackedStore{LocalStorage: store, closed: &f.closed, lastTemp: &f.lastTemp}, nil
}

func newTestService(t *testing.T) (*StorageService, *fakeFactory) {
	t.Helper()
	f := &fakeFactory{root: t.TempDir()}
	return NewStorageService(f, slog.New(slog.DiscardHandler)), f
}

func seed(t *testing.T, svc *StorageService, containerName string, blobs map[string]string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.CreateContainer(ctx, "local", containerName, false))
	for name, content := range blobs {
		require.NoError(t, svc.UploadBlob(ctx, "local", containerName, name, strings.NewReader(content)))
	}
}

func TestListEntriesReturnsSortedListing(t *testing.T) {
	svc, f := newTestService(t)
	seed(t, svc, "docs", map[string]string{
		"b.txt":       "bb",
		"a.txt":       "0123456789",
		"B.txt":       "B",
		"sub/x.txt":   "x",
		"alpha/y.txt": "y",
	})

	listing, err := svc.ListEntries(context.Background(), "local", "docs", "")
	require.NoError(t, err)

	var folders, files []string
	for _, h := range listing.Folders {
		folders = append(folders, h.Name())
		assert.False(t, h.IsFile)
		assert.Equal(t, int64(0), h.SizeBytes)
	}
	for _, h := range listing.Files {
		files = append(files, h.Name())
		assert.True(t, h.IsFile)
	}
	assert.Equal(t, []string{"alpha", "sub"}, folders)
	assert.Equal(t, []string{"B.txt", "a.txt", "b.txt"}, files)
	assert.Equal(t, int64(10), listing.Files[1].SizeBytes)

	assert.Equal(t, f.opened.Load(), f.closed.Load())
}

func TestStreamEntriesStopsEarlyAndCloses(t *testing.T) {
	svc, f := newTestService(t)
	seed(t, svc, "docs", map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})

	count := 0
	for h, err := range svc.StreamEntries(context.Background(), "local", "docs", "") {
		require.NoError(t, err)
		assert.True(t, h.IsFile)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
	assert.Equal(t, f.opened.Load(), f.closed.Load())
}

func TestStreamEntriesReportsProviderFailure(t *testing.T) {
	svc, _ := newTestService(t)

	var errs []error
	for _, err := range svc.StreamEntries(context.Background(), "gcp", "docs", "") {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], storage.ErrBackendUnavailable)
}

func TestUploadFileThenList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	seed(t, svc, "docs", nil)

	localPath := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(localPath, []byte("a,b,c\n"), 0644))

	fullName, err := svc.UploadFile(ctx, "local", "docs", "reports", localPath)
	require.NoError(t, err)
	assert.Equal(t, "reports/report.csv", fullName)

	listing, err := svc.ListEntries(ctx, "local", "docs", "reports/")
	require.NoError(t, err)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "report.csv", listing.Files[0].Name())
	assert.Equal(t, int64(6), listing.Files[0].SizeBytes)

	_, err = svc.UploadFile(ctx, "local", "docs", "", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, storage.ErrIO)
}

func TestDownloadToReleasesTempFile(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService(t)
	seed(t, svc, "docs", map[string]string{"sub/data.bin": "payload"})

	destDir := t.TempDir()
	written, err := svc.DownloadTo(ctx, "local", "docs", "sub/data.bin", destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "data.bin"), written)

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NotNil(t, f.lastTemp)
	_, err = os.Stat(f.lastTemp.Path())
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	// A failed copy still removes the temp file
	_, err = svc.DownloadTo(ctx, "local", "docs", "sub/data.bin", filepath.Join(destDir, "missing-dir", "out.bin"))
	assert.ErrorIs(t, err, storage.ErrIO)
	_, err = os.Stat(f.lastTemp.Path())
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("stream reset")
}

func TestWriteFileRemovesPartialDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")

	err := writeFile(dest, io.MultiReader(strings.NewReader("partial"), brokenReader{}))
	assert.ErrorIs(t, err, storage.ErrIO)
	_, statErr := os.Stat(dest)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))

	require.NoError(t, writeFile(dest, strings.NewReader("whole")))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "whole", string(data))
}

func TestDeleteMissingBlobIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	seed(t, svc, "docs", map[string]string{"a.txt": "a"})

	err := svc.DeleteBlob(ctx, "local", "docs", "nope.txt")
	require.ErrorIs(t, err, storage.ErrNotFound)

	var opErr *storage.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "delete", opErr.Op)
	assert.Equal(t, common.Local, opErr.Provider)
	assert.Equal(t, "docs", opErr.Container)
	assert.Equal(t, "nope.txt", opErr.Path)

	listing, err := svc.ListEntries(ctx, "local", "docs", "")
	require.NoError(t, err)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "a.txt", listing.Files[0].Name())
}

func TestResolveHandleNavigation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	seed(t, svc, "docs", map[string]string{"sub/inner/x.txt": "xyz"})

	root, err := svc.ListEntries(ctx, "local", "docs", "")
	require.NoError(t, err)
	require.Len(t, root.Folders, 1)

	folder, err := svc.ResolveHandle(ctx, "local", root.Folders[0].URL)
	require.NoError(t, err)
	assert.True(t, folder.Equal(root.Folders[0]))
	assert.Equal(t, "sub/", folder.FullName())

	inner, err := svc.ListEntries(ctx, "local", "docs", folder.FullName())
	require.NoError(t, err)
	require.Len(t, inner.Folders, 1)
	leaf, err := svc.ListEntries(ctx, "local", "docs", inner.Folders[0].FullName())
	require.NoError(t, err)
	require.Len(t, leaf.Files, 1)

	file, err := svc.ResolveHandle(ctx, "local", leaf.Files[0].URL)
	require.NoError(t, err)
	assert.Equal(t, int64(3), file.SizeBytes)
	assert.Equal(t, "sub/inner/", file.Path())
	assert.Equal(t, "sub/", svc.ParentPath(file.Path()))
	assert.Equal(t, "", svc.ParentPath(svc.ParentPath(file.Path())))

	require.NoError(t, svc.DeleteBlob(ctx, "local", "docs", file.FullName()))
	_, err = svc.ResolveHandle(ctx, "local", leaf.Files[0].URL)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListAllContainersSkipsFailingProviders(t *testing.T) {
	svc, _ := newTestService(t)
	seed(t, svc, "media", nil)
	seed(t, svc, "docs", nil)

	containers, err := svc.ListAllContainers(context.Background(), []string{"aws", "local", "gcp"})
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "docs", containers[0].Name)
	assert.Equal(t, "media", containers[1].Name)

	none, err := svc.ListAllContainers(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestContainerLifecycleThroughService(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService(t)

	require.NoError(t, svc.CreateContainer(ctx, "local", "docs", true))
	assert.ErrorIs(t, svc.CreateContainer(ctx, "local", "docs", false), storage.ErrAlreadyExists)

	containers, err := svc.ListContainers(ctx, "local")
	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.True(t, containers[0].PublicAccess)

	require.NoError(t, svc.DeleteContainer(ctx, "local", "docs"))
	assert.ErrorIs(t, svc.DeleteContainer(ctx, "local", "docs"), storage.ErrNotFound)
	assert.Equal(t, f.opened.Load(), f.closed.Load())
}

func TestCancelledContextFailsFast(t *testing.T) {
	svc, f := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ListEntries(ctx, "local", "docs", "")
	assert.ErrorIs(t, err, storage.ErrCancelled)
	assert.Equal(t, int32(0), f.opened.Load())
}

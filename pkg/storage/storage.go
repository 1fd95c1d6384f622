// File: pkg/storage/storage.go
package storage

import (
	"blobnav/pkg/common"
	"context"
	"io"
	"iter"
	"time"
)

// ContainerStore is the per-backend adapter contract. Every operation is independent;
// nothing is shared between calls beyond the underlying SDK client.
type ContainerStore interface {
	ProviderName() common.Provider

	// Reports whether the store talks to a local/dev emulator rather than the real cloud service
	IsEmulated() bool

	ListContainers(ctx context.Context) ([]ContainerDescriptor, error)
	CreateContainer(ctx context.Context, name string, publicAccess bool) error
	// Deletion is backend-eventual: the name may stay unavailable for a while after this returns
	DeleteContainer(ctx context.Context, name string) error

	// Streams entries exactly one level below path using the "/" delimiter. The sequence is
	// lazy; pages are fetched as the consumer pulls and fetching stops when it breaks.
	ListEntries(ctx context.Context, containerName, path string) iter.Seq2[RawEntry, error]

	// Overwrites any existing blob with the same name
	UploadBlob(ctx context.Context, containerName, fullName string, content io.Reader) error
	// Materializes the blob into a temp file owned by the caller, who must Release it
	DownloadBlob(ctx context.Context, containerName, fullName string) (*TempFile, error)
	DeleteBlob(ctx context.Context, containerName, fullName string) error

	// Maps a handle URL produced by this store back to its container and full name
	ResolveURL(rawURL string) (containerName, fullName string, err error)

	Close() error
}

// A single item of a one-level hierarchy enumeration, as reported by the backend
type RawEntry struct {
	// Full blob name, or the prefix (ending with the delimiter) for virtual folders
	Name     string
	IsPrefix bool
	// Nil when the backend did not report a length (always nil for prefixes)
	ContentLength *int64
	// Backend-resolved absolute URL for the blob or prefix
	URL string
}

type ContainerDescriptor struct {
	Name         string
	PublicAccess bool
	Provider     common.Provider
	CreatedAt    time.Time
	// A value of -1 indicates that the usage is unknown or could not be retrieved
	UsageBytes int64
}

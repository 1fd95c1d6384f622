// File: pkg/storage/model.go
package storage

import (
	"blobnav/pkg/common"
	"fmt"
	"strings"
)

// BlobHandle is a single listed entry, either a blob (file) or a synthetic folder.
// Handles are values: two handles are the same entry iff their URLs are equal.
type BlobHandle struct {
	URL        string
	SizeBytes  int64
	Provider   common.Provider
	IsEmulated bool
	IsFile     bool

	container string
	fullName  string
}

// Creates a handle for a blob. Trailing separators are trimmed from the name so that a
// file's full name never ends with the delimiter.
func NewFileHandle(provider common.Provider, emulated bool, url, containerName, fullName string, size int64) BlobHandle {
	if size < 0 {
		size = 0
	}
	return BlobHandle{
		URL:        url,
		SizeBytes:  size,
		Provider:   provider,
		IsEmulated: emulated,
		IsFile:     true,
		container:  containerName,
		fullName:   strings.TrimRight(fullName, Delimiter),
	}
}

// Creates a handle for a virtual folder. Folders always have size 0 and a full name
// ending with the delimiter.
func NewFolderHandle(provider common.Provider, emulated bool, url, containerName, prefix string) BlobHandle {
	return BlobHandle{
		URL:        url,
		SizeBytes:  0,
		Provider:   provider,
		IsEmulated: emulated,
		IsFile:     false,
		container:  containerName,
		fullName:   ToQueryPrefix(prefix),
	}
}

func (h BlobHandle) Container() string {
	return h.container
}

// Path of the entry relative to its container
func (h BlobHandle) FullName() string {
	return h.fullName
}

// Last path segment, without the trailing delimiter for folders
func (h BlobHandle) Name() string {
	trimmed := strings.TrimSuffix(h.fullName, Delimiter)
	if idx := strings.LastIndex(trimmed, Delimiter); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// Parent folder path: "" at the container root, otherwise ending with the delimiter
func (h BlobHandle) Path() string {
	return ParentPath(h.fullName)
}

func (h BlobHandle) Equal(other BlobHandle) bool {
	return h.URL == other.URL
}

func (h BlobHandle) String() string {
	kind := "file"
	if !h.IsFile {
		kind = "folder"
	}
	return fmt.Sprintf("%s %s/%s (%s)", kind, h.container, h.fullName, h.Provider)
}

func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "N/A"
	}
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	sizes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	if exp >= len(sizes) {
		return fmt.Sprintf("%d B", bytes) // Fallback if extremely large
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), sizes[exp])
}

// File: pkg/storage/assembler.go
package storage

import (
	"blobnav/pkg/common"
	"context"
	"iter"
	"slices"
	"strings"
)

// Assembler turns a backend's raw one-level enumeration into BlobHandles
type Assembler struct {
	provider common.Provider
	emulated bool
}

func NewAssembler(provider common.Provider, emulated bool) *Assembler {
	return &Assembler{provider: provider, emulated: emulated}
}

// Creates an assembler matching the store's provider and emulator mode
func AssemblerFor(store ContainerStore) *Assembler {
	return NewAssembler(store.ProviderName(), store.IsEmulated())
}

// Lazily yields deduplicated handles in enumeration order. Iteration stops at the first
// error (which is yielded once) or when the consumer breaks.
func (a *Assembler) Handles(ctx context.Context, containerName, path string, entries iter.Seq2[RawEntry, error]) iter.Seq2[BlobHandle, error] {
	queryPrefix := ToQueryPrefix(path)

	return func(yield func(BlobHandle, error) bool) {
		// The same virtual prefix can show up on more than one page
		seen := make(map[string]struct{})

		for raw, err := range entries {
			if err == nil {
				err = CheckContext(ctx)
			}
			if err != nil {
				yield(BlobHandle{}, err)
				return
			}

			handle, ok := a.toHandle(containerName, queryPrefix, raw)
			if !ok {
				continue
			}
			if _, dup := seen[handle.URL]; dup {
				continue
			}
			seen[handle.URL] = struct{}{}

			if !yield(handle, nil) {
				return
			}
		}
	}
}

// Accumulates the whole enumeration. On any failure the partial result is discarded and
// only the error is returned.
func (a *Assembler) Assemble(ctx context.Context, containerName, path string, entries iter.Seq2[RawEntry, error]) ([]BlobHandle, error) {
	var handles []BlobHandle
	for handle, err := range a.Handles(ctx, containerName, path, entries) {
		if err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

func (a *Assembler) toHandle(containerName, queryPrefix string, raw RawEntry) (BlobHandle, bool) {
	switch Classify(raw) {
	case KindPrefix:
		return NewFolderHandle(a.provider, a.emulated, raw.URL, containerName, raw.Name), true
	default:
		// Zero-length "directory marker" objects named exactly like the listed folder
		// are not entries of that folder
		if raw.Name == queryPrefix || strings.TrimRight(raw.Name, Delimiter) == "" {
			return BlobHandle{}, false
		}
		var size int64
		if raw.ContentLength != nil {
			size = *raw.ContentLength
		}
		return NewFileHandle(a.provider, a.emulated, raw.URL, containerName, raw.Name, size), true
	}
}

// Listing is a folder's content split into folders and files, each ordered by name
type Listing struct {
	Container string
	Path      string
	Folders   []BlobHandle
	Files     []BlobHandle
}

// Splits handles into folders and files and sorts each by Name using plain,
// case-sensitive string order
func NewListing(containerName, path string, handles []BlobHandle) Listing {
	listing := Listing{
		Container: containerName,
		Path:      ToQueryPrefix(path),
		Folders:   []BlobHandle{},
		Files:     []BlobHandle{},
	}
	for _, h := range handles {
		if h.IsFile {
			listing.Files = append(listing.Files, h)
		} else {
			listing.Folders = append(listing.Folders, h)
		}
	}

	byName := func(x, y BlobHandle) int {
		return strings.Compare(x.Name(), y.Name())
	}
	slices.SortStableFunc(listing.Folders, byName)
	slices.SortStableFunc(listing.Files, byName)
	return listing
}

func (l Listing) Count() int {
	return len(l.Folders) + len(l.Files)
}

// Folders first, then files
func (l Listing) All() []BlobHandle {
	all := make([]BlobHandle, 0, l.Count())
	all = append(all, l.Folders...)
	return append(all, l.Files...)
}

// File: pkg/storage/path.go
package storage

import "strings"

// Delimiter separates virtual folders in blob names. Listings always use it as a one-level
// hierarchy delimiter, never a flat recursive enumeration.
const Delimiter = "/"

type EntryKind int

const (
	KindBlob EntryKind = iota
	KindPrefix
)

func (k EntryKind) String() string {
	if k == KindPrefix {
		return "prefix"
	}
	return "blob"
}

// Converts a user-supplied folder path into the backend query prefix.
// An empty path stays empty (root listing); anything else ends with exactly one delimiter.
func ToQueryPrefix(path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(path, Delimiter) + Delimiter
}

// Trusts the backend's own hierarchy distinction. Blob names may legitimately contain
// the delimiter, so the name string is never inspected here.
func Classify(raw RawEntry) EntryKind {
	if raw.IsPrefix {
		return KindPrefix
	}
	return KindBlob
}

// Returns the folder one level above path: "a/b/" -> "a/", "a/b.txt" -> "a/", "a/" -> ""
func ParentPath(path string) string {
	trimmed := strings.TrimRight(path, Delimiter)
	idx := strings.LastIndex(trimmed, Delimiter)
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}

// Builds the blob name for a file placed inside folder
func JoinPath(folder, name string) string {
	name = strings.TrimLeft(name, Delimiter)
	if folder == "" {
		return name
	}
	return ToQueryPrefix(folder) + name
}

// File: pkg/storage/names.go
package storage

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const maxBlobNameLength = 1024

// NameRule describes a backend's container naming constraints
type NameRule struct {
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	// Human-readable summary used in error messages
	Description string
	// Extra check run after the pattern matched (e.g. no consecutive hyphens)
	Check func(name string) bool
	// Names the service defines itself, accepted without the checks above
	Reserved []string
}

func (r NameRule) Validate(name string) error {
	if slices.Contains(r.Reserved, name) {
		return nil
	}
	if len(name) < r.MinLength || len(name) > r.MaxLength {
		return fmt.Errorf("%w: container name %q must be %d-%d characters long", ErrInvalidName, name, r.MinLength, r.MaxLength)
	}
	if r.Pattern != nil && !r.Pattern.MatchString(name) {
		return fmt.Errorf("%w: container name %q: %s", ErrInvalidName, name, r.Description)
	}
	if r.Check != nil && !r.Check(name) {
		return fmt.Errorf("%w: container name %q: %s", ErrInvalidName, name, r.Description)
	}
	return nil
}

// Validates a blob name for upload, download, and delete
func ValidateBlobName(fullName string) error {
	switch {
	case fullName == "":
		return fmt.Errorf("%w: blob name cannot be empty", ErrInvalidName)
	case len(fullName) > maxBlobNameLength:
		return fmt.Errorf("%w: blob name exceeds %d characters", ErrInvalidName, maxBlobNameLength)
	case strings.HasSuffix(fullName, Delimiter):
		return fmt.Errorf("%w: blob name %q cannot end with %q", ErrInvalidName, fullName, Delimiter)
	}
	return nil
}

// File: pkg/storage/errors.go
package storage

import (
	"blobnav/pkg/common"
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failure kinds shared by every backend. Backends wrap their SDK errors with one of these
// so callers can branch with errors.Is regardless of provider.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidName        = errors.New("invalid name")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrIO                 = errors.New("local I/O failure")
	ErrCancelled          = errors.New("operation cancelled")
)

var kinds = []error{ErrNotFound, ErrAlreadyExists, ErrInvalidName, ErrBackendUnavailable, ErrQuotaExceeded, ErrIO, ErrCancelled}

// Reports whether err is already tagged with one of the failure kinds
func HasKind(err error) bool {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// OpError carries enough context (operation, backend, container, path) for a presentation
// layer to build a message. It unwraps to the failure kind and the underlying cause.
type OpError struct {
	Op        string
	Provider  common.Provider
	Container string
	Path      string
	Err       error
}

func (e *OpError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Provider != "" {
		sb.WriteString(" on ")
		sb.WriteString(string(e.Provider))
	}
	if e.Container != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Container)
		if e.Path != "" {
			sb.WriteString("/")
			sb.WriteString(e.Path)
		}
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Wraps err in an OpError. A nil err returns nil.
func NewOpError(op string, provider common.Provider, containerName, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Provider: provider, Container: containerName, Path: path, Err: err}
}

// Tags cause with a failure kind while keeping the cause reachable through errors.Is/As
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Returns an ErrCancelled error if ctx is done, nil otherwise
func CheckContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return Wrap(ErrCancelled, err)
	}
	return nil
}

// Reports whether err stems from context cancellation or deadline expiry
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

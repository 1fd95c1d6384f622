// File: pkg/storage/gcp/errors.go
package gcp

import (
	"blobnav/pkg/storage"
	"errors"
	"net/http"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

func mapError(err error) error {
	if err == nil || storage.HasKind(err) {
		return err
	}
	if storage.IsContextError(err) {
		return storage.Wrap(storage.ErrCancelled, err)
	}
	if errors.Is(err, gcpstorage.ErrBucketNotExist) || errors.Is(err, gcpstorage.ErrObjectNotExist) {
		return storage.Wrap(storage.ErrNotFound, err)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusNotFound:
			return storage.Wrap(storage.ErrNotFound, err)
		case http.StatusConflict:
			return storage.Wrap(storage.ErrAlreadyExists, err)
		case http.StatusBadRequest:
			return storage.Wrap(storage.ErrInvalidName, err)
		case http.StatusRequestEntityTooLarge, http.StatusInsufficientStorage:
			return storage.Wrap(storage.ErrQuotaExceeded, err)
		case http.StatusTooManyRequests:
			// Project-level rate and bucket-count quotas
			return storage.Wrap(storage.ErrQuotaExceeded, err)
		}
	}

	return storage.Wrap(storage.ErrBackendUnavailable, err)
}

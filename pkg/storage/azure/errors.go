// File: pkg/storage/azure/errors.go
package azure

import (
	"blobnav/pkg/storage"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Maps an SDK error onto the shared failure kinds
func mapError(err error) error {
	if err == nil || storage.HasKind(err) {
		return err
	}
	if storage.IsContextError(err) {
		return storage.Wrap(storage.ErrCancelled, err)
	}

	switch {
	case bloberror.HasCode(err, bloberror.ContainerNotFound, bloberror.BlobNotFound, bloberror.ResourceNotFound):
		return storage.Wrap(storage.ErrNotFound, err)
	case bloberror.HasCode(err, bloberror.ContainerAlreadyExists, bloberror.ContainerBeingDeleted, bloberror.BlobAlreadyExists):
		return storage.Wrap(storage.ErrAlreadyExists, err)
	case bloberror.HasCode(err, bloberror.InvalidResourceName, bloberror.OutOfRangeInput, bloberror.InvalidURI):
		return storage.Wrap(storage.ErrInvalidName, err)
	}

	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		// No response at all: DNS, refused connection, TLS
		return storage.Wrap(storage.ErrBackendUnavailable, err)
	}

	switch respErr.StatusCode {
	case http.StatusNotFound:
		return storage.Wrap(storage.ErrNotFound, err)
	case http.StatusConflict:
		return storage.Wrap(storage.ErrAlreadyExists, err)
	case http.StatusBadRequest:
		return storage.Wrap(storage.ErrInvalidName, err)
	case http.StatusRequestEntityTooLarge, http.StatusInsufficientStorage:
		return storage.Wrap(storage.ErrQuotaExceeded, err)
	default:
		return storage.Wrap(storage.ErrBackendUnavailable, err)
	}
}

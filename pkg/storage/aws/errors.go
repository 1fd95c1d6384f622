// File: pkg/storage/aws/errors.go
package aws

import (
	"blobnav/pkg/storage"
	"errors"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

func mapError(err error) error {
	if err == nil || storage.HasKind(err) {
		return err
	}
	if storage.IsContextError(err) {
		return storage.Wrap(storage.ErrCancelled, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return storage.Wrap(storage.ErrNotFound, err)
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return storage.Wrap(storage.ErrAlreadyExists, err)
		case "InvalidBucketName", "KeyTooLongError", "InvalidArgument":
			return storage.Wrap(storage.ErrInvalidName, err)
		case "EntityTooLarge", "QuotaExceeded", "TooManyBuckets":
			return storage.Wrap(storage.ErrQuotaExceeded, err)
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return storage.Wrap(storage.ErrNotFound, err)
		case http.StatusConflict:
			return storage.Wrap(storage.ErrAlreadyExists, err)
		case http.StatusBadRequest:
			return storage.Wrap(storage.ErrInvalidName, err)
		}
	}

	return storage.Wrap(storage.ErrBackendUnavailable, err)
}

// File: pkg/storage/gcp/objects.go
package gcp

import (
	"blobnav/pkg/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

func (g *GCPStorage) ListEntries(ctx context.Context, bucketName, path string) iter.Seq2[storage.RawEntry, error] {
	return func(yield func(storage.RawEntry, error) bool) {
		g.logger.Debug("Starting GCP ListObjects operation (delimited)", "bucket", bucketName, "path", path)

		if err := bucketNameRule.Validate(bucketName); err != nil {
			yield(storage.RawEntry{}, err)
			return
		}

		query := &gcpstorage.Query{
			Prefix:    storage.ToQueryPrefix(path),
			Delimiter: storage.Delimiter,
		}
		if err := query.SetAttrSelection([]string{"Name", "Size"}); err != nil {
			yield(storage.RawEntry{}, fmt.Errorf("invalid attribute selection: %w", err))
			return
		}

		it := g.client.Bucket(bucketName).Objects(ctx, query)
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield(storage.RawEntry{}, mapError(fmt.Errorf("error iterating objects: %w", err)))
				return
			}

			var raw storage.RawEntry
			// If attrs.Prefix is set, it's a common prefix (directory)
			if attrs.Prefix != "" {
				raw = storage.RawEntry{
					Name:     attrs.Prefix,
					IsPrefix: true,
					URL:      g.objectURL(bucketName, attrs.Prefix),
				}
			} else {
				size := attrs.Size
				raw = storage.RawEntry{
					Name:          attrs.Name,
					ContentLength: &size,
					URL:           g.objectURL(bucketName, attrs.Name),
				}
			}

			if !yield(raw, nil) {
				return
			}
		}
	}
}

func (g *GCPStorage) UploadBlob(ctx context.Context, bucketName, objectName string, content io.Reader) error {
	g.logger.Debug("Starting GCP UploadObject operation", "bucket", bucketName, "object", objectName)

	if err := g.validate(bucketName, objectName); err != nil {
		return err
	}

	// Cancelling the writer's context is the only way to abandon an upload without committing it
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(bucketName).Object(objectName).NewWriter(wctx)
	if _, err := io.Copy(w, storage.NewSourceReader(content)); err != nil {
		cancel()
		w.Close()
		return mapError(fmt.Errorf("failed to upload object: %w", err))
	}
	if err := w.Close(); err != nil {
		return mapError(fmt.Errorf("failed to upload object: %w", err))
	}
	return nil
}

func (g *GCPStorage) DownloadBlob(ctx context.Context, bucketName, objectName string) (*storage.TempFile, error) {
	g.logger.Debug("Starting GCP DownloadObject operation", "bucket", bucketName, "object", objectName)

	if err := g.validate(bucketName, objectName); err != nil {
		return nil, err
	}

	r, err := g.client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to open object: %w", err))
	}
	defer r.Close()

	tmp, err := storage.CopyToTempFile(ctx, r)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to read object: %w", err))
	}
	return tmp, nil
}

func (g *GCPStorage) DeleteBlob(ctx context.Context, bucketName, objectName string) error {
	g.logger.Debug("Starting GCP DeleteObject operation", "bucket", bucketName, "object", objectName)

	if err := g.validate(bucketName, objectName); err != nil {
		return err
	}

	if err := g.client.Bucket(bucketName).Object(objectName).Delete(ctx); err != nil {
		return mapError(fmt.Errorf("failed to delete object: %w", err))
	}
	return nil
}

func (g *GCPStorage) validate(bucketName, objectName string) error {
	if err := bucketNameRule.Validate(bucketName); err != nil {
		return err
	}
	return storage.ValidateBlobName(objectName)
}

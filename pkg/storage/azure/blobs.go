// File: pkg/storage/azure/blobs.go
package azure

import (
	"blobnav/pkg/storage"
	"context"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

func (a *AzureStorage) ListEntries(ctx context.Context, containerName, path string) iter.Seq2[storage.RawEntry, error] {
	return func(yield func(storage.RawEntry, error) bool) {
		a.logger.Debug("Starting Azure ListEntries operation (hierarchical)", "container", containerName, "path", path)

		if err := containerNameRule.Validate(containerName); err != nil {
			yield(storage.RawEntry{}, err)
			return
		}

		prefix := storage.ToQueryPrefix(path)
		containerClient := a.client.ServiceClient().NewContainerClient(containerName)
		pager := containerClient.NewListBlobsHierarchyPager(storage.Delimiter, &container.ListBlobsHierarchyOptions{
			Prefix: to.Ptr(prefix),
		})

		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield(storage.RawEntry{}, mapError(fmt.Errorf("error listing blobs: %w", err)))
				return
			}
			if page.Segment == nil {
				continue
			}

			for _, item := range page.Segment.BlobItems {
				if item == nil || item.Name == nil {
					continue
				}
				raw := storage.RawEntry{
					Name: *item.Name,
					URL:  a.blobURL(containerName, *item.Name),
				}
				if item.Properties != nil {
					raw.ContentLength = item.Properties.ContentLength
				}
				if !yield(raw, nil) {
					return
				}
			}

			for _, p := range page.Segment.BlobPrefixes {
				if p == nil || p.Name == nil {
					continue
				}
				raw := storage.RawEntry{
					Name:     *p.Name,
					IsPrefix: true,
					URL:      a.blobURL(containerName, *p.Name),
				}
				if !yield(raw, nil) {
					return
				}
			}
		}
	}
}

func (a *AzureStorage) UploadBlob(ctx context.Context, containerName, fullName string, content io.Reader) error {
	a.logger.Debug("Starting Azure UploadBlob operation", "container", containerName, "blob", fullName)

	if err := a.validate(containerName, fullName); err != nil {
		return err
	}

	if _, err := a.client.UploadStream(ctx, containerName, fullName, storage.NewSourceReader(content), nil); err != nil {
		return mapError(fmt.Errorf("failed to upload blob: %w", err))
	}
	return nil
}

func (a *AzureStorage) DownloadBlob(ctx context.Context, containerName, fullName string) (*storage.TempFile, error) {
	a.logger.Debug("Starting Azure DownloadBlob operation", "container", containerName, "blob", fullName)

	if err := a.validate(containerName, fullName); err != nil {
		return nil, err
	}

	return storage.WriteTempFile(func(f *os.File) error {
		if _, err := a.client.DownloadFile(ctx, containerName, fullName, f, nil); err != nil {
			return mapError(fmt.Errorf("failed to download blob: %w", err))
		}
		return nil
	})
}

func (a *AzureStorage) DeleteBlob(ctx context.Context, containerName, fullName string) error {
	a.logger.Debug("Starting Azure DeleteBlob operation", "container", containerName, "blob", fullName)

	if err := a.validate(containerName, fullName); err != nil {
		return err
	}

	if _, err := a.client.DeleteBlob(ctx, containerName, fullName, nil); err != nil {
		return mapError(fmt.Errorf("failed to delete blob: %w", err))
	}
	return nil
}

func (a *AzureStorage) validate(containerName, fullName string) error {
	if err := containerNameRule.Validate(containerName); err != nil {
		return err
	}
	return storage.ValidateBlobName(fullName)
}

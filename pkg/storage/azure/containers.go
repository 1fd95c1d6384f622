// File: pkg/storage/azure/containers.go
package azure

import (
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

func (a *AzureStorage) ListContainers(ctx context.Context) ([]storage.ContainerDescriptor, error) {
	a.logger.Debug("Starting Azure ListContainers operation")
	var containers []storage.ContainerDescriptor

	pager := a.client.NewListContainersPager(&azblob.ListContainersOptions{})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(fmt.Errorf("error listing containers: %w", err))
		}

		for _, item := range page.ContainerItems {
			if item == nil || item.Name == nil {
				continue
			}
			desc := storage.ContainerDescriptor{
				Name:       *item.Name,
				Provider:   common.Azure,
				UsageBytes: -1,
			}
			if props := item.Properties; props != nil {
				desc.PublicAccess = props.PublicAccess != nil
				if props.LastModified != nil {
					desc.CreatedAt = *props.LastModified
				}
			}
			containers = append(containers, desc)
		}
	}

	return containers, nil
}

func (a *AzureStorage) CreateContainer(ctx context.Context, name string, publicAccess bool) error {
	a.logger.Debug("Starting Azure CreateContainer operation", "container", name, "public", publicAccess)

	if err := lifecycleNameRule.Validate(name); err != nil {
		return err
	}

	opts := &azblob.CreateContainerOptions{}
	if publicAccess {
		opts.Access = to.Ptr(container.PublicAccessTypeContainer)
	}

	if _, err := a.client.CreateContainer(ctx, name, opts); err != nil {
		return mapError(fmt.Errorf("failed to create container: %w", err))
	}
	return nil
}

func (a *AzureStorage) DeleteContainer(ctx context.Context, name string) error {
	a.logger.Debug("Starting Azure DeleteContainer operation", "container", name)

	if err := lifecycleNameRule.Validate(name); err != nil {
		return err
	}

	if _, err := a.client.DeleteContainer(ctx, name, nil); err != nil {
		return mapError(fmt.Errorf("failed to delete container: %w", err))
	}
	return nil
}

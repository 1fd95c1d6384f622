// File: pkg/storage/gcp/buckets.go
package gcp

import (
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

func (g *GCPStorage) ListContainers(ctx context.Context) ([]storage.ContainerDescriptor, error) {
	g.logger.Debug("Starting GCP ListBuckets operation")
	var buckets []storage.ContainerDescriptor

	// 1. Usage metrics for all buckets in a single Monitoring query
	usageMap := g.bucketUsages(ctx)

	// 2. Bucket metadata, paginated by the SDK
	it := g.client.Buckets(ctx, g.projectID)
	for {
		bucketAttrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError(fmt.Errorf("error listing buckets metadata: %w", err))
		}

		usage := int64(-1)
		if u, ok := usageMap[bucketAttrs.Name]; ok {
			usage = u
		}

		buckets = append(buckets, storage.ContainerDescriptor{
			Name:         bucketAttrs.Name,
			PublicAccess: hasAllUsersRule(bucketAttrs.ACL),
			Provider:     common.GCP,
			CreatedAt:    bucketAttrs.Created,
			UsageBytes:   usage,
		})
	}

	return buckets, nil
}

// Usage is informational: failures are logged and every bucket reports unknown usage
func (g *GCPStorage) bucketUsages(ctx context.Context) map[string]int64 {
	if g.emulated {
		return nil
	}

	usageMap, err := g.getAllBucketUsages(ctx)
	if err != nil {
		logLevel := slog.LevelWarn
		logMsg := "Failed to retrieve usage metrics, usage will be reported as N/A"
		if errors.Is(err, ErrMetricsNotFound) {
			logLevel = slog.LevelInfo
			logMsg = "Usage metrics not yet available, usage will be reported as N/A"
		}
		g.logger.Log(ctx, logLevel, logMsg, "error", err)
		return nil
	}
	return usageMap
}

func hasAllUsersRule(rules []gcpstorage.ACLRule) bool {
	for _, rule := range rules {
		if rule.Entity == gcpstorage.AllUsers {
			return true
		}
	}
	return false
}

func (g *GCPStorage) CreateContainer(ctx context.Context, name string, publicAccess bool) error {
	g.logger.Debug("Starting GCP CreateBucket operation", "bucket", name, "public", publicAccess)

	if err := bucketNameRule.Validate(name); err != nil {
		return err
	}

	attrs := &gcpstorage.BucketAttrs{}
	if publicAccess {
		attrs.PredefinedACL = "publicRead"
		attrs.PredefinedDefaultObjectACL = "publicRead"
	}

	if err := g.client.Bucket(name).Create(ctx, g.projectID, attrs); err != nil {
		return mapError(fmt.Errorf("failed to create bucket: %w", err))
	}
	return nil
}

// GCS refuses to delete a non-empty bucket, so its objects are removed first
func (g *GCPStorage) DeleteContainer(ctx context.Context, name string) error {
	g.logger.Debug("Starting GCP DeleteBucket operation", "bucket", name)

	if err := bucketNameRule.Validate(name); err != nil {
		return err
	}

	bucket := g.client.Bucket(name)
	it := bucket.Objects(ctx, &gcpstorage.Query{Projection: gcpstorage.ProjectionNoACL})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return mapError(fmt.Errorf("error listing objects for deletion: %w", err))
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, gcpstorage.ErrObjectNotExist) {
			return mapError(fmt.Errorf("failed to delete object %s: %w", attrs.Name, err))
		}
	}

	if err := bucket.Delete(ctx); err != nil {
		return mapError(fmt.Errorf("failed to delete bucket: %w", err))
	}
	return nil
}

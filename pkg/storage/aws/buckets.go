// File: pkg/storage/aws/buckets.go
package aws

import (
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	allUsersGroupURI = "http://acs.amazonaws.com/groups/global/AllUsers"
	// DeleteObjects accepts at most this many keys per request
	deleteBatchSize = 1000
)

func (s *AWSStorage) ListContainers(ctx context.Context) ([]storage.ContainerDescriptor, error) {
	s.logger.Debug("Starting AWS ListBuckets operation")
	var buckets []storage.ContainerDescriptor

	paginator := s3.NewListBucketsPaginator(s.client, &s3.ListBucketsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(fmt.Errorf("error listing buckets: %w", err))
		}

		for _, b := range page.Buckets {
			name := aws.ToString(b.Name)
			if name == "" {
				continue
			}
			buckets = append(buckets, storage.ContainerDescriptor{
				Name:         name,
				PublicAccess: s.isPublic(ctx, name),
				Provider:     common.AWS,
				CreatedAt:    aws.ToTime(b.CreationDate),
				UsageBytes:   -1,
			})
		}
	}

	return buckets, nil
}

// Reports whether the bucket ACL grants AllUsers read. Failures are logged and read as private.
func (s *AWSStorage) isPublic(ctx context.Context, bucketName string) bool {
	out, err := s.client.GetBucketAcl(ctx, &s3.GetBucketAclInput{Bucket: aws.String(bucketName)})
	if err != nil {
		s.logger.Warn("Could not retrieve ACL for bucket", "bucket", bucketName, "error", err)
		return false
	}
	for _, grant := range out.Grants {
		if grant.Grantee == nil || aws.ToString(grant.Grantee.URI) != allUsersGroupURI {
			continue
		}
		if grant.Permission == types.PermissionRead || grant.Permission == types.PermissionFullControl {
			return true
		}
	}
	return false
}

func (s *AWSStorage) CreateContainer(ctx context.Context, name string, publicAccess bool) error {
	s.logger.Debug("Starting AWS CreateBucket operation", "bucket", name, "public", publicAccess)

	if err := bucketNameRule.Validate(name); err != nil {
		return err
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(name),
	}
	// us-east-1 rejects an explicit location constraint
	if s.region != defaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if publicAccess {
		input.ACL = types.BucketCannedACLPublicRead
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return mapError(fmt.Errorf("failed to create bucket: %w", err))
	}
	return nil
}

// S3 refuses to delete a non-empty bucket, so its objects are removed first
func (s *AWSStorage) DeleteContainer(ctx context.Context, name string) error {
	s.logger.Debug("Starting AWS DeleteBucket operation", "bucket", name)

	if err := bucketNameRule.Validate(name); err != nil {
		return err
	}

	if err := s.emptyBucket(ctx, name); err != nil {
		return err
	}

	if _, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
		return mapError(fmt.Errorf("failed to delete bucket: %w", err))
	}
	return nil
}

func (s *AWSStorage) emptyBucket(ctx context.Context, name string) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(name),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return mapError(fmt.Errorf("error listing objects for deletion: %w", err))
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}

		for start := 0; start < len(ids); start += deleteBatchSize {
			end := min(start+deleteBatchSize, len(ids))
			out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(name),
				Delete: &types.Delete{Objects: ids[start:end], Quiet: aws.Bool(true)},
			})
			if err != nil {
				return mapError(fmt.Errorf("failed to delete objects: %w", err))
			}
			if len(out.Errors) > 0 {
				first := out.Errors[0]
				return storage.Wrap(storage.ErrBackendUnavailable, fmt.Errorf("failed to delete %d objects, first %s: %s",
					len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message)))
			}
		}
	}
	return nil
}

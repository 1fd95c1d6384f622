// File: pkg/storage/aws/objects.go
package aws

import (
	"blobnav/pkg/storage"
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func (s *AWSStorage) ListEntries(ctx context.Context, bucketName, path string) iter.Seq2[storage.RawEntry, error] {
	return func(yield func(storage.RawEntry, error) bool) {
		s.logger.Debug("Starting AWS ListObjects operation (delimited)", "bucket", bucketName, "path", path)

		if err := bucketNameRule.Validate(bucketName); err != nil {
			yield(storage.RawEntry{}, err)
			return
		}

		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket:    aws.String(bucketName),
			Prefix:    aws.String(storage.ToQueryPrefix(path)),
			Delimiter: aws.String(storage.Delimiter),
		})

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(storage.RawEntry{}, mapError(fmt.Errorf("error listing objects: %w", err)))
				return
			}

			for _, obj := range page.Contents {
				key := aws.ToString(obj.Key)
				if key == "" {
					continue
				}
				raw := storage.RawEntry{
					Name:          key,
					ContentLength: obj.Size,
					URL:           s.objectURL(bucketName, key),
				}
				if !yield(raw, nil) {
					return
				}
			}

			for _, cp := range page.CommonPrefixes {
				prefix := aws.ToString(cp.Prefix)
				if prefix == "" {
					continue
				}
				raw := storage.RawEntry{
					Name:     prefix,
					IsPrefix: true,
					URL:      s.objectURL(bucketName, prefix),
				}
				if !yield(raw, nil) {
					return
				}
			}
		}
	}
}

// PutObject needs a seekable body to sign and checksum it, so other readers are spooled
// to a temp file first
func (s *AWSStorage) UploadBlob(ctx context.Context, bucketName, key string, content io.Reader) error {
	s.logger.Debug("Starting AWS PutObject operation", "bucket", bucketName, "key", key)

	if err := s.validate(bucketName, key); err != nil {
		return err
	}

	source := storage.NewSourceReader(content)
	body, ok := source.(io.ReadSeeker)
	if !ok {
		spooled, err := storage.CopyToTempFile(ctx, source)
		if err != nil {
			return err
		}
		defer spooled.Release()

		f, err := spooled.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		body = f
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return mapError(fmt.Errorf("failed to upload object: %w", err))
	}
	return nil
}

func (s *AWSStorage) DownloadBlob(ctx context.Context, bucketName, key string) (*storage.TempFile, error) {
	s.logger.Debug("Starting AWS GetObject operation", "bucket", bucketName, "key", key)

	if err := s.validate(bucketName, key); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to download object: %w", err))
	}
	defer out.Body.Close()

	tmp, err := storage.CopyToTempFile(ctx, out.Body)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to read object body: %w", err))
	}
	return tmp, nil
}

// S3 deletes are idempotent, so existence is checked first to report missing objects
func (s *AWSStorage) DeleteBlob(ctx context.Context, bucketName, key string) error {
	s.logger.Debug("Starting AWS DeleteObject operation", "bucket", bucketName, "key", key)

	if err := s.validate(bucketName, key); err != nil {
		return err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapError(fmt.Errorf("object lookup failed: %w", err))
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapError(fmt.Errorf("failed to delete object: %w", err))
	}
	return nil
}

func (s *AWSStorage) validate(bucketName, key string) error {
	if err := bucketNameRule.Validate(bucketName); err != nil {
		return err
	}
	return storage.ValidateBlobName(key)
}

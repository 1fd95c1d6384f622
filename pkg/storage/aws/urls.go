// File: pkg/storage/aws/urls.go
package aws

import (
	"blobnav/pkg/storage"
	"fmt"
	"net/url"
	"strings"
)

// Path-style URL of an object or prefix: <base>/<bucket>/<key>
func (s *AWSStorage) objectURL(bucketName, key string) string {
	u := url.URL{
		Scheme: s.baseURL.Scheme,
		Host:   s.baseURL.Host,
		Path:   s.basePath() + "/" + bucketName + "/" + key,
	}
	return u.String()
}

func (s *AWSStorage) basePath() string {
	return strings.TrimRight(s.baseURL.Path, "/")
}

func (s *AWSStorage) ResolveURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", storage.Wrap(storage.ErrInvalidName, fmt.Errorf("invalid url %q: %w", rawURL, err))
	}
	if !strings.EqualFold(u.Host, s.baseURL.Host) {
		return "", "", storage.Wrap(storage.ErrNotFound, fmt.Errorf("url %q does not belong to %s", rawURL, s.baseURL.Host))
	}

	rel, ok := strings.CutPrefix(u.Path, s.basePath()+"/")
	if !ok || rel == "" {
		return "", "", storage.Wrap(storage.ErrNotFound, fmt.Errorf("url %q does not name a bucket", rawURL))
	}

	bucketName, key, _ := strings.Cut(rel, "/")
	if err := bucketNameRule.Validate(bucketName); err != nil {
		return "", "", err
	}
	return bucketName, key, nil
}

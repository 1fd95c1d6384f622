// File: pkg/storage/gcp/urls.go
package gcp

import (
	"blobnav/pkg/storage"
	"fmt"
	"net/url"
	"strings"
)

func (g *GCPStorage) objectURL(bucketName, objectName string) string {
	u := url.URL{
		Scheme: g.baseURL.Scheme,
		Host:   g.baseURL.Host,
		Path:   "/" + bucketName + "/" + objectName,
	}
	return u.String()
}

func (g *GCPStorage) ResolveURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", storage.Wrap(storage.ErrInvalidName, fmt.Errorf("invalid url %q: %w", rawURL, err))
	}
	if !strings.EqualFold(u.Host, g.baseURL.Host) {
		return "", "", storage.Wrap(storage.ErrNotFound, fmt.Errorf("url %q does not belong to %s", rawURL, g.baseURL.Host))
	}

	rel := strings.TrimPrefix(u.Path, "/")
	if rel == "" {
		return "", "", storage.Wrap(storage.ErrNotFound, fmt.Errorf("url %q does not name a bucket", rawURL))
	}

	bucketName, objectName, _ := strings.Cut(rel, "/")
	if err := bucketNameRule.Validate(bucketName); err != nil {
		return "", "", err
	}
	return bucketName, objectName, nil
}

// File: pkg/storage/azure/urls.go
package azure

import (
	"blobnav/pkg/storage"
	"fmt"
	"net/url"
	"strings"
)

// Builds the blob (or virtual folder) URL under the service endpoint. Credentials in the
// query string (SAS) are never part of a handle.
func (a *AzureStorage) blobURL(containerName, fullName string) string {
	u := url.URL{
		Scheme: a.serviceURL.Scheme,
		Host:   a.serviceURL.Host,
		Path:   a.basePath() + "/" + containerName + "/" + fullName,
	}
	return u.String()
}

func (a *AzureStorage) basePath() string {
	return strings.TrimRight(a.serviceURL.Path, "/")
}

func (a *AzureStorage) ResolveURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", storage.Wrap(storage.ErrInvalidName, fmt.Errorf("invalid url %q: %w", rawURL, err))
	}
	if !strings.EqualFold(u.Host, a.serviceURL.Host) {
		return "", "", storage.Wrap(storage.ErrNotFound, fmt.Errorf("url %q does not belong to %s", rawURL, a.serviceURL.Host))
	}

	rel, ok := strings.CutPrefix(u.Path, a.basePath()+"/")
	if !ok || rel == "" {
		return "", "", storage.Wrap(storage.ErrNotFound, fmt.Errorf("url %q does not name a container", rawURL))
	}

	containerName, fullName, _ := strings.Cut(rel, "/")
	if err := containerNameRule.Validate(containerName); err != nil {
		return "", "", err
	}
	return containerName, fullName, nil
}

// File: pkg/storage/local/urls.go
package local

import (
	"blobnav/pkg/storage"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Builds the file:// URL of a blob or folder. Folder names keep their trailing "/".
func (l *LocalStorage) blobURL(containerName, fullName string) string {
	u := url.URL{
		Scheme: "file",
		Path:   l.rootURLPath() + "/" + containerName + "/" + fullName,
	}
	return u.String()
}

func (l *LocalStorage) rootURLPath() string {
	p := filepath.ToSlash(l.root)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}

func (l *LocalStorage) ResolveURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", storage.Wrap(storage.ErrInvalidName, fmt.Errorf("invalid url %q: %w", rawURL, err))
	}
	if u.Scheme != "file" {
		return "", "", storage.Wrap(storage.ErrInvalidName, fmt.Errorf("url %q is not a local file url", rawURL))
	}

	rel, ok := strings.CutPrefix(u.Path, l.rootURLPath()+"/")
	if !ok || rel == "" {
		return "", "", storage.Wrap(storage.ErrNotFound, fmt.Errorf("url %q is outside the local root %s", rawURL, l.root))
	}

	containerName, fullName, _ := strings.Cut(rel, "/")
	if err := containerNameRule.Validate(containerName); err != nil {
		return "", "", err
	}
	return containerName, fullName, nil
}

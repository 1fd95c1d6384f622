// File: pkg/storage/local/client.go
package local

import (
	"blobnav/internal/config"
	"blobnav/internal/provider/registry"
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// Marks a container created with public access. Lives next to the container directories.
	publicMarkerPrefix = ".public-"
	// In-flight uploads are written under this prefix and renamed into place
	uploadTempPattern = ".blobnav-upload-*"
	uploadTempPrefix  = ".blobnav-upload-"

	listPageSize = 100
)

func init() {
	registry.Register(registry.Registration{
		Provider:    common.Local,
		ConfigCheck: isConfigured,
		Initializer: initialize,
		RequiredKey: "local.root",
	})
}

func isConfigured(cfg *config.Config) bool {
	return cfg.Local.Root != ""
}

func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ContainerStore, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("local configuration missing or incomplete")
	}
	return NewLocalStorage(cfg.Local.Root, logger)
}

// Same shape as Azure container names so data moves between backends unchanged
var containerNameRule = storage.NameRule{
	MinLength:   3,
	MaxLength:   63,
	Pattern:     regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`),
	Description: "use lowercase letters, digits and single hyphens, starting and ending with a letter or digit",
	Check: func(name string) bool {
		return !strings.Contains(name, "--")
	},
}

// LocalStorage keeps each container as a directory under root and each blob as a file
// at its "/"-separated path inside it. It always reports itself as an emulator.
type LocalStorage struct {
	root   string
	logger *slog.Logger
}

var _ storage.ContainerStore = (*LocalStorage)(nil)

func NewLocalStorage(root string, logger *slog.Logger) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, storage.Wrap(storage.ErrBackendUnavailable, fmt.Errorf("failed to create local root: %w", err))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &LocalStorage{
		root:   abs,
		logger: logger,
	}, nil
}

func (l *LocalStorage) ProviderName() common.Provider {
	return common.Local
}

func (l *LocalStorage) IsEmulated() bool {
	return true
}

func (l *LocalStorage) Root() string {
	return l.root
}

func (l *LocalStorage) Close() error {
	return nil
}

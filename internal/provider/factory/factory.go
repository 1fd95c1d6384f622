// File: internal/provider/factory/factory.go
package factory

import (
	"blobnav/internal/config"
	"blobnav/internal/provider/registry"
	"blobnav/pkg/storage"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Factory selects a backend by provider tag. It holds no connections: every call opens a
// fresh ContainerStore that the caller closes when done.
type Factory struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Returns a list of providers that are registered and configured
func (f *Factory) GetConfiguredProviders() []string {
	var configured []string
	for name, reg := range registry.All() {
		if reg.ConfigCheck(f.cfg) {
			configured = append(configured, name)
		}
	}
	sort.Strings(configured)
	return configured
}

// Checks if a specific provider is registered and configured
func (f *Factory) IsConfigured(providerName string) bool {
	reg, exists := registry.Lookup(providerName)
	if !exists {
		return false
	}
	return reg.ConfigCheck(f.cfg)
}

// Initializes and returns a new store for the specified provider
func (f *Factory) GetStorageProvider(ctx context.Context, providerName string) (storage.ContainerStore, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(providerName))

	reg, exists := registry.Lookup(normalizedName)
	if !exists {
		return nil, storage.Wrap(storage.ErrInvalidName, fmt.Errorf("unsupported provider: %s. Supported providers are: %v", providerName, registry.SupportedProviders()))
	}

	if !reg.ConfigCheck(f.cfg) {
		hint := normalizedName + ".<key>"
		if reg.RequiredKey != "" {
			hint = reg.RequiredKey
		}
		return nil, storage.Wrap(storage.ErrBackendUnavailable, fmt.Errorf("provider '%s' is not configured. Use 'blobnav config set %s <value>'", normalizedName, hint))
	}

	store, err := reg.Initializer(ctx, f.cfg, f.logger.With("provider", normalizedName))
	if err != nil {
		return nil, storage.Wrap(storage.ErrBackendUnavailable, fmt.Errorf("failed to initialize provider %s: %w", normalizedName, err))
	}

	return store, nil
}

// File: cmd/blobnav/app.go
package main

import (
	"blobnav/internal/config"
	"blobnav/internal/provider/factory"
	"blobnav/internal/service"
	"blobnav/pkg/formatter"
	"context"
	"errors"
	"log/slog"
)

// appContainer holds the shared dependencies handed to every command
type appContainer struct {
	ConfigManager    *config.ConfigManager
	Config           *config.Config
	ProviderFactory  *factory.Factory
	StorageService   *service.StorageService
	StorageFormatter *formatter.StorageFormatter
	Logger           *slog.Logger
}

type appKey struct{}

// Creates the application container. With configOnly set the configuration is not
// decoded, so that a broken setting can still be repaired with 'blobnav config'.
func newApp(configPath string, configOnly bool, logger *slog.Logger) (*appContainer, error) {
	cfgManager, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}

	app := &appContainer{
		ConfigManager:    cfgManager,
		StorageFormatter: formatter.NewStorageFormatter(),
		Logger:           logger,
	}
	if configOnly {
		return app, nil
	}

	cfg, err := cfgManager.LoadConfig()
	if err != nil {
		return nil, err
	}

	app.Config = cfg
	app.ProviderFactory = factory.NewFactory(cfg, logger)
	app.StorageService = service.NewStorageService(app.ProviderFactory, logger)
	return app, nil
}

func withApp(ctx context.Context, app *appContainer) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func appFromContext(ctx context.Context) (*appContainer, error) {
	app, ok := ctx.Value(appKey{}).(*appContainer)
	if !ok || app == nil {
		return nil, errors.New("application not initialized")
	}
	return app, nil
}

// File: pkg/storage/gcp/client.go
package gcp

import (
	"blobnav/internal/config"
	"blobnav/internal/provider/registry"
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const publicEndpoint = "https://storage.googleapis.com"

func init() {
	registry.Register(registry.Registration{
		Provider:    common.GCP,
		ConfigCheck: isConfigured,
		Initializer: initialize,
		RequiredKey: "gcp.project",
	})
}

// Checks if the project ID is set
func isConfigured(cfg *config.Config) bool {
	return cfg.GCP.Project != ""
}

// Initializes the GCP storage client from the configuration
func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ContainerStore, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("GCP configuration missing or incomplete")
	}
	return NewGCPStorage(ctx, cfg.GCP, logger)
}

var bucketNameRule = storage.NameRule{
	MinLength:   3,
	MaxLength:   63,
	Pattern:     regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*[a-z0-9]$`),
	Description: "use lowercase letters, digits, dots, hyphens and underscores, starting and ending with a letter or digit, without 'goog' prefix or 'google'",
	Check: func(name string) bool {
		return !strings.HasPrefix(name, "goog") && !strings.Contains(name, "google") && !strings.Contains(name, "..")
	},
}

type GCPStorage struct {
	client    *gcpstorage.Client
	projectID string
	// Base of handle URLs: the public endpoint or the emulator
	baseURL  *url.URL
	emulated bool
	// Options reused for the Monitoring client
	clientOpts []option.ClientOption
	logger     *slog.Logger
}

var _ storage.ContainerStore = (*GCPStorage)(nil)

func NewGCPStorage(ctx context.Context, cfg config.GCPConfig, logger *slog.Logger) (*GCPStorage, error) {
	var opts []option.ClientOption
	base := publicEndpoint

	if cfg.EmulatorHost != "" {
		base = "http://" + cfg.EmulatorHost
		opts = append(opts,
			option.WithEndpoint(base+"/storage/v1/"),
			option.WithoutAuthentication(),
		)
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcpstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP storage client: %w", err)
	}

	return newGCPStorage(client, cfg.Project, base, cfg.EmulatorHost != "", opts, logger)
}

func newGCPStorage(client *gcpstorage.Client, projectID, base string, emulated bool, opts []option.ClientOption, logger *slog.Logger) (*GCPStorage, error) {
	baseURL, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid GCS endpoint %q: %w", base, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &GCPStorage{
		client:     client,
		projectID:  projectID,
		baseURL:    baseURL,
		emulated:   emulated,
		clientOpts: opts,
		logger:     logger,
	}, nil
}

func (g *GCPStorage) ProviderName() common.Provider {
	return common.GCP
}

func (g *GCPStorage) IsEmulated() bool {
	return g.emulated
}

func (g *GCPStorage) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

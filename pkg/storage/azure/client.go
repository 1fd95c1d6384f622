// File: pkg/storage/azure/client.go
package azure

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

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

func init() {
	registry.Register(registry.Registration{
		Provider:    common.Azure,
		ConfigCheck: isConfigured,
		Initializer: initialize,
		RequiredKey: "azure.connection_string",
	})
}

func isConfigured(cfg *config.Config) bool {
	return cfg.Azure.ConnectionString != ""
}

func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ContainerStore, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("Azure configuration missing or incomplete")
	}
	return NewAzureStorage(cfg.Azure.ConnectionString, logger)
}

var containerNameRule = storage.NameRule{
	MinLength:   3,
	MaxLength:   63,
	Pattern:     regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`),
	Description: "use lowercase letters, digits and single hyphens, starting and ending with a letter or digit",
	Check: func(name string) bool {
		return !strings.Contains(name, "--")
	},
	Reserved: []string{"$root", "$web", "$logs"},
}

// $logs belongs to the account's analytics logging and cannot be created or deleted
var lifecycleNameRule = func() storage.NameRule {
	rule := containerNameRule
	rule.Reserved = []string{"$root", "$web"}
	return rule
}()

type AzureStorage struct {
	client *azblob.Client
	// Service endpoint, e.g. https://account.blob.core.windows.net/ or the Azurite account URL
	serviceURL *url.URL
	emulated   bool
	logger     *slog.Logger
}

var _ storage.ContainerStore = (*AzureStorage)(nil)

// Well-known Azurite account. The SDK does not understand the UseDevelopmentStorage shortcut.
const azuriteConnectionString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;" +
	"AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;" +
	"BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func NewAzureStorage(connectionString string, logger *slog.Logger) (*AzureStorage, error) {
	client, err := azblob.NewClientFromConnectionString(expandConnectionString(connectionString), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	serviceURL, err := url.Parse(client.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse Azure service url: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &AzureStorage{
		client:     client,
		serviceURL: serviceURL,
		emulated:   isEmulatorConnectionString(connectionString),
		logger:     logger,
	}, nil
}

func expandConnectionString(connectionString string) string {
	trimmed := strings.TrimSpace(strings.TrimRight(connectionString, ";"))
	if strings.EqualFold(trimmed, "UseDevelopmentStorage=true") {
		return azuriteConnectionString
	}
	return connectionString
}

// Azurite is addressed either through the development shortcut or its well-known account name
func isEmulatorConnectionString(connectionString string) bool {
	lower := strings.ToLower(connectionString)
	return strings.Contains(lower, "usedevelopmentstorage=true") || strings.Contains(lower, "devstoreaccount1")
}

func (a *AzureStorage) ProviderName() common.Provider {
	return common.Azure
}

func (a *AzureStorage) IsEmulated() bool {
	return a.emulated
}

// The SDK client holds no connections that need releasing
func (a *AzureStorage) Close() error {
	return nil
}

// File: pkg/storage/aws/aws.go
package aws

import (
	"blobnav/internal/config"
	"blobnav/internal/provider/registry"
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultRegion = "us-east-1"

func init() {
	registry.Register(registry.Registration{
		Provider:    common.AWS,
		ConfigCheck: isConfigured,
		Initializer: initialize,
		RequiredKey: "aws.region",
	})
}

// A region is enough for AWS proper; an endpoint alone is enough for LocalStack or MinIO
func isConfigured(cfg *config.Config) bool {
	return cfg.AWS.Region != "" || cfg.AWS.Endpoint != ""
}

func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ContainerStore, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("AWS configuration missing or incomplete")
	}
	return NewAWSStorage(ctx, cfg.AWS, logger)
}

var bucketNameRule = storage.NameRule{
	MinLength:   3,
	MaxLength:   63,
	Pattern:     regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`),
	Description: "use lowercase letters, digits, dots and hyphens, starting and ending with a letter or digit, not formatted as an IP address",
	Check: func(name string) bool {
		return !strings.Contains(name, "..") && net.ParseIP(name) == nil
	},
}

type AWSStorage struct {
	client *s3.Client
	region string
	// Base URL handles are built on: the custom endpoint or the regional S3 endpoint
	baseURL  *url.URL
	emulated bool
	logger   *slog.Logger
}

var _ storage.ContainerStore = (*AWSStorage)(nil)

func NewAWSStorage(ctx context.Context, cfg config.AWSConfig, logger *slog.Logger) (*AWSStorage, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newAWSStorage(client, region, cfg.Endpoint, logger)
}

func newAWSStorage(client *s3.Client, region, endpoint string, logger *slog.Logger) (*AWSStorage, error) {
	base := fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	if endpoint != "" {
		base = endpoint
	}
	baseURL, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid S3 endpoint %q: %w", base, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &AWSStorage{
		client:   client,
		region:   region,
		baseURL:  baseURL,
		emulated: endpoint != "",
		logger:   logger,
	}, nil
}

func (s *AWSStorage) ProviderName() common.Provider {
	return common.AWS
}

// Any custom endpoint (LocalStack, MinIO) counts as an emulator
func (s *AWSStorage) IsEmulated() bool {
	return s.emulated
}

// The S3 client holds no resources beyond pooled HTTP connections
func (s *AWSStorage) Close() error {
	return nil
}

// File: pkg/common/provider.go
package common

type Provider string

const (
	Azure Provider = "azure"
	AWS   Provider = "aws"
	GCP   Provider = "gcp"
	Local Provider = "local"
)

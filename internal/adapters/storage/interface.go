package storage

import (
	"context"
	"strings"
)

// StoreOptions provides options for storing objects
type StoreOptions struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FileStorage provides an abstraction for object operations.
// Implementations back onto the OSS bucket, the local filesystem or memory.
type FileStorage interface {
	// Store saves data under key, replacing any existing object
	Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error

	// Retrieve gets an object by its storage key
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Close cleans up any resources used by the storage implementation
	Close() error
}

// Credentials are temporary security-token credentials for the bucket
type Credentials struct {
	AccessKeyID     string
	AccessKeySecret string
	SecurityToken   string
}

// RegionPlaceholder in an OSS endpoint is replaced by the invocation region
const RegionPlaceholder = "{}"

// StorageConfig represents configuration for storage providers.
// Region is the default used when the invocation carries no region.
type StorageConfig struct {
	Type     string `json:"type" yaml:"type"`           // "oss", "local" or "mock"
	BasePath string `json:"base_path" yaml:"base_path"` // For local storage
	Endpoint string `json:"endpoint" yaml:"endpoint"`   // For OSS, may contain RegionPlaceholder
	Bucket   string `json:"bucket" yaml:"bucket"`
	Region   string `json:"region" yaml:"region"`
	UseSSL   bool   `json:"use_ssl" yaml:"use_ssl"`
}

// ResolveEndpoint fills the region placeholder of the endpoint
func (c *StorageConfig) ResolveEndpoint(region string) string {
	return strings.ReplaceAll(c.Endpoint, RegionPlaceholder, c.resolveRegion(region))
}

func (c *StorageConfig) resolveRegion(region string) string {
	if region == "" {
		return c.Region
	}
	return region
}

package storage

import (
	"fmt"
	"strings"
)

// StorageType represents the type of storage implementation
type StorageType string

const (
	StorageTypeOSS   StorageType = "oss"
	StorageTypeLocal StorageType = "local"
	StorageTypeMock  StorageType = "mock"
)

// Factory opens FileStorage instances for one invocation's credentials
type Factory struct {
	config *StorageConfig
	mock   *MockFileStorage
}

// NewFactory creates a new storage factory
func NewFactory(config *StorageConfig) *Factory {
	f := &Factory{config: config}
	if config != nil && StorageType(strings.ToLower(config.Type)) == StorageTypeMock {
		// Every invocation sees the same in-memory bucket.
		f.mock = NewMockFileStorage()
	}
	return f
}

// Mock returns the shared in-memory storage of a mock factory, or nil
func (f *Factory) Mock() *MockFileStorage {
	return f.mock
}

// Open validates the invocation credentials and storage configuration, in
// that order, and returns a FileStorage for the configured bucket in region.
func (f *Factory) Open(region string, creds *Credentials) (FileStorage, error) {
	if creds == nil {
		return nil, ErrMissingCredentials
	}
	if creds.SecurityToken == "" {
		return nil, ErrMissingSecurityToken
	}
	if f.config == nil || f.config.Endpoint == "" || f.config.Bucket == "" {
		return nil, ErrMissingConfiguration
	}

	storageType := StorageType(strings.ToLower(f.config.Type))

	var storage FileStorage
	var err error

	switch storageType {
	case StorageTypeOSS, "":
		storage, err = f.createOSSStorage(region, creds)
	case StorageTypeLocal:
		storage, err = f.createLocalStorage()
	case StorageTypeMock:
		storage = f.mock
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", f.config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", f.config.Type, err)
	}

	return storage, nil
}

// createOSSStorage creates an Aliyun OSS storage implementation
func (f *Factory) createOSSStorage(region string, creds *Credentials) (FileStorage, error) {
	return NewOSSFileStorage(OSSConfig{
		Endpoint:    f.config.ResolveEndpoint(region),
		Bucket:      f.config.Bucket,
		Region:      ossSigningRegion(f.config.resolveRegion(region)),
		UseSSL:      f.config.UseSSL,
		Credentials: *creds,
	})
}

// createLocalStorage creates a local filesystem storage implementation
func (f *Factory) createLocalStorage() (FileStorage, error) {
	basePath := f.config.BasePath
	if basePath == "" {
		basePath = "./data/oss" // Default path
	}
	return NewLocalFileStorage(basePath)
}

// ossSigningRegion returns the region name OSS expects in S3 signatures
func ossSigningRegion(region string) string {
	if region == "" || strings.HasPrefix(region, "oss-") {
		return region
	}
	return "oss-" + region
}

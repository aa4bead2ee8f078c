package server

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"findphone-functions/internal/adapters/storage"
	"findphone-functions/internal/config"
	"findphone-functions/internal/handlers"
	"findphone-functions/internal/logging"
	"findphone-functions/internal/metrics"
	"findphone-functions/internal/push"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Storage *storage.Factory
	Push    *push.Client
	Store   *handlers.StoreHandler
	Lookup  *handlers.LookupHandler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	switch storage.StorageType(cfg.Storage.Type) {
	case storage.StorageTypeOSS, storage.StorageTypeLocal, storage.StorageTypeMock:
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	logger := logging.New(cfg)
	metrics.MustRegister()

	factory := storage.NewFactory(&storage.StorageConfig{
		Type:     cfg.Storage.Type,
		BasePath: cfg.Storage.LocalPath,
		Endpoint: cfg.Storage.Endpoint,
		Bucket:   cfg.Storage.Bucket,
		Region:   cfg.Storage.DefaultRegion,
		UseSSL:   cfg.Storage.UseSSL,
	})
	pushClient := push.NewClient(cfg.HMS, logger)

	container := &Container{
		Config:  cfg,
		Logger:  logger,
		Storage: factory,
		Push:    pushClient,
		Store:   handlers.NewStoreHandler(factory, logger),
		Lookup:  handlers.NewLookupHandler(cfg, factory, pushClient, logger),
	}

	logger.WithFields(logrus.Fields{
		"environment":  cfg.Environment,
		"storage_type": cfg.Storage.Type,
		"bucket":       cfg.Storage.Bucket,
		"lookup":       container.Lookup.Variant(),
	}).Debug("Container initialized")

	return container, nil
}

// RouterConfig returns the route configuration for the local server
func (c *Container) RouterConfig() *handlers.RouterConfig {
	return &handlers.RouterConfig{
		Store:     c.Store,
		Lookup:    c.Lookup,
		RateLimit: c.Config.RateLimit,
		Logger:    c.Logger,
	}
}

// Close cleans up all resources
func (c *Container) Close() error {
	return nil
}

// Package storage selects the object store generated documents are written to.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/storage/gcs"
	"github.com/angelmondragon/vendorhub-backend/pkg/storage/s3"
)

// Store writes immutable objects under caller chosen keys and returns the
// URL the object is served from.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

var (
	_ Store = (*gcs.Client)(nil)
	_ Store = (*s3.Client)(nil)
)

// Open builds the store named by VENDORHUB_STORAGE_DRIVER.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case config.StorageDriverS3:
		return s3.NewClient(ctx, cfg.Storage, cfg.S3, logg)
	case config.StorageDriverGCS, "":
		return gcs.NewClient(ctx, cfg.Storage, cfg.GCP, logg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// Package storage keeps uploaded files (avatars) in a local directory or an
// S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dimitrije/dashboard-api/internal/config"
)

var ErrNoPublicURL = errors.New("no public url configured")

type Storage interface {
	// Upload writes the object at key, replacing any previous content.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// PublicURL is the address browsers load the object from.
	PublicURL(key string) (string, error)
}

func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocal(cfg.Local)
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

func joinURL(base, key string) (string, error) {
	if base == "" {
		return "", ErrNoPublicURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/"), nil
}

// cleanKey rejects keys that could escape the storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return "", fmt.Errorf("invalid storage key: %s", key)
		}
	}
	return key, nil
}

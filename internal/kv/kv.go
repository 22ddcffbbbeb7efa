// Package kv is Fleura's local key-value persistence: the session token,
// its expiry, the wishlist, the cart id and UI preferences.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleura/storefront/internal/config"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Fixed keys.
const (
	KeyAccessToken       = "customerAccessToken"
	KeyAccessTokenExpiry = "customerAccessTokenExpiresAt"
	KeyWishlist          = "fleura-wishlist"
	KeyCartID            = "cartId"
	KeyTheme             = "theme"
)

// Store is a string-valued key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// Open builds the backend selected by cfg.Storage.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Storage {
	case config.StorageFile, "":
		return NewFileStore(cfg.StatePath)
	case config.StorageMemory:
		return NewMemoryStore(), nil
	case config.StorageRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// GetOr returns the stored value or fallback when the key is absent or
// the store fails.
func GetOr(ctx context.Context, s Store, key, fallback string) string {
	v, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return v
}

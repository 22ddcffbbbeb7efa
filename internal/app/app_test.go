package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleura/storefront/internal/config"
	"github.com/fleura/storefront/internal/kv"
	"github.com/fleura/storefront/internal/logging"
	"github.com/fleura/storefront/internal/wishlist"
)

func testConfig(endpoint string) config.Config {
	return config.Config{
		StoreDomain:     endpoint,
		StorefrontToken: "storefront-token",
		APIVersion:      "2023-01",
		Storage:         config.StorageMemory,
		OrdersPageSize:  20,
	}
}

func TestBuild_RejectsMissingCredentials(t *testing.T) {
	_, err := Build(context.Background(), config.Config{Storage: config.StorageMemory}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingDomain)
	assert.ErrorIs(t, err, config.ErrMissingToken)
}

func TestBuild_UnknownStorage(t *testing.T) {
	cfg := testConfig("https://shop.example")
	cfg.Storage = "floppy"
	_, err := Build(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floppy")
}

func TestStart_FreshInstallNeedsNoGateway(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unexpected", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, err := Build(context.Background(), testConfig(srv.URL), logging.Discard())
	require.NoError(t, err)
	defer svc.Close()

	svc.Start(context.Background())

	sess := svc.Session.Snapshot()
	assert.False(t, sess.Initializing)
	assert.False(t, sess.Authenticated)
	assert.True(t, svc.Wishlist.Snapshot().Loaded)
	assert.Empty(t, svc.Cart.Snapshot().Cart.Lines)
	assert.Zero(t, hits.Load())
}

func TestStart_RestoresStoredWishlist(t *testing.T) {
	svc, err := Build(context.Background(), testConfig("https://shop.example"), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Store.Set(context.Background(), kv.KeyWishlist, `["rose","peony"]`))

	svc.Start(context.Background())
	assert.Equal(t, []string{"rose", "peony"}, svc.Wishlist.Handles())
	assert.NoError(t, svc.Close())
}

// unreadableOnce fails the first read of any key.
type unreadableOnce struct {
	*kv.MemoryStore
	failed atomic.Bool
}

func (s *unreadableOnce) Get(ctx context.Context, key string) (string, error) {
	if s.failed.CompareAndSwap(false, true) {
		return "", errors.New("connection reset")
	}
	return s.MemoryStore.Get(ctx, key)
}

func TestStart_RetriesUnreadableWishlist(t *testing.T) {
	prev := wishlistRetry
	wishlistRetry = time.Millisecond
	t.Cleanup(func() { wishlistRetry = prev })

	ctx := context.Background()
	svc, err := Build(ctx, testConfig("https://shop.example"), nil)
	require.NoError(t, err)
	defer svc.Close()

	store := &unreadableOnce{MemoryStore: kv.NewMemoryStore()}
	require.NoError(t, store.Set(ctx, kv.KeyWishlist, `["peony","tulip"]`))
	svc.Wishlist = wishlist.New(store, nil)

	svc.Start(ctx)

	snap := svc.Wishlist.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, []string{"peony", "tulip"}, snap.Handles)
}

package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/avelouis/backend-linkgen/internal/catalog"
	"github.com/avelouis/backend-linkgen/internal/common"
	"github.com/avelouis/backend-linkgen/internal/payment"
)

type fakeLister struct {
	prices []payment.PriceRecord
	err    error
	calls  int
}

func (f *fakeLister) ListActivePrices(_ context.Context) ([]payment.PriceRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

func newTestCache(t *testing.T, ttl time.Duration) (*catalog.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return catalog.NewCache(client, ttl), mr
}

func TestActiveCatalogServesFromCache(t *testing.T) {
	cache, _ := newTestCache(t, 5*time.Minute)
	lister := &fakeLister{prices: []payment.PriceRecord{
		{ID: "price_1", UnitAmountMinor: 5000, Currency: "USD", ProductName: "Starter", Type: payment.PriceTypeOneTime},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Provider: lister, Cache: cache})
	require.NoError(t, err)

	ctx := context.Background()
	first, err := svc.ActiveCatalog(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())
	require.Equal(t, 1, lister.calls)

	second, err := svc.ActiveCatalog(ctx, false)
	require.NoError(t, err)
	require.Equal(t, first.Entries, second.Entries)
	require.Equal(t, 1, lister.calls, "second read must be served from cache")
}

func TestActiveCatalogRefetchesAfterTTL(t *testing.T) {
	cache, mr := newTestCache(t, 5*time.Minute)
	lister := &fakeLister{prices: []payment.PriceRecord{
		{ID: "price_1", UnitAmountMinor: 5000, Currency: "USD", ProductName: "Starter", Type: payment.PriceTypeOneTime},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Provider: lister, Cache: cache})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.ActiveCatalog(ctx, false)
	require.NoError(t, err)

	mr.FastForward(5*time.Minute + time.Second)

	_, err = svc.ActiveCatalog(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, lister.calls, "expired cache entry must trigger a refetch")
}

func TestActiveCatalogRefreshBypassesCache(t *testing.T) {
	cache, _ := newTestCache(t, 5*time.Minute)
	lister := &fakeLister{prices: []payment.PriceRecord{
		{ID: "price_1", UnitAmountMinor: 5000, Currency: "USD", ProductName: "Starter", Type: payment.PriceTypeOneTime},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Provider: lister, Cache: cache})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.ActiveCatalog(ctx, false)
	require.NoError(t, err)
	_, err = svc.ActiveCatalog(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 2, lister.calls)
}

func TestActiveCatalogRemoteFailureYieldsEmptyCatalog(t *testing.T) {
	lister := &fakeLister{err: errors.Join(payment.ErrRemoteUnavailable, errors.New("connection refused"))}
	svc, err := catalog.NewService(catalog.ServiceConfig{Provider: lister})
	require.NoError(t, err)

	cat, err := svc.ActiveCatalog(context.Background(), false)
	require.Error(t, err)
	require.Equal(t, common.CodeRemoteUnavailable, common.ErrorCode(err))
	require.Zero(t, cat.Len())
}

func TestActiveCatalogWithoutCacheFetchesEveryTime(t *testing.T) {
	lister := &fakeLister{prices: nil}
	svc, err := catalog.NewService(catalog.ServiceConfig{Provider: lister})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.ActiveCatalog(ctx, false)
	require.NoError(t, err)
	_, err = svc.ActiveCatalog(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, lister.calls)
}

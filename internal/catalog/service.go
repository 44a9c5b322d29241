package catalog

import (
	"context"
	"errors"

	"github.com/avelouis/backend-linkgen/internal/common"
	"github.com/avelouis/backend-linkgen/internal/obs"
	"github.com/avelouis/backend-linkgen/internal/payment"
)

// activePricesKey memoizes the "active prices" query for the cache TTL window.
const activePricesKey = "catalog:active-prices"

// Service fetches the active price listing, normalizes it, and memoizes the
// raw records for a bounded staleness window. Creating coupons or sessions
// never invalidates this cache; an upstream price change is picked up only
// after the entry expires.
type Service struct {
	provider payment.PriceLister
	cache    *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Provider payment.PriceLister
	Cache    *Cache
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Provider == nil {
		return nil, errors.New("catalog: price provider is required")
	}
	return &Service{provider: cfg.Provider, cache: cfg.Cache}, nil
}

// ActiveCatalog returns the normalized catalog, serving the cached snapshot
// when present unless refresh forces a remote fetch. On a remote failure the
// catalog is empty and the error carries REMOTE_UNAVAILABLE so callers render
// "no products available" rather than crashing.
func (s *Service) ActiveCatalog(ctx context.Context, refresh bool) (Catalog, error) {
	if !refresh {
		var cached []payment.PriceRecord
		ok, err := s.cache.GetJSON(ctx, activePricesKey, &cached)
		if err == nil && ok {
			countFetch("cache_hit")
			return Normalize(cached), nil
		}
	}

	prices, err := s.provider.ListActivePrices(ctx)
	if err != nil {
		countFetch("error")
		return Catalog{}, common.RemoteUnavailable("could not load products from the payment processor", err)
	}
	countFetch("success")
	_ = s.cache.SetJSON(ctx, activePricesKey, prices)
	return Normalize(prices), nil
}

func countFetch(result string) {
	if obs.CatalogFetchTotal != nil {
		obs.CatalogFetchTotal.WithLabelValues(result).Inc()
	}
}

package cmd

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/cache"
	"github.com/mangiee/restaurant-cli/internal/resolve"
)

// Cache keys for catalog listings.
const (
	cacheKeyCategories = "categories"
	cacheKeyItems      = "items"
	cacheKeyOffers     = "offers"
	cacheKeyPlans      = "plans"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// catalog serves cached listings and name resolution for one session.
type catalog struct {
	s     *session
	token string
	store cache.Store
}

func newCatalog(ctx context.Context, s *session, token string) *catalog {
	return &catalog{s: s, token: token, store: s.cacheStore(ctx)}
}

// cachedList returns the cached listing under key, or fetches and caches it.
func cachedList[T any](ctx context.Context, store cache.Store, key string, fetch func() ([]T, error)) ([]T, error) {
	var cached []T
	if store.Get(ctx, key, &cached) {
		slog.Debug("cache hit", "key", key, "count", len(cached))
		return cached, nil
	}
	items, err := fetch()
	if err != nil {
		return nil, err
	}
	store.Put(ctx, key, items)
	return items, nil
}

func (c *catalog) categories(ctx context.Context) ([]api.Category, error) {
	return cachedList(ctx, c.store, cacheKeyCategories, func() ([]api.Category, error) {
		res, err := checked(c.s.client.Categories().List(ctx, c.token))
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	})
}

func (c *catalog) items(ctx context.Context) ([]api.Item, error) {
	return cachedList(ctx, c.store, cacheKeyItems, func() ([]api.Item, error) {
		res, err := checked(c.s.client.Items().List(ctx, c.token))
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	})
}

func (c *catalog) offers(ctx context.Context) ([]api.Offer, error) {
	return cachedList(ctx, c.store, cacheKeyOffers, func() ([]api.Offer, error) {
		res, err := checked(c.s.client.Offers().List(ctx, c.token))
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	})
}

func (c *catalog) plans(ctx context.Context) ([]api.Plan, error) {
	return cachedList(ctx, c.store, cacheKeyPlans, func() ([]api.Plan, error) {
		res, err := checked(c.s.client.Plans().List(ctx, c.token))
		if err != nil {
			return nil, err
		}
		return res.Data.Plans, nil
	})
}

// invalidate drops cached listings after a mutation.
func (c *catalog) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.store.Clear(ctx, key)
	}
}

// resolveID turns an id or a name into an id. Values shaped like a backend
// id are returned without a lookup.
func resolveID[T any](ctx context.Context, query string, list func(context.Context) ([]T, error), id, name func(T) string) (string, error) {
	query = strings.TrimSpace(query)
	if objectIDPattern.MatchString(query) {
		return query, nil
	}
	items, err := list(ctx)
	if err != nil {
		return "", err
	}
	return resolve.Resolve(query, resolve.From(items, id, name))
}

func (c *catalog) categoryID(ctx context.Context, query string) (string, error) {
	return resolveID(ctx, query, c.categories, api.Category.Key, func(v api.Category) string { return v.Name })
}

func (c *catalog) itemID(ctx context.Context, query string) (string, error) {
	return resolveID(ctx, query, c.items, api.Item.Key, func(v api.Item) string { return v.Name })
}

func (c *catalog) offerID(ctx context.Context, query string) (string, error) {
	return resolveID(ctx, query, c.offers, api.Offer.Key, func(v api.Offer) string { return v.OfferTitle })
}

func (c *catalog) planID(ctx context.Context, query string) (string, error) {
	return resolveID(ctx, query, c.plans, api.Plan.Key, func(v api.Plan) string { return v.Name })
}

// resolveAll resolves each query in order.
func resolveAll(ctx context.Context, queries []string, one func(context.Context, string) (string, error)) ([]string, error) {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		id, err := one(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

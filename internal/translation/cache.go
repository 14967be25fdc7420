package translation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"mangashelf/internal/logging"
	"mangashelf/internal/services"
)

// Pair identifies a translation direction using ISO 639-1 codes.
type Pair struct {
	Source string
	Target string
}

func (p Pair) String() string {
	return p.Source + "->" + p.Target
}

// Resource translates text for one Pair.
type Resource interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Preparer builds the Resource for a pair, e.g. by loading or verifying a
// model.
type Preparer interface {
	Prepare(ctx context.Context, pair Pair) (Resource, error)
}

// PreparerFunc adapts a function to Preparer.
type PreparerFunc func(ctx context.Context, pair Pair) (Resource, error)

// Prepare calls f.
func (f PreparerFunc) Prepare(ctx context.Context, pair Pair) (Resource, error) {
	return f(ctx, pair)
}

// Cache holds prepared resources. Entries are never evicted.
type Cache struct {
	preparer Preparer
	logger   *slog.Logger

	mu        sync.RWMutex
	resources map[Pair]Resource
	group     singleflight.Group
}

// NewCache returns an empty cache backed by preparer.
func NewCache(preparer Preparer, logger *slog.Logger) *Cache {
	return &Cache{
		preparer:  preparer,
		logger:    logging.NewComponentLogger(logger, "translation"),
		resources: make(map[Pair]Resource),
	}
}

// Get returns the resource for pair, preparing it on first use. Identity
// pairs need no preparation. Preparation failures carry
// services.ErrModelUnavailable.
func (c *Cache) Get(ctx context.Context, pair Pair) (Resource, error) {
	if pair.Source == pair.Target {
		return identity{}, nil
	}
	if res, ok := c.lookup(pair); ok {
		return res, nil
	}

	ch := c.group.DoChan(pair.String(), func() (any, error) {
		if res, ok := c.lookup(pair); ok {
			return res, nil
		}
		logger := logging.WithContext(ctx, c.logger)
		logger.Info("preparing translator", logging.String("pair", pair.String()))
		res, err := c.preparer.Prepare(context.WithoutCancel(ctx), pair)
		if err != nil {
			return nil, err
		}
		return c.store(pair, res), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return nil, services.Wrap(services.ErrModelUnavailable, "translation", "prepare",
				fmt.Sprintf("translator %s could not be prepared", pair), result.Err)
		}
		return result.Val.(Resource), nil
	}
}

// Prepared reports whether pair already has a cached resource.
func (c *Cache) Prepared(pair Pair) bool {
	_, ok := c.lookup(pair)
	return ok
}

// Len returns the number of cached resources.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resources)
}

func (c *Cache) lookup(pair Pair) (Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.resources[pair]
	return res, ok
}

// store keeps the first resource written for pair and returns whichever is
// cached.
func (c *Cache) store(pair Pair, res Resource) Resource {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.resources[pair]; ok {
		return existing
	}
	c.resources[pair] = res
	return res
}

type identity struct{}

func (identity) Translate(_ context.Context, text string) (string, error) {
	return text, nil
}

// Package headlines serves the top-headlines payload through a TTL cache,
// bounding calls against the provider's quota.
package headlines

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is the business-defined acceptable staleness window.
const DefaultTTL = 5 * time.Minute

// Fetcher pulls a fresh headlines payload from upstream.
type Fetcher interface {
	TopHeadlines(ctx context.Context) (json.RawMessage, error)
}

// Result is what the cache hands back on any non-terminal path.
type Result struct {
	// Payload is the last successful upstream response, verbatim.
	Payload json.RawMessage
	// Cached reports whether the payload was served without an upstream call
	// succeeding on this request.
	Cached bool
	// Note carries the failure annotation when stale data was served
	// because a refresh failed.
	Note string
}

// Cache holds the most recent headlines payload and its fetch time.
//
// The mutex spans the whole check-fetch-store sequence so two cold
// requests cannot race each other into a double fetch.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	payload   json.RawMessage
	fetchedAt time.Time
}

func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Headlines returns the current payload, refreshing when the cached one
// has aged past the TTL.
//
// A failed refresh falls back to the stale payload with a note attached.
// The only terminal error is a failed fetch with nothing cached yet.
func (c *Cache) Headlines(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.payload != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return Result{Payload: c.payload, Cached: true}, nil
	}

	payload, err := c.fetcher.TopHeadlines(ctx)
	if err != nil && c.payload != nil {
		slog.Warn("headlines refresh failed, serving stale cache", "error", err, "fetched_at", c.fetchedAt)
		return Result{
			Payload: c.payload,
			Cached:  true,
			Note:    "upstream request failed, serving cached data",
		}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("error fetching headlines with empty cache: %w", err)
	}

	// Replace wholesale, never merge.
	c.payload = payload
	c.fetchedAt = c.now()

	return Result{Payload: payload}, nil
}

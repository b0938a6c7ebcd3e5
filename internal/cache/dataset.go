package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"semmelweis/internal/core"
	"semmelweis/internal/dataset"

	"golang.org/x/sync/singleflight"
)

// DatasetCache memoizes a Source by its fingerprint. A dataset is reloaded
// only when the fingerprint changes, the entry expires or Invalidate runs.
// Failed loads are never stored.
type DatasetCache struct {
	source  dataset.Source
	entries *LRUCache[core.Dataset]
	group   singleflight.Group
	logger  *slog.Logger
	now     func() time.Time
}

// NewDatasetCache keeps up to size dataset versions, each for at most ttl
// (ttl <= 0 disables expiry).
func NewDatasetCache(source dataset.Source, size int, ttl time.Duration, logger *slog.Logger) *DatasetCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetCache{
		source:  source,
		entries: NewLRUCache[core.Dataset](size, ttl),
		logger:  logger.With("component", "dataset_cache", "source", source.Name()),
		now:     time.Now,
	}
}

// Get returns the dataset for the source's current fingerprint, loading it
// on a miss. Concurrent misses for one fingerprint share a single load.
func (c *DatasetCache) Get(ctx context.Context) (core.Dataset, error) {
	fp, err := c.source.Fingerprint(ctx)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("fingerprint %s: %w", c.source.Name(), err)
	}
	if ds, ok := c.entries.Get(fp); ok {
		return ds, nil
	}

	v, err, shared := c.group.Do(fp, func() (interface{}, error) {
		if ds, ok := c.entries.Get(fp); ok {
			return ds, nil
		}
		start := c.now()
		// Shared by every waiter, so one caller giving up must not fail the rest.
		records, err := c.source.Load(context.WithoutCancel(ctx))
		if err != nil {
			return core.Dataset{}, err
		}
		ds := core.Dataset{
			Records:     records,
			Source:      c.source.Name(),
			Fingerprint: fp,
			LoadedAt:    c.now(),
		}
		c.entries.Set(fp, ds)
		c.logger.Info("Dataset loaded",
			"fingerprint", fp,
			"records", len(records),
			"duration_ms", ds.LoadedAt.Sub(start).Milliseconds())
		return ds, nil
	})
	if err != nil {
		return core.Dataset{}, fmt.Errorf("load %s: %w", c.source.Name(), err)
	}
	if shared {
		c.logger.Debug("Dataset load shared", "fingerprint", fp)
	}
	return v.(core.Dataset), nil
}

// Invalidate drops every cached version so the next Get reloads.
func (c *DatasetCache) Invalidate() {
	c.entries.Clear()
	c.logger.Info("Dataset cache invalidated")
}

// Refresh invalidates and loads again, for warm reloads after a change.
func (c *DatasetCache) Refresh(ctx context.Context) (core.Dataset, error) {
	c.Invalidate()
	return c.Get(ctx)
}

func (c *DatasetCache) CleanExpired() int { return c.entries.CleanExpired() }

// Size is the number of cached dataset versions.
func (c *DatasetCache) Size() int { return c.entries.Size() }

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"semmelweis/internal/core"
	"semmelweis/internal/dataset/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(t *testing.T) []core.Record {
	t.Helper()
	a, err := core.NewRecord(1846, "A", 100, 10)
	require.NoError(t, err)
	b, err := core.NewRecord(1847, "A", 100, 2)
	require.NoError(t, err)
	return []core.Record{a, b}
}

func TestDatasetCacheHitsOnSameFingerprint(t *testing.T) {
	src := memory.New(records(t))
	c := NewDatasetCache(src, 4, 0, nil)
	ctx := context.Background()

	first, err := c.Get(ctx)
	require.NoError(t, err)
	second, err := c.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, src.Loads())
	assert.Equal(t, first, second)
	assert.Equal(t, "memory", first.Source)
	assert.Equal(t, "mem:0", first.Fingerprint)
	assert.False(t, first.LoadedAt.IsZero())
	assert.Len(t, first.Records, 2)
}

func TestDatasetCacheReloadsOnFingerprintChange(t *testing.T) {
	src := memory.New(records(t))
	c := NewDatasetCache(src, 4, 0, nil)
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)
	src.Set(records(t)[:1])

	ds, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, ds.Records, 1)
	assert.Equal(t, 2, src.Loads())
}

func TestDatasetCacheDoesNotCacheErrors(t *testing.T) {
	src := memory.New(nil)
	src.Fail(core.ErrResourceNotFound)
	c := NewDatasetCache(src, 4, 0, nil)
	ctx := context.Background()

	_, err := c.Get(ctx)
	assert.True(t, errors.Is(err, core.ErrResourceNotFound))
	_, err = c.Get(ctx)
	assert.Error(t, err)
	assert.Equal(t, 2, src.Loads())
	assert.Equal(t, 0, c.Size())
}

func TestDatasetCacheInvalidate(t *testing.T) {
	src := memory.New(records(t))
	c := NewDatasetCache(src, 4, 0, nil)
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Loads())
}

func TestDatasetCacheTTL(t *testing.T) {
	src := memory.New(records(t))
	c := NewDatasetCache(src, 4, time.Minute, nil)
	now := time.Now()
	c.entries.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)
	now = now.Add(time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Loads())
}

// gatedSource blocks every Load until release is closed.
type gatedSource struct {
	loads   atomic.Int32
	release chan struct{}
}

func (s *gatedSource) Name() string                                { return "gated" }
func (s *gatedSource) Fingerprint(context.Context) (string, error) { return "fp", nil }
func (s *gatedSource) Load(context.Context) ([]core.Record, error) {
	s.loads.Add(1)
	<-s.release
	return nil, nil
}

func TestDatasetCacheCoalescesConcurrentMisses(t *testing.T) {
	src := &gatedSource{release: make(chan struct{})}
	c := NewDatasetCache(src, 4, 0, nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background())
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return src.loads.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), src.loads.Load())
}

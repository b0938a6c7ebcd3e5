package watch

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "semmelweis/internal/log"
)

func TestFileReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var logs bytes.Buffer
	logger := applog.New(applog.Config{Output: &logs, Level: slog.LevelDebug})

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, logger, path, 10*time.Millisecond, func(context.Context) { calls.Add(1) })
	}()

	// Writes to a sibling file are ignored; the target file is retried until
	// the watcher is registered.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644))
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("b"), 0o644)
		return calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Contains(t, logs.String(), "component=watch")
	assert.Contains(t, logs.String(), "Watching for changes")
}

func TestFileMissingDirectory(t *testing.T) {
	err := File(context.Background(), nil, filepath.Join(t.TempDir(), "nope", "data.csv"), 0, func(context.Context) {})
	assert.Error(t, err)
}

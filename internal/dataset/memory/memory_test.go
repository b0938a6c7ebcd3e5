package memory

import (
	"context"
	"errors"
	"testing"

	"semmelweis/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceVersioning(t *testing.T) {
	ctx := context.Background()
	r, err := core.NewRecord(1846, "A", 100, 10)
	require.NoError(t, err)

	s := New([]core.Record{r})
	fp1, _ := s.Fingerprint(ctx)
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	s.Set(nil)
	fp2, _ := s.Fingerprint(ctx)
	assert.NotEqual(t, fp1, fp2)

	boom := errors.New("boom")
	s.Fail(boom)
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, s.Loads())
}

package ratecard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/UDDITwork/shipsarthi-sub007/internal/cache/rediscache"
)

type countingSource struct {
	inner Source
	calls int
}

func (s *countingSource) CardForTier(ctx context.Context, tier string) (*Card, error) {
	s.calls++
	return s.inner.CardForTier(ctx, tier)
}

func TestCachedSource_HitsCacheSecondTime(t *testing.T) {
	mr := miniredis.RunT(t)
	cs := &countingSource{inner: NewStaticSource(DefaultCards())}
	src := NewCachedSource(cs, rediscache.New(mr.Addr()), 5*time.Minute)

	ctx := context.Background()
	c1, err := src.CardForTier(ctx, "Basic User")
	require.NoError(t, err)
	require.Equal(t, 1, cs.calls)

	c2, err := src.CardForTier(ctx, "basic user")
	require.NoError(t, err)
	require.Equal(t, 1, cs.calls)
	require.Equal(t, c1.COD, c2.COD)
	require.Equal(t, c1.ForwardSlabs, c2.ForwardSlabs)
}

func TestCachedSource_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	cs := &countingSource{inner: NewStaticSource(DefaultCards())}
	src := NewCachedSource(cs, rediscache.New(mr.Addr()), time.Minute)

	ctx := context.Background()
	_, err := src.CardForTier(ctx, "Lite")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = src.CardForTier(ctx, "Lite")
	require.NoError(t, err)
	require.Equal(t, 2, cs.calls)
}

func TestCachedSource_ErrorNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	cs := &countingSource{inner: NewStaticSource(nil)}
	src := NewCachedSource(cs, rediscache.New(mr.Addr()), time.Minute)

	_, err := src.CardForTier(context.Background(), "ghost")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, 1, cs.calls)
}

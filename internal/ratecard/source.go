package ratecard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/UDDITwork/shipsarthi-sub007/internal/cache"
)

// Source resolves a tier name to its rate card. Implementations return
// *ConfigurationError for tiers that have no card.
type Source interface {
	CardForTier(ctx context.Context, tier string) (*Card, error)
}

// CachedSource wraps a Source with a short-TTL byte cache so hot quote paths
// don't hit the DB on every calculation. Cards may be hot-swapped in the DB;
// staleness is bounded by the TTL.
type CachedSource struct {
	src   Source
	cache cache.BytesCache
	ttl   time.Duration
}

func NewCachedSource(src Source, c cache.BytesCache, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{src: src, cache: c, ttl: ttl}
}

func (s *CachedSource) CardForTier(ctx context.Context, tier string) (*Card, error) {
	key := "ratecard:" + NormalizeTier(tier)

	if s.cache != nil {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var card Card
			if json.Unmarshal(b, &card) == nil {
				return &card, nil
			}
		}
	}

	card, err := s.src.CardForTier(ctx, tier)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if b, err := json.Marshal(card); err == nil {
			_ = s.cache.Set(ctx, key, b, s.ttl)
		}
	}
	return card, nil
}

// StaticSource serves cards from memory. Used in tests and as the fallback
// when the DB has not been seeded yet.
type StaticSource struct {
	cards map[string]*Card
}

func NewStaticSource(cards []*Card) *StaticSource {
	m := make(map[string]*Card, len(cards))
	for _, c := range cards {
		m[NormalizeTier(c.Tier)] = c
	}
	return &StaticSource{cards: m}
}

func (s *StaticSource) CardForTier(_ context.Context, tier string) (*Card, error) {
	if c, ok := s.cards[NormalizeTier(tier)]; ok {
		return c, nil
	}
	return nil, &ConfigurationError{Tier: tier}
}

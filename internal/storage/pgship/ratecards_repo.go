package pgship

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/ratecard"
)

// CardForTier implements ratecard.Source. Tiers without a card fail with
// *ratecard.ConfigurationError.
func (s *Storage) CardForTier(ctx context.Context, tier string) (*ratecard.Card, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT card FROM rate_cards WHERE tier = $1`,
		ratecard.NormalizeTier(tier)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ratecard.ConfigurationError{Tier: tier}
	}
	if err != nil {
		return nil, errors.Wrap(err, "select rate card")
	}

	var card ratecard.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, errors.Wrap(err, "unmarshal rate card")
	}
	return &card, nil
}

func (s *Storage) UpsertRateCard(ctx context.Context, card *ratecard.Card) error {
	b, err := json.Marshal(card)
	if err != nil {
		return errors.Wrap(err, "marshal rate card")
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO rate_cards (tier, card, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (tier) DO UPDATE SET card = EXCLUDED.card, updated_at = now()
`, ratecard.NormalizeTier(card.Tier), b)
	return errors.Wrap(err, "upsert rate card")
}

// SeedRateCards inserts cards that don't exist yet; live cards are never
// overwritten.
func (s *Storage) SeedRateCards(ctx context.Context, cards []*ratecard.Card) error {
	for _, card := range cards {
		b, err := json.Marshal(card)
		if err != nil {
			return errors.Wrap(err, "marshal rate card")
		}
		_, err = s.db.Exec(ctx, `
INSERT INTO rate_cards (tier, card, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (tier) DO NOTHING
`, ratecard.NormalizeTier(card.Tier), b)
		if err != nil {
			return errors.Wrap(err, "seed rate card")
		}
	}
	return nil
}

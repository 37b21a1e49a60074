package pgship

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS orders (
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  waybill TEXT NOT NULL DEFAULT '',
  reference_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  status_history JSONB NOT NULL DEFAULT '[]',
  has_pickup_request BOOLEAN NOT NULL DEFAULT FALSE,
  delivered_at TIMESTAMPTZ NULL,
  delivered_by TEXT NOT NULL DEFAULT '',
  cancelled_at TIMESTAMPTZ NULL,
  rto_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_waybill ON orders(waybill)`,
		`
CREATE TABLE IF NOT EXISTS shipments (
  id BIGSERIAL PRIMARY KEY,
  order_id BIGINT NOT NULL DEFAULT 0,
  waybill TEXT NOT NULL,
  reference_id TEXT NOT NULL DEFAULT '',
  current_status TEXT NOT NULL,
  api_status TEXT NOT NULL DEFAULT '',
  is_delivered BOOLEAN NOT NULL DEFAULT FALSE,
  is_tracking_active BOOLEAN NOT NULL DEFAULT TRUE,
  has_pickup_request BOOLEAN NOT NULL DEFAULT FALSE,
  tracking_count INT NOT NULL DEFAULT 0,
  last_tracked_at TIMESTAMPTZ NULL,
  status_history JSONB NOT NULL DEFAULT '[]',
  failure_log JSONB NOT NULL DEFAULT '[]',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (waybill)
)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_order_id ON shipments(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_active ON shipments(is_tracking_active) WHERE is_tracking_active`,
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id BIGSERIAL PRIMARY KEY,
  waybill TEXT NOT NULL,
  reference_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  status_type TEXT NOT NULL DEFAULT '',
  status_at TIMESTAMPTZ NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  instructions TEXT NOT NULL DEFAULT '',
  nsl_code TEXT NOT NULL DEFAULT '',
  sort_code TEXT NOT NULL DEFAULT '',
  payload JSONB NULL,
  processed BOOLEAN NOT NULL DEFAULT TRUE,
  order_id BIGINT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		// The dedup key for carrier scan pushes.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tracking_events_dedup ON tracking_events(waybill, status, status_at)`,
		`
CREATE TABLE IF NOT EXISTS rate_cards (
  tier TEXT PRIMARY KEY,
  card JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS documents (
  id BIGSERIAL PRIMARY KEY,
  waybill TEXT NOT NULL,
  doc_type TEXT NOT NULL,
  url TEXT NOT NULL,
  content BYTEA NULL,
  order_id BIGINT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  UNIQUE (waybill, doc_type, url)
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

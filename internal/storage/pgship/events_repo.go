package pgship

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
)

// ApplyScanEvent stores a webhook scan event and the shipment/order rows it
// transitioned, atomically. The event insert doubles as the dedup check: a
// conflict on (waybill, status, status_at) aborts the whole transaction with
// ErrDuplicateEvent, so a concurrent duplicate delivery cannot race past the
// check and double-apply the order update.
func (s *Storage) ApplyScanEvent(ctx context.Context, ev *models.TrackingEvent, sh *models.ShipmentTracking, ord *models.Order) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var payload any
	if len(ev.Payload) > 0 {
		payload = ev.Payload
	}

	err = tx.QueryRow(ctx, `
INSERT INTO tracking_events (
  waybill, reference_id, status, status_type, status_at,
  location, instructions, nsl_code, sort_code, payload, processed, order_id, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now())
ON CONFLICT (waybill, status, status_at) DO NOTHING
RETURNING id
`, ev.Waybill, ev.ReferenceID, ev.Status, ev.StatusType, ev.StatusAt.UTC(),
		ev.Location, ev.Instructions, ev.NSLCode, ev.SortCode, payload, ev.Processed, ev.OrderID).Scan(&ev.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateEvent
	}
	if err != nil {
		return errors.Wrap(err, "insert tracking event")
	}

	if sh != nil {
		if err := updateShipmentTx(ctx, tx, sh); err != nil {
			return err
		}
	}
	if ord != nil {
		if err := updateOrderTx(ctx, tx, ord); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// EventExists is the cheap pre-enqueue duplicate check for the webhook
// boundary. The authoritative check stays inside ApplyScanEvent's
// transaction.
func (s *Storage) EventExists(ctx context.Context, waybill, rawStatus string, statusAt time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM tracking_events WHERE waybill = $1 AND status = $2 AND status_at = $3
)`, waybill, rawStatus, statusAt.UTC()).Scan(&exists)
	return exists, errors.Wrap(err, "event exists")
}

func (s *Storage) ListTrackingEvents(ctx context.Context, waybill string, limit, offset int) ([]*models.TrackingEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT
  id, waybill, reference_id, status, status_type, status_at,
  location, instructions, nsl_code, sort_code, payload, processed, order_id, created_at
FROM tracking_events
WHERE waybill = $1
ORDER BY status_at DESC
LIMIT $2 OFFSET $3
`, waybill, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	var out []*models.TrackingEvent
	for rows.Next() {
		var ev models.TrackingEvent
		var payload []byte
		if err := rows.Scan(
			&ev.ID, &ev.Waybill, &ev.ReferenceID, &ev.Status, &ev.StatusType, &ev.StatusAt,
			&ev.Location, &ev.Instructions, &ev.NSLCode, &ev.SortCode, &payload, &ev.Processed, &ev.OrderID, &ev.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		ev.Payload = payload
		out = append(out, &ev)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

package pgship

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
	"github.com/UDDITwork/shipsarthi-sub007/internal/status"
)

const shipmentColumns = `
  id, order_id, waybill, reference_id,
  current_status, api_status,
  is_delivered, is_tracking_active, has_pickup_request,
  tracking_count, last_tracked_at,
  status_history, failure_log,
  created_at, updated_at`

// UpsertShipmentFromOrder lazily creates the tracking record for an order's
// waybill. Re-running it for an existing waybill returns the current record
// untouched.
func (s *Storage) UpsertShipmentFromOrder(ctx context.Context, ord *models.Order) (*models.ShipmentTracking, error) {
	if ord.Waybill == "" {
		return nil, errors.New("order has no waybill")
	}

	initial := status.New
	if ord.HasPickupRequest {
		initial = status.PickupsManifests
	}

	now := time.Now().UTC()
	row := s.db.QueryRow(ctx, `
INSERT INTO shipments (
  order_id, waybill, reference_id, current_status, has_pickup_request, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$6)
ON CONFLICT (waybill)
DO UPDATE SET updated_at = shipments.updated_at
RETURNING`+shipmentColumns, ord.ID, ord.Waybill, ord.ReferenceID, initial, ord.HasPickupRequest, now)

	return scanShipment(row)
}

func (s *Storage) GetShipmentByWaybill(ctx context.Context, waybill string) (*models.ShipmentTracking, error) {
	row := s.db.QueryRow(ctx, `SELECT`+shipmentColumns+` FROM shipments WHERE waybill = $1`, waybill)
	sh, err := scanShipment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sh, err
}

// ListActiveShipments returns records still under surveillance, ordered by
// how stale they are. requirePickup narrows to shipments with a pickup
// request (the normal reconciliation filter).
func (s *Storage) ListActiveShipments(ctx context.Context, requirePickup bool) ([]*models.ShipmentTracking, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+shipmentColumns+`
FROM shipments
WHERE is_tracking_active
  AND (NOT $1 OR has_pickup_request)
ORDER BY last_tracked_at ASC NULLS FIRST
`, requirePickup)
	if err != nil {
		return nil, errors.Wrap(err, "select active shipments")
	}
	defer rows.Close()
	return collectShipments(rows)
}

// ListShipments walks every tracking record, terminal ones included. Used by
// the canonical-order resync pass.
func (s *Storage) ListShipments(ctx context.Context) ([]*models.ShipmentTracking, error) {
	rows, err := s.db.Query(ctx, `SELECT`+shipmentColumns+` FROM shipments ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "select shipments")
	}
	defer rows.Close()
	return collectShipments(rows)
}

// SaveReconciled persists an in-memory transition result: the shipment row,
// and the order row when the transition touched it. Both writes share one
// transaction.
func (s *Storage) SaveReconciled(ctx context.Context, sh *models.ShipmentTracking, ord *models.Order) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := updateShipmentTx(ctx, tx, sh); err != nil {
		return err
	}
	if ord != nil {
		if err := updateOrderTx(ctx, tx, ord); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func updateShipmentTx(ctx context.Context, tx pgx.Tx, sh *models.ShipmentTracking) error {
	history, err := json.Marshal(sh.StatusHistory)
	if err != nil {
		return errors.Wrap(err, "marshal status history")
	}
	failures, err := json.Marshal(sh.FailureLog)
	if err != nil {
		return errors.Wrap(err, "marshal failure log")
	}

	_, err = tx.Exec(ctx, `
UPDATE shipments
SET
  current_status = $2,
  api_status = $3,
  is_delivered = $4,
  is_tracking_active = $5,
  tracking_count = $6,
  last_tracked_at = $7,
  status_history = $8,
  failure_log = $9,
  updated_at = now()
WHERE id = $1
`, sh.ID, sh.CurrentStatus, sh.APIStatus, sh.IsDelivered, sh.IsTrackingActive,
		sh.TrackingCount, sh.LastTrackedAt, history, failures)
	return errors.Wrap(err, "update shipment")
}

func scanShipment(row pgx.Row) (*models.ShipmentTracking, error) {
	var sh models.ShipmentTracking
	var lastTrackedAt *time.Time
	var history, failures []byte
	if err := row.Scan(
		&sh.ID, &sh.OrderID, &sh.Waybill, &sh.ReferenceID,
		&sh.CurrentStatus, &sh.APIStatus,
		&sh.IsDelivered, &sh.IsTrackingActive, &sh.HasPickupRequest,
		&sh.TrackingCount, &lastTrackedAt,
		&history, &failures,
		&sh.CreatedAt, &sh.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan shipment")
	}
	sh.LastTrackedAt = lastTrackedAt
	if err := json.Unmarshal(history, &sh.StatusHistory); err != nil {
		return nil, errors.Wrap(err, "unmarshal status history")
	}
	if err := json.Unmarshal(failures, &sh.FailureLog); err != nil {
		return nil, errors.Wrap(err, "unmarshal failure log")
	}
	return &sh, nil
}

func collectShipments(rows pgx.Rows) ([]*models.ShipmentTracking, error) {
	var out []*models.ShipmentTracking
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

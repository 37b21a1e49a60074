package pgship

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
)

const orderColumns = `
  id, user_id, waybill, reference_id,
  status, status_history, has_pickup_request,
  delivered_at, delivered_by, cancelled_at, rto_at,
  created_at, updated_at`

func (s *Storage) CreateOrder(ctx context.Context, ord *models.Order) (*models.Order, error) {
	history, err := json.Marshal(ord.StatusHistory)
	if err != nil {
		return nil, errors.Wrap(err, "marshal status history")
	}
	now := time.Now().UTC()
	row := s.db.QueryRow(ctx, `
INSERT INTO orders (user_id, waybill, reference_id, status, status_history, has_pickup_request, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
RETURNING`+orderColumns, ord.UserID, ord.Waybill, ord.ReferenceID, ord.Status, history, ord.HasPickupRequest, now)
	return scanOrder(row)
}

func (s *Storage) GetOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id)
	ord, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ord, err
}

func (s *Storage) GetOrderByWaybill(ctx context.Context, waybill string) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE waybill = $1 ORDER BY id LIMIT 1`, waybill)
	ord, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ord, err
}

// UpdateOrderStatus persists an order's reconciled status outside a shipment
// transaction. Used by the drift-resync pass.
func (s *Storage) UpdateOrderStatus(ctx context.Context, ord *models.Order) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := updateOrderTx(ctx, tx, ord); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func updateOrderTx(ctx context.Context, tx pgx.Tx, ord *models.Order) error {
	history, err := json.Marshal(ord.StatusHistory)
	if err != nil {
		return errors.Wrap(err, "marshal status history")
	}

	_, err = tx.Exec(ctx, `
UPDATE orders
SET
  status = $2,
  status_history = $3,
  delivered_at = $4,
  delivered_by = $5,
  cancelled_at = $6,
  rto_at = $7,
  updated_at = now()
WHERE id = $1
`, ord.ID, ord.Status, history, ord.DeliveredAt, ord.DeliveredBy, ord.CancelledAt, ord.RTOAt)
	return errors.Wrap(err, "update order")
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var ord models.Order
	var history []byte
	if err := row.Scan(
		&ord.ID, &ord.UserID, &ord.Waybill, &ord.ReferenceID,
		&ord.Status, &history, &ord.HasPickupRequest,
		&ord.DeliveredAt, &ord.DeliveredBy, &ord.CancelledAt, &ord.RTOAt,
		&ord.CreatedAt, &ord.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan order")
	}
	if err := json.Unmarshal(history, &ord.StatusHistory); err != nil {
		return nil, errors.Wrap(err, "unmarshal status history")
	}
	return &ord, nil
}

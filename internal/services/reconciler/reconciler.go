package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/broker/messages"
	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier"
	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
	"github.com/UDDITwork/shipsarthi-sub007/internal/services/transition"
	"github.com/UDDITwork/shipsarthi-sub007/internal/status"
	"github.com/UDDITwork/shipsarthi-sub007/internal/storage/pgship"
)

type Repository interface {
	ListActiveShipments(ctx context.Context, requirePickup bool) ([]*models.ShipmentTracking, error)
	ListShipments(ctx context.Context) ([]*models.ShipmentTracking, error)
	GetShipmentByWaybill(ctx context.Context, waybill string) (*models.ShipmentTracking, error)
	GetOrderByID(ctx context.Context, id uint64) (*models.Order, error)
	GetOrderByWaybill(ctx context.Context, waybill string) (*models.Order, error)
	SaveReconciled(ctx context.Context, sh *models.ShipmentTracking, ord *models.Order) error
	UpdateOrderStatus(ctx context.Context, ord *models.Order) error
}

type Notifier interface {
	NotifyStatusChanged(ctx context.Context, m messages.StatusChanged) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Reconciler walks active shipments, asks the carrier where each one is and
// applies the resulting transition. One shipment failing never aborts the
// batch.
type Reconciler struct {
	repo     Repository
	carrier  carrier.Client
	notifier Notifier
	rl       RateLimiter

	interval           time.Duration
	interCallDelay     time.Duration
	rateLimitPerMinute int64
	requirePickup      bool

	triggerCh chan struct{}
	running   atomic.Bool

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalTracked        atomic.Int64
	totalErrors         atomic.Int64
	totalDelivered      atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository, cl carrier.Client, notifier Notifier, rl RateLimiter) *Reconciler {
	return &Reconciler{
		repo:               repo,
		carrier:            cl,
		notifier:           notifier,
		rl:                 rl,
		interval:           30 * time.Minute,
		interCallDelay:     200 * time.Millisecond,
		rateLimitPerMinute: 80,
		requirePickup:      true,
		triggerCh:          make(chan struct{}, 1),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (r *Reconciler) WithSettings(interval, interCallDelay time.Duration, rlPerMin int64, requirePickup bool) *Reconciler {
	if interval > 0 {
		r.interval = interval
	}
	if interCallDelay >= 0 {
		r.interCallDelay = interCallDelay
	}
	if rlPerMin > 0 {
		r.rateLimitPerMinute = rlPerMin
	}
	r.requirePickup = requirePickup
	return r
}

// Trigger forces an immediate cycle (best-effort, non-blocking).
func (r *Reconciler) Trigger() {
	r.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

// Report summarizes one reconciliation pass.
type Report struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Delivered  int `json:"delivered"`
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	Running        bool       `json:"running"`
	TotalTracked   int64      `json:"totalTracked"`
	TotalErrors    int64      `json:"totalErrors"`
	TotalDelivered int64      `json:"totalDelivered"`
	LastError      string     `json:"lastError,omitempty"`
}

func (r *Reconciler) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, r.startedAtUnixNano).UTC(),
		Running:        r.running.Load(),
		TotalTracked:   r.totalTracked.Load(),
		TotalErrors:    r.totalErrors.Load(),
		TotalDelivered: r.totalDelivered.Load(),
	}
	if n := r.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := r.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	r.lastErrorMu.Lock()
	st.LastError = r.lastError
	r.lastErrorMu.Unlock()
	return st
}

func (r *Reconciler) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.runOnce(ctx)
		case <-r.triggerCh:
			r.runOnce(ctx)
		}
	}
}

// runOnce is non-reentrant: a cycle that fires while the previous one is
// still walking its batch is dropped, not queued.
func (r *Reconciler) runOnce(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		slog.Warn("reconcile cycle already running, skipping")
		return
	}
	defer r.running.Store(false)

	r.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())

	rep, err := r.ReconcileAll(ctx)
	if err != nil {
		r.recordError(err)
		slog.Error("reconcile cycle", "error", err.Error())
		return
	}
	slog.Info("reconcile cycle done",
		"total", rep.Total, "successful", rep.Successful,
		"failed", rep.Failed, "delivered", rep.Delivered)
}

// ReconcileAll tracks every shipment still under surveillance. Carrier calls
// run sequentially with a small delay between them; a per-shipment failure is
// recorded on the shipment and the batch continues.
func (r *Reconciler) ReconcileAll(ctx context.Context) (Report, error) {
	items, err := r.repo.ListActiveShipments(ctx, r.requirePickup)
	if err != nil {
		return Report{}, errors.Wrap(err, "list active shipments")
	}
	return r.reconcileBatch(ctx, items), nil
}

// ForceRefreshAll re-tracks every shipment on record, terminal ones included.
// Terminal records only get their diagnostics refreshed.
func (r *Reconciler) ForceRefreshAll(ctx context.Context) (Report, error) {
	items, err := r.repo.ListShipments(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "list shipments")
	}
	return r.reconcileBatch(ctx, items), nil
}

func (r *Reconciler) reconcileBatch(ctx context.Context, items []*models.ShipmentTracking) Report {
	rep := Report{Total: len(items)}
	for i, sh := range items {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && r.interCallDelay > 0 {
			time.Sleep(r.interCallDelay)
		}

		delivered, err := r.reconcileShipment(ctx, sh)
		if err != nil {
			rep.Failed++
			r.totalErrors.Add(1)
			r.recordError(err)
			slog.Error("reconcile shipment", "waybill", sh.Waybill, "error", err.Error())
			continue
		}
		rep.Successful++
		if delivered {
			rep.Delivered++
			r.totalDelivered.Add(1)
		}
	}
	return rep
}

// ReconcileOne tracks a single waybill immediately, outside the batch cycle.
func (r *Reconciler) ReconcileOne(ctx context.Context, waybill string) error {
	sh, err := r.repo.GetShipmentByWaybill(ctx, waybill)
	if err != nil {
		return err
	}
	_, err = r.reconcileShipment(ctx, sh)
	return err
}

func (r *Reconciler) reconcileShipment(ctx context.Context, sh *models.ShipmentTracking) (bool, error) {
	now := time.Now().UTC()
	r.totalTracked.Add(1)

	if r.rl != nil && r.rateLimitPerMinute > 0 {
		key := fmt.Sprintf("rl:carrier:delhivery:%s", now.Format("200601021504"))
		allowed, n, err := r.rl.Allow(ctx, key, r.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err.Error())
		} else if !allowed {
			slog.Warn("carrier rate limit hit", "count", n)
			time.Sleep(time.Second)
		}
	}

	res, err := r.carrier.Track(ctx, sh.Waybill, sh.ReferenceID)
	if err != nil {
		r.recordFailure(ctx, sh, now, err)
		return false, err
	}

	mapped, fallback, ok := mapStatus(res.RawStatus)
	if !ok {
		err := &carrier.DataError{Op: "track", Msg: fmt.Sprintf("unmapped status %q", res.RawStatus)}
		r.recordFailure(ctx, sh, now, err)
		return false, err
	}
	if fallback {
		slog.Warn("status mapped via fallback heuristic",
			"waybill", sh.Waybill, "raw_status", res.RawStatus, "status", mapped)
	}

	ord := r.lookupOrder(ctx, sh)
	oldStatus := sh.CurrentStatus

	at := now
	if res.StatusAt != nil {
		at = *res.StatusAt
	}
	tres := transition.Apply(sh, ord, transition.Input{
		Status:       mapped,
		RawStatus:    res.RawStatus,
		StatusType:   res.StatusType,
		At:           at,
		Location:     res.Location,
		Instructions: res.Instructions,
		Fallback:     fallback,
		Source:       transition.SourceTracking,
		Raw:          res.Raw,
	}, now)

	var ordToSave *models.Order
	if tres.OrderChanged {
		ordToSave = ord
	}
	if err := r.repo.SaveReconciled(ctx, sh, ordToSave); err != nil {
		return false, errors.Wrap(err, "save reconciled")
	}

	if tres.StatusChanged {
		r.notify(ctx, sh, ord, oldStatus, at)
	}

	return tres.BecameTerminal && sh.IsDelivered, nil
}

// ResyncOrders re-derives every order's canonical status from its tracking
// record. Safe to run repeatedly; already-consistent pairs are untouched.
func (r *Reconciler) ResyncOrders(ctx context.Context) (int, error) {
	items, err := r.repo.ListShipments(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list shipments")
	}

	now := time.Now().UTC()
	var synced int
	for _, sh := range items {
		if ctx.Err() != nil {
			break
		}
		ord := r.lookupOrder(ctx, sh)
		if ord == nil {
			continue
		}
		if !transition.SyncOrder(sh, ord, now) {
			continue
		}
		if err := r.repo.UpdateOrderStatus(ctx, ord); err != nil {
			r.recordError(err)
			slog.Error("resync order", "waybill", sh.Waybill, "error", err.Error())
			continue
		}
		synced++
	}
	return synced, nil
}

// lookupOrder resolves the order behind a tracking record: by id first, then
// by waybill for records created before order ids were backfilled. A missing
// order is tolerated, the shipment is still tracked.
func (r *Reconciler) lookupOrder(ctx context.Context, sh *models.ShipmentTracking) *models.Order {
	if sh.OrderID != 0 {
		ord, err := r.repo.GetOrderByID(ctx, sh.OrderID)
		if err == nil {
			return ord
		}
		if !errors.Is(err, pgship.ErrNotFound) {
			slog.Warn("lookup order by id", "order_id", sh.OrderID, "error", err.Error())
		}
	}
	ord, err := r.repo.GetOrderByWaybill(ctx, sh.Waybill)
	if err != nil {
		if !errors.Is(err, pgship.ErrNotFound) {
			slog.Warn("lookup order by waybill", "waybill", sh.Waybill, "error", err.Error())
		}
		return nil
	}
	return ord
}

func (r *Reconciler) recordFailure(ctx context.Context, sh *models.ShipmentTracking, now time.Time, cause error) {
	f := models.TrackingFailure{
		Timestamp: now,
		Error:     cause.Error(),
	}
	var te *carrier.TransientError
	var de *carrier.DataError
	switch {
	case errors.As(cause, &te):
		f.ErrorType = "transient"
		f.StatusCode = te.StatusCode
	case errors.As(cause, &de):
		f.ErrorType = "data"
	default:
		f.ErrorType = "unknown"
	}
	sh.PushFailure(f)
	sh.TrackingCount++
	sh.LastTrackedAt = &now

	if err := r.repo.SaveReconciled(ctx, sh, nil); err != nil {
		slog.Error("save tracking failure", "waybill", sh.Waybill, "error", err.Error())
	}
}

func (r *Reconciler) notify(ctx context.Context, sh *models.ShipmentTracking, ord *models.Order, oldStatus string, at time.Time) {
	if r.notifier == nil {
		return
	}
	m := messages.StatusChanged{
		Waybill:   sh.Waybill,
		Status:    sh.CurrentStatus,
		OldStatus: oldStatus,
		Timestamp: at,
		Source:    string(transition.SourceTracking),
	}
	if ord != nil {
		m.OrderID = ord.ID
		m.UserID = ord.UserID
	}
	if n := len(sh.StatusHistory); n > 0 {
		m.Location = sh.StatusHistory[n-1].Location
	}
	// Best-effort: the transition is already committed, a lost notification
	// is repaired by the next dashboard poll.
	if err := r.notifier.NotifyStatusChanged(ctx, m); err != nil {
		slog.Warn("notify status change", "waybill", sh.Waybill, "error", err.Error())
	}
}

func (r *Reconciler) recordError(err error) {
	r.lastErrorMu.Lock()
	r.lastError = err.Error()
	r.lastErrorMu.Unlock()
}

func mapStatus(raw string) (mapped string, fallback bool, ok bool) {
	if s, ok := status.Normalize(raw); ok {
		return s, false, true
	}
	if s, ok := status.NormalizeFallback(raw); ok {
		return s, true, true
	}
	return "", false, false
}

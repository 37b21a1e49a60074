package transition

import (
	"encoding/json"
	"time"

	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
	"github.com/UDDITwork/shipsarthi-sub007/internal/status"
)

// Source tags a status-history entry with who applied it.
type Source string

const (
	SourceTracking Source = "automated_tracking"
	SourceWebhook  Source = "webhook"
)

// Input is one mapped carrier status ready to be applied.
type Input struct {
	Status       string
	RawStatus    string
	StatusType   string
	At           time.Time
	Location     string
	Instructions string
	Fallback     bool
	Source       Source
	Raw          json.RawMessage
}

// Result reports what Apply changed, so callers know whether to persist the
// order and whether to emit a notification.
type Result struct {
	StatusChanged  bool
	OrderChanged   bool
	BecameTerminal bool
	OldOrderStatus string
}

// Apply runs one transition against the in-memory shipment and order pair.
// The caller persists (transactionally where required) and notifies after
// commit.
//
// Rules, in order:
//   - a terminal shipment only gets its diagnostic fields refreshed, never a
//     status write or a history entry;
//   - every carrier ping on an active shipment appends to the shipment's
//     status history, even when the status is unchanged;
//   - the order is written only when its canonical status actually differs.
func Apply(sh *models.ShipmentTracking, ord *models.Order, in Input, now time.Time) Result {
	sh.TrackingCount++
	sh.LastTrackedAt = &now

	if status.IsTerminal(sh.CurrentStatus) {
		return Result{}
	}

	sh.APIStatus = in.RawStatus

	at := in.At
	if at.IsZero() {
		at = now
	}

	sh.StatusHistory = append(sh.StatusHistory, models.StatusHistoryEntry{
		Status:       in.Status,
		StatusType:   in.StatusType,
		Timestamp:    at,
		Location:     in.Location,
		Instructions: in.Instructions,
		Source:       string(in.Source),
		Fallback:     in.Fallback,
		Raw:          in.Raw,
	})

	res := Result{StatusChanged: sh.CurrentStatus != in.Status}
	sh.CurrentStatus = in.Status

	if status.IsTerminal(in.Status) {
		res.BecameTerminal = true
		sh.IsTrackingActive = false
		if in.Status == status.Delivered {
			sh.IsDelivered = true
		}
	}

	if ord != nil && ord.Status != in.Status {
		res.OrderChanged = true
		res.OldOrderStatus = ord.Status
		applyToOrder(ord, in, at)
	}

	return res
}

// SyncOrder re-derives the order's canonical status from its tracking record.
// Idempotent; used by the drift-resync maintenance pass. A terminal order is
// never regressed unless the tracking record itself is terminal.
func SyncOrder(sh *models.ShipmentTracking, ord *models.Order, now time.Time) bool {
	if ord == nil || ord.Status == sh.CurrentStatus {
		return false
	}
	if status.IsTerminal(ord.Status) && !status.IsTerminal(sh.CurrentStatus) {
		return false
	}
	applyToOrder(ord, Input{
		Status: sh.CurrentStatus,
		Source: SourceTracking,
	}, now)
	return true
}

func applyToOrder(ord *models.Order, in Input, at time.Time) {
	ord.StatusHistory = append(ord.StatusHistory, models.StatusHistoryEntry{
		Status:       in.Status,
		StatusType:   in.StatusType,
		Timestamp:    at,
		Location:     in.Location,
		Instructions: in.Instructions,
		Source:       string(in.Source),
		Fallback:     in.Fallback,
	})
	ord.Status = in.Status

	switch in.Status {
	case status.Delivered:
		t := at
		ord.DeliveredAt = &t
		if ord.DeliveredBy == "" {
			ord.DeliveredBy = in.Location
		}
	case status.Cancelled:
		t := at
		ord.CancelledAt = &t
	case status.RTO:
		t := at
		ord.RTOAt = &t
	}
}

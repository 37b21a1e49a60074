package models

import (
	"encoding/json"
	"time"
)

// maxTrackingFailures bounds the failure log kept on a shipment record.
const maxTrackingFailures = 10

// ShipmentTracking is the per-waybill record kept under active surveillance.
// It is created lazily the first time a shipment with a pickup request is seen
// and is never deleted: StatusHistory is the audit trail.
type ShipmentTracking struct {
	ID          uint64
	OrderID     uint64
	Waybill     string
	ReferenceID string

	CurrentStatus string
	APIStatus     string

	IsDelivered      bool
	IsTrackingActive bool
	HasPickupRequest bool

	TrackingCount int32
	LastTrackedAt *time.Time

	StatusHistory []StatusHistoryEntry
	FailureLog    []TrackingFailure

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusHistoryEntry is one carrier ping applied to a shipment. Entries are
// append-only; Fallback marks statuses derived via the substring heuristic
// rather than the mapping table.
type StatusHistoryEntry struct {
	Status       string          `json:"status"`
	StatusType   string          `json:"status_type,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Location     string          `json:"location,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
	Source       string          `json:"source,omitempty"`
	Fallback     bool            `json:"is_fallback,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

type TrackingFailure struct {
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error"`
	ErrorType  string    `json:"error_type,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
}

// PushFailure appends f to the bounded failure log, evicting the oldest
// entries FIFO past the cap.
func (s *ShipmentTracking) PushFailure(f TrackingFailure) {
	s.FailureLog = append(s.FailureLog, f)
	if n := len(s.FailureLog); n > maxTrackingFailures {
		s.FailureLog = s.FailureLog[n-maxTrackingFailures:]
	}
}

// Order is the canonical order aggregate as far as reconciliation is
// concerned: its status must stay derivable from the tracking record.
type Order struct {
	ID          uint64
	UserID      string
	Waybill     string
	ReferenceID string

	Status        string
	StatusHistory []StatusHistoryEntry

	HasPickupRequest bool

	DeliveredAt *time.Time
	DeliveredBy string
	CancelledAt *time.Time
	RTOAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackingEvent is one webhook-sourced carrier scan. The dedup key is
// (waybill, status, status timestamp).
type TrackingEvent struct {
	ID          uint64
	Waybill     string
	ReferenceID string

	Status       string
	StatusType   string
	StatusAt     time.Time
	Location     string
	Instructions string

	NSLCode  string
	SortCode string

	Payload   json.RawMessage
	Processed bool
	OrderID   *uint64

	CreatedAt time.Time
}

// Document is a carrier-pushed image (EPOD, sorter weight shot, QC photo)
// stored with a derived stable URL that doubles as its dedup key.
type Document struct {
	ID        uint64
	Waybill   string
	DocType   string
	URL       string
	Content   []byte
	OrderID   *uint64
	CreatedAt time.Time
}

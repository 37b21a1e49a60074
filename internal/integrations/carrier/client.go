package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TrackResult is the already-extracted view of a carrier tracking response.
// RawStatus is whatever status string the carrier reported; Raw keeps the
// full payload for the audit trail.
type TrackResult struct {
	RawStatus    string
	StatusType   string
	StatusAt     *time.Time
	Location     string
	Instructions string
	Raw          json.RawMessage
}

type CreateRequest struct {
	OrderID       uint64
	ReferenceID   string
	PickupPincode string
	DropPincode   string
	WeightGrams   int
	CODAmount     float64
}

type CreateResult struct {
	Waybill  string
	LabelURL string
	ETA      *time.Time
}

type ServiceabilityResult struct {
	Serviceable bool
	CODAllowed  bool
	Prepaid     bool
	Pickup      bool
	Zone        string
}

type QuoteRequest struct {
	OriginPincode string
	DestPincode   string
	WeightGrams   int
	CODAmount     float64
}

// Client is the opaque RPC boundary to the shipping carrier. Any non-success
// from any call means "this attempt failed, retry later" and is never fatal
// to a batch.
type Client interface {
	CreateShipment(ctx context.Context, req CreateRequest) (CreateResult, error)
	Track(ctx context.Context, waybill, reference string) (TrackResult, error)
	Cancel(ctx context.Context, waybill string) error
	Serviceability(ctx context.Context, pincode string) (ServiceabilityResult, error)
	Quote(ctx context.Context, req QuoteRequest) (float64, error)
}

// TransientError covers network failures, timeouts and carrier 5xx: the
// shipment is retried on the next pass, never discarded.
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("carrier %s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("carrier %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// DataError covers responses the carrier answered but that we cannot use:
// malformed bodies, missing status fields. Logged and skipped for the cycle.
type DataError struct {
	Op  string
	Msg string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("carrier %s: %s", e.Op, e.Msg)
}

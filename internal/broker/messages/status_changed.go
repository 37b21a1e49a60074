package messages

import "time"

// StatusChanged is published after a committed status transition. Consumers
// fan it out to connected dashboard clients; delivery is best-effort.
type StatusChanged struct {
	UserID  string `json:"user_id,omitempty"`
	OrderID uint64 `json:"order_id"`
	Waybill string `json:"waybill"`

	Status    string `json:"status"`
	OldStatus string `json:"old_status,omitempty"`

	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Source is "automated_tracking" or "webhook".
	Source string `json:"source,omitempty"`
}

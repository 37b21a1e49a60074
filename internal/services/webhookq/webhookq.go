package webhookq

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
)

// Kind names a webhook job type.
type Kind string

const (
	KindScanStatus  Kind = "scan-status"
	KindEPOD        Kind = "epod"
	KindSorterImage Kind = "sorter-image"
	KindQCImage     Kind = "qc-image"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity. The HTTP
// boundary must surface it as a retryable failure.
var ErrQueueFull = errors.New("webhook queue full")

// ValidationError rejects a malformed payload before it reaches the queue.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid webhook payload: %s", e.Msg)
}

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// maxImageBase64 caps the base64-encoded image string, not the decoded bytes.
const maxImageBase64 = 10 << 20

// Job is a transient queue entry. Jobs live only in process; a restart drops
// whatever has not been dequeued yet.
type Job struct {
	ID         string
	Kind       Kind
	Payload    json.RawMessage
	Attempts   int
	EnqueuedAt time.Time
	LastError  string
}

// ValidateScan checks a scan push before enqueue. It returns the decoded
// payload so the HTTP handler can run its duplicate pre-check.
func ValidateScan(payload []byte) (*models.ScanPush, error) {
	var p models.ScanPush
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, invalid("scan: %v", err)
	}
	p.Shipment.AWB = strings.TrimSpace(p.Shipment.AWB)
	p.Shipment.Status.Status = strings.TrimSpace(p.Shipment.Status.Status)
	if p.Shipment.AWB == "" {
		return nil, invalid("scan: missing Shipment.AWB")
	}
	if p.Shipment.Status.Status == "" {
		return nil, invalid("scan: missing Shipment.Status.Status")
	}
	return &p, nil
}

func ValidateEPOD(payload []byte) (*models.EPODPush, error) {
	var p models.EPODPush
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, invalid("epod: %v", err)
	}
	p.Waybill = strings.TrimSpace(p.Waybill)
	if p.Waybill == "" {
		return nil, invalid("epod: missing waybill")
	}
	if p.EPOD == "" {
		return nil, invalid("epod: missing EPOD image")
	}
	if len(p.EPOD) > maxImageBase64 {
		return nil, invalid("epod: image exceeds %d bytes", maxImageBase64)
	}
	return &p, nil
}

func ValidateSorterImage(payload []byte) (*models.SorterImagePush, error) {
	var p models.SorterImagePush
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, invalid("sorter: %v", err)
	}
	p.Waybill = strings.TrimSpace(p.Waybill)
	if p.Waybill == "" {
		return nil, invalid("sorter: missing Waybill")
	}
	if p.WeightImages == "" {
		return nil, invalid("sorter: missing Weight_images")
	}
	if len(p.WeightImages) > maxImageBase64 {
		return nil, invalid("sorter: image exceeds %d bytes", maxImageBase64)
	}
	return &p, nil
}

func ValidateQCImage(payload []byte) (*models.QCImagePush, error) {
	var p models.QCImagePush
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, invalid("qc: %v", err)
	}
	p.WaybillID = strings.TrimSpace(p.WaybillID)
	if p.WaybillID == "" {
		return nil, invalid("qc: missing waybillId")
	}
	if p.Image == "" {
		return nil, invalid("qc: missing Image")
	}
	if len(p.Image) > maxImageBase64 {
		return nil, invalid("qc: image exceeds %d bytes", maxImageBase64)
	}
	return &p, nil
}

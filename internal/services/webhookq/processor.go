package webhookq

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/broker/messages"
	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
	"github.com/UDDITwork/shipsarthi-sub007/internal/services/transition"
	"github.com/UDDITwork/shipsarthi-sub007/internal/status"
	"github.com/UDDITwork/shipsarthi-sub007/internal/storage/pgship"
)

type Store interface {
	GetShipmentByWaybill(ctx context.Context, waybill string) (*models.ShipmentTracking, error)
	UpsertShipmentFromOrder(ctx context.Context, ord *models.Order) (*models.ShipmentTracking, error)
	GetOrderByID(ctx context.Context, id uint64) (*models.Order, error)
	GetOrderByWaybill(ctx context.Context, waybill string) (*models.Order, error)
	ApplyScanEvent(ctx context.Context, ev *models.TrackingEvent, sh *models.ShipmentTracking, ord *models.Order) error
	UpsertDocument(ctx context.Context, doc *models.Document) (bool, error)
}

type Notifier interface {
	NotifyStatusChanged(ctx context.Context, m messages.StatusChanged) error
}

// Processor executes the four webhook job kinds. Scan events run through the
// shared transition logic inside the store's transaction; image pushes become
// document records deduplicated by their derived URL.
type Processor struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewProcessor(store Store, notifier Notifier) *Processor {
	return &Processor{store: store, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}
}

func (p *Processor) Process(ctx context.Context, job *Job) error {
	switch job.Kind {
	case KindScanStatus:
		return p.processScan(ctx, job)
	case KindEPOD:
		return p.processEPOD(ctx, job)
	case KindSorterImage:
		return p.processSorter(ctx, job)
	case KindQCImage:
		return p.processQC(ctx, job)
	default:
		return errors.Errorf("unknown job kind %q", job.Kind)
	}
}

func (p *Processor) processScan(ctx context.Context, job *Job) error {
	push, err := ValidateScan(job.Payload)
	if err != nil {
		return err
	}

	now := p.now()
	sp := push.Shipment
	statusAt := ParseStatusTime(sp.Status.StatusDateTime)

	ev := &models.TrackingEvent{
		Waybill:      sp.AWB,
		ReferenceID:  strings.TrimSpace(sp.ReferenceNo),
		Status:       sp.Status.Status,
		StatusType:   strings.TrimSpace(sp.Status.StatusType),
		StatusAt:     statusAt,
		Location:     strings.TrimSpace(sp.Status.StatusLocation),
		Instructions: strings.TrimSpace(sp.Status.Instructions),
		NSLCode:      strings.TrimSpace(sp.NSLCode),
		SortCode:     strings.TrimSpace(sp.Sortcode),
		Payload:      job.Payload,
	}

	sh, err := p.store.GetShipmentByWaybill(ctx, sp.AWB)
	if err != nil && !errors.Is(err, pgship.ErrNotFound) {
		return errors.Wrap(err, "lookup shipment")
	}

	var ord *models.Order
	if sh != nil {
		ord = p.lookupOrder(ctx, sh)
	} else if ord, _ = p.store.GetOrderByWaybill(ctx, sp.AWB); ord != nil {
		// The order exists but tracking never started for it. Create the
		// tracking record here so the scan can advance the canonical status.
		sh, err = p.store.UpsertShipmentFromOrder(ctx, ord)
		if err != nil {
			return errors.Wrap(err, "backfill shipment")
		}
		slog.Info("backfilled shipment for scan push", "waybill", sp.AWB, "order_id", ord.ID)
	}
	if ord != nil {
		ev.OrderID = &ord.ID
	}

	var (
		tres      transition.Result
		oldStatus string
		ordToSave *models.Order
	)
	if sh != nil {
		mapped, fallback, ok := mapStatus(sp.Status.Status)
		if ok {
			if fallback {
				slog.Warn("status mapped via fallback heuristic",
					"waybill", sp.AWB, "raw_status", sp.Status.Status, "status", mapped)
			}
			oldStatus = sh.CurrentStatus
			tres = transition.Apply(sh, ord, transition.Input{
				Status:       mapped,
				RawStatus:    sp.Status.Status,
				StatusType:   ev.StatusType,
				At:           statusAt,
				Location:     ev.Location,
				Instructions: ev.Instructions,
				Fallback:     fallback,
				Source:       transition.SourceWebhook,
				Raw:          job.Payload,
			}, now)
			ev.Processed = true
			if tres.OrderChanged {
				ordToSave = ord
			}
		} else {
			slog.Warn("scan push with unmapped status", "waybill", sp.AWB, "status", sp.Status.Status)
		}
	} else {
		slog.Warn("scan push for unknown waybill", "waybill", sp.AWB)
	}

	if err := p.store.ApplyScanEvent(ctx, ev, sh, ordToSave); err != nil {
		if errors.Is(err, pgship.ErrDuplicateEvent) {
			slog.Info("duplicate scan event", "waybill", sp.AWB, "status", sp.Status.Status)
			return nil
		}
		return errors.Wrap(err, "apply scan event")
	}

	if tres.StatusChanged && p.notifier != nil {
		at := statusAt
		if at.IsZero() {
			at = now
		}
		m := messages.StatusChanged{
			Waybill:   sp.AWB,
			Status:    sh.CurrentStatus,
			OldStatus: oldStatus,
			Location:  ev.Location,
			Timestamp: at,
			Source:    string(transition.SourceWebhook),
		}
		if ord != nil {
			m.OrderID = ord.ID
			m.UserID = ord.UserID
		}
		if err := p.notifier.NotifyStatusChanged(ctx, m); err != nil {
			slog.Warn("notify status change", "waybill", sp.AWB, "error", err.Error())
		}
	}

	return nil
}

func (p *Processor) processEPOD(ctx context.Context, job *Job) error {
	push, err := ValidateEPOD(job.Payload)
	if err != nil {
		return err
	}
	return p.storeDocument(ctx, push.Waybill, "epod", push.EPOD)
}

func (p *Processor) processSorter(ctx context.Context, job *Job) error {
	push, err := ValidateSorterImage(job.Payload)
	if err != nil {
		return err
	}
	return p.storeDocument(ctx, push.Waybill, "sorter", push.WeightImages)
}

func (p *Processor) processQC(ctx context.Context, job *Job) error {
	push, err := ValidateQCImage(job.Payload)
	if err != nil {
		return err
	}
	return p.storeDocument(ctx, push.WaybillID, "qc", push.Image)
}

func (p *Processor) storeDocument(ctx context.Context, waybill, docType, image string) error {
	content, err := decodeImage(image)
	if err != nil {
		return err
	}

	doc := &models.Document{
		Waybill: waybill,
		DocType: docType,
		URL:     documentURL(waybill, docType, content),
		Content: content,
	}
	if ord, err := p.store.GetOrderByWaybill(ctx, waybill); err == nil {
		doc.OrderID = &ord.ID
	}

	created, err := p.store.UpsertDocument(ctx, doc)
	if err != nil {
		return errors.Wrap(err, "upsert document")
	}
	if !created {
		slog.Info("duplicate document", "waybill", waybill, "doc_type", docType)
	}
	return nil
}

func (p *Processor) lookupOrder(ctx context.Context, sh *models.ShipmentTracking) *models.Order {
	if sh.OrderID != 0 {
		if ord, err := p.store.GetOrderByID(ctx, sh.OrderID); err == nil {
			return ord
		}
	}
	ord, err := p.store.GetOrderByWaybill(ctx, sh.Waybill)
	if err != nil {
		return nil
	}
	return ord
}

// decodeImage accepts plain base64 or a data-URL ("data:image/...;base64,").
func decodeImage(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	content, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		content, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, invalid("image is not valid base64")
	}
	return content, nil
}

// documentURL derives the stable storage URL that doubles as the document's
// dedup key: the same image pushed twice lands on the same URL.
func documentURL(waybill, docType string, content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("/documents/%s/%s/%x.jpg", waybill, docType, sum[:8])
}

var statusTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
}

// ParseStatusTime parses the handful of timestamp shapes the carrier is known
// to post. Unparseable input yields the zero time so the event dedup key stays
// stable across re-deliveries of the same payload.
func ParseStatusTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range statusTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func mapStatus(raw string) (mapped string, fallbackUsed bool, ok bool) {
	if s, ok := status.Normalize(raw); ok {
		return s, false, true
	}
	if s, ok := status.NormalizeFallback(raw); ok {
		return s, true, true
	}
	return "", false, false
}

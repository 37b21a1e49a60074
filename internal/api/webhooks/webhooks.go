package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier"
	"github.com/UDDITwork/shipsarthi-sub007/internal/ratecard"
	"github.com/UDDITwork/shipsarthi-sub007/internal/services/webhookq"
)

// maxBodyBytes leaves headroom over the 10MB base64 image cap plus the JSON
// envelope around it.
const maxBodyBytes = 12 << 20

type Enqueuer interface {
	Enqueue(kind webhookq.Kind, payload []byte) (string, error)
}

// EventStore is the cheap duplicate pre-check at the HTTP boundary. The
// authoritative dedup check runs inside the scan-event transaction.
type EventStore interface {
	EventExists(ctx context.Context, waybill, rawStatus string, statusAt time.Time) (bool, error)
}

// API is the carrier-facing HTTP surface: the four webhook endpoints plus the
// quote and serviceability helpers the dashboard calls.
type API struct {
	queue   Enqueuer
	events  EventStore
	rates   ratecard.Source
	carrier carrier.Client
}

func New(queue Enqueuer, events EventStore, rates ratecard.Source, cl carrier.Client) *API {
	return &API{queue: queue, events: events, rates: rates, carrier: cl}
}

func (a *API) Register(r chi.Router) {
	r.Post("/webhooks/delhivery/scan", a.handleScan)
	r.Post("/webhooks/delhivery/epod", a.handleEPOD)
	r.Post("/webhooks/delhivery/sorter", a.handleSorter)
	r.Post("/webhooks/delhivery/qc", a.handleQC)

	r.Get("/rates/quote", a.handleQuote)
	r.Get("/serviceability/{pincode}", a.handleServiceability)
}

type webhookResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	JobID     string `json:"job_id,omitempty"`
}

func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	push, err := webhookq.ValidateScan(body)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	// Re-delivered scans are acknowledged as duplicates so the carrier stops
	// retrying; they never reach the queue.
	statusAt := webhookq.ParseStatusTime(push.Shipment.Status.StatusDateTime)
	if a.events != nil {
		exists, err := a.events.EventExists(r.Context(), push.Shipment.AWB, push.Shipment.Status.Status, statusAt)
		if err != nil {
			slog.Warn("duplicate check failed", "waybill", push.Shipment.AWB, "error", err.Error())
		} else if exists {
			writeJSON(w, http.StatusOK, webhookResponse{Success: true, Duplicate: true, Message: "event already processed"})
			return
		}
	}

	a.enqueue(w, webhookq.KindScanStatus, body)
}

func (a *API) handleEPOD(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	if _, err := webhookq.ValidateEPOD(body); err != nil {
		writeValidationError(w, err)
		return
	}
	a.enqueue(w, webhookq.KindEPOD, body)
}

func (a *API) handleSorter(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	if _, err := webhookq.ValidateSorterImage(body); err != nil {
		writeValidationError(w, err)
		return
	}
	a.enqueue(w, webhookq.KindSorterImage, body)
}

func (a *API) handleQC(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	if _, err := webhookq.ValidateQCImage(body); err != nil {
		writeValidationError(w, err)
		return
	}
	a.enqueue(w, webhookq.KindQCImage, body)
}

func (a *API) enqueue(w http.ResponseWriter, kind webhookq.Kind, body []byte) {
	id, err := a.queue.Enqueue(kind, body)
	if errors.Is(err, webhookq.ErrQueueFull) {
		writeJSON(w, http.StatusServiceUnavailable, webhookResponse{Message: "queue full, retry later"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Message: "enqueue failed"})
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{Success: true, Message: "accepted", JobID: id})
}

func (a *API) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tier := q.Get("tier")
	if tier == "" {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Message: "tier is required"})
		return
	}
	weight, err := strconv.Atoi(q.Get("weight"))
	if err != nil || weight <= 0 {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Message: "weight must be a positive integer (grams)"})
		return
	}

	in := ratecard.Input{
		WeightGrams: weight,
		Zone:        q.Get("zone"),
		Direction:   ratecard.DirectionForward,
	}
	if q.Get("direction") == string(ratecard.DirectionRTO) {
		in.Direction = ratecard.DirectionRTO
	}
	in.LengthCM, _ = strconv.ParseFloat(q.Get("length"), 64)
	in.BreadthCM, _ = strconv.ParseFloat(q.Get("breadth"), 64)
	in.HeightCM, _ = strconv.ParseFloat(q.Get("height"), 64)
	in.CODAmount, _ = strconv.ParseFloat(q.Get("cod"), 64)

	card, err := a.rates.CardForTier(r.Context(), tier)
	if err != nil {
		var cfgErr *ratecard.ConfigurationError
		if errors.As(err, &cfgErr) {
			writeJSON(w, http.StatusNotFound, webhookResponse{Message: cfgErr.Error()})
			return
		}
		slog.Error("load rate card", "tier", tier, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Message: "rate card unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, ratecard.Calculate(card, in))
}

func (a *API) handleServiceability(w http.ResponseWriter, r *http.Request) {
	pincode := chi.URLParam(r, "pincode")

	res, err := a.carrier.Serviceability(r.Context(), pincode)
	if err != nil {
		slog.Error("serviceability", "pincode", pincode, "error", err.Error())
		writeJSON(w, http.StatusBadGateway, webhookResponse{Message: "carrier unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Message: "unreadable body"})
		return nil, false
	}
	return body, true
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, webhookResponse{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

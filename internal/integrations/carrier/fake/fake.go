package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier"
)

// Client is a deterministic stand-in for the real carrier, for local runs
// and tests. Status is derived from the waybill hash so a given shipment
// always reports the same thing.
type Client struct{}

func New() *Client { return &Client{} }

var statuses = []string{"Manifested", "In Transit", "Dispatched", "Pending", "Delivered"}

func (f *Client) Track(ctx context.Context, waybill, reference string) (carrier.TrackResult, error) {
	now := time.Now().UTC()
	raw := statuses[hash(waybill)%uint32(len(statuses))]
	return carrier.TrackResult{
		RawStatus: raw,
		StatusAt:  &now,
		Location:  "Fake_Hub",
		Raw:       []byte(fmt.Sprintf(`{"status":%q}`, raw)),
	}, nil
}

func (f *Client) CreateShipment(ctx context.Context, req carrier.CreateRequest) (carrier.CreateResult, error) {
	return carrier.CreateResult{
		Waybill: fmt.Sprintf("FAKE%010d", hash(req.ReferenceID)),
	}, nil
}

func (f *Client) Cancel(ctx context.Context, waybill string) error { return nil }

func (f *Client) Serviceability(ctx context.Context, pincode string) (carrier.ServiceabilityResult, error) {
	// Pincodes ending in 9 are unserviceable, everything else is.
	if len(pincode) > 0 && pincode[len(pincode)-1] == '9' {
		return carrier.ServiceabilityResult{}, nil
	}
	return carrier.ServiceabilityResult{
		Serviceable: true,
		CODAllowed:  true,
		Prepaid:     true,
		Pickup:      true,
		Zone:        "B",
	}, nil
}

func (f *Client) Quote(ctx context.Context, req carrier.QuoteRequest) (float64, error) {
	return float64(30 + req.WeightGrams/100), nil
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

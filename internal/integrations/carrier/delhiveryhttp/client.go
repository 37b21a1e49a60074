package delhiveryhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier"
)

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "https://track.delhivery.com"
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) Track(ctx context.Context, waybill, reference string) (carrier.TrackResult, error) {
	q := url.Values{}
	q.Set("waybill", waybill)
	if reference != "" {
		q.Set("ref_ids", reference)
	}

	body, err := c.get(ctx, "track", "/api/v1/packages/json/", q)
	if err != nil {
		return carrier.TrackResult{}, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return carrier.TrackResult{}, &carrier.DataError{Op: "track", Msg: "response is not a JSON object"}
	}

	res, ok := extractStatus(payload)
	if !ok {
		return carrier.TrackResult{}, &carrier.DataError{Op: "track", Msg: "no status field in any known response shape"}
	}
	res.Raw = json.RawMessage(body)
	return res, nil
}

func (c *Client) CreateShipment(ctx context.Context, req carrier.CreateRequest) (carrier.CreateResult, error) {
	payload := map[string]any{
		"pickup_pincode": req.PickupPincode,
		"drop_pincode":   req.DropPincode,
		"weight":         req.WeightGrams,
		"cod_amount":     req.CODAmount,
		"order":          req.ReferenceID,
	}
	body, err := c.post(ctx, "create", "/api/cmu/create.json", payload)
	if err != nil {
		return carrier.CreateResult{}, err
	}

	var resp struct {
		Packages []struct {
			Waybill string `json:"waybill"`
			Label   string `json:"label_url"`
		} `json:"packages"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Packages) == 0 {
		return carrier.CreateResult{}, &carrier.DataError{Op: "create", Msg: "no packages in response"}
	}
	return carrier.CreateResult{
		Waybill:  resp.Packages[0].Waybill,
		LabelURL: resp.Packages[0].Label,
	}, nil
}

func (c *Client) Cancel(ctx context.Context, waybill string) error {
	_, err := c.post(ctx, "cancel", "/api/p/edit", map[string]any{
		"waybill":      waybill,
		"cancellation": true,
	})
	return err
}

func (c *Client) Serviceability(ctx context.Context, pincode string) (carrier.ServiceabilityResult, error) {
	q := url.Values{}
	q.Set("filter_codes", pincode)

	body, err := c.get(ctx, "serviceability", "/c/api/pin-codes/json/", q)
	if err != nil {
		return carrier.ServiceabilityResult{}, err
	}

	var resp struct {
		DeliveryCodes []struct {
			PostalCode struct {
				COD     string `json:"cod"`
				Prepaid string `json:"pre_paid"`
				Pickup  string `json:"pickup"`
				Zone    string `json:"zone"`
			} `json:"postal_code"`
		} `json:"delivery_codes"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return carrier.ServiceabilityResult{}, &carrier.DataError{Op: "serviceability", Msg: "malformed response"}
	}
	if len(resp.DeliveryCodes) == 0 {
		return carrier.ServiceabilityResult{Serviceable: false}, nil
	}
	pc := resp.DeliveryCodes[0].PostalCode
	return carrier.ServiceabilityResult{
		Serviceable: true,
		CODAllowed:  pc.COD == "Y",
		Prepaid:     pc.Prepaid == "Y",
		Pickup:      pc.Pickup == "Y",
		Zone:        pc.Zone,
	}, nil
}

func (c *Client) Quote(ctx context.Context, req carrier.QuoteRequest) (float64, error) {
	q := url.Values{}
	q.Set("md", "S")
	q.Set("ss", "Delivered")
	q.Set("o_pin", req.OriginPincode)
	q.Set("d_pin", req.DestPincode)
	q.Set("cgm", strconv.Itoa(req.WeightGrams))
	if req.CODAmount > 0 {
		q.Set("pt", "COD")
		q.Set("cod", strconv.FormatFloat(req.CODAmount, 'f', 2, 64))
	} else {
		q.Set("pt", "Pre-paid")
	}

	body, err := c.get(ctx, "quote", "/api/kinko/v1/invoice/charges/.json", q)
	if err != nil {
		return 0, err
	}

	var resp []struct {
		TotalAmount float64 `json:"total_amount"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp) == 0 {
		return 0, &carrier.DataError{Op: "quote", Msg: "no charge rows in response"}
	}
	return resp[0].TotalAmount, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	return c.do(op, req)
}

func (c *Client) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = path

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &carrier.TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &carrier.TransientError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode/100 == 2:
		return body, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &carrier.TransientError{Op: op, StatusCode: resp.StatusCode}
	default:
		return nil, &carrier.DataError{Op: op, Msg: "http " + strconv.Itoa(resp.StatusCode)}
	}
}

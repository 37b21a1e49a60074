package delhiveryhttp

import (
	"time"

	"github.com/UDDITwork/shipsarthi-sub007/internal/integrations/carrier"
)

// The carrier nests tracking status under several shapes depending on API
// version and event source. Extraction is an ordered list of strategies,
// first success wins; a miss never panics, it just returns ok=false.
type extractor func(body map[string]any) (carrier.TrackResult, bool)

var extractors = []extractor{
	extractShipmentData,
	extractShipment,
	extractFlatData,
	extractTopLevel,
}

func extractStatus(body map[string]any) (carrier.TrackResult, bool) {
	for _, ex := range extractors {
		if res, ok := ex(body); ok {
			return res, true
		}
	}
	return carrier.TrackResult{}, false
}

// ShipmentData[0].Shipment.Status{Status,...}
func extractShipmentData(body map[string]any) (carrier.TrackResult, bool) {
	sd, ok := asSlice(body["ShipmentData"])
	if !ok || len(sd) == 0 {
		return carrier.TrackResult{}, false
	}
	first, ok := asMap(sd[0])
	if !ok {
		return carrier.TrackResult{}, false
	}
	sh, ok := asMap(first["Shipment"])
	if !ok {
		return carrier.TrackResult{}, false
	}
	return statusBlock(sh["Status"])
}

// Shipment.Status{Status,...} or Shipment.Status as a bare string.
func extractShipment(body map[string]any) (carrier.TrackResult, bool) {
	sh, ok := asMap(body["Shipment"])
	if !ok {
		return carrier.TrackResult{}, false
	}
	return statusBlock(sh["Status"])
}

// data[0].status
func extractFlatData(body map[string]any) (carrier.TrackResult, bool) {
	d, ok := asSlice(body["data"])
	if !ok || len(d) == 0 {
		return carrier.TrackResult{}, false
	}
	first, ok := asMap(d[0])
	if !ok {
		return carrier.TrackResult{}, false
	}
	if s, ok := asString(first["status"]); ok && s != "" {
		return carrier.TrackResult{RawStatus: s}, true
	}
	return carrier.TrackResult{}, false
}

// status at the top level.
func extractTopLevel(body map[string]any) (carrier.TrackResult, bool) {
	if s, ok := asString(body["status"]); ok && s != "" {
		return carrier.TrackResult{RawStatus: s}, true
	}
	return carrier.TrackResult{}, false
}

func statusBlock(v any) (carrier.TrackResult, bool) {
	if s, ok := asString(v); ok && s != "" {
		return carrier.TrackResult{RawStatus: s}, true
	}
	st, ok := asMap(v)
	if !ok {
		return carrier.TrackResult{}, false
	}
	raw, _ := asString(st["Status"])
	if raw == "" {
		return carrier.TrackResult{}, false
	}
	res := carrier.TrackResult{RawStatus: raw}
	res.StatusType, _ = asString(st["StatusType"])
	res.Location, _ = asString(st["StatusLocation"])
	res.Instructions, _ = asString(st["Instructions"])
	if ts, ok := asString(st["StatusDateTime"]); ok {
		if t, ok := parseStatusTime(ts); ok {
			res.StatusAt = &t
		}
	}
	return res, true
}

var statusTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseStatusTime(s string) (time.Time, bool) {
	for _, layout := range statusTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

package status

import "strings"

// Normalized internal statuses. A shipment only ever moves forward through
// these; the four terminal ones stop tracking.
const (
	New              = "new"
	ReadyToShip      = "ready_to_ship"
	PickupsManifests = "pickups_manifests"
	InTransit        = "in_transit"
	OutForDelivery   = "out_for_delivery"
	NDR              = "ndr"
	Delivered        = "delivered"
	RTO              = "rto"
	Cancelled        = "cancelled"
	Lost             = "lost"
)

// Display categories.
const (
	CategoryNew       = "NEW"
	CategoryReady     = "READY_TO_SHIP"
	CategoryInTransit = "IN_TRANSIT"
	CategoryNDR       = "NDR"
	CategoryDelivered = "DELIVERED"
	CategoryRTO       = "RTO"
	CategoryCancelled = "CANCELLED"
	CategoryLost      = "LOST"
)

// mapping is keyed by the canonical form of the carrier string (lowercase,
// separators collapsed to single spaces).
var mapping = map[string]string{
	"manifested":        ReadyToShip,
	"not picked":        ReadyToShip,
	"open":              ReadyToShip,
	"pickup scheduled":  PickupsManifests,
	"picked up":         PickupsManifests,
	"pickup complete":   PickupsManifests,
	"shipment picked up": PickupsManifests,

	"in transit":                    InTransit,
	"intransit":                     InTransit,
	"shipment received at facility": InTransit,
	"reached at destination":        InTransit,
	"left origin":                   InTransit,

	"out for delivery":        OutForDelivery,
	"dispatched":              OutForDelivery,
	"dispatched for delivery": OutForDelivery,

	"pending":                NDR,
	"undelivered":            NDR,
	"delivery attempt failed": NDR,
	"consignee unavailable":  NDR,
	"agent remark":           NDR,

	"delivered": Delivered,

	"cancelled": Cancelled,
	"canceled":  Cancelled,

	"rto":                RTO,
	"rto initiated":      RTO,
	"rto in transit":     RTO,
	"in transit for rto": RTO,
	"returned":           RTO,
	"rto delivered":      RTO,
	"dto":                RTO,

	"lost":          Lost,
	"shipment lost": Lost,
}

var categories = map[string]string{
	New:              CategoryNew,
	ReadyToShip:      CategoryReady,
	PickupsManifests: CategoryReady,
	InTransit:        CategoryInTransit,
	OutForDelivery:   CategoryInTransit,
	NDR:              CategoryNDR,
	Delivered:        CategoryDelivered,
	RTO:              CategoryRTO,
	Cancelled:        CategoryCancelled,
	Lost:             CategoryLost,
}

// Normalize maps a raw carrier status string to an internal status.
// Lookup is case-insensitive and tolerant of -/_ separators and extra
// whitespace. Unknown strings return ok=false; callers must not guess from
// an unmapped string on the primary path.
func Normalize(raw string) (string, bool) {
	s, ok := mapping[canonical(raw)]
	return s, ok
}

// NormalizeFallback is the degraded path for strings Normalize rejects:
// a substring heuristic that callers must flag and log. It never runs the
// mapping table; use Normalize first.
func NormalizeFallback(raw string) (string, bool) {
	c := canonical(raw)
	switch {
	case strings.Contains(c, "out for delivery"):
		return OutForDelivery, true
	case strings.Contains(c, "deliver"):
		return Delivered, true
	case strings.Contains(c, "transit"):
		return InTransit, true
	}
	return "", false
}

func CategoryOf(status string) string {
	return categories[status]
}

func IsTerminal(status string) bool {
	switch status {
	case Delivered, Cancelled, RTO, Lost:
		return true
	}
	return false
}

func canonical(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

package ratecard

import (
	"fmt"
	"strings"
)

type Zone string

const (
	ZoneA Zone = "A"
	ZoneB Zone = "B"
	ZoneC Zone = "C"
	ZoneD Zone = "D"
	ZoneE Zone = "E"
	ZoneF Zone = "F"
)

// Slab condition labels. The charge for a weight is cumulative across these,
// except at the 5kg/10kg checkpoints which carry their own flat price.
const (
	CondUpto250       = "Upto 250 gms"
	Cond250To500      = "250 to 500 gms"
	CondAdd500Till5Kg = "Add 500 gms till 5 kgs"
	CondUpto5Kg       = "Upto 5 kgs"
	CondAdd1KgTill10  = "Add 1 kg till 10 kgs"
	CondUpto10Kg      = "Upto 10 kgs"
	CondAdd1KgAbove10 = "Add 1 kg above 10 kgs"
)

type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionRTO     Direction = "rto"
)

type Slab struct {
	Condition string           `json:"condition"`
	Prices    map[Zone]float64 `json:"prices"`
}

type CODRule struct {
	Percent       float64 `json:"percent"`
	Minimum       float64 `json:"minimum"`
	GSTAdditional bool    `json:"gst_additional"`
}

// Card is one user tier's rate card. Immutable at calculation time.
type Card struct {
	Tier         string   `json:"tier"`
	ForwardSlabs []Slab   `json:"forward_slabs"`
	RTOSlabs     []Slab   `json:"rto_slabs"`
	COD          CODRule  `json:"cod"`
	Zones        []string `json:"zones,omitempty"`
	Terms        string   `json:"terms,omitempty"`
}

type Input struct {
	WeightGrams int
	LengthCM    float64
	BreadthCM   float64
	HeightCM    float64
	Zone        string
	CODAmount   float64
	Direction   Direction
}

type Breakdown struct {
	Forward float64 `json:"forward"`
	RTO     float64 `json:"rto"`
	COD     float64 `json:"cod"`
	Total   float64 `json:"total"`

	VolumetricWeightGrams int `json:"volumetric_weight_grams"`
	ChargeableWeightGrams int `json:"chargeable_weight_grams"`
}

// ConfigurationError means the requested tier has no rate card. It fails the
// single calculation, never a batch.
type ConfigurationError struct {
	Tier string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no rate card configured for tier %q", e.Tier)
}

// NormalizeZone maps carrier zone codes onto rate-card zones: C1/C2 fold into
// C, D1/D2 into D. Unknown codes return "" and price to zero, which callers
// must read as "unserviceable", not "free".
func NormalizeZone(z string) Zone {
	switch strings.ToUpper(strings.TrimSpace(z)) {
	case "A":
		return ZoneA
	case "B":
		return ZoneB
	case "C", "C1", "C2":
		return ZoneC
	case "D", "D1", "D2":
		return ZoneD
	case "E":
		return ZoneE
	case "F":
		return ZoneF
	}
	return ""
}

// NormalizeTier is the cache/storage key form of a tier name.
func NormalizeTier(tier string) string {
	return strings.ToLower(strings.Join(strings.Fields(tier), " "))
}

// Calculate prices a shipment from the card. Pure: no I/O, no transient
// failures.
func Calculate(card *Card, in Input) Breakdown {
	vol := volumetricGrams(in.LengthCM, in.BreadthCM, in.HeightCM)
	chargeable := in.WeightGrams
	if vol > chargeable {
		chargeable = vol
	}

	zone := NormalizeZone(in.Zone)

	bd := Breakdown{
		VolumetricWeightGrams: vol,
		ChargeableWeightGrams: chargeable,
	}
	if zone != "" {
		bd.Forward = slabCharge(card.ForwardSlabs, zone, chargeable)
		bd.RTO = slabCharge(card.RTOSlabs, zone, chargeable)
		bd.COD = codCharge(card.COD, in.CODAmount)
	}

	freight := bd.Forward
	if in.Direction == DirectionRTO {
		freight = bd.RTO
	}
	bd.Total = freight + bd.COD
	return bd
}

// volumetricGrams is (l*b*h)/5000 kg expressed in grams.
func volumetricGrams(l, b, h float64) int {
	return int(l * b * h / 5000 * 1000)
}

// slabCharge is the cumulative-slab lookup. The exact 5000g and 10000g
// checkpoints carry flat prices cheaper than the incremental formula would
// produce, so equality is checked before the ranges.
func slabCharge(slabs []Slab, zone Zone, grams int) float64 {
	price := func(cond string) float64 {
		for _, s := range slabs {
			if s.Condition == cond {
				return s.Prices[zone]
			}
		}
		return 0
	}

	switch {
	case grams == 5000:
		return price(CondUpto5Kg)
	case grams == 10000:
		return price(CondUpto10Kg)
	}

	switch {
	case grams <= 250:
		return price(CondUpto250)
	case grams <= 500:
		return price(CondUpto250) + price(Cond250To500)
	case grams < 5000:
		steps := ceilDiv(grams-500, 500)
		return price(CondUpto250) + price(Cond250To500) + float64(steps)*price(CondAdd500Till5Kg)
	case grams < 10000:
		steps := ceilDiv(grams-5000, 1000)
		return price(CondUpto5Kg) + float64(steps)*price(CondAdd1KgTill10)
	default:
		steps := ceilDiv(grams-10000, 1000)
		return price(CondUpto10Kg) + float64(steps)*price(CondAdd1KgAbove10)
	}
}

func codCharge(rule CODRule, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	c := amount * rule.Percent / 100
	if c < rule.Minimum {
		c = rule.Minimum
	}
	if rule.GSTAdditional {
		c *= 1.18
	}
	return c
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

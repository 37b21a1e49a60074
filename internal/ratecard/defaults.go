package ratecard

func zp(a, b, c, d, e, f float64) map[Zone]float64 {
	return map[Zone]float64{ZoneA: a, ZoneB: b, ZoneC: c, ZoneD: d, ZoneE: e, ZoneF: f}
}

// DefaultCards seeds storage on first boot and backs tests. Prices are the
// launch rate sheet; live cards are edited in the DB afterwards.
func DefaultCards() []*Card {
	return []*Card{
		{
			Tier: "New User",
			ForwardSlabs: []Slab{
				{Condition: CondUpto250, Prices: zp(33, 36, 40, 45, 53, 66)},
				{Condition: Cond250To500, Prices: zp(32, 34, 37, 42, 50, 62)},
				{Condition: CondAdd500Till5Kg, Prices: zp(30, 32, 36, 41, 48, 60)},
				{Condition: CondUpto5Kg, Prices: zp(174, 191, 225, 255, 290, 348)},
				{Condition: CondAdd1KgTill10, Prices: zp(29, 31, 35, 40, 46, 58)},
				{Condition: CondUpto10Kg, Prices: zp(297, 327, 385, 436, 495, 594)},
				{Condition: CondAdd1KgAbove10, Prices: zp(26, 29, 33, 37, 44, 55)},
			},
			RTOSlabs: []Slab{
				{Condition: CondUpto250, Prices: zp(26, 29, 32, 36, 42, 53)},
				{Condition: Cond250To500, Prices: zp(26, 27, 30, 34, 40, 50)},
				{Condition: CondAdd500Till5Kg, Prices: zp(24, 26, 29, 33, 38, 48)},
				{Condition: CondUpto5Kg, Prices: zp(139, 153, 180, 204, 232, 278)},
				{Condition: CondAdd1KgTill10, Prices: zp(23, 25, 28, 32, 37, 46)},
				{Condition: CondUpto10Kg, Prices: zp(238, 262, 308, 349, 396, 475)},
				{Condition: CondAdd1KgAbove10, Prices: zp(21, 23, 26, 30, 35, 44)},
			},
			COD: CODRule{Percent: 2.0, Minimum: 50, GSTAdditional: true},
		},
		{
			Tier: "Basic User",
			ForwardSlabs: []Slab{
				{Condition: CondUpto250, Prices: zp(30, 33, 36, 41, 48, 60)},
				{Condition: Cond250To500, Prices: zp(29, 31, 34, 38, 45, 56)},
				{Condition: CondAdd500Till5Kg, Prices: zp(27, 29, 33, 37, 44, 55)},
				{Condition: CondUpto5Kg, Prices: zp(158, 174, 205, 232, 264, 316)},
				{Condition: CondAdd1KgTill10, Prices: zp(26, 28, 32, 36, 42, 53)},
				{Condition: CondUpto10Kg, Prices: zp(270, 297, 350, 396, 450, 540)},
				{Condition: CondAdd1KgAbove10, Prices: zp(24, 26, 30, 34, 40, 50)},
			},
			RTOSlabs: []Slab{
				{Condition: CondUpto250, Prices: zp(24, 26, 29, 33, 38, 48)},
				{Condition: Cond250To500, Prices: zp(23, 25, 27, 30, 36, 45)},
				{Condition: CondAdd500Till5Kg, Prices: zp(22, 23, 26, 30, 35, 44)},
				{Condition: CondUpto5Kg, Prices: zp(126, 139, 164, 186, 211, 253)},
				{Condition: CondAdd1KgTill10, Prices: zp(21, 22, 26, 29, 34, 42)},
				{Condition: CondUpto10Kg, Prices: zp(216, 238, 280, 317, 360, 432)},
				{Condition: CondAdd1KgAbove10, Prices: zp(19, 21, 24, 27, 32, 40)},
			},
			COD: CODRule{Percent: 1.8, Minimum: 45, GSTAdditional: true},
		},
		{
			Tier: "Lite",
			ForwardSlabs: []Slab{
				{Condition: CondUpto250, Prices: zp(28, 31, 34, 38, 45, 56)},
				{Condition: Cond250To500, Prices: zp(27, 29, 32, 36, 42, 53)},
				{Condition: CondAdd500Till5Kg, Prices: zp(25, 27, 31, 35, 41, 51)},
				{Condition: CondUpto5Kg, Prices: zp(148, 163, 192, 217, 247, 296)},
				{Condition: CondAdd1KgTill10, Prices: zp(24, 26, 30, 34, 39, 49)},
				{Condition: CondUpto10Kg, Prices: zp(253, 278, 328, 371, 422, 506)},
				{Condition: CondAdd1KgAbove10, Prices: zp(22, 24, 28, 32, 37, 47)},
			},
			RTOSlabs: []Slab{
				{Condition: CondUpto250, Prices: zp(22, 25, 27, 30, 36, 45)},
				{Condition: Cond250To500, Prices: zp(22, 23, 26, 29, 34, 42)},
				{Condition: CondAdd500Till5Kg, Prices: zp(20, 22, 25, 28, 33, 41)},
				{Condition: CondUpto5Kg, Prices: zp(118, 130, 154, 174, 198, 237)},
				{Condition: CondAdd1KgTill10, Prices: zp(19, 21, 24, 27, 31, 39)},
				{Condition: CondUpto10Kg, Prices: zp(202, 222, 262, 297, 338, 405)},
				{Condition: CondAdd1KgAbove10, Prices: zp(18, 19, 22, 26, 30, 38)},
			},
			COD: CODRule{Percent: 1.6, Minimum: 40, GSTAdditional: true},
		},
		{
			Tier: "Advanced",
			ForwardSlabs: []Slab{
				{Condition: CondUpto250, Prices: zp(26, 29, 32, 36, 42, 53)},
				{Condition: Cond250To500, Prices: zp(25, 27, 30, 34, 40, 50)},
				{Condition: CondAdd500Till5Kg, Prices: zp(24, 25, 29, 33, 38, 48)},
				{Condition: CondUpto5Kg, Prices: zp(139, 153, 180, 204, 232, 278)},
				{Condition: CondAdd1KgTill10, Prices: zp(23, 24, 28, 32, 37, 46)},
				{Condition: CondUpto10Kg, Prices: zp(238, 261, 308, 348, 396, 475)},
				{Condition: CondAdd1KgAbove10, Prices: zp(21, 23, 26, 30, 35, 44)},
			},
			RTOSlabs: []Slab{
				{Condition: CondUpto250, Prices: zp(21, 23, 26, 29, 34, 42)},
				{Condition: Cond250To500, Prices: zp(20, 22, 24, 27, 32, 40)},
				{Condition: CondAdd500Till5Kg, Prices: zp(19, 20, 23, 26, 30, 38)},
				{Condition: CondUpto5Kg, Prices: zp(111, 122, 144, 163, 186, 222)},
				{Condition: CondAdd1KgTill10, Prices: zp(18, 19, 22, 26, 30, 37)},
				{Condition: CondUpto10Kg, Prices: zp(190, 209, 246, 278, 317, 380)},
				{Condition: CondAdd1KgAbove10, Prices: zp(17, 18, 21, 24, 28, 35)},
			},
			COD: CODRule{Percent: 1.5, Minimum: 35, GSTAdditional: false},
		},
	}
}

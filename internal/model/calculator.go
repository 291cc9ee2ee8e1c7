package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaterialUsage is what a set of pieces consumes from one material.
type MaterialUsage struct {
	AreaM2  float64 `json:"area_m2"`  // summed piece area
	LinearM float64 `json:"linear_m"` // summed piece length, used by linear pricing
}

// MaterialEstimate holds the purchase quantity and cost of one material.
type MaterialEstimate struct {
	MaterialID   string          `json:"material_id"`
	Name         string          `json:"name"`
	Pricing      PricingMode     `json:"pricing"`
	AreaM2       float64         `json:"area_m2"`
	LinearM      float64         `json:"linear_m"`
	WastePercent float64         `json:"waste_percent"` // waste applied to sheet pricing
	SheetAreaM2  float64         `json:"sheet_area_m2"`
	SheetsExact  float64         `json:"sheets_exact"` // fractional sheets after waste
	Sheets       int             `json:"sheets"`       // whole sheets to buy
	Cost         decimal.Decimal `json:"cost"`
}

// ceilEpsilon keeps float noise such as 2.0000000001 from buying an extra sheet.
const ceilEpsilon = 1e-9

// PriceMaterial computes the sheets and cost needed to cover usage with m.
//
// Sheet pricing buys ceil(area / (sheetArea * (1 - waste/100))) sheets; area
// pricing charges area * price per m²; linear pricing charges linear meters *
// price per meter. ok is false when the material cannot price the usage, e.g.
// a sheet material without a usable sheet area.
func PriceMaterial(m Material, usage MaterialUsage, wastePercent float64) (MaterialEstimate, bool) {
	est := MaterialEstimate{
		MaterialID: m.ID,
		Name:       m.Name,
		Pricing:    m.EffectivePricing(),
		AreaM2:     math.Max(0, usage.AreaM2),
		LinearM:    math.Max(0, usage.LinearM),
		Cost:       decimal.Zero,
	}

	switch est.Pricing {
	case PricingArea:
		est.Cost = decimal.NewFromFloat(est.AreaM2).Mul(m.PricePerM2).Round(2)
		return est, true

	case PricingLinear:
		est.Cost = decimal.NewFromFloat(est.LinearM).Mul(m.PricePerM).Round(2)
		return est, true
	}

	est.WastePercent = wastePercent
	est.SheetAreaM2 = m.SheetAreaM2()
	usable := est.SheetAreaM2 * (1.0 - wastePercent/100.0)
	if usable <= 0 {
		return est, false
	}
	if est.AreaM2 == 0 {
		return est, true
	}

	est.SheetsExact = est.AreaM2 / usable
	est.Sheets = int(math.Ceil(est.SheetsExact - ceilEpsilon))
	est.Cost = decimal.NewFromInt(int64(est.Sheets)).Mul(m.PricePerSheet)
	return est, true
}

// PriceArea is PriceMaterial for a plain area, as used by backing panels.
func PriceArea(m Material, areaM2, wastePercent float64) (MaterialEstimate, bool) {
	return PriceMaterial(m, MaterialUsage{AreaM2: areaM2}, wastePercent)
}

// ApplyDifficulty returns cost * (1 + coefficient). The coefficient models
// labor complexity and is clamped to [0, MaxDifficultyCoefficient].
func ApplyDifficulty(cost decimal.Decimal, coefficient float64) decimal.Decimal {
	c := math.Min(math.Max(coefficient, 0), MaxDifficultyCoefficient)
	return cost.Mul(decimal.NewFromFloat(1 + c)).Round(2)
}

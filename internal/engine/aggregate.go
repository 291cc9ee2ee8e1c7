package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SlabCost/internal/model"
)

// MaterialLine is the purchase estimate of one material.
type MaterialLine struct {
	model.MaterialEstimate
	PieceCount            int             `json:"piece_count"`
	EdgeBandingM          float64         `json:"edge_banding_m"`
	EdgeBandingWithWasteM float64         `json:"edge_banding_with_waste_m"`
	EdgeBandingCost       decimal.Decimal `json:"edge_banding_cost"`
	Nesting               *NestingResult  `json:"nesting,omitempty"`
}

// CostSummary is the raw cost of a piece list. Difficulty is not applied.
type CostSummary struct {
	Materials         []MaterialLine  `json:"materials"`
	Hardware          []HardwareLine  `json:"hardware"`
	TotalAreaM2       float64         `json:"total_area_m2"`
	TotalEdgeBandingM float64         `json:"total_edge_banding_m"`
	MaterialCost      decimal.Decimal `json:"material_cost"`
	EdgeBandingCost   decimal.Decimal `json:"edge_banding_cost"`
	HardwareCost      decimal.Decimal `json:"hardware_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	Issues            []model.Issue   `json:"issues,omitempty"`
}

type materialGroup struct {
	material *model.Material
	pieces   []model.Piece
	usage    model.MaterialUsage
	banding  float64
}

// Aggregate sums pieces per material into sheets and cost and adds hardware.
// Materials are listed in order of first use. Pieces whose material is not in
// cat are excluded from every total and reported.
func Aggregate(pieces []model.Piece, hardware []HardwareLine, cat model.Catalog, policy model.WastePolicy) CostSummary {
	sum := CostSummary{
		Materials:       []MaterialLine{},
		Hardware:        append([]HardwareLine{}, hardware...),
		MaterialCost:    decimal.Zero,
		EdgeBandingCost: decimal.Zero,
		HardwareCost:    decimal.Zero,
	}

	var order []string
	groups := make(map[string]*materialGroup)
	for _, p := range pieces {
		g, ok := groups[p.MaterialID]
		if !ok {
			m := cat.FindMaterial(p.MaterialID)
			if m == nil {
				sum.Issues = append(sum.Issues, model.Issue{
					Kind: model.IssueMissingMaterial, Subject: p.Name,
					Detail: fmt.Sprintf("material %q is not in the catalog", p.MaterialID),
				})
				continue
			}
			g = &materialGroup{material: m}
			groups[p.MaterialID] = g
			order = append(order, p.MaterialID)
		}
		g.pieces = append(g.pieces, p)
		g.usage.AreaM2 += p.AreaM2
		g.usage.LinearM += p.LengthMm / 1000 * float64(p.Quantity)
		g.banding += p.EdgeBandingMeters
	}

	bandingFactor := 1 + policy.EdgeBandingWastePercent/100
	for _, id := range order {
		g := groups[id]
		est, ok := model.PriceMaterial(*g.material, g.usage, policy.WasteFor(*g.material))
		if !ok {
			sum.Issues = append(sum.Issues, model.Issue{
				Kind: model.IssueDegenerateGeometry, Subject: g.material.Name,
				Detail: "material has no usable sheet area",
			})
			continue
		}

		line := MaterialLine{
			MaterialEstimate:      est,
			PieceCount:            len(g.pieces),
			EdgeBandingM:          g.banding,
			EdgeBandingWithWasteM: g.banding * bandingFactor,
			EdgeBandingCost: decimal.NewFromFloat(g.banding * bandingFactor).
				Mul(g.material.EdgeBandingPricePerM).Round(2),
		}
		if policy.Nesting && est.Pricing == model.PricingSheet {
			n := Nest(g.pieces, *g.material, policy.KerfMm)
			line.Nesting = &n
		}

		sum.Materials = append(sum.Materials, line)
		sum.TotalAreaM2 += est.AreaM2
		sum.TotalEdgeBandingM += g.banding
		sum.MaterialCost = sum.MaterialCost.Add(est.Cost)
		sum.EdgeBandingCost = sum.EdgeBandingCost.Add(line.EdgeBandingCost)
	}

	for _, h := range hardware {
		sum.HardwareCost = sum.HardwareCost.Add(h.Cost)
	}
	sum.TotalCost = sum.MaterialCost.Add(sum.EdgeBandingCost).Add(sum.HardwareCost)
	return sum
}

// Package slat computes slat panel layouts: single-axis screens (ripado) and
// two-axis lattices (muxarabi), with cut planning against stock sheets.
package slat

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SlabCost/internal/model"
)

// SlatSpec is the cross-section and gap of one slat family.
type SlatSpec struct {
	WidthMm     float64 `json:"width_mm" validate:"gte=0"`
	ThicknessMm float64 `json:"thickness_mm" validate:"gte=0"`
	SpacingMm   float64 `json:"spacing_mm" validate:"gte=0"`
}

// PanelSpec describes a slat panel. Vertical slats run the panel height and
// are laid out along its width; horizontal slats run the width along the
// height. SameSlats makes a lattice that reuses the vertical slat and material
// for the horizontal axis.
type PanelSpec struct {
	PanelWidthMm       float64         `json:"panel_width_mm" validate:"gte=0"`
	PanelHeightMm      float64         `json:"panel_height_mm" validate:"gte=0"`
	Vertical           SlatSpec        `json:"vertical"`
	Horizontal         *SlatSpec       `json:"horizontal,omitempty"`
	SameSlats          bool            `json:"same_slats"`
	HasBacking         bool            `json:"has_backing"`
	BackingMaterial    *model.Material `json:"backing_material,omitempty"`
	VerticalMaterial   *model.Material `json:"vertical_material,omitempty"`
	HorizontalMaterial *model.Material `json:"horizontal_material,omitempty"`
}

// AxisResult is the layout of one slat family.
type AxisResult struct {
	Count         int             `json:"count"`
	SlatLengthMm  float64         `json:"slat_length_mm"`
	LinearM       float64         `json:"linear_m"`
	OccupiedMm    float64         `json:"occupied_mm"` // slats plus inner gaps along the axis
	MarginMm      float64         `json:"margin_mm"`   // leftover on each side when centered
	MaterialID    string          `json:"material_id,omitempty"`
	SlatsPerSheet int             `json:"slats_per_sheet"`
	Sheets        int             `json:"sheets"`
	Cost          decimal.Decimal `json:"cost"`
}

// BackingResult is the substrate behind the slats.
type BackingResult struct {
	AreaM2       float64         `json:"area_m2"`
	EdgeBandingM float64         `json:"edge_banding_m"`
	MaterialID   string          `json:"material_id,omitempty"`
	Sheets       int             `json:"sheets"`
	Cost         decimal.Decimal `json:"cost"`
}

// Result is the full layout of a panel.
type Result struct {
	Vertical        AxisResult      `json:"vertical"`
	Horizontal      *AxisResult     `json:"horizontal,omitempty"`
	PanelAreaM2     float64         `json:"panel_area_m2"`
	CoveredAreaM2   float64         `json:"covered_area_m2"`
	CoveragePercent float64         `json:"coverage_percent"`
	VoidPercent     float64         `json:"void_percent"`
	Backing         *BackingResult  `json:"backing,omitempty"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	Issues          []model.Issue   `json:"issues,omitempty"`
}

// Count returns how many slats of width w separated by gaps s fit along
// axis: floor((axis + s) / (w + s)), never negative.
func Count(axisMm, widthMm, spacingMm float64) int {
	step := widthMm + spacingMm
	if step <= 0 || axisMm <= 0 {
		return 0
	}
	n := math.Floor((axisMm + spacingMm) / step)
	if n < 0 || math.IsNaN(n) {
		return 0
	}
	return int(n)
}

// PerSheet returns how many slats of length l and width w can be cut from a
// sheetL x sheetW board, taking the better of both orientations. The result
// is at least 1.
func PerSheet(lengthMm, widthMm, sheetL, sheetW float64) int {
	if lengthMm <= 0 || widthMm <= 0 {
		return 1
	}
	a := math.Floor(sheetL/lengthMm) * math.Floor(sheetW/widthMm)
	b := math.Floor(sheetW/lengthMm) * math.Floor(sheetL/widthMm)
	return int(math.Max(1, math.Max(a, b)))
}

// Layout computes slat counts, cut plan, coverage and cost for a panel.
func Layout(spec PanelSpec) Result {
	var res Result
	w, h := math.Max(0, spec.PanelWidthMm), math.Max(0, spec.PanelHeightMm)
	res.PanelAreaM2 = w * h / 1e6

	res.Vertical = layoutAxis(&res, "vertical", spec.Vertical, w, h, spec.VerticalMaterial)
	covered := float64(res.Vertical.Count) * spec.Vertical.WidthMm * h

	hSpec, hMat := spec.Horizontal, spec.HorizontalMaterial
	if spec.SameSlats {
		hSpec, hMat = &spec.Vertical, spec.VerticalMaterial
	}
	if hSpec != nil {
		ax := layoutAxis(&res, "horizontal", *hSpec, h, w, hMat)
		res.Horizontal = &ax
		covered += float64(ax.Count) * hSpec.WidthMm * w
		covered -= float64(res.Vertical.Count) * spec.Vertical.WidthMm * float64(ax.Count) * hSpec.WidthMm
	}

	res.CoveredAreaM2 = math.Max(0, covered/1e6)
	if res.PanelAreaM2 > 0 {
		res.CoveragePercent = math.Min(100, res.CoveredAreaM2/res.PanelAreaM2*100)
	}
	res.VoidPercent = 100 - res.CoveragePercent

	res.TotalCost = res.Vertical.Cost
	if res.Horizontal != nil {
		res.TotalCost = res.TotalCost.Add(res.Horizontal.Cost)
	}
	if spec.HasBacking {
		b := layoutBacking(&res, w, h, spec.BackingMaterial)
		res.Backing = &b
		res.TotalCost = res.TotalCost.Add(b.Cost)
	}
	return res
}

func (r *Result) issue(kind model.IssueKind, subject, detail string) {
	r.Issues = append(r.Issues, model.Issue{Kind: kind, Subject: subject, Detail: detail})
}

// layoutAxis lays slats of length slatLen out along axis.
func layoutAxis(res *Result, name string, s SlatSpec, axis, slatLen float64, m *model.Material) AxisResult {
	ax := AxisResult{Cost: decimal.Zero, SlatLengthMm: slatLen}
	ax.Count = Count(axis, s.WidthMm, s.SpacingMm)
	if ax.Count == 0 {
		res.issue(model.IssueDegenerateGeometry, name, "no slat fits the panel")
		return ax
	}
	ax.LinearM = float64(ax.Count) * slatLen / 1000
	ax.OccupiedMm = float64(ax.Count)*s.WidthMm + float64(ax.Count-1)*s.SpacingMm
	ax.MarginMm = math.Max(0, (axis-ax.OccupiedMm)/2)

	if m == nil {
		return ax
	}
	ax.MaterialID = m.ID

	switch m.EffectivePricing() {
	case model.PricingSheet:
		if slatLen > math.Max(m.SheetWidthMm, m.SheetHeightMm) {
			res.issue(model.IssueOversizeSlat, name,
				fmt.Sprintf("slat length %g mm exceeds the %gx%g mm sheet", slatLen, m.SheetWidthMm, m.SheetHeightMm))
		}
		ax.SlatsPerSheet = PerSheet(slatLen, s.WidthMm, m.SheetWidthMm, m.SheetHeightMm)
		ax.Sheets = int(math.Ceil(float64(ax.Count) / float64(ax.SlatsPerSheet)))
		ax.Cost = decimal.NewFromInt(int64(ax.Sheets)).Mul(m.PricePerSheet)
	default:
		usage := model.MaterialUsage{
			AreaM2:  float64(ax.Count) * s.WidthMm * slatLen / 1e6,
			LinearM: ax.LinearM,
		}
		est, _ := model.PriceMaterial(*m, usage, 0)
		ax.Cost = est.Cost
	}
	return ax
}

func layoutBacking(res *Result, w, h float64, m *model.Material) BackingResult {
	b := BackingResult{
		AreaM2:       w * h / 1e6,
		EdgeBandingM: 2 * (w + h) / 1000,
		Cost:         decimal.Zero,
	}
	if m == nil {
		res.issue(model.IssueMissingMaterial, "backing", "no backing material selected")
		return b
	}
	b.MaterialID = m.ID
	est, ok := model.PriceArea(*m, b.AreaM2, m.Waste())
	if !ok {
		res.issue(model.IssueDegenerateGeometry, "backing", "backing material has no usable sheet area")
		return b
	}
	b.Sheets = est.Sheets
	b.Cost = est.Cost
	return b
}

package engine

import (
	"github.com/shopspring/decimal"

	"github.com/piwi3910/SlabCost/internal/model"
)

// Result is the bill of materials and raw cost of one computation.
type Result struct {
	Pieces            []model.Piece    `json:"pieces"`
	Hardware          []HardwareLine   `json:"hardware"`
	Variables         []model.Variable `json:"variables,omitempty"`
	TotalAreaM2       float64          `json:"total_area_m2"`
	TotalEdgeBandingM float64          `json:"total_edge_banding_m"`
	TotalCost         decimal.Decimal  `json:"total_cost"`
	Summary           CostSummary      `json:"summary"`
	Issues            []model.Issue    `json:"issues,omitempty"`
}

// pricingCatalog adds the fixed boards to cat so their pieces can be priced.
// Fixed boards come first: a budget material that reuses a fixed board's ID
// never changes the price of fixed_sheet pieces.
func pricingCatalog(cat model.Catalog, opts GenerateOptions) model.Catalog {
	return model.Catalog{Materials: opts.fixedSheets()}.Merge(cat)
}

// Compute generates and aggregates a single box or component against an
// already resolved namespace.
func Compute(def model.Definition, ns *Namespace, sel model.MaterialSelection, cat model.Catalog, policy model.WastePolicy, opts GenerateOptions) Result {
	gen := Generate(def, ns, sel, cat, opts)
	return finish(gen.Pieces, gen.Hardware, ns, pricingCatalog(cat, opts), policy, gen.Issues)
}

func finish(pieces []model.Piece, hw []HardwareLine, ns *Namespace, cat model.Catalog, policy model.WastePolicy, issues []model.Issue) Result {
	sum := Aggregate(pieces, hw, cat, policy)
	all := append(ns.Issues(), issues...)
	all = append(all, sum.Issues...)
	if pieces == nil {
		pieces = []model.Piece{}
	}
	if hw == nil {
		hw = []HardwareLine{}
	}
	return Result{
		Pieces:            pieces,
		Hardware:          hw,
		Variables:         ns.Variables(),
		TotalAreaM2:       sum.TotalAreaM2,
		TotalEdgeBandingM: sum.TotalEdgeBandingM,
		TotalCost:         sum.TotalCost,
		Summary:           sum,
		Issues:            all,
	}
}

// ComponentInstance places one component definition inside a box.
type ComponentInstance struct {
	Definition model.ComponentDefinition
	Values     map[string]float64 // own variable values
	Hardware   map[string]bool    // hardware toggles by spec ID
	// ExternalComponent overrides the selection's external component material.
	ExternalComponent string
}

// Assembly is a box with the components placed in it. Box may be nil for a
// components-only computation, in which case Dims still define L, A and P.
type Assembly struct {
	Box         *model.BoxDefinition
	Dims        model.BoxDims
	ThicknessMm float64
	Selection   model.MaterialSelection
	Components  []ComponentInstance
	FixedSheets []model.Material
}

// ComputeAssembly resolves the box namespace and a child namespace per
// component, generates everything and aggregates it as one purchase.
//
// Pieces are ordered box pieces, box end panels, component pieces and finally
// every external front.
func ComputeAssembly(a Assembly, cat model.Catalog, policy model.WastePolicy) Result {
	opts := GenerateOptions{FixedSheets: a.FixedSheets}

	var derived []model.DerivedVar
	if a.Box != nil {
		derived = a.Box.DerivedVariables
	}
	boxNS := Resolve(a.Dims, a.ThicknessMm, nil, nil, derived)

	var pieces, fronts []model.Piece
	var hw []HardwareLine
	var issues []model.Issue
	if a.Box != nil {
		gen := Generate(*a.Box, boxNS, a.Selection, cat, opts)
		pieces = append(pieces, gen.Pieces...)
		hw = append(hw, gen.Hardware...)
		issues = append(issues, gen.Issues...)
	}

	for _, inst := range a.Components {
		def := inst.Definition
		ns := boxNS.With(def.OwnVariables, inst.Values, def.DerivedVariables)
		issues = append(issues, ns.issues[len(boxNS.issues):]...)

		sel := a.Selection
		if inst.ExternalComponent != "" {
			sel.ExternalComponent = inst.ExternalComponent
		}
		gen := Generate(def, ns, sel, cat, GenerateOptions{FixedSheets: a.FixedSheets, Hardware: inst.Hardware})
		for _, p := range gen.Pieces {
			if p.Kind == model.KindExternalFront {
				fronts = append(fronts, p)
			} else {
				pieces = append(pieces, p)
			}
		}
		hw = append(hw, gen.Hardware...)
		issues = append(issues, gen.Issues...)
	}
	pieces = append(pieces, fronts...)

	return finish(pieces, hw, boxNS, pricingCatalog(cat, opts), policy, issues)
}

package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SlabCost/internal/formula"
	"github.com/piwi3910/SlabCost/internal/model"
)

// GenerateOptions carries the per-instance choices that are not materials.
type GenerateOptions struct {
	// FixedSheets are the boards bound by fixed_sheet pieces.
	// Nil means model.DefaultFixedSheets().
	FixedSheets []model.Material
	// Hardware toggles by HardwareSpec ID. Missing entries use DefaultEnabled.
	Hardware map[string]bool
}

func (o GenerateOptions) fixedSheets() []model.Material {
	if o.FixedSheets == nil {
		return model.DefaultFixedSheets()
	}
	return o.FixedSheets
}

func (o GenerateOptions) hardwareEnabled(h model.HardwareSpec) bool {
	if on, ok := o.Hardware[h.ID]; ok {
		return on
	}
	return h.DefaultEnabled
}

// HardwareLine is one enabled hardware entry with its evaluated quantity.
type HardwareLine struct {
	SpecID     string          `json:"spec_id"`
	Name       string          `json:"name"`
	HardwareID string          `json:"hardware_id"`
	Source     string          `json:"source,omitempty"`
	Quantity   float64         `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Cost       decimal.Decimal `json:"cost"`
}

// Generation is the output of Generate.
type Generation struct {
	Pieces   []model.Piece  `json:"pieces"`
	Hardware []HardwareLine `json:"hardware"`
	Issues   []model.Issue  `json:"issues,omitempty"`
}

// Generate turns a definition into concrete pieces and hardware lines.
//
// Pieces come out in declaration order: regular pieces, then end panels (only
// when an external material is selected), then the external front. Pieces
// whose area is invalid or not positive, or whose material cannot be bound,
// are left out and reported as issues.
func Generate(def model.Definition, ns *Namespace, sel model.MaterialSelection, cat model.Catalog, opts GenerateOptions) Generation {
	st := def.Structure()
	g := &generator{ns: ns, sel: sel, cat: cat, opts: opts, source: st.Name}

	for _, spec := range st.Pieces {
		g.piece(spec, st.Kind, "", spec.Role)
	}
	if sel.HasExternal() {
		for _, ep := range st.EndPanels {
			g.piece(ep.PieceSpec, model.KindEndPanel, ep.Face, ep.Role)
		}
	}
	if st.ExternalFront != nil {
		g.piece(st.ExternalFront.PieceSpec, model.KindExternalFront, "", model.RoleExternalComponent)
	}
	for _, h := range st.Hardware {
		if opts.hardwareEnabled(h) {
			g.hardware(h)
		}
	}

	return Generation{Pieces: g.pieces, Hardware: g.lines, Issues: g.issues}
}

type generator struct {
	ns     *Namespace
	sel    model.MaterialSelection
	cat    model.Catalog
	opts   GenerateOptions
	source string

	pieces []model.Piece
	lines  []HardwareLine
	issues []model.Issue
}

func (g *generator) issue(kind model.IssueKind, subject, detail string) {
	g.issues = append(g.issues, model.Issue{Kind: kind, Subject: subject, Detail: detail})
}

func (g *generator) formulaIssue(subject string, err error) {
	kind := model.IssueFormulaInvalid
	if errors.Is(err, formula.ErrUnset) {
		kind = model.IssueUnsetVariable
	}
	g.issue(kind, subject, err.Error())
}

func subjectOf(spec model.PieceSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	return spec.ID
}

func (g *generator) piece(spec model.PieceSpec, kind model.PieceKind, face model.Face, role model.MaterialRole) {
	subject := subjectOf(spec)
	if spec.Quantity < 1 {
		g.issue(model.IssueInvalidQuantity, subject, fmt.Sprintf("quantity %d is below 1", spec.Quantity))
		return
	}

	expr, err := formula.Compile(spec.AreaFormula)
	if err != nil {
		g.formulaIssue(subject, err)
		return
	}
	area, err := expr.Eval(g.ns)
	if err != nil {
		g.formulaIssue(subject, err)
		return
	}
	if area <= 0 {
		g.issue(model.IssueDegenerateGeometry, subject, fmt.Sprintf("area %g mm² is not positive", area))
		return
	}

	mat, ok := g.material(subject, spec, role)
	if !ok {
		return
	}

	length, width := pieceDims(expr, area, g.ns)
	qty := float64(spec.Quantity)
	g.pieces = append(g.pieces, model.Piece{
		SpecID:            spec.ID,
		Name:              spec.Name,
		Kind:              kind,
		Role:              role,
		Face:              face,
		Source:            g.source,
		Quantity:          spec.Quantity,
		LengthMm:          length,
		WidthMm:           width,
		AreaM2:            area / 1e6 * qty,
		MaterialID:        mat.ID,
		EdgeBandingMeters: spec.EdgeBanding.LinearLength(length, width) / 1000 * qty,
	})
}

func (g *generator) material(subject string, spec model.PieceSpec, role model.MaterialRole) (*model.Material, bool) {
	if role == model.RoleFixedSheet {
		m := model.FindFixedSheet(g.opts.fixedSheets(), spec.FixedSheet)
		if m == nil {
			g.issue(model.IssueMissingMaterial, subject, fmt.Sprintf("fixed sheet %q is not defined", spec.FixedSheet))
			return nil, false
		}
		return m, true
	}

	id := g.sel.ForRole(role)
	if id == "" {
		g.issue(model.IssueMissingMaterial, subject, fmt.Sprintf("no material selected for role %s", role))
		return nil, false
	}
	m := g.cat.FindMaterial(id)
	if m == nil {
		g.issue(model.IssueMissingMaterial, subject, fmt.Sprintf("material %q is not in the catalog", id))
		return nil, false
	}
	return m, true
}

// pieceDims derives the characteristic length and width of a piece. A
// top-level product X*Y gives Length = X and Width = Y; any other shape of
// formula is treated as a square of the same area.
func pieceDims(expr *formula.Expr, area float64, ns formula.Lookup) (length, width float64) {
	if x, y, ok := expr.Factors(); ok {
		lv, errX := x.Eval(ns)
		wv, errY := y.Eval(ns)
		if errX == nil && errY == nil && lv > 0 && wv > 0 {
			return lv, wv
		}
	}
	side := math.Sqrt(area)
	return side, side
}

func (g *generator) hardware(h model.HardwareSpec) {
	subject := h.Name
	if subject == "" {
		subject = h.ID
	}
	item := g.cat.FindHardware(h.HardwareCatalogID)
	if item == nil {
		g.issue(model.IssueMissingHardware, subject, fmt.Sprintf("hardware %q is not in the catalog", h.HardwareCatalogID))
		return
	}

	qty, err := formula.Evaluate(h.QuantityFormula, g.ns)
	if err != nil {
		g.formulaIssue(subject, err)
		qty = 0
	}
	if qty < 0 {
		qty = 0
	}

	g.lines = append(g.lines, HardwareLine{
		SpecID:     h.ID,
		Name:       h.Name,
		HardwareID: item.ID,
		Source:     g.source,
		Quantity:   qty,
		UnitPrice:  item.UnitPrice,
		Cost:       decimal.NewFromFloat(qty).Mul(item.UnitPrice).Round(2),
	})
}

package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/piwi3910/SlabCost/internal/model"
)

// ErrUnknownDefinition is returned by Quote when a request names a box or
// component that is not in the library.
var ErrUnknownDefinition = errors.New("unknown definition")

// Engine applies the configured defaults around the pure computations.
type Engine struct {
	Settings model.EngineSettings
	log      *zap.Logger
}

// New creates an engine. A nil logger disables logging.
func New(cfg model.AppConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Settings: cfg.Engine, log: log.Named("engine")}
}

// ComponentRequest places a library or inline component in a quote.
type ComponentRequest struct {
	ComponentID       string                     `json:"component_id,omitempty"`
	Component         *model.ComponentDefinition `json:"component,omitempty"` // inline definition, wins over ComponentID
	Values            map[string]float64         `json:"values,omitempty"`
	Hardware          map[string]bool            `json:"hardware,omitempty"`
	ExternalComponent string                     `json:"external_component,omitempty"`
}

// QuoteRequest is a box instance with its components as posted by a client.
type QuoteRequest struct {
	BoxID       string                  `json:"box_id,omitempty"`
	Box         *model.BoxDefinition    `json:"box,omitempty"` // inline definition, wins over BoxID
	Dims        model.BoxDims           `json:"dims"`
	ThicknessMm float64                 `json:"thickness_mm,omitempty" validate:"gte=0"`
	Materials   model.MaterialSelection `json:"materials"`
	Components  []ComponentRequest      `json:"components,omitempty" validate:"dive"`
	// Optional overrides of the configured defaults.
	DifficultyCoefficient *float64 `json:"difficulty_coefficient,omitempty" validate:"omitempty,gte=0,lte=3"`
	WastePercent          *float64 `json:"waste_percent,omitempty" validate:"omitempty,gte=0,lt=100"`
	Nesting               *bool    `json:"nesting,omitempty"`
}

// Quote is a computed assembly with the difficulty coefficient applied.
type Quote struct {
	Result
	ThicknessMm           float64         `json:"thickness_mm"`
	DifficultyCoefficient float64         `json:"difficulty_coefficient"`
	RawCost               decimal.Decimal `json:"raw_cost"`
	Price                 decimal.Decimal `json:"price"`
}

// Quote resolves the request against lib and prices it with cat.
// Data problems are reported in the result; only unknown definition IDs fail.
func (e *Engine) Quote(lib model.Library, cat model.Catalog, req QuoteRequest) (Quote, error) {
	a, coef, err := e.assembly(lib, cat, req)
	if err != nil {
		return Quote{}, err
	}

	policy := e.Settings.WastePolicy()
	if req.WastePercent != nil {
		policy.DefaultWastePercent = *req.WastePercent
		policy.Override = true
	}
	if req.Nesting != nil {
		policy.Nesting = *req.Nesting
	}

	res := ComputeAssembly(a, cat, policy)
	q := Quote{
		Result:                res,
		ThicknessMm:           a.ThicknessMm,
		DifficultyCoefficient: coef,
		RawCost:               res.TotalCost,
		Price:                 model.ApplyDifficulty(res.TotalCost, coef),
	}

	e.log.Debug("quote computed",
		zap.Int("pieces", len(res.Pieces)),
		zap.Int("hardware", len(res.Hardware)),
		zap.Float64("area_m2", res.TotalAreaM2),
		zap.String("raw_cost", q.RawCost.String()),
		zap.String("price", q.Price.String()),
		zap.Int("issues", len(res.Issues)),
	)
	for _, is := range res.Issues {
		e.log.Debug("quote issue", zap.String("kind", string(is.Kind)),
			zap.String("subject", is.Subject), zap.String("detail", is.Detail))
	}
	return q, nil
}

func (e *Engine) assembly(lib model.Library, cat model.Catalog, req QuoteRequest) (Assembly, float64, error) {
	a := Assembly{
		Dims:        req.Dims,
		Selection:   req.Materials,
		FixedSheets: e.Settings.FixedSheets,
	}

	switch {
	case req.Box != nil:
		a.Box = req.Box
	case req.BoxID != "":
		a.Box = lib.FindBox(req.BoxID)
		if a.Box == nil {
			return a, 0, fmt.Errorf("box %q: %w", req.BoxID, ErrUnknownDefinition)
		}
	}

	for i, cr := range req.Components {
		def := cr.Component
		if def == nil {
			def = lib.FindComponent(cr.ComponentID)
			if def == nil {
				return a, 0, fmt.Errorf("component %d %q: %w", i, cr.ComponentID, ErrUnknownDefinition)
			}
		}
		a.Components = append(a.Components, ComponentInstance{
			Definition:        *def,
			Values:            cr.Values,
			Hardware:          cr.Hardware,
			ExternalComponent: cr.ExternalComponent,
		})
	}

	a.ThicknessMm = e.thickness(cat, req)

	coef := e.Settings.DifficultyCoefficient
	switch {
	case req.DifficultyCoefficient != nil:
		coef = *req.DifficultyCoefficient
	case a.Box != nil:
		coef = a.Box.Difficulty()
	case len(a.Components) > 0:
		coef = a.Components[0].Definition.Difficulty()
	}
	return a, coef, nil
}

// thickness picks the board thickness for Li/Ai: the request value, else the
// selected internal material, else the configured default.
func (e *Engine) thickness(cat model.Catalog, req QuoteRequest) float64 {
	if req.ThicknessMm > 0 {
		return req.ThicknessMm
	}
	if m := cat.FindMaterial(req.Materials.Internal); m != nil && m.ThicknessMm > 0 {
		return m.ThicknessMm
	}
	return e.Settings.ThicknessMm
}

// Namespace resolves the variables of a box, and of a component placed in it
// when comp is not nil, for previews.
func (e *Engine) Namespace(dims model.BoxDims, thicknessMm float64, box *model.BoxDefinition, comp *model.ComponentDefinition, values map[string]float64) *Namespace {
	if thicknessMm <= 0 {
		thicknessMm = e.Settings.ThicknessMm
	}
	var derived []model.DerivedVar
	if box != nil {
		derived = box.DerivedVariables
	}
	ns := Resolve(dims, thicknessMm, nil, nil, derived)
	if comp != nil {
		ns = ns.With(comp.OwnVariables, values, comp.DerivedVariables)
	}
	return ns
}

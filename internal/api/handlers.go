package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/piwi3910/SlabCost/internal/engine"
	"github.com/piwi3910/SlabCost/internal/formula"
	"github.com/piwi3910/SlabCost/internal/logger"
	"github.com/piwi3910/SlabCost/internal/model"
	"github.com/piwi3910/SlabCost/internal/slat"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

// handleCatalogEntry returns one material or hardware entry.
func (s *Server) handleCatalogEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if m := s.catalog.FindMaterial(id); m != nil {
		writeJSON(w, http.StatusOK, m)
		return
	}
	if h := s.catalog.FindHardware(id); h != nil {
		writeJSON(w, http.StatusOK, h)
		return
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("catalog entry %q not found", id))
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.library)
}

func (s *Server) handleLibraryEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if b := s.library.FindBox(id); b != nil {
		writeJSON(w, http.StatusOK, b)
		return
	}
	if c := s.library.FindComponent(id); c != nil {
		writeJSON(w, http.StatusOK, c)
		return
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("definition %q not found", id))
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req engine.QuoteRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Box == nil && req.BoxID == "" && len(req.Components) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("request needs a box or at least one component"))
		return
	}

	q, err := s.engine.Quote(s.library, s.catalog, req)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownDefinition) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.FromContext(r.Context()).Debug("quote",
		zap.String("price", q.Price.String()),
		zap.Int("issues", len(q.Issues)),
	)
	writeJSON(w, http.StatusOK, q)
}

// LayoutRequest is a slat panel whose materials are catalog IDs.
type LayoutRequest struct {
	PanelWidthMm         float64        `json:"panel_width_mm" validate:"gte=0"`
	PanelHeightMm        float64        `json:"panel_height_mm" validate:"gte=0"`
	Vertical             slat.SlatSpec  `json:"vertical"`
	Horizontal           *slat.SlatSpec `json:"horizontal,omitempty"`
	SameSlats            bool           `json:"same_slats"`
	HasBacking           bool           `json:"has_backing"`
	VerticalMaterialID   string         `json:"vertical_material_id,omitempty"`
	HorizontalMaterialID string         `json:"horizontal_material_id,omitempty"`
	BackingMaterialID    string         `json:"backing_material_id,omitempty"`
}

// PanelSpec resolves the material IDs against cat. An empty ID leaves the
// material unset; an unknown one is an error.
func (lr LayoutRequest) PanelSpec(cat model.Catalog) (slat.PanelSpec, error) {
	spec := slat.PanelSpec{
		PanelWidthMm:  lr.PanelWidthMm,
		PanelHeightMm: lr.PanelHeightMm,
		Vertical:      lr.Vertical,
		Horizontal:    lr.Horizontal,
		SameSlats:     lr.SameSlats,
		HasBacking:    lr.HasBacking,
	}
	var err error
	if spec.VerticalMaterial, err = findMaterial(cat, lr.VerticalMaterialID); err != nil {
		return spec, err
	}
	if spec.HorizontalMaterial, err = findMaterial(cat, lr.HorizontalMaterialID); err != nil {
		return spec, err
	}
	if spec.BackingMaterial, err = findMaterial(cat, lr.BackingMaterialID); err != nil {
		return spec, err
	}
	return spec, nil
}

// ErrUnknownMaterial is returned when a layout names a material that is not
// in the catalog.
var ErrUnknownMaterial = errors.New("unknown material")

func findMaterial(cat model.Catalog, id string) (*model.Material, error) {
	if id == "" {
		return nil, nil
	}
	m := cat.FindMaterial(id)
	if m == nil {
		return nil, fmt.Errorf("material %q: %w", id, ErrUnknownMaterial)
	}
	cp := *m
	return &cp, nil
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	spec, err := req.PanelSpec(s.catalog)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, slat.Layout(spec))
}

// FormulaRequest checks a formula, optionally against a box and component.
type FormulaRequest struct {
	Formula     string             `json:"formula"`
	Dims        model.BoxDims      `json:"dims"`
	ThicknessMm float64            `json:"thickness_mm,omitempty" validate:"gte=0"`
	BoxID       string             `json:"box_id,omitempty"`
	ComponentID string             `json:"component_id,omitempty"`
	Values      map[string]float64 `json:"values,omitempty"`
}

// FormulaResponse reports the value of a formula or why it has none.
type FormulaResponse struct {
	Valid       bool             `json:"valid"`
	Value       *float64         `json:"value,omitempty"`
	Error       string           `json:"error,omitempty"`
	Position    *int             `json:"position,omitempty"`
	Identifiers []string         `json:"identifiers,omitempty"`
	Variables   []model.Variable `json:"variables"`
}

// handleFormula evaluates a formula in the namespace of the given box and
// component. Invalid formulas are a 200 with valid=false.
func (s *Server) handleFormula(w http.ResponseWriter, r *http.Request) {
	var req FormulaRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var box *model.BoxDefinition
	if req.BoxID != "" {
		if box = s.library.FindBox(req.BoxID); box == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("box %q: %w", req.BoxID, engine.ErrUnknownDefinition))
			return
		}
	}
	var comp *model.ComponentDefinition
	if req.ComponentID != "" {
		if comp = s.library.FindComponent(req.ComponentID); comp == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("component %q: %w", req.ComponentID, engine.ErrUnknownDefinition))
			return
		}
	}

	ns := s.engine.Namespace(req.Dims, req.ThicknessMm, box, comp, req.Values)
	resp := FormulaResponse{Variables: ns.Variables()}

	expr, err := formula.Compile(req.Formula)
	if err == nil {
		resp.Identifiers = expr.Identifiers()
		var v float64
		if v, err = expr.Eval(ns); err == nil {
			resp.Valid = true
			resp.Value = &v
		}
	}
	if err != nil {
		resp.Error = err.Error()
		var fe *formula.Error
		if errors.As(err, &fe) && fe.Pos >= 0 {
			pos := fe.Pos
			resp.Position = &pos
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

package model

import "github.com/google/uuid"

// NewID returns a short random identifier for catalog entries.
func NewID() string {
	return uuid.New().String()[:8]
}

// MaterialRole says which selected material a piece is cut from.
type MaterialRole string

const (
	RoleInternal          MaterialRole = "internal"           // carcass material (matInt)
	RoleExternal          MaterialRole = "external"           // external finish (matExt)
	RoleBacking           MaterialRole = "backing"            // back panel (matFundo)
	RoleExternalComponent MaterialRole = "external_component" // component front finish (matExtComp)
	RoleFixedSheet        MaterialRole = "fixed_sheet"        // hard-coded board, independent of the budget
)

// Valid reports whether r is one of the known roles.
func (r MaterialRole) Valid() bool {
	switch r {
	case RoleInternal, RoleExternal, RoleBacking, RoleExternalComponent, RoleFixedSheet:
		return true
	}
	return false
}

// Face identifies the carcass face an end panel covers.
type Face string

const (
	FaceLeftSide  Face = "left_side"
	FaceRightSide Face = "right_side"
	FaceTop       Face = "top"
	FaceBottom    Face = "bottom"
	FaceBack      Face = "back"
)

// PieceKind classifies generated pieces.
type PieceKind string

const (
	KindStructural    PieceKind = "structural"
	KindEndPanel      PieceKind = "end_panel"
	KindComponent     PieceKind = "component"
	KindExternalFront PieceKind = "external_front"
)

// Variable is one entry of a resolved namespace.
type Variable struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// BoxDims are the external dimensions of a box instance in mm.
type BoxDims struct {
	L float64 `json:"L" validate:"gte=0"` // width
	A float64 `json:"A" validate:"gte=0"` // height
	P float64 `json:"P" validate:"gte=0"` // depth
}

// DerivedVar is a variable computed from a formula. Definitions keep them
// as an ordered list; each formula may only see the ones declared before it.
type DerivedVar struct {
	ID      string `json:"id" validate:"required"`
	Formula string `json:"formula" validate:"required,formula"`
}

// VarDecl declares a component's own input variable.
type VarDecl struct {
	ID      string  `json:"id" validate:"required"`
	Label   string  `json:"label"`
	Default float64 `json:"default"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Unit    string  `json:"unit"`
}

// Clamp bounds v to [Min, Max] when the declaration carries a usable range.
func (d VarDecl) Clamp(v float64) float64 {
	if d.Max <= d.Min {
		return v
	}
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// PieceSpec describes one structural piece of a definition.
type PieceSpec struct {
	ID          string       `json:"id" validate:"required"`
	Name        string       `json:"name"`
	Quantity    int          `json:"quantity" validate:"gte=1"`
	AreaFormula string       `json:"area_formula" validate:"required,formula"`                                                 // mm², usually "X*Y"
	Role        MaterialRole `json:"material_role" validate:"required,oneof=internal external backing external_component fixed_sheet"` // which selected material to use
	FixedSheet  string       `json:"fixed_sheet,omitempty" validate:"required_if=Role fixed_sheet"`                            // board ID or name when Role is fixed_sheet
	EdgeBanding EdgeSides    `json:"edge_banding"`                                                                             // banded sides
}

// EndPanelSpec is a tamponamento: only generated when an external finish is selected.
type EndPanelSpec struct {
	PieceSpec
	Face Face `json:"face" validate:"required,oneof=left_side right_side top bottom back"`
}

// FrontSpec is a component's external front. Its material is always the
// exclusive external-component material, whatever Role says.
type FrontSpec struct {
	PieceSpec
}

// HardwareSpec is an optional hardware line of a component (hinges, slides...).
type HardwareSpec struct {
	ID                string `json:"id" validate:"required"`
	Name              string `json:"name"`
	HardwareCatalogID string `json:"hardware_catalog_id" validate:"required"`
	DefaultEnabled    bool   `json:"default_enabled"`
	QuantityFormula   string `json:"quantity_formula" validate:"required,formula"`
}

// BoxDefinition is a cabinet carcass template.
type BoxDefinition struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name" validate:"required"`
	Category              string         `json:"category"`
	DifficultyCoefficient float64        `json:"difficulty_coefficient" validate:"gte=0,lte=3"`
	DerivedVariables      []DerivedVar   `json:"derived_variables,omitempty" validate:"dive"`
	Pieces                []PieceSpec    `json:"pieces" validate:"dive"`
	EndPanels             []EndPanelSpec `json:"end_panels,omitempty" validate:"dive"`
}

// NewBoxDefinition creates an empty box definition with a fresh ID.
func NewBoxDefinition(name, category string) BoxDefinition {
	return BoxDefinition{
		ID:                    NewID(),
		Name:                  name,
		Category:              category,
		DifficultyCoefficient: DefaultDifficultyCoefficient,
		Pieces:                []PieceSpec{},
	}
}

// ComponentDefinition is a reusable sub-assembly such as a drawer or a door.
type ComponentDefinition struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name" validate:"required"`
	Category              string         `json:"category"`
	DifficultyCoefficient float64        `json:"difficulty_coefficient" validate:"gte=0,lte=3"`
	OwnVariables          []VarDecl      `json:"own_variables,omitempty" validate:"dive"`
	DerivedVariables      []DerivedVar   `json:"derived_variables,omitempty" validate:"dive"`
	Pieces                []PieceSpec    `json:"pieces" validate:"dive"`
	ExternalFront         *FrontSpec     `json:"external_front,omitempty"`
	HardwareOptions       []HardwareSpec `json:"hardware_options,omitempty" validate:"dive"`
}

// NewComponentDefinition creates an empty component definition with a fresh ID.
func NewComponentDefinition(name, category string) ComponentDefinition {
	return ComponentDefinition{
		ID:                    NewID(),
		Name:                  name,
		Category:              category,
		DifficultyCoefficient: DefaultDifficultyCoefficient,
		Pieces:                []PieceSpec{},
	}
}

// Piece is one generated physical piece (already multiplied by quantity).
type Piece struct {
	SpecID            string       `json:"spec_id"`
	Name              string       `json:"name"`
	Kind              PieceKind    `json:"kind"`
	Role              MaterialRole `json:"material_role"`
	Face              Face         `json:"face,omitempty"`
	Source            string       `json:"source,omitempty"` // definition name the piece came from
	Quantity          int          `json:"quantity"`
	LengthMm          float64      `json:"length_mm"`
	WidthMm           float64      `json:"width_mm"`
	AreaM2            float64      `json:"area_m2"`
	MaterialID        string       `json:"material_id"`
	EdgeBandingMeters float64      `json:"edge_banding_m"`
}

// MaterialSelection binds material roles to catalog material IDs for one quote.
type MaterialSelection struct {
	Internal          string `json:"internal,omitempty"`           // matInt
	External          string `json:"external,omitempty"`           // matExt
	Backing           string `json:"backing,omitempty"`            // matFundo
	ExternalComponent string `json:"external_component,omitempty"` // matExtComp
}

// ForRole returns the selected material ID for r ("" when unbound).
// Fixed-sheet roles are never bound through the selection.
func (s MaterialSelection) ForRole(r MaterialRole) string {
	switch r {
	case RoleInternal:
		return s.Internal
	case RoleExternal:
		return s.External
	case RoleBacking:
		return s.Backing
	case RoleExternalComponent:
		return s.ExternalComponent
	}
	return ""
}

// HasExternal reports whether an external finish is selected.
func (s MaterialSelection) HasExternal() bool {
	return s.External != ""
}

package model

import "fmt"

// IssueKind classifies a data problem found during a computation.
type IssueKind string

const (
	IssueFormulaInvalid     IssueKind = "formula_invalid"
	IssueMissingMaterial    IssueKind = "missing_material"
	IssueDegenerateGeometry IssueKind = "degenerate_geometry"
	IssueInvalidQuantity    IssueKind = "invalid_quantity"
	IssueUnsetVariable      IssueKind = "unset_variable"
	IssueDuplicateVariable  IssueKind = "duplicate_variable"
	IssueMissingHardware    IssueKind = "missing_hardware"
	IssueOversizeSlat       IssueKind = "oversize_slat"
)

// Issue is a per-item diagnostic. Computations never fail on bad data; they
// skip the item and report an Issue so callers can mark it inline.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Subject string    `json:"subject"` // piece, variable or material the issue is about
	Detail  string    `json:"detail"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Kind, i.Subject, i.Detail)
}

// Structure is the generation-relevant content of a box or component definition.
type Structure struct {
	Name          string
	Kind          PieceKind // kind given to the regular pieces
	Pieces        []PieceSpec
	EndPanels     []EndPanelSpec
	ExternalFront *FrontSpec
	Hardware      []HardwareSpec
}

// Definition is implemented by BoxDefinition and ComponentDefinition.
type Definition interface {
	Structure() Structure
	Difficulty() float64
}

// Structure implements Definition.
func (b BoxDefinition) Structure() Structure {
	return Structure{Name: b.Name, Kind: KindStructural, Pieces: b.Pieces, EndPanels: b.EndPanels}
}

// Difficulty implements Definition.
func (b BoxDefinition) Difficulty() float64 { return b.DifficultyCoefficient }

// Structure implements Definition.
func (c ComponentDefinition) Structure() Structure {
	return Structure{
		Name:          c.Name,
		Kind:          KindComponent,
		Pieces:        c.Pieces,
		ExternalFront: c.ExternalFront,
		Hardware:      c.HardwareOptions,
	}
}

// Difficulty implements Definition.
func (c ComponentDefinition) Difficulty() float64 { return c.DifficultyCoefficient }

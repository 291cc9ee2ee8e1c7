package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// EdgeSide is one selectable banding option.
type EdgeSide uint8

const (
	EdgeFront  EdgeSide = 1 << iota // along the piece length
	EdgeBottom                      // along the piece width
	EdgeTop                         // along the piece width
	EdgeAll                         // every edge; excludes the partial options
)

var edgeSideNames = []struct {
	side EdgeSide
	name string
}{
	{EdgeFront, "front"},
	{EdgeBottom, "bottom"},
	{EdgeTop, "top"},
	{EdgeAll, "all"},
}

func (s EdgeSide) String() string {
	for _, n := range edgeSideNames {
		if n.side == s {
			return n.name
		}
	}
	return "unknown"
}

// ParseEdgeSide converts a side name ("front", "bottom", "top", "all").
func ParseEdgeSide(name string) (EdgeSide, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, n := range edgeSideNames {
		if n.name == key {
			return n.side, nil
		}
	}
	return 0, fmt.Errorf("unknown edge side %q", name)
}

// EdgeSides is the set of banded sides of a piece.
type EdgeSides uint8

// NewEdgeSides builds a set by selecting each side in order.
func NewEdgeSides(sides ...EdgeSide) EdgeSides {
	var es EdgeSides
	for _, s := range sides {
		es = es.Select(s)
	}
	return es
}

// Select adds a side. Selecting EdgeAll clears any partial selection and
// selecting a partial side clears EdgeAll.
func (es EdgeSides) Select(s EdgeSide) EdgeSides {
	if s == EdgeAll {
		return EdgeSides(EdgeAll)
	}
	return (es &^ EdgeSides(EdgeAll)) | EdgeSides(s)
}

// Deselect removes a side.
func (es EdgeSides) Deselect(s EdgeSide) EdgeSides {
	return es &^ EdgeSides(s)
}

// Has reports whether side s is selected.
func (es EdgeSides) Has(s EdgeSide) bool {
	return es&EdgeSides(s) != 0
}

// HasAny reports whether any side is banded.
func (es EdgeSides) HasAny() bool {
	return es != 0
}

// EdgeCount returns the number of physical edges banded.
func (es EdgeSides) EdgeCount() int {
	if es.Has(EdgeAll) {
		return 4
	}
	n := 0
	for _, s := range []EdgeSide{EdgeFront, EdgeBottom, EdgeTop} {
		if es.Has(s) {
			n++
		}
	}
	return n
}

// LinearLength returns the banding length in mm for one piece of the given
// length and width: front runs the length, top and bottom run the width.
func (es EdgeSides) LinearLength(length, width float64) float64 {
	if es.Has(EdgeAll) {
		return 2 * (length + width)
	}
	var total float64
	if es.Has(EdgeFront) {
		total += length
	}
	if es.Has(EdgeBottom) {
		total += width
	}
	if es.Has(EdgeTop) {
		total += width
	}
	return total
}

// Sides lists the selected sides in canonical order.
func (es EdgeSides) Sides() []EdgeSide {
	var out []EdgeSide
	for _, n := range edgeSideNames {
		if es.Has(n.side) {
			out = append(out, n.side)
		}
	}
	return out
}

// String returns e.g. "front+top", "all" or "none".
func (es EdgeSides) String() string {
	sides := es.Sides()
	if len(sides) == 0 {
		return "none"
	}
	names := make([]string, len(sides))
	for i, s := range sides {
		names[i] = s.String()
	}
	return strings.Join(names, "+")
}

// MarshalJSON encodes the set as a list of side names.
func (es EdgeSides) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, s := range es.Sides() {
		names = append(names, s.String())
	}
	return json.Marshal(names)
}

// UnmarshalJSON accepts a list of side names.
func (es *EdgeSides) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("edge banding must be a list of sides: %w", err)
	}
	var set EdgeSides
	for _, n := range names {
		s, err := ParseEdgeSide(n)
		if err != nil {
			return err
		}
		set = set.Select(s)
	}
	*es = set
	return nil
}

// EdgeBandingSummary holds the banding requirements of a set of pieces.
type EdgeBandingSummary struct {
	TotalLinearM    float64 `json:"total_linear_m"`     // without waste
	WastePercent    float64 `json:"waste_percent"`      // waste percentage applied
	TotalWithWasteM float64 `json:"total_with_waste_m"` // rounded up to whole mm
	PieceCount      int     `json:"piece_count"`        // pieces with at least one banded edge
}

// CalculateEdgeBanding totals the banding of generated pieces.
// wastePercent is the additional percentage to add for waste (e.g. 10 for 10%).
func CalculateEdgeBanding(pieces []Piece, wastePercent float64) EdgeBandingSummary {
	var totalM float64
	var count int
	for _, p := range pieces {
		if p.EdgeBandingMeters <= 0 {
			continue
		}
		totalM += p.EdgeBandingMeters
		count += p.Quantity
	}

	wasteFactor := 1.0 + (wastePercent / 100.0)
	withWasteMM := math.Ceil(totalM*1000*wasteFactor - 1e-6)

	return EdgeBandingSummary{
		TotalLinearM:    totalM,
		WastePercent:    wastePercent,
		TotalWithWasteM: withWasteMM / 1000.0,
		PieceCount:      count,
	}
}

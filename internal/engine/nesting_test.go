package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/SlabCost/internal/model"
)

func nestSheet() model.Material {
	return model.Material{ID: "s", SheetWidthMm: 2000, SheetHeightMm: 1000}
}

func TestNest_ExactFit(t *testing.T) {
	pieces := []model.Piece{{Name: "p", Quantity: 4, LengthMm: 1000, WidthMm: 500}}
	res := Nest(pieces, nestSheet(), 0)

	assert.Equal(t, 1, res.Sheets)
	assert.InDelta(t, 100.0, res.Efficiency, 1e-9)
	assert.Empty(t, res.Unplaced)
}

func TestNest_OverflowToSecondSheet(t *testing.T) {
	pieces := []model.Piece{{Name: "p", Quantity: 5, LengthMm: 1000, WidthMm: 500}}
	res := Nest(pieces, nestSheet(), 0)

	assert.Equal(t, 2, res.Sheets)
	assert.InDelta(t, 62.5, res.Efficiency, 1e-9)
}

func TestNest_RotatesToFit(t *testing.T) {
	pieces := []model.Piece{{Name: "tall", Quantity: 1, LengthMm: 900, WidthMm: 1900}}
	res := Nest(pieces, nestSheet(), 0)

	assert.Equal(t, 1, res.Sheets)
	assert.Empty(t, res.Unplaced)
}

func TestNest_OversizeUnplaced(t *testing.T) {
	pieces := []model.Piece{
		{Name: "big", Quantity: 2, LengthMm: 3000, WidthMm: 3000},
		{Name: "ok", Quantity: 1, LengthMm: 500, WidthMm: 500},
	}
	res := Nest(pieces, nestSheet(), 3)

	assert.Equal(t, 1, res.Sheets)
	assert.Equal(t, []string{"big", "big"}, res.Unplaced)
}

func TestNest_KerfReducesFit(t *testing.T) {
	// Without kerf two 1000 wide pieces fill the 2000 sheet side by side.
	pieces := []model.Piece{{Name: "p", Quantity: 2, LengthMm: 1000, WidthMm: 900}}
	assert.Equal(t, 1, Nest(pieces, nestSheet(), 0).Sheets)
	assert.Equal(t, 2, Nest(pieces, nestSheet(), 5).Sheets)
}

func TestNest_NoSheetSize(t *testing.T) {
	res := Nest([]model.Piece{{Name: "p", Quantity: 1, LengthMm: 10, WidthMm: 10}}, model.Material{}, 0)
	assert.Zero(t, res.Sheets)
}

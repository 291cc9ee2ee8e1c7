package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SlabCost/internal/model"
)

func TestCompute_SinglePieceScenario(t *testing.T) {
	def := model.BoxDefinition{Name: "Base", Pieces: []model.PieceSpec{
		{ID: "base", Name: "Base", Quantity: 1, AreaFormula: "Li*P", Role: model.RoleInternal},
	}}
	ns := Resolve(testDims, 18, nil, nil)
	res := Compute(def, ns, testSelection(), model.DefaultCatalog(), noBandingWaste(), GenerateOptions{})

	require.Len(t, res.Pieces, 1)
	assert.InDelta(t, 0.3102, res.TotalAreaM2, 1e-12)
	assert.Zero(t, res.TotalEdgeBandingM)
	assertDecimal(t, "299", res.TotalCost)
	assert.Empty(t, res.Issues)
	assert.Len(t, res.Variables, 6)
}

func TestCompute_CollectsIssuesFromEveryStage(t *testing.T) {
	def := model.BoxDefinition{Name: "b", Pieces: []model.PieceSpec{
		{ID: "ok", Quantity: 1, AreaFormula: "L*P", Role: model.RoleInternal},
		{ID: "bad", Quantity: 1, AreaFormula: "gap*P", Role: model.RoleInternal},
	}}
	ns := Resolve(testDims, 18, nil, nil, []model.DerivedVar{{ID: "gap", Formula: "1/0"}})
	res := Compute(def, ns, testSelection(), model.DefaultCatalog(), noBandingWaste(), GenerateOptions{})

	require.Len(t, res.Pieces, 1)
	kinds := make([]model.IssueKind, len(res.Issues))
	for i, is := range res.Issues {
		kinds[i] = is.Kind
	}
	assert.Equal(t, []model.IssueKind{model.IssueFormulaInvalid, model.IssueUnsetVariable}, kinds)
}

func TestCompute_FixedSheetPriced(t *testing.T) {
	def := model.BoxDefinition{Name: "b", Pieces: []model.PieceSpec{
		{ID: "nicho", Quantity: 1, AreaFormula: "L*P", Role: model.RoleFixedSheet, FixedSheet: "MDF 15mm"},
	}}
	ns := Resolve(testDims, 18, nil, nil)
	res := Compute(def, ns, model.MaterialSelection{}, model.Catalog{}, noBandingWaste(), GenerateOptions{})

	require.Len(t, res.Summary.Materials, 1)
	assert.Equal(t, "fixed-15", res.Summary.Materials[0].MaterialID)
	assertDecimal(t, "189.9", res.TotalCost)
	assert.Empty(t, res.Issues)
}

func TestCompute_FixedSheetIgnoresCatalogIDClash(t *testing.T) {
	def := model.BoxDefinition{Name: "b", Pieces: []model.PieceSpec{
		{ID: "nicho", Quantity: 1, AreaFormula: "L*P", Role: model.RoleFixedSheet, FixedSheet: "fixed-15"},
	}}
	cat := model.Catalog{Materials: []model.Material{
		{ID: "fixed-15", Name: "Laca com ID repetido", ThicknessMm: 15, Pricing: model.PricingArea, PricePerM2: dec("999")},
	}}
	ns := Resolve(testDims, 18, nil, nil)
	res := Compute(def, ns, model.MaterialSelection{}, cat, noBandingWaste(), GenerateOptions{})

	require.Len(t, res.Summary.Materials, 1)
	assert.Equal(t, model.PricingSheet, res.Summary.Materials[0].Pricing)
	assertDecimal(t, "189.9", res.TotalCost)
}

func TestComputeAssembly_OrderingAndScoping(t *testing.T) {
	lib := model.DefaultLibrary()
	box := testBox()
	sel := testSelection()
	sel.External = "mdf-louro-18"
	sel.ExternalComponent = "mdf-louro-18"

	a := Assembly{
		Box:         &box,
		Dims:        testDims,
		ThicknessMm: 18,
		Selection:   sel,
		Components: []ComponentInstance{
			{Definition: *lib.FindComponent("comp-gaveta"), Values: map[string]float64{"altGaveta": 200}, ExternalComponent: "laca-m2"},
			{Definition: *lib.FindComponent("comp-porta")},
		},
	}
	res := ComputeAssembly(a, model.DefaultCatalog(), noBandingWaste())

	assert.Equal(t, []string{
		"base", "lateral", "fundo", "tamp",
		"lat-gaveta", "front-int", "fundo-gaveta",
		"frente", "porta",
	}, pieceIDs(res.Pieces))

	frente := res.Pieces[7]
	assert.Equal(t, "laca-m2", frente.MaterialID)
	assert.Equal(t, "Gaveta", frente.Source)
	assert.Equal(t, 220.0, frente.WidthMm, "own value 200 + 20")
	assert.Equal(t, "mdf-louro-18", res.Pieces[8].MaterialID)

	require.Len(t, res.Hardware, 2)
	assert.Equal(t, "corredica-450", res.Hardware[0].HardwareID)
	assert.Equal(t, "dobradica-35", res.Hardware[1].HardwareID)
	assert.Equal(t, 4.0, res.Hardware[1].Quantity)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, model.IssueDegenerateGeometry, res.Issues[0].Kind)
	assert.Equal(t, "Vazio", res.Issues[0].Subject)

	// Component variables stay in the component scope.
	for _, v := range res.Variables {
		assert.NotEqual(t, "altGaveta", v.ID)
	}
}

func TestComputeAssembly_ComponentsOnly(t *testing.T) {
	lib := model.DefaultLibrary()
	a := Assembly{
		Dims:        model.BoxDims{L: 800, A: 700, P: 500},
		ThicknessMm: 15,
		Selection:   model.MaterialSelection{ExternalComponent: "laca-m2"},
		Components:  []ComponentInstance{{Definition: *lib.FindComponent("comp-porta"), Values: map[string]float64{"nPortas": 2}}},
	}
	res := ComputeAssembly(a, model.DefaultCatalog(), noBandingWaste())

	require.Len(t, res.Pieces, 1)
	// (796/2 * 2) * 696 mm²
	assert.InDelta(t, 0.554016, res.TotalAreaM2, 1e-9)
	require.Len(t, res.Hardware, 1)
	assert.Equal(t, 4.0, res.Hardware[0].Quantity, "two doors, two hinges each")
}

func TestComputeAssembly_EndPanelsToggle(t *testing.T) {
	box := testBox()
	a := Assembly{Box: &box, Dims: testDims, ThicknessMm: 18, Selection: testSelection()}

	off := ComputeAssembly(a, model.DefaultCatalog(), noBandingWaste())
	a.Selection.External = "mdf-louro-18"
	on := ComputeAssembly(a, model.DefaultCatalog(), noBandingWaste())
	a.Selection.External = ""
	offAgain := ComputeAssembly(a, model.DefaultCatalog(), noBandingWaste())

	assert.Len(t, off.Pieces, 3)
	assert.Len(t, on.Pieces, 4)
	assert.Equal(t, off, offAgain)
	assert.True(t, on.TotalCost.GreaterThan(off.TotalCost))
}

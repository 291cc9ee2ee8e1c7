package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SlabCost/internal/model"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Nome,Espessura,Preço\nMDF Branco,15,229.90\nMDF Louro,18,310.00\n")
	if got := DetectCSVDelimiter(data); got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Nome;Espessura;Preço\nMDF Branco;15;229,90\nMDF Louro;18;310,00\n")
	if got := DetectCSVDelimiter(data); got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Nome\tEspessura\tPreço\nMDF Branco\t15\t229,90\n")
	if got := DetectCSVDelimiter(data); got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_PortugueseHeaders(t *testing.T) {
	row := []string{"Código", "Nome", "Espessura", "Largura", "Altura", "Preço", "Perda"}
	mapping, isHeader := DetectColumns(row, KindMaterials)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := map[string]int{"id": 0, "name": 1, "thickness": 2, "sheet_width": 3, "sheet_height": 4, "price": 5, "waste": 6}
	for role, idx := range want {
		if got := mapping.Index(role); got != idx {
			t.Errorf("expected %s at %d, got %d", role, idx, got)
		}
	}
	if mapping.Index("pricing") != -1 {
		t.Errorf("expected no pricing column, got %d", mapping.Index("pricing"))
	}
}

func TestDetectColumns_CaseInsensitive(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"NAME", "unit PRICE"}, KindHardware)
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Index("name") != 0 || mapping.Index("unit_price") != 1 {
		t.Errorf("unexpected mapping %v", mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"MDF Branco", "15", "2750", "1850", "229.90"}, KindMaterials)
	if isHeader {
		t.Error("expected no header to be detected")
	}
	if mapping.Index("name") != 0 || mapping.Index("price") != 4 {
		t.Errorf("expected positional mapping, got %v", mapping)
	}
}

// ─── Helper Tests ──────────────────────────────────────────

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"MDF Louro Freijó 18mm": "mdf-louro-freijo-18mm",
		"  Chapa / Branca  ":    "chapa-branca",
		"Dobradiça 35":          "dobradica-35",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := map[string]string{
		"1.234,56": "1234.56",
		"229,90":   "229.90",
		"R$ 12,50": "12.50",
		"12.5":     "12.5",
		"15%":      "15",
	}
	for in, want := range tests {
		if got := normalizeNumber(in); got != want {
			t.Errorf("normalizeNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

// ─── Material Import Tests ─────────────────────────────────

func TestImportCSVFromReader_Materials(t *testing.T) {
	data := "Nome;Espessura;Largura;Altura;Cobrança;Preço;Perda\n" +
		"MDF Branco 15mm;15;2750;1850;chapa;1.229,90;15\n" +
		"LACA BRANCA;;;;m2;85,00;\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';', KindMaterials)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Materials) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(result.Materials))
	}

	mdf := result.Materials[0]
	if mdf.ID != "mdf-branco-15mm" {
		t.Errorf("expected slug id, got %q", mdf.ID)
	}
	if mdf.Pricing != model.PricingSheet {
		t.Errorf("expected sheet pricing, got %q", mdf.Pricing)
	}
	if !mdf.PricePerSheet.Equal(decimal.RequireFromString("1229.90")) {
		t.Errorf("expected 1229.90, got %s", mdf.PricePerSheet)
	}
	if mdf.SheetWidthMm != 2750 || mdf.SheetHeightMm != 1850 || mdf.Waste() != 15 {
		t.Errorf("unexpected sheet fields %+v", mdf)
	}

	laca := result.Materials[1]
	if laca.Name != "Laca Branca" {
		t.Errorf("expected title-cased name, got %q", laca.Name)
	}
	if laca.Pricing != model.PricingArea {
		t.Errorf("expected area pricing, got %q", laca.Pricing)
	}
	if !laca.PricePerM2.Equal(decimal.NewFromInt(85)) {
		t.Errorf("expected 85/m², got %s", laca.PricePerM2)
	}

	if err := model.ValidateCatalog(result.Catalog()); err != nil {
		t.Errorf("imported catalog should validate: %v", err)
	}
}

func TestImportCSVFromReader_InferredLinearPricing(t *testing.T) {
	data := "Nome,Preço/m\nRipa Freijó,12.40\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', KindMaterials)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	m := result.Materials[0]
	if m.Pricing != model.PricingLinear {
		t.Errorf("expected linear pricing, got %q", m.Pricing)
	}
	if !m.PricePerM.Equal(decimal.RequireFromString("12.40")) {
		t.Errorf("expected 12.40/m, got %s", m.PricePerM)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "MDF Branco,15,2750,1850,229.90,15\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', KindMaterials)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(result.Materials))
	}
	if result.Materials[0].ThicknessMm != 15 {
		t.Errorf("expected thickness 15, got %v", result.Materials[0].ThicknessMm)
	}
}

func TestImportCSVFromReader_RowErrors(t *testing.T) {
	data := "Nome,Espessura,Largura,Altura,Preço,Perda\n" +
		"Sem Medida,18,,,100,\n" +
		"Espessura Ruim,abc,2750,1850,100,\n" +
		"Perda Alta,18,2750,1850,100,100\n" +
		",18,2750,1850,100,\n" +
		"MDF Bom,18,2750,1850,100,\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', KindMaterials)

	if len(result.Materials) != 1 {
		t.Fatalf("expected 1 valid material, got %d", len(result.Materials))
	}
	if len(result.Errors) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	wantPrefixes := []string{"Line 2:", "Line 3:", "Line 4:", "Line 5:"}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(result.Errors[i], prefix) {
			t.Errorf("error %d: expected prefix %q, got %q", i, prefix, result.Errors[i])
		}
	}
	if !strings.Contains(result.Errors[0], "sheet width and height") {
		t.Errorf("expected sheet size error, got %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_DuplicateID(t *testing.T) {
	data := "Nome,Largura,Altura,Preço\nMDF Branco,2750,1850,100\nmdf branco,2750,1850,120\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', KindMaterials)

	if len(result.Materials) != 1 {
		t.Fatalf("expected duplicates to be skipped, got %d", len(result.Materials))
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Duplicate id 'mdf-branco'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',', KindMaterials)
	if len(result.Errors) == 0 {
		t.Error("expected error for empty input")
	}
}

// ─── Hardware Import Tests ─────────────────────────────────

func TestImportCSVFromReader_Hardware(t *testing.T) {
	data := "Código;Ferragem;Preço unitário\n" +
		"dobradica-35;Dobradiça 35mm;8,50\n" +
		";PUXADOR 160;14,90\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';', KindHardware)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Hardware) != 2 {
		t.Fatalf("expected 2 hardware entries, got %d", len(result.Hardware))
	}
	if result.Hardware[0].ID != "dobradica-35" {
		t.Errorf("expected explicit id, got %q", result.Hardware[0].ID)
	}
	if !result.Hardware[0].UnitPrice.Equal(decimal.RequireFromString("8.50")) {
		t.Errorf("expected 8.50, got %s", result.Hardware[0].UnitPrice)
	}
	if result.Hardware[1].ID != "puxador-160" || result.Hardware[1].Name != "Puxador 160" {
		t.Errorf("unexpected second entry %+v", result.Hardware[1])
	}
}

func TestImportCSVFromReader_HardwareMissingPriceColumn(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Nome\nDobradiça\n"), ',', KindHardware)
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "unit_price") {
		t.Errorf("expected missing column error, got %v", result.Errors)
	}
}

// ─── File Import Tests ─────────────────────────────────────

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "materiais.csv")
	content := "Nome;Largura;Altura;Preço\nMDF Branco;2750;1850;229,90\nMDF Louro;2750;1850;310,00\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	result := ImportFile(path, KindMaterials)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Materials) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(result.Materials))
	}
	if !strings.Contains(strings.Join(result.Warnings, "|"), "semicolon") {
		t.Errorf("expected semicolon warning, got %v", result.Warnings)
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/materiais.csv", KindMaterials)
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogo.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_Materials(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Nome", "Espessura", "Largura", "Altura", "Preço"},
		{"MDF Branco", 18, 2750, 1850, 259.9},
	})

	result := ImportFile(path, KindMaterials)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(result.Materials))
	}
	m := result.Materials[0]
	if m.ID != "mdf-branco" || m.ThicknessMm != 18 {
		t.Errorf("unexpected material %+v", m)
	}
	if !m.PricePerSheet.Equal(decimal.RequireFromString("259.9")) {
		t.Errorf("expected 259.9, got %s", m.PricePerSheet)
	}
}

func TestImportExcel_Hardware(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Item", "Valor"},
		{"Corrediça 450", 32},
	})

	result := ImportExcel(path, KindHardware)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Hardware) != 1 || result.Hardware[0].ID != "corredica-450" {
		t.Errorf("unexpected hardware %+v", result.Hardware)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel("/nonexistent/catalogo.xlsx", KindMaterials)
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

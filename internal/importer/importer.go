// Package importer reads material and hardware catalogs from CSV and Excel
// files. It supports automatic delimiter detection, flexible column mapping,
// case-insensitive header recognition and Brazilian number formats.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/piwi3910/SlabCost/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Materials []model.Material
	Hardware  []model.Hardware
	Errors    []string
	Warnings  []string
}

// Catalog returns the imported entries as a catalog.
func (r ImportResult) Catalog() model.Catalog {
	return model.Catalog{Materials: r.Materials, Hardware: r.Hardware}
}

// Kind selects what a file contains.
type Kind int

const (
	KindMaterials Kind = iota
	KindHardware
)

func (k Kind) String() string {
	if k == KindHardware {
		return "hardware"
	}
	return "materials"
}

// ColumnMapping maps semantic column roles to their indices in the data.
// Roles without a column are absent.
type ColumnMapping map[string]int

// Index returns the column of role, or -1.
func (m ColumnMapping) Index(role string) int {
	if i, ok := m[role]; ok {
		return i
	}
	return -1
}

// materialAliases maps canonical material columns to accepted headers (folded).
var materialAliases = map[string][]string{
	"id":           {"id", "code", "codigo", "sku", "ref", "referencia"},
	"name":         {"name", "nome", "material", "descricao", "description", "desc"},
	"thickness":    {"thickness", "espessura", "esp", "thickness mm", "espessura mm"},
	"sheet_width":  {"sheet width", "width", "largura", "comprimento", "length", "w"},
	"sheet_height": {"sheet height", "height", "altura", "h"},
	"pricing":      {"pricing", "pricing mode", "cobranca", "unidade", "unit"},
	"price":        {"price", "preco", "price per sheet", "preco chapa", "valor", "valor chapa"},
	"price_m2":     {"price per m2", "price/m2", "preco m2", "preco/m2", "valor m2"},
	"price_m":      {"price per m", "price/m", "preco m", "preco/m", "valor m", "preco metro"},
	"waste":        {"waste", "waste %", "perda", "perda %", "desperdicio"},
	"edge_price":   {"edge banding", "edge banding price", "fita", "fita de borda", "preco fita"},
}

var hardwareAliases = map[string][]string{
	"id":         {"id", "code", "codigo", "sku", "ref", "referencia"},
	"name":       {"name", "nome", "ferragem", "hardware", "descricao", "description", "item"},
	"unit_price": {"unit price", "price", "preco", "preco unitario", "valor", "valor unitario"},
}

// positional mappings used when a file has no header row.
var (
	materialPositions = []string{"name", "thickness", "sheet_width", "sheet_height", "price", "waste"}
	hardwarePositions = []string{"id", "name", "unit_price"}
)

// foldHeader case-folds s and strips accents, so "Preço" matches "preco".
func foldHeader(s string) string {
	return stripAccents(cases.Fold().String(strings.TrimSpace(s)))
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug builds an ID from a name: "MDF Louro Freijó 18mm" -> "mdf-louro-freijo-18mm".
func Slug(name string) string {
	folded := foldHeader(name)
	var b strings.Builder
	dash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// normalizeName title-cases names typed entirely in upper or lower case.
func normalizeName(name string) string {
	if name == strings.ToUpper(name) || name == strings.ToLower(name) {
		return cases.Title(language.BrazilianPortuguese).String(strings.ToLower(name))
	}
	return name
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}
	return bestDelimiter
}

// DetectColumns examines a header row and returns the column mapping for kind.
// Returns the mapping and true if a header was detected, or the positional
// mapping and false if no header was found.
func DetectColumns(row []string, kind Kind) (ColumnMapping, bool) {
	aliases, positions := materialAliases, materialPositions
	if kind == KindHardware {
		aliases, positions = hardwareAliases, hardwarePositions
	}

	mapping := ColumnMapping{}
	for i, cell := range row {
		normalized := foldHeader(cell)
		for role, names := range aliases {
			for _, alias := range names {
				if normalized != alias {
					continue
				}
				if _, taken := mapping[role]; !taken {
					mapping[role] = i
				}
			}
		}
	}
	if len(mapping) > 0 {
		return mapping, true
	}

	mapping = ColumnMapping{}
	for i, role := range positions {
		mapping[role] = i
	}
	return mapping, false
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// normalizeNumber accepts "1.234,56", "229,90", "R$ 12,50" and "12.5".
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(normalizeNumber(s), 64)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(normalizeNumber(s))
}

// parsePricing converts a pricing cell to a mode.
func parsePricing(s string) (model.PricingMode, bool) {
	switch foldHeader(s) {
	case "sheet", "chapa", "placa", "un", "unidade":
		return model.PricingSheet, true
	case "area", "m2", "m²", "metro quadrado":
		return model.PricingArea, true
	case "linear", "m", "ml", "metro", "metro linear":
		return model.PricingLinear, true
	}
	return "", false
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// optionalFloat parses an optional numeric column. It returns an error
// message for a present but malformed value.
func optionalFloat(row []string, m ColumnMapping, role, rowLabel string) (float64, string) {
	s := getCell(row, m.Index(role))
	if s == "" {
		return 0, ""
	}
	v, err := parseFloat(s)
	if err != nil || v < 0 {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, role, s)
	}
	return v, ""
}

func optionalDecimal(row []string, m ColumnMapping, role, rowLabel string) (decimal.Decimal, bool, string) {
	s := getCell(row, m.Index(role))
	if s == "" {
		return decimal.Zero, false, ""
	}
	v, err := parseDecimal(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero, false, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, role, s)
	}
	return v, true, ""
}

// parseMaterialRow extracts a Material from a row.
// Returns the material, any error message, and any warning message.
func parseMaterialRow(row []string, m ColumnMapping, rowLabel string) (model.Material, string, string) {
	name := getCell(row, m.Index("name"))
	if name == "" {
		return model.Material{}, fmt.Sprintf("%s: Missing name", rowLabel), ""
	}
	mat := model.Material{Name: normalizeName(name)}

	var errMsg string
	if mat.ThicknessMm, errMsg = optionalFloat(row, m, "thickness", rowLabel); errMsg != "" {
		return model.Material{}, errMsg, ""
	}
	if mat.SheetWidthMm, errMsg = optionalFloat(row, m, "sheet_width", rowLabel); errMsg != "" {
		return model.Material{}, errMsg, ""
	}
	if mat.SheetHeightMm, errMsg = optionalFloat(row, m, "sheet_height", rowLabel); errMsg != "" {
		return model.Material{}, errMsg, ""
	}
	waste, errMsg := optionalFloat(row, m, "waste", rowLabel)
	if errMsg != "" {
		return model.Material{}, errMsg, ""
	}
	if waste >= 100 {
		return model.Material{}, fmt.Sprintf("%s: Waste must be below 100%%", rowLabel), ""
	}
	if getCell(row, m.Index("waste")) != "" {
		mat.WastePercent = model.Percent(waste)
	}

	var price, priceM2, priceM decimal.Decimal
	var hasPrice, hasM2, hasM bool
	if price, hasPrice, errMsg = optionalDecimal(row, m, "price", rowLabel); errMsg != "" {
		return model.Material{}, errMsg, ""
	}
	if priceM2, hasM2, errMsg = optionalDecimal(row, m, "price_m2", rowLabel); errMsg != "" {
		return model.Material{}, errMsg, ""
	}
	if priceM, hasM, errMsg = optionalDecimal(row, m, "price_m", rowLabel); errMsg != "" {
		return model.Material{}, errMsg, ""
	}
	if mat.EdgeBandingPricePerM, _, errMsg = optionalDecimal(row, m, "edge_price", rowLabel); errMsg != "" {
		return model.Material{}, errMsg, ""
	}

	var warning string
	mode, explicit := model.PricingMode(""), false
	if s := getCell(row, m.Index("pricing")); s != "" {
		mode, explicit = parsePricing(s)
		if !explicit {
			warning = fmt.Sprintf("%s: Unknown pricing '%s', inferring from columns", rowLabel, s)
		}
	}
	if !explicit {
		switch {
		case hasM2 && !hasPrice:
			mode = model.PricingArea
		case hasM && !hasPrice:
			mode = model.PricingLinear
		default:
			mode = model.PricingSheet
		}
	}
	mat.Pricing = mode

	// A bare "price" column fills whichever price the mode needs.
	switch mode {
	case model.PricingSheet:
		mat.PricePerSheet = price
		if mat.SheetWidthMm <= 0 || mat.SheetHeightMm <= 0 {
			return model.Material{}, fmt.Sprintf("%s: Sheet pricing needs sheet width and height", rowLabel), ""
		}
	case model.PricingArea:
		mat.PricePerM2 = priceM2
		if !hasM2 {
			mat.PricePerM2 = price
		}
	case model.PricingLinear:
		mat.PricePerM = priceM
		if !hasM {
			mat.PricePerM = price
		}
	}
	if !hasPrice && !hasM2 && !hasM {
		warning = fmt.Sprintf("%s: No price for '%s', imported at zero", rowLabel, mat.Name)
	}

	mat.ID = getCell(row, m.Index("id"))
	if mat.ID == "" {
		mat.ID = Slug(mat.Name)
	}
	return mat, "", warning
}

// parseHardwareRow extracts a Hardware entry from a row.
func parseHardwareRow(row []string, m ColumnMapping, rowLabel string) (model.Hardware, string, string) {
	name := getCell(row, m.Index("name"))
	if name == "" {
		return model.Hardware{}, fmt.Sprintf("%s: Missing name", rowLabel), ""
	}
	priceStr := getCell(row, m.Index("unit_price"))
	if priceStr == "" {
		return model.Hardware{}, fmt.Sprintf("%s: Missing unit price", rowLabel), ""
	}
	price, err := parseDecimal(priceStr)
	if err != nil || price.IsNegative() {
		return model.Hardware{}, fmt.Sprintf("%s: Invalid unit price '%s'", rowLabel, priceStr), ""
	}

	h := model.Hardware{ID: getCell(row, m.Index("id")), Name: normalizeName(name), UnitPrice: price}
	if h.ID == "" {
		h.ID = Slug(h.Name)
	}
	return h, "", ""
}

func readCSV(data []byte, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ImportCSV imports a catalog file of the given kind.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string, kind Kind) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(data, delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	return importFromRows(records, kind, "Line", warnings)
}

// ImportCSVFromReader imports a catalog from a CSV reader with a known delimiter.
func ImportCSVFromReader(r io.Reader, delimiter rune, kind Kind) ImportResult {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	records, err := readCSV(data, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, kind, "Line", nil)
}

// ImportExcel imports a catalog from the first sheet of an Excel file.
func ImportExcel(path string, kind Kind) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}
	return importFromRows(rows, kind, "Row", nil)
}

// ImportFile picks the CSV or Excel reader from the file extension.
func ImportFile(path string, kind Kind) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path, kind)
	}
	return ImportCSV(path, kind)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, kind Kind, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0], kind)
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		required := []string{"name"}
		if kind == KindHardware {
			required = append(required, "unit_price")
		}
		var missing []string
		for _, role := range required {
			if mapping.Index(role) < 0 {
				missing = append(missing, role)
			}
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	seen := make(map[string]bool)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)

		var id, errMsg, warning string
		switch kind {
		case KindHardware:
			var h model.Hardware
			h, errMsg, warning = parseHardwareRow(row, mapping, rowLabel)
			if errMsg == "" {
				id = h.ID
				if !seen[id] {
					result.Hardware = append(result.Hardware, h)
				}
			}
		default:
			var mat model.Material
			mat, errMsg, warning = parseMaterialRow(row, mapping, rowLabel)
			if errMsg == "" {
				id = mat.ID
				if !seen[id] {
					result.Materials = append(result.Materials, mat)
				}
			}
		}

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if seen[id] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Duplicate id '%s', skipped", rowLabel, id))
		}
		seen[id] = true
	}
	return result
}

package model

import "github.com/shopspring/decimal"

// PricingMode selects how a material is charged.
type PricingMode string

const (
	PricingSheet  PricingMode = "sheet"  // whole sheets, rounded up after waste
	PricingArea   PricingMode = "area"   // price per m², no sheet rounding
	PricingLinear PricingMode = "linear" // price per linear meter (slats, profiles)
)

// Material is a sheet good from the material catalog. The engine only reads it.
type Material struct {
	ID                   string          `json:"id" validate:"required"`
	Name                 string          `json:"name" validate:"required"`
	ThicknessMm          float64         `json:"thickness_mm" validate:"gte=0"`
	SheetWidthMm         float64         `json:"sheet_width_mm" validate:"gte=0"`
	SheetHeightMm        float64         `json:"sheet_height_mm" validate:"gte=0"`
	Pricing              PricingMode     `json:"pricing,omitempty" validate:"omitempty,oneof=sheet area linear"`
	PricePerSheet        decimal.Decimal `json:"price_per_sheet"`
	PricePerM2           decimal.Decimal `json:"price_per_m2"`
	PricePerM            decimal.Decimal `json:"price_per_m"`
	WastePercent         *float64        `json:"waste_percent,omitempty" validate:"omitempty,gte=0,lt=100"` // nil when the record sets no waste
	EdgeBandingPricePerM decimal.Decimal `json:"edge_banding_price_per_m"` // matching tape, 0 when not priced
}

// NewSheetMaterial creates a material sold by the sheet.
func NewSheetMaterial(name string, thickness, width, height float64, pricePerSheet decimal.Decimal, wastePercent float64) Material {
	return Material{
		ID:            NewID(),
		Name:          name,
		ThicknessMm:   thickness,
		SheetWidthMm:  width,
		SheetHeightMm: height,
		Pricing:       PricingSheet,
		PricePerSheet: pricePerSheet,
		WastePercent:  Percent(wastePercent),
	}
}

// NewAreaMaterial creates a material sold per square meter.
func NewAreaMaterial(name string, thickness float64, pricePerM2 decimal.Decimal) Material {
	return Material{
		ID:          NewID(),
		Name:        name,
		ThicknessMm: thickness,
		Pricing:     PricingArea,
		PricePerM2:  pricePerM2,
	}
}

// Percent returns a pointer to v, for optional percentage fields.
func Percent(v float64) *float64 {
	return &v
}

// Waste returns the material's own waste percentage, 0 when unset.
func (m Material) Waste() float64 {
	if m.WastePercent == nil {
		return 0
	}
	return *m.WastePercent
}

// SheetAreaM2 returns the area of one stock sheet in m².
func (m Material) SheetAreaM2() float64 {
	return m.SheetWidthMm * m.SheetHeightMm / 1e6
}

// EffectivePricing returns the effective pricing mode. Records without an explicit
// mode are priced per sheet when they carry a sheet price and size, otherwise per m².
func (m Material) EffectivePricing() PricingMode {
	if m.Pricing != "" {
		return m.Pricing
	}
	if m.PricePerSheet.IsPositive() && m.SheetAreaM2() > 0 {
		return PricingSheet
	}
	return PricingArea
}

// Hardware is an entry of the hardware catalog.
type Hardware struct {
	ID        string          `json:"id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Catalog holds the material and hardware lookups for one computation.
// It is passed explicitly to every entry point and never mutated by the engine.
type Catalog struct {
	Materials []Material `json:"materials" validate:"dive"`
	Hardware  []Hardware `json:"hardware" validate:"dive"`
}

// FindMaterial returns a pointer to the material with the given ID, or nil.
func (c *Catalog) FindMaterial(id string) *Material {
	for i := range c.Materials {
		if c.Materials[i].ID == id {
			return &c.Materials[i]
		}
	}
	return nil
}

// FindMaterialByName returns a pointer to the first material with the given name, or nil.
func (c *Catalog) FindMaterialByName(name string) *Material {
	for i := range c.Materials {
		if c.Materials[i].Name == name {
			return &c.Materials[i]
		}
	}
	return nil
}

// FindHardware returns a pointer to the hardware entry with the given ID, or nil.
func (c *Catalog) FindHardware(id string) *Hardware {
	for i := range c.Hardware {
		if c.Hardware[i].ID == id {
			return &c.Hardware[i]
		}
	}
	return nil
}

// MaterialNames returns material names for UI dropdowns.
func (c *Catalog) MaterialNames() []string {
	names := make([]string, len(c.Materials))
	for i, m := range c.Materials {
		names[i] = m.Name
	}
	return names
}

// Merge returns a catalog with other's entries appended. Entries whose ID
// already exists in c are skipped.
func (c Catalog) Merge(other Catalog) Catalog {
	out := Catalog{
		Materials: append([]Material{}, c.Materials...),
		Hardware:  append([]Hardware{}, c.Hardware...),
	}
	for _, m := range other.Materials {
		if out.FindMaterial(m.ID) == nil {
			out.Materials = append(out.Materials, m)
		}
	}
	for _, h := range other.Hardware {
		if out.FindHardware(h.ID) == nil {
			out.Hardware = append(out.Hardware, h)
		}
	}
	return out
}

// DefaultFixedSheets returns the hard-coded boards used by fixed_sheet pieces.
// They do not depend on the materials selected for a budget.
func DefaultFixedSheets() []Material {
	return []Material{
		{ID: "fixed-15", Name: "MDF 15mm", ThicknessMm: 15, SheetWidthMm: 2750, SheetHeightMm: 1850,
			Pricing: PricingSheet, PricePerSheet: decimal.RequireFromString("189.90"), WastePercent: Percent(10)},
		{ID: "fixed-18", Name: "MDF 18mm", ThicknessMm: 18, SheetWidthMm: 2750, SheetHeightMm: 1850,
			Pricing: PricingSheet, PricePerSheet: decimal.RequireFromString("229.90"), WastePercent: Percent(10)},
		{ID: "fixed-25", Name: "MDF 25mm", ThicknessMm: 25, SheetWidthMm: 2750, SheetHeightMm: 1850,
			Pricing: PricingSheet, PricePerSheet: decimal.RequireFromString("319.90"), WastePercent: Percent(10)},
	}
}

// FindFixedSheet looks a fixed board up by ID or name.
func FindFixedSheet(sheets []Material, key string) *Material {
	for i := range sheets {
		if sheets[i].ID == key || sheets[i].Name == key {
			return &sheets[i]
		}
	}
	return nil
}

// DefaultCatalog returns a catalog populated with common materials and hardware.
func DefaultCatalog() Catalog {
	return Catalog{
		Materials: []Material{
			{ID: "mdf-branco-15", Name: "MDF Branco TX 15mm", ThicknessMm: 15, SheetWidthMm: 2750, SheetHeightMm: 1850,
				Pricing: PricingSheet, PricePerSheet: decimal.RequireFromString("259.00"), WastePercent: Percent(15),
				EdgeBandingPricePerM: decimal.RequireFromString("1.20")},
			{ID: "mdf-branco-18", Name: "MDF Branco TX 18mm", ThicknessMm: 18, SheetWidthMm: 2750, SheetHeightMm: 1850,
				Pricing: PricingSheet, PricePerSheet: decimal.RequireFromString("299.00"), WastePercent: Percent(15),
				EdgeBandingPricePerM: decimal.RequireFromString("1.40")},
			{ID: "mdf-louro-18", Name: "MDF Louro Freijó 18mm", ThicknessMm: 18, SheetWidthMm: 2750, SheetHeightMm: 1850,
				Pricing: PricingSheet, PricePerSheet: decimal.RequireFromString("429.00"), WastePercent: Percent(15),
				EdgeBandingPricePerM: decimal.RequireFromString("2.10")},
			{ID: "hdf-fundo-6", Name: "HDF Fundo 6mm", ThicknessMm: 6, SheetWidthMm: 2750, SheetHeightMm: 1850,
				Pricing: PricingSheet, PricePerSheet: decimal.RequireFromString("119.00"), WastePercent: Percent(10)},
			{ID: "laca-m2", Name: "Laca Fosca (m²)", ThicknessMm: 18,
				Pricing: PricingArea, PricePerM2: decimal.RequireFromString("380.00")},
		},
		Hardware: []Hardware{
			{ID: "dobradica-35", Name: "Dobradiça 35mm curva", UnitPrice: decimal.RequireFromString("8.50")},
			{ID: "corredica-450", Name: "Corrediça telescópica 450mm (par)", UnitPrice: decimal.RequireFromString("32.00")},
			{ID: "puxador-160", Name: "Puxador 160mm", UnitPrice: decimal.RequireFromString("14.90")},
			{ID: "suporte-prat", Name: "Suporte de prateleira", UnitPrice: decimal.RequireFromString("0.35")},
		},
	}
}

package model

// Difficulty coefficient bounds. The coefficient is applied by callers on top
// of the raw material cost as cost * (1 + coefficient).
const (
	DefaultDifficultyCoefficient = 0.25
	MaxDifficultyCoefficient     = 3.0
)

// EngineSettings holds the defaults applied to every computation.
type EngineSettings struct {
	ThicknessMm             float64    `json:"thickness_mm" mapstructure:"thickness_mm"`                           // carcass board thickness used for Li/Ai
	DefaultWastePercent     float64    `json:"default_waste_percent" mapstructure:"default_waste_percent"`         // for materials without their own waste
	EdgeBandingWastePercent float64    `json:"edge_banding_waste_percent" mapstructure:"edge_banding_waste_percent"` // extra tape for trimming
	DifficultyCoefficient   float64    `json:"difficulty_coefficient" mapstructure:"difficulty_coefficient"`       // used when a definition has none
	Nesting                 bool       `json:"nesting" mapstructure:"nesting"`                                     // run the nesting check
	KerfMm                  float64    `json:"kerf_mm" mapstructure:"kerf_mm"`                                     // saw blade width for nesting
	FixedSheets             []Material `json:"fixed_sheets" mapstructure:"-"`                                      // boards for fixed_sheet pieces
}

// LogSettings configures the zap logger.
type LogSettings struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // json, console
	Output string `json:"output" mapstructure:"output"` // stdout, stderr or a file path
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr            string `json:"addr" mapstructure:"addr"`
	ReadTimeoutSec  int    `json:"read_timeout_sec" mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `json:"write_timeout_sec" mapstructure:"write_timeout_sec"`
	MaxBodyBytes    int64  `json:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	Engine      EngineSettings `json:"engine" mapstructure:"engine"`
	Log         LogSettings    `json:"log" mapstructure:"log"`
	Server      ServerSettings `json:"server" mapstructure:"server"`
	CatalogPath string         `json:"catalog_path" mapstructure:"catalog_path"` // materials + hardware JSON
	LibraryPath string         `json:"library_path" mapstructure:"library_path"` // box/component definitions JSON
}

// DefaultEngineSettings returns the engine defaults.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		ThicknessMm:             18.0,
		DefaultWastePercent:     15.0,
		EdgeBandingWastePercent: 10.0,
		DifficultyCoefficient:   DefaultDifficultyCoefficient,
		Nesting:                 false,
		KerfMm:                  3.2,
		FixedSheets:             DefaultFixedSheets(),
	}
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Engine: DefaultEngineSettings(),
		Log: LogSettings{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Server: ServerSettings{
			Addr:            ":8080",
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 15,
			MaxBodyBytes:    1 << 20,
		},
	}
}

// WastePolicy returns the aggregation policy for these settings.
func (s EngineSettings) WastePolicy() WastePolicy {
	return WastePolicy{
		DefaultWastePercent:     s.DefaultWastePercent,
		EdgeBandingWastePercent: s.EdgeBandingWastePercent,
		Nesting:                 s.Nesting,
		KerfMm:                  s.KerfMm,
	}
}

// WastePolicy controls how aggregation applies waste allowances.
type WastePolicy struct {
	DefaultWastePercent     float64 `json:"default_waste_percent"`      // used when a material has no waste of its own
	Override                bool    `json:"override"`                   // force DefaultWastePercent on every material
	EdgeBandingWastePercent float64 `json:"edge_banding_waste_percent"` // extra banding for trimming
	Nesting                 bool    `json:"nesting"`                    // also pack pieces on sheets
	KerfMm                  float64 `json:"kerf_mm"`                    // blade width for nesting
}

// WasteFor returns the waste percentage to apply to m. Only a material
// without a waste value of its own falls back to the default; an explicit 0
// is kept.
func (p WastePolicy) WasteFor(m Material) float64 {
	if p.Override || m.WastePercent == nil {
		return p.DefaultWastePercent
	}
	return *m.WastePercent
}

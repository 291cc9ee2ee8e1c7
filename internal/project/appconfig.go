package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/piwi3910/SlabCost/internal/model"
)

// EnvPrefix prefixes environment overrides, e.g. SLABCOST_ENGINE_THICKNESS_MM.
const EnvPrefix = "SLABCOST"

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.slabcost/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".slabcost")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

func setDefaults(v *viper.Viper, d model.AppConfig) {
	v.SetDefault("engine.thickness_mm", d.Engine.ThicknessMm)
	v.SetDefault("engine.default_waste_percent", d.Engine.DefaultWastePercent)
	v.SetDefault("engine.edge_banding_waste_percent", d.Engine.EdgeBandingWastePercent)
	v.SetDefault("engine.difficulty_coefficient", d.Engine.DifficultyCoefficient)
	v.SetDefault("engine.nesting", d.Engine.Nesting)
	v.SetDefault("engine.kerf_mm", d.Engine.KerfMm)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout_sec", d.Server.ReadTimeoutSec)
	v.SetDefault("server.write_timeout_sec", d.Server.WriteTimeoutSec)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)

	v.SetDefault("catalog_path", d.CatalogPath)
	v.SetDefault("library_path", d.LibraryPath)
}

// LoadAppConfig reads an AppConfig.
// Priority (highest to lowest):
// 1. Environment variables with the SLABCOST_ prefix
// 2. the config file at path (JSON, YAML or TOML, by extension)
// 3. Built-in defaults
//
// A missing file is not an error. An empty path skips the file.
func LoadAppConfig(path string) (model.AppConfig, error) {
	defaults := model.DefaultAppConfig()

	v := viper.New()
	setDefaults(v, defaults)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return model.AppConfig{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := model.AppConfig{
		Engine: model.EngineSettings{
			ThicknessMm:             v.GetFloat64("engine.thickness_mm"),
			DefaultWastePercent:     v.GetFloat64("engine.default_waste_percent"),
			EdgeBandingWastePercent: v.GetFloat64("engine.edge_banding_waste_percent"),
			DifficultyCoefficient:   v.GetFloat64("engine.difficulty_coefficient"),
			Nesting:                 v.GetBool("engine.nesting"),
			KerfMm:                  v.GetFloat64("engine.kerf_mm"),
			FixedSheets:             defaults.Engine.FixedSheets,
		},
		Log: model.LogSettings{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Server: model.ServerSettings{
			Addr:            v.GetString("server.addr"),
			ReadTimeoutSec:  v.GetInt("server.read_timeout_sec"),
			WriteTimeoutSec: v.GetInt("server.write_timeout_sec"),
			MaxBodyBytes:    v.GetInt64("server.max_body_bytes"),
		},
		CatalogPath: v.GetString("catalog_path"),
		LibraryPath: v.GetString("library_path"),
	}

	// Fixed boards are a list of materials; decode them through their JSON form
	// so decimal prices keep their precision.
	if v.IsSet("engine.fixed_sheets") {
		raw, err := json.Marshal(v.Get("engine.fixed_sheets"))
		if err != nil {
			return model.AppConfig{}, fmt.Errorf("invalid engine.fixed_sheets: %w", err)
		}
		var sheets []model.Material
		if err := json.Unmarshal(raw, &sheets); err != nil {
			return model.AppConfig{}, fmt.Errorf("invalid engine.fixed_sheets: %w", err)
		}
		cfg.Engine.FixedSheets = sheets
	}

	if err := validateAppConfig(cfg); err != nil {
		return model.AppConfig{}, err
	}
	return cfg, nil
}

func validateAppConfig(cfg model.AppConfig) error {
	e := cfg.Engine
	if e.ThicknessMm <= 0 {
		return fmt.Errorf("engine.thickness_mm must be positive, got %v", e.ThicknessMm)
	}
	if e.DefaultWastePercent < 0 || e.DefaultWastePercent >= 100 {
		return fmt.Errorf("engine.default_waste_percent must be in [0, 100), got %v", e.DefaultWastePercent)
	}
	if e.EdgeBandingWastePercent < 0 {
		return fmt.Errorf("engine.edge_banding_waste_percent must not be negative, got %v", e.EdgeBandingWastePercent)
	}
	if e.DifficultyCoefficient < 0 || e.DifficultyCoefficient > model.MaxDifficultyCoefficient {
		return fmt.Errorf("engine.difficulty_coefficient must be in [0, %v], got %v", model.MaxDifficultyCoefficient, e.DifficultyCoefficient)
	}
	if e.KerfMm < 0 {
		return fmt.Errorf("engine.kerf_mm must not be negative, got %v", e.KerfMm)
	}
	for i, s := range e.FixedSheets {
		if s.ID == "" || s.SheetAreaM2() <= 0 {
			return fmt.Errorf("engine.fixed_sheets[%d] needs an id and a sheet size", i)
		}
	}
	return nil
}

// writeJSON marshals v to path, creating parent directories.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/SlabCost/internal/model"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Catalog   model.Catalog   `json:"catalog"`
	Library   model.Library   `json:"library"`
}

// ExportAllData exports the config, catalog and library to a single JSON file.
func ExportAllData(exportPath string, config model.AppConfig, cat model.Catalog, lib model.Library) error {
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Catalog:   cat,
		Library:   lib,
	}
	if err := writeJSON(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads and validates a backup JSON file.
// The caller is responsible for applying the imported data.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if err := model.ValidateCatalog(backup.Catalog); err != nil {
		return BackupData{}, fmt.Errorf("invalid backup catalog: %w", err)
	}
	if err := model.ValidateLibrary(backup.Library); err != nil {
		return BackupData{}, fmt.Errorf("invalid backup library: %w", err)
	}
	if backup.Config.Engine.FixedSheets == nil {
		backup.Config.Engine.FixedSheets = model.DefaultFixedSheets()
	}
	return backup, nil
}

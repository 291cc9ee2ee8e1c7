package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/SlabCost/internal/model"
)

// DefaultLibraryPath returns the default file path for the definition
// library. This is located at ~/.slabcost/library.json.
func DefaultLibraryPath() string {
	return filepath.Join(DefaultConfigDir(), "library.json")
}

// SaveLibrary writes the box and component library to a JSON file.
func SaveLibrary(path string, lib model.Library) error {
	return writeJSON(path, lib)
}

// LoadLibrary reads and validates a library from a JSON file.
// If the file does not exist, returns the built-in library.
func LoadLibrary(path string) (model.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultLibrary(), nil
		}
		return model.Library{}, err
	}
	var lib model.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return model.Library{}, fmt.Errorf("failed to parse library: %w", err)
	}
	if lib.Boxes == nil {
		lib.Boxes = []model.BoxDefinition{}
	}
	if lib.Components == nil {
		lib.Components = []model.ComponentDefinition{}
	}
	if err := model.ValidateLibrary(lib); err != nil {
		return model.Library{}, fmt.Errorf("library %s: %w", path, err)
	}
	return lib, nil
}

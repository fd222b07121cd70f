package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeDocument parses a pipeline document file, choosing the codec from
// the file extension (.yaml/.yml or .json).
func decodeDocument(path string, raw []byte, dst any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported document extension %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}
	return nil
}

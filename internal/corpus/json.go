package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// marshalIndent is the shared JSON encoding used for all written JSON
// outputs (corpus files, extraction results, classification batches).
func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return data, nil
}

// WriteJSONFile writes any value as indented JSON, atomically.
func WriteJSONFile(path string, v any) error {
	return writeJSON(path, v)
}

// ReadJSONFile reads a JSON file into v. A missing file returns
// os.ErrNotExist unwrapped so callers can treat it as "start fresh".
func ReadJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

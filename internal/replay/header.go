package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HeaderSchemaVersion tracks the schema version for flight recording headers.
const HeaderSchemaVersion = 1

// RunParameters captures the numeric settings a recording was flown with, such as the
// step length and air density.
type RunParameters map[string]float64

// Clone returns a copy of the parameters.
func (p RunParameters) Clone() RunParameters {
	if len(p) == 0 {
		return nil
	}
	clone := make(RunParameters, len(p))
	for key, value := range p {
		clone[key] = value
	}
	return clone
}

// Header is the metadata persisted alongside a recording.
type Header struct {
	SchemaVersion int           `json:"schema_version"`
	RunID         string        `json:"run_id"`
	AeroMode      string        `json:"aero_mode,omitempty"`
	Vehicles      []string      `json:"vehicles,omitempty"`
	Parameters    RunParameters `json:"parameters,omitempty"`
	FilePointer   string        `json:"file_pointer"`
}

// Validate ensures the header can locate its recording.
func (h Header) Validate() error {
	if h.SchemaVersion <= 0 {
		return fmt.Errorf("schema_version must be positive")
	}
	if strings.TrimSpace(h.FilePointer) == "" {
		return fmt.Errorf("file_pointer must not be empty")
	}
	return nil
}

// WriteHeader persists header to path as indented JSON.
func WriteHeader(path string, header Header) error {
	if err := header.Validate(); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(header, "", "  ")
	if err != nil {
		return err
	}
	//1.- Nested paths are created on demand.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}

// ReadHeader loads and validates a header from disk.
func ReadHeader(path string) (Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, err
	}
	var header Header
	if err := json.Unmarshal(data, &header); err != nil {
		return Header{}, fmt.Errorf("decode header %s: %w", path, err)
	}
	if err := header.Validate(); err != nil {
		return Header{}, err
	}
	return header, nil
}

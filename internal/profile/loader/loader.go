// Package loader reads profile documents from disk.
//
// Documents are JSON or YAML, chosen by file extension. The loader
// only decodes and shape-checks; per-entry validation happens when the
// document is handed to the profile runtime.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nyxhci/nyx/internal/profile"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than
	// .json, .yaml, and .yml.
	ErrUnsupportedFormat = errors.New("loader: unsupported profile format")
	// ErrEmptyDocument is returned when a file decodes to nothing.
	ErrEmptyDocument = errors.New("loader: empty profile document")
)

// Load reads and decodes the profile document at path.
func Load(path string) (*profile.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return Decode(data, filepath.Ext(path))
}

// Decode parses raw document bytes. ext selects the format and must
// include the leading dot.
func Decode(data []byte, ext string) (*profile.Document, error) {
	var doc profile.Document
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("loader: parse json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("loader: parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if doc.ProfileName == "" && len(doc.Gestures) == 0 && len(doc.VoiceCommands) == 0 {
		return nil, ErrEmptyDocument
	}
	if doc.ProfileName == "" {
		doc.ProfileName = "unnamed"
	}
	return &doc, nil
}

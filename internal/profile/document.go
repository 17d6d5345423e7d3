package profile

import (
	"fmt"
	"strings"
	"time"
)

// Document is the on-disk shape of a profile, decoded from JSON or
// YAML by the loader package.
type Document struct {
	ProfileName    string                `json:"profile_name" yaml:"profile_name"`
	Description    string                `json:"description" yaml:"description"`
	Version        string                `json:"version" yaml:"version"`
	Author         string                `json:"author" yaml:"author"`
	Gestures       map[string]RuleEntry  `json:"gestures" yaml:"gestures"`
	VoiceCommands  map[string]VoiceEntry `json:"voice_commands" yaml:"voice_commands"`
	Settings       map[string]any        `json:"settings" yaml:"settings"`
	EnabledModules []string              `json:"enabled_modules" yaml:"enabled_modules"`
}

// RuleEntry is a single gesture rule as written in a profile document.
// Cooldown is in seconds. A nil Enabled means enabled.
type RuleEntry struct {
	Action      string  `json:"action" yaml:"action"`
	Command     string  `json:"command" yaml:"command"`
	Description string  `json:"description" yaml:"description"`
	Hand        string  `json:"hand" yaml:"hand"`
	Type        string  `json:"type" yaml:"type"`
	Enabled     *bool   `json:"enabled" yaml:"enabled"`
	Confidence  float64 `json:"confidence" yaml:"confidence"`
	Cooldown    float64 `json:"cooldown" yaml:"cooldown"`
}

// VoiceEntry is a voice command as written in a profile document.
type VoiceEntry struct {
	Action             string `json:"action" yaml:"action"`
	Command            string `json:"command" yaml:"command"`
	Description        string `json:"description" yaml:"description"`
	Enabled            *bool  `json:"enabled" yaml:"enabled"`
	RequiresActivation bool   `json:"requires_activation" yaml:"requires_activation"`
}

// ValidationError describes a malformed rule entry. The entry is
// skipped; the rest of the document still loads.
type ValidationError struct {
	Entry string
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("profile: entry %q missing %s", e.Entry, e.Field)
}

// Settings are the normalized profile settings the pipeline consumes.
type Settings struct {
	// ActivationWord prefixes voice triggers that require activation.
	ActivationWord string
	// MinConfidence is the floor applied when a rule has none.
	MinConfidence float64
	// DefaultCooldown is applied when a rule has no cooldown.
	DefaultCooldown time.Duration
}

// DefaultSettings mirror the values filled in for a profile that omits
// them.
var DefaultSettings = Settings{
	ActivationWord:  "nyx",
	MinConfidence:   0.7,
	DefaultCooldown: 500 * time.Millisecond,
}

// normalizeSettings fills defaults and coerces the loosely typed
// settings map from a document.
func normalizeSettings(raw map[string]any) Settings {
	s := DefaultSettings
	if w, ok := raw["voice_activation_word"].(string); ok && strings.TrimSpace(w) != "" {
		s.ActivationWord = strings.ToLower(strings.TrimSpace(w))
	}
	if v, ok := toFloat(raw["min_confidence"]); ok && v >= 0 && v <= 1 {
		s.MinConfidence = v
	}
	if v, ok := toFloat(raw["gesture_cooldown"]); ok && v >= 0 {
		s.DefaultCooldown = time.Duration(v * float64(time.Second))
	}
	return s
}

// toFloat coerces the numeric types JSON and YAML decoders produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

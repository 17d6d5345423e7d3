// Package appconfig loads the daemon configuration.
//
// Configuration comes from a TOML file with NYX_-prefixed environment
// overrides applied on top, then validated. Missing file and missing
// variables both fall back to defaults, so a bare `nyxd` run works.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of every recognized environment variable.
const EnvPrefix = "NYX_"

var (
	// ErrInvalidQueueSize is returned for non-positive queue sizes.
	ErrInvalidQueueSize = errors.New("appconfig: queue sizes must be positive")
	// ErrInvalidWindow is returned for non-positive windows.
	ErrInvalidWindow = errors.New("appconfig: windows must be positive")
	// ErrInvalidLogLevel is returned for unknown log levels.
	ErrInvalidLogLevel = errors.New("appconfig: unknown log level")
)

// Config is the daemon configuration.
type Config struct {
	// ProfilePath is the active profile document.
	ProfilePath string `toml:"profile_path"`
	// WatchProfile enables hot reload of the profile file.
	WatchProfile bool `toml:"watch_profile"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// LogJSON switches the console encoder to JSON.
	LogJSON bool `toml:"log_json"`

	// DetectorURL, when set, streams detections from a remote
	// websocket detector.
	DetectorURL string `toml:"detector_url"`

	Pipeline PipelineConfig `toml:"pipeline"`
}

// PipelineConfig tunes the dispatch pipeline.
type PipelineConfig struct {
	DetectionQueueSize int     `toml:"detection_queue_size"`
	GestureQueueSize   int     `toml:"gesture_queue_size"`
	ActionQueueSize    int     `toml:"action_queue_size"`
	SendTimeoutMs      int     `toml:"send_timeout_ms"`
	FusionWindowMs     int     `toml:"fusion_window_ms"`
	DebounceWindowMs   int     `toml:"debounce_window_ms"`
	FusionEnabled      bool    `toml:"fusion_enabled"`
	DebounceEnabled    bool    `toml:"debounce_enabled"`
	MaxGestureAgeMs    int     `toml:"max_gesture_age_ms"`
	ScriptTimeoutSec   float64 `toml:"script_timeout_sec"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ProfilePath:  "profile.json",
		WatchProfile: true,
		LogLevel:     "info",
		Pipeline: PipelineConfig{
			DetectionQueueSize: 100,
			GestureQueueSize:   50,
			ActionQueueSize:    20,
			SendTimeoutMs:      10,
			FusionWindowMs:     300,
			DebounceWindowMs:   300,
			FusionEnabled:      true,
			DebounceEnabled:    true,
			MaxGestureAgeMs:    1000,
			ScriptTimeoutSec:   2,
		},
	}
}

// Load reads path, applies environment overrides, and validates. An
// empty path or missing file loads defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("appconfig: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return Config{}, fmt.Errorf("appconfig: read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from NYX_ variables.
func applyEnv(cfg *Config) {
	envString("PROFILE", &cfg.ProfilePath)
	envBool("WATCH_PROFILE", &cfg.WatchProfile)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envBool("LOG_JSON", &cfg.LogJSON)
	envString("DETECTOR_URL", &cfg.DetectorURL)
	envInt("DETECTION_QUEUE_SIZE", &cfg.Pipeline.DetectionQueueSize)
	envInt("GESTURE_QUEUE_SIZE", &cfg.Pipeline.GestureQueueSize)
	envInt("ACTION_QUEUE_SIZE", &cfg.Pipeline.ActionQueueSize)
	envInt("SEND_TIMEOUT_MS", &cfg.Pipeline.SendTimeoutMs)
	envInt("FUSION_WINDOW_MS", &cfg.Pipeline.FusionWindowMs)
	envInt("DEBOUNCE_WINDOW_MS", &cfg.Pipeline.DebounceWindowMs)
	envBool("FUSION_ENABLED", &cfg.Pipeline.FusionEnabled)
	envBool("DEBOUNCE_ENABLED", &cfg.Pipeline.DebounceEnabled)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate checks ranges. Window clamping happens downstream; here
// only outright invalid values are rejected.
func (c Config) Validate() error {
	p := c.Pipeline
	if p.DetectionQueueSize <= 0 || p.GestureQueueSize <= 0 || p.ActionQueueSize <= 0 {
		return ErrInvalidQueueSize
	}
	if p.SendTimeoutMs <= 0 || p.FusionWindowMs <= 0 || p.DebounceWindowMs <= 0 || p.MaxGestureAgeMs <= 0 {
		return ErrInvalidWindow
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return nil
}

// SendTimeout returns the send timeout as a duration.
func (p PipelineConfig) SendTimeout() time.Duration {
	return time.Duration(p.SendTimeoutMs) * time.Millisecond
}

// FusionWindow returns the fusion window as a duration.
func (p PipelineConfig) FusionWindow() time.Duration {
	return time.Duration(p.FusionWindowMs) * time.Millisecond
}

// DebounceWindow returns the debounce window as a duration.
func (p PipelineConfig) DebounceWindow() time.Duration {
	return time.Duration(p.DebounceWindowMs) * time.Millisecond
}

// MaxGestureAge returns the stale-gesture cutoff as a duration.
func (p PipelineConfig) MaxGestureAge() time.Duration {
	return time.Duration(p.MaxGestureAgeMs) * time.Millisecond
}

// ScriptTimeout returns the per-script timeout as a duration.
func (p PipelineConfig) ScriptTimeout() time.Duration {
	return time.Duration(p.ScriptTimeoutSec * float64(time.Second))
}

package pipeline

import "time"

// Config sizes the integrator's queues and stage behavior.
type Config struct {
	// DetectionQueueSize bounds the ingestion channel.
	DetectionQueueSize int
	// GestureQueueSize bounds the routing-to-processing channel.
	GestureQueueSize int
	// ActionQueueSize bounds the outbound action channel.
	ActionQueueSize int

	// SendTimeout bounds every channel send; a send that cannot
	// complete in time drops the item.
	SendTimeout time.Duration

	// MaxGestureAge drops interpreted gestures older than this at
	// validation time.
	MaxGestureAge time.Duration

	// FusionEnabled turns the fusion stage on at start.
	FusionEnabled bool
	// DebounceEnabled turns the debounce stage on at start.
	DebounceEnabled bool

	// HistorySize bounds the recent gesture and action rings.
	HistorySize int
}

// DefaultConfig returns the standard queue sizes and stage defaults.
func DefaultConfig() Config {
	return Config{
		DetectionQueueSize: 100,
		GestureQueueSize:   50,
		ActionQueueSize:    20,
		SendTimeout:        10 * time.Millisecond,
		MaxGestureAge:      time.Second,
		FusionEnabled:      true,
		DebounceEnabled:    true,
		HistorySize:        100,
	}
}

// normalize fills zero values with defaults.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.DetectionQueueSize <= 0 {
		c.DetectionQueueSize = def.DetectionQueueSize
	}
	if c.GestureQueueSize <= 0 {
		c.GestureQueueSize = def.GestureQueueSize
	}
	if c.ActionQueueSize <= 0 {
		c.ActionQueueSize = def.ActionQueueSize
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = def.SendTimeout
	}
	if c.MaxGestureAge <= 0 {
		c.MaxGestureAge = def.MaxGestureAge
	}
	if c.HistorySize <= 0 {
		c.HistorySize = def.HistorySize
	}
	return c
}

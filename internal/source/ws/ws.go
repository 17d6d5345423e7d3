// Package ws is a detection source that streams frames from a remote
// detector over a websocket.
//
// Landmark detection runs out of process; this client connects to its
// endpoint, decodes JSON detection frames, and submits them to the
// pipeline. The connection is kept alive with ping/pong and reconnects
// with capped exponential backoff.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nyxhci/nyx/internal/gesture"
)

// Connection tuning.
const (
	// DefaultReadLimit bounds one frame.
	DefaultReadLimit = 512 * 1024
	// pongWait is how long to wait for a pong before the read fails.
	pongWait = 30 * time.Second
	// pingInterval must be shorter than pongWait.
	pingInterval = 20 * time.Second
	// minBackoff and maxBackoff bound the reconnect delay.
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// ErrBadFrame is reported for frames that do not decode to a detection.
var ErrBadFrame = errors.New("ws: malformed detection frame")

// frame is the wire shape of one remote detection.
type frame struct {
	Detector  string         `json:"detector"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	FrameID   uint64         `json:"frame_id"`
	Timestamp float64        `json:"timestamp"`
}

// Option configures a Source.
type Option func(*Source)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Source) { s.log = log }
}

// WithReadLimit overrides the per-frame read limit.
func WithReadLimit(n int64) Option {
	return func(s *Source) { s.readLimit = n }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Source) { s.dialer = d }
}

// Source implements the pipeline Detector interface over a websocket
// endpoint.
type Source struct {
	name      string
	url       string
	readLimit int64
	dialer    *websocket.Dialer
	log       *zap.Logger
	now       func() time.Time
}

// New creates a source named name streaming from url.
func New(name, url string, opts ...Option) *Source {
	s := &Source{
		name:      name,
		url:       url,
		readLimit: DefaultReadLimit,
		dialer:    websocket.DefaultDialer,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the registered detector name.
func (s *Source) Name() string { return s.name }

// Run connects and streams detections until the context is canceled.
// Connection loss triggers reconnects with backoff; Run only returns
// on cancellation.
func (s *Source) Run(ctx context.Context, submit func(gesture.DetectionEvent) error) error {
	backoff := minBackoff
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		err := s.stream(ctx, submit)
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("detector connection lost",
			zap.String("source", s.name),
			zap.Duration("retry_in", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// stream runs one connection to completion.
func (s *Source) stream(ctx context.Context, submit func(gesture.DetectionEvent) error) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("ws: dial %s: %w", s.url, err)
	}
	defer conn.Close()
	s.log.Info("detector connected", zap.String("source", s.name), zap.String("url", s.url))

	conn.SetReadLimit(s.readLimit)
	_ = conn.SetReadDeadline(s.now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(s.now().Add(pongWait))
	})

	// Close the connection when the context ends so the read below
	// unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					s.now().Add(time.Second))
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, s.now().Add(time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := s.decode(data)
		if err != nil {
			s.log.Debug("frame dropped", zap.String("source", s.name), zap.Error(err))
			continue
		}
		// Submission errors are overflow drops; the stream keeps going.
		_ = submit(ev)
	}
}

func (s *Source) decode(data []byte) (gesture.DetectionEvent, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return gesture.DetectionEvent{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	typ := gesture.Type(f.Type)
	if !typ.Valid() {
		return gesture.DetectionEvent{}, fmt.Errorf("%w: type %q", ErrBadFrame, f.Type)
	}

	ts := s.now()
	if f.Timestamp > 0 {
		sec := int64(f.Timestamp)
		nsec := int64((f.Timestamp - float64(sec)) * float64(time.Second))
		ts = time.Unix(sec, nsec)
	}
	detector := f.Detector
	if detector == "" {
		detector = s.name
	}

	ev := gesture.NewDetectionEvent(detector, typ, f.Payload, ts)
	ev.FrameID = f.FrameID
	return ev, nil
}

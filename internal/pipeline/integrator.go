package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nyxhci/nyx/internal/gesture"
	"github.com/nyxhci/nyx/internal/pipeline/conflict"
	"github.com/nyxhci/nyx/internal/pipeline/debounce"
	"github.com/nyxhci/nyx/internal/pipeline/fusion"
	"github.com/nyxhci/nyx/internal/pipeline/priority"
	"github.com/nyxhci/nyx/internal/pipeline/track"
	"github.com/nyxhci/nyx/internal/profile"
)

// Detector is a producer of raw detection events. Run blocks until the
// context is canceled, submitting events as they arrive.
type Detector interface {
	Name() string
	Run(ctx context.Context, submit func(gesture.DetectionEvent) error) error
}

// Interpreter turns detection events of one modality into semantic
// gestures.
type Interpreter interface {
	Name() string
	Modality() gesture.Type
	Interpret(ev gesture.DetectionEvent) ([]gesture.Gesture, error)
}

type detectorEntry struct {
	d       Detector
	enabled atomic.Bool
}

type interpreterEntry struct {
	i       Interpreter
	enabled atomic.Bool
}

// Option configures an Integrator.
type Option func(*Integrator)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(in *Integrator) { in.log = log }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(in *Integrator) { in.now = now }
}

// Integrator owns the channels and goroutines of the dispatch
// pipeline. The profile runtime is passed in at construction; there is
// no process-wide profile state.
type Integrator struct {
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
	profile *profile.Runtime

	fusion    *fusion.Engine
	debounce  *debounce.Debouncer
	sequences *debounce.SequenceTracker
	tracker   *track.Tracker
	conflicts *conflict.Resolver
	drag      *profile.DragLatch

	fusionOn atomic.Bool

	mu           sync.RWMutex
	detectors    map[string]*detectorEntry
	interpreters map[string]*interpreterEntry

	detectCh  chan gesture.DetectionEvent
	gestureCh chan []gesture.Gesture
	actionCh  chan gesture.Action

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	stats   stats
	hist    *history
	started time.Time
}

// New creates an integrator bound to the given profile runtime.
func New(rt *profile.Runtime, cfg Config, opts ...Option) *Integrator {
	cfg = cfg.normalize()
	in := &Integrator{
		cfg:          cfg,
		log:          zap.NewNop(),
		now:          time.Now,
		profile:      rt,
		fusion:       fusion.NewEngine(),
		debounce:     debounce.NewDebouncer(),
		sequences:    debounce.NewSequenceTracker(),
		tracker:      track.NewTracker(),
		conflicts:    conflict.NewResolver(),
		drag:         profile.NewDragLatch(),
		detectors:    make(map[string]*detectorEntry),
		interpreters: make(map[string]*interpreterEntry),
		detectCh:     make(chan gesture.DetectionEvent, cfg.DetectionQueueSize),
		gestureCh:    make(chan []gesture.Gesture, cfg.GestureQueueSize),
		actionCh:     make(chan gesture.Action, cfg.ActionQueueSize),
		hist:         newHistory(cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.fusionOn.Store(cfg.FusionEnabled)
	in.debounce.SetEnabled(cfg.DebounceEnabled)
	return in
}

// RegisterDetector adds a producer. Detectors registered before Start
// are launched with the pipeline.
func (in *Integrator) RegisterDetector(d Detector) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.detectors[d.Name()]; ok {
		return ErrDuplicateName
	}
	e := &detectorEntry{d: d}
	e.enabled.Store(true)
	in.detectors[d.Name()] = e
	return nil
}

// RegisterInterpreter adds an interpreter for its modality.
func (in *Integrator) RegisterInterpreter(i Interpreter) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.interpreters[i.Name()]; ok {
		return ErrDuplicateName
	}
	e := &interpreterEntry{i: i}
	e.enabled.Store(true)
	in.interpreters[i.Name()] = e
	return nil
}

// SetDetectorEnabled toggles a detector's submissions. A disabled
// detector keeps running; its events are dropped at ingestion.
func (in *Integrator) SetDetectorEnabled(name string, enabled bool) bool {
	in.mu.RLock()
	e, ok := in.detectors[name]
	in.mu.RUnlock()
	if ok {
		e.enabled.Store(enabled)
	}
	return ok
}

// SetInterpreterEnabled toggles an interpreter.
func (in *Integrator) SetInterpreterEnabled(name string, enabled bool) bool {
	in.mu.RLock()
	e, ok := in.interpreters[name]
	in.mu.RUnlock()
	if ok {
		e.enabled.Store(enabled)
	}
	return ok
}

// Start launches the routing and processing goroutines and every
// registered detector.
func (in *Integrator) Start(ctx context.Context) error {
	if in.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, in.cancel = context.WithCancel(ctx)
	in.started = in.now()

	in.wg.Add(2)
	go in.routeLoop(ctx)
	go in.processLoop(ctx)

	in.mu.RLock()
	for name, e := range in.detectors {
		in.wg.Add(1)
		go in.runDetector(ctx, name, e)
	}
	in.mu.RUnlock()

	in.log.Info("pipeline started",
		zap.Int("detection_queue", in.cfg.DetectionQueueSize),
		zap.Int("gesture_queue", in.cfg.GestureQueueSize),
		zap.Int("action_queue", in.cfg.ActionQueueSize))
	return nil
}

// Stop cancels the pipeline and waits for its goroutines. In-flight
// queue contents are discarded.
func (in *Integrator) Stop() {
	if !in.running.Swap(false) {
		return
	}
	in.cancel()
	in.wg.Wait()
	in.log.Info("pipeline stopped")
}

// Actions is the outbound channel consumed by the executor.
func (in *Integrator) Actions() <-chan gesture.Action {
	return in.actionCh
}

// Submit offers a detection event to the pipeline. It never blocks
// longer than the send timeout; on overflow the event is dropped.
func (in *Integrator) Submit(ev gesture.DetectionEvent) error {
	if !in.running.Load() {
		return ErrNotRunning
	}
	in.stats.detections.Add(1)
	if !sendTimeout(in.detectCh, ev, in.cfg.SendTimeout) {
		in.stats.detectionOverflow.Add(1)
		return ErrQueueFull
	}
	return nil
}

// ProcessVoiceCommand matches spoken text against the profile's voice
// commands and, on a match, injects a high-priority voice gesture
// directly into the processing stage, bypassing routing.
func (in *Integrator) ProcessVoiceCommand(text string) error {
	if !in.running.Load() {
		return ErrNotRunning
	}
	norm := strings.ToLower(strings.TrimSpace(text))
	vc := in.profile.MatchVoice(norm)
	if vc == nil {
		return ErrNoMatch
	}
	g := gesture.Gesture{
		Name:       vc.Trigger,
		Type:       gesture.TypeVoice,
		Confidence: 1.0,
		Timestamp:  in.now(),
		Hand:       gesture.HandAny,
		Source:     "voice",
		Priority:   gesture.PriorityHigh,
		Voice:      &gesture.VoiceData{Text: norm},
	}
	if !sendTimeout(in.gestureCh, []gesture.Gesture{g}, in.cfg.SendTimeout) {
		in.stats.gestureOverflow.Add(1)
		return ErrQueueFull
	}
	return nil
}

// ProcessCombinedGesture fuses two already-interpreted gestures without
// the compatibility or window checks and injects the result.
func (in *Integrator) ProcessCombinedGesture(a, b gesture.Gesture) error {
	if !in.running.Load() {
		return ErrNotRunning
	}
	g := fusion.Combine(a, b)
	g.Priority = priority.Score(&g)
	in.stats.fused.Add(1)
	if !sendTimeout(in.gestureCh, []gesture.Gesture{g}, in.cfg.SendTimeout) {
		in.stats.gestureOverflow.Add(1)
		return ErrQueueFull
	}
	return nil
}

// EnableFusion toggles the fusion stage.
func (in *Integrator) EnableFusion(on bool) { in.fusionOn.Store(on) }

// EnableDebounce toggles the debounce stage.
func (in *Integrator) EnableDebounce(on bool) { in.debounce.SetEnabled(on) }

// SetFusionWindow adjusts the fusion window, clamped to its bounds.
func (in *Integrator) SetFusionWindow(w time.Duration) { in.fusion.SetWindow(w) }

// SetDebounceWindow adjusts the debounce window.
func (in *Integrator) SetDebounceWindow(w time.Duration) { in.debounce.SetWindow(w) }

// Profile returns the bound rule engine.
func (in *Integrator) Profile() *profile.Runtime { return in.profile }

// Stats returns a snapshot of all counters plus queue depths.
func (in *Integrator) Stats() Stats {
	s := in.stats.snapshot()
	s.DetectionQueueDepth = len(in.detectCh)
	s.GestureQueueDepth = len(in.gestureCh)
	s.ActionQueueDepth = len(in.actionCh)
	if !in.started.IsZero() {
		s.Uptime = in.now().Sub(in.started)
	}
	return s
}

// RecentGestures returns up to n most recently processed gestures.
func (in *Integrator) RecentGestures(n int) []gesture.Gesture {
	return in.hist.recentGestures(n)
}

// RecentActions returns up to n most recently dispatched actions.
func (in *Integrator) RecentActions(n int) []gesture.Action {
	return in.hist.recentActions(n)
}

func (in *Integrator) runDetector(ctx context.Context, name string, e *detectorEntry) {
	defer in.wg.Done()
	submit := func(ev gesture.DetectionEvent) error {
		if !e.enabled.Load() {
			return nil
		}
		return in.Submit(ev)
	}
	if err := e.d.Run(ctx, submit); err != nil && ctx.Err() == nil {
		in.log.Error("detector stopped", zap.String("detector", name), zap.Error(err))
	}
}

// routeLoop is the single consumer of the detection channel. All its
// stage state (fusion, debounce, sequences, tracker) is single-owner.
func (in *Integrator) routeLoop(ctx context.Context) {
	defer in.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in.detectCh:
			if !ok {
				return
			}
			in.routeCycle(ctx, ev)
		}
	}
}

// routeCycle drains the events of one cycle, interprets them, and runs
// the routing stages.
func (in *Integrator) routeCycle(ctx context.Context, first gesture.DetectionEvent) {
	events := []gesture.DetectionEvent{first}
drain:
	for len(events) < in.cfg.DetectionQueueSize {
		select {
		case ev := <-in.detectCh:
			events = append(events, ev)
		default:
			break drain
		}
	}

	var batch []gesture.Gesture
	for _, ev := range events {
		batch = append(batch, in.interpret(ev)...)
	}
	batch = in.validate(batch)

	if in.fusionOn.Load() && len(batch) > 1 {
		before := len(batch)
		batch = in.fusion.Fuse(batch)
		in.stats.fused.Add(uint64(before - len(batch)))
	}

	kept := make([]gesture.Gesture, 0, len(batch))
	var synthesized []gesture.Gesture
	for i := range batch {
		g := &batch[i]
		if !in.debounce.Allow(g) {
			in.stats.debounced.Add(1)
			continue
		}
		kept = append(kept, *g)
		if seq := in.sequences.Observe(g); seq != nil {
			in.stats.sequences.Add(1)
			synthesized = append(synthesized, *seq)
		}
	}
	batch = kept

	for i := range batch {
		in.tracker.Observe(&batch[i])
	}
	in.stats.statesPurged.Add(uint64(in.tracker.Purge(in.now())))

	// Synthesized sequence gestures join after tracking: they are
	// patterns, not motions, and must never be continuous-annotated.
	batch = append(batch, synthesized...)

	if len(batch) == 0 {
		return
	}
	priority.Assign(batch)
	priority.Sort(batch)

	select {
	case <-ctx.Done():
		return
	default:
	}
	if !sendTimeout(in.gestureCh, batch, in.cfg.SendTimeout) {
		in.stats.gestureOverflow.Add(1)
		in.log.Warn("gesture queue overflow, cycle dropped",
			zap.Int("gestures", len(batch)))
	}
}

// interpret runs every enabled interpreter of the event's modality. An
// interpreter error drops that modality's gestures for the cycle.
func (in *Integrator) interpret(ev gesture.DetectionEvent) []gesture.Gesture {
	in.mu.RLock()
	entries := make([]*interpreterEntry, 0, len(in.interpreters))
	for _, e := range in.interpreters {
		entries = append(entries, e)
	}
	in.mu.RUnlock()

	var out []gesture.Gesture
	for _, e := range entries {
		if !e.enabled.Load() || e.i.Modality() != ev.Type {
			continue
		}
		gs, err := e.i.Interpret(ev)
		if err != nil {
			in.stats.interpreterErrors.Add(1)
			in.log.Warn("interpreter error",
				zap.String("interpreter", e.i.Name()),
				zap.String("event", ev.ID),
				zap.Error(err))
			continue
		}
		in.stats.interpreted.Add(uint64(len(gs)))
		out = append(out, gs...)
	}
	return out
}

// validate drops malformed, stale, and module-gated gestures.
func (in *Integrator) validate(batch []gesture.Gesture) []gesture.Gesture {
	now := in.now()
	out := batch[:0]
	for _, g := range batch {
		if g.Name == "" || !g.Type.Valid() || g.Confidence < 0 || g.Confidence > 1 {
			in.stats.invalid.Add(1)
			continue
		}
		if now.Sub(g.Timestamp) > in.cfg.MaxGestureAge {
			in.stats.stale.Add(1)
			continue
		}
		if !in.profile.ModuleEnabled(string(g.Type)) {
			in.stats.invalid.Add(1)
			continue
		}
		out = append(out, g)
	}
	return out
}

// processLoop is the single consumer of the gesture channel: conflict
// resolution, authorization, drag latch, and action emission.
func (in *Integrator) processLoop(ctx context.Context) {
	defer in.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-in.gestureCh:
			if !ok {
				return
			}
			for i := range batch {
				in.process(ctx, &batch[i])
			}
		}
	}
}

func (in *Integrator) process(ctx context.Context, g *gesture.Gesture) {
	in.hist.addGesture(*g)

	if d := in.conflicts.Resolve(g); !d.Allowed {
		in.stats.suppressed.Add(1)
		in.log.Debug("gesture suppressed",
			zap.String("gesture", g.Key()),
			zap.String("reason", string(d.Reason)),
			zap.String("blocker", d.Blocker))
		return
	}

	act, ok := in.authorize(g)
	if !ok {
		return
	}
	if !in.drag.Admit(act.Kind, act.Command) {
		in.stats.dragBlocked.Add(1)
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}
	if !sendTimeout(in.actionCh, act, in.cfg.SendTimeout) {
		in.stats.actionOverflow.Add(1)
		in.log.Warn("action queue overflow, action dropped",
			zap.String("action", act.Kind),
			zap.String("gesture", act.Gesture))
		return
	}
	in.stats.authorized.Add(1)
	in.hist.addAction(act)
}

func (in *Integrator) authorize(g *gesture.Gesture) (gesture.Action, bool) {
	if g.Type == gesture.TypeVoice && g.Voice != nil {
		vc := in.profile.MatchVoice(g.Voice.Text)
		if vc == nil {
			in.stats.rejected.Add(1)
			return gesture.Action{}, false
		}
		return in.profile.VoiceAction(vc, g.Timestamp), true
	}

	act, dec := in.profile.Authorize(g)
	if !dec.Authorized {
		in.stats.rejected.Add(1)
		in.log.Debug("gesture rejected",
			zap.String("gesture", g.Key()),
			zap.String("reason", string(dec.Reason)))
		return gesture.Action{}, false
	}
	return act, true
}

// sendTimeout sends v, giving up after d. The fast path avoids the
// timer allocation entirely.
func sendTimeout[T any](ch chan T, v T, d time.Duration) bool {
	select {
	case ch <- v:
		return true
	default:
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case ch <- v:
		return true
	case <-t.C:
		return false
	}
}

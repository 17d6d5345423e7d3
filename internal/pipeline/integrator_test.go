package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nyxhci/nyx/internal/gesture"
	"github.com/nyxhci/nyx/internal/profile"
)

// fakeInterpreter maps a payload field straight to gestures.
type fakeInterpreter struct {
	name     string
	modality gesture.Type
	fn       func(ev gesture.DetectionEvent) ([]gesture.Gesture, error)
}

func (f *fakeInterpreter) Name() string           { return f.name }
func (f *fakeInterpreter) Modality() gesture.Type { return f.modality }
func (f *fakeInterpreter) Interpret(ev gesture.DetectionEvent) ([]gesture.Gesture, error) {
	return f.fn(ev)
}

// handInterpreter emits one hand gesture named by the event payload.
func handInterpreter() *fakeInterpreter {
	return &fakeInterpreter{
		name:     "hand",
		modality: gesture.TypeHand,
		fn: func(ev gesture.DetectionEvent) ([]gesture.Gesture, error) {
			name, _ := ev.Payload["name"].(string)
			hand, _ := ev.Payload["hand"].(string)
			if hand == "" {
				hand = "right"
			}
			return []gesture.Gesture{{
				Name:       name,
				Type:       gesture.TypeHand,
				Confidence: 0.9,
				Timestamp:  ev.Timestamp,
				Hand:       gesture.Hand(hand),
				Source:     "hand",
			}}, nil
		},
	}
}

func testProfile(t *testing.T) *profile.Runtime {
	t.Helper()
	rt, errs := profile.NewRuntime(&profile.Document{
		ProfileName: "test",
		Gestures: map[string]profile.RuleEntry{
			"fist": {
				Action: "keyboard", Command: "ctrl+c",
				Hand: "any", Type: "hand", Confidence: 0.5, Cooldown: 0.05,
			},
			"open_palm": {
				Action: "mouse", Command: "drag_start",
				Hand: "any", Type: "hand", Confidence: 0.5, Cooldown: 0.05,
			},
		},
		VoiceCommands: map[string]profile.VoiceEntry{
			"abre discord": {
				Action: "bash", Command: "discord &", RequiresActivation: true,
			},
		},
	})
	if len(errs) != 0 {
		t.Fatalf("profile errors: %v", errs)
	}
	return rt
}

func startIntegrator(t *testing.T, rt *profile.Runtime) *Integrator {
	t.Helper()
	in := New(rt, DefaultConfig())
	if err := in.RegisterInterpreter(handInterpreter()); err != nil {
		t.Fatal(err)
	}
	if err := in.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(in.Stop)
	return in
}

func submitHand(t *testing.T, in *Integrator, name string) {
	t.Helper()
	ev := gesture.NewDetectionEvent("hand", gesture.TypeHand,
		map[string]any{"name": name}, time.Now())
	if err := in.Submit(ev); err != nil {
		t.Fatalf("submit %s: %v", name, err)
	}
}

func awaitAction(t *testing.T, in *Integrator) gesture.Action {
	t.Helper()
	select {
	case act := <-in.Actions():
		return act
	case <-time.After(2 * time.Second):
		t.Fatal("no action emitted")
	}
	return gesture.Action{}
}

func TestEndToEnd_DetectionToAction(t *testing.T) {
	in := startIntegrator(t, testProfile(t))

	submitHand(t, in, "fist")
	act := awaitAction(t, in)

	if act.Kind != "keyboard" || act.Command != "ctrl+c" {
		t.Errorf("action = %s/%s, want keyboard/ctrl+c", act.Kind, act.Command)
	}
	if act.Gesture != "fist" || act.Profile != "test" {
		t.Errorf("provenance = %s/%s", act.Gesture, act.Profile)
	}
	if act.Priority < 1 {
		t.Errorf("priority = %d, want scored", act.Priority)
	}

	waitFor(t, func() bool { return in.Stats().Authorized == 1 })
	if s := in.Stats(); s.Detections != 1 || s.Interpreted != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestUnknownGestureRejected(t *testing.T) {
	in := startIntegrator(t, testProfile(t))

	submitHand(t, in, "peace_sign")

	waitFor(t, func() bool { return in.Stats().Rejected == 1 })
	select {
	case act := <-in.Actions():
		t.Fatalf("unexpected action %s", act.Gesture)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInterpreterErrorDropsModality(t *testing.T) {
	rt := testProfile(t)
	in := New(rt, DefaultConfig())
	in.RegisterInterpreter(&fakeInterpreter{
		name:     "hand",
		modality: gesture.TypeHand,
		fn: func(gesture.DetectionEvent) ([]gesture.Gesture, error) {
			return nil, errors.New("landmark model crashed")
		},
	})
	if err := in.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(in.Stop)

	submitHand(t, in, "fist")
	waitFor(t, func() bool { return in.Stats().InterpreterErrors == 1 })
	if in.Stats().Authorized != 0 {
		t.Error("errored modality still produced actions")
	}
}

func TestStaleGestureDropped(t *testing.T) {
	in := startIntegrator(t, testProfile(t))

	ev := gesture.NewDetectionEvent("hand", gesture.TypeHand,
		map[string]any{"name": "fist"}, time.Now().Add(-2*time.Second))
	if err := in.Submit(ev); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return in.Stats().Stale == 1 })
}

func TestProcessVoiceCommand(t *testing.T) {
	in := startIntegrator(t, testProfile(t))

	if err := in.ProcessVoiceCommand("open the window"); err != ErrNoMatch {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
	if err := in.ProcessVoiceCommand("NYX abre discord"); err != nil {
		t.Fatal(err)
	}

	act := awaitAction(t, in)
	if act.Kind != "bash" || act.Command != "discord &" {
		t.Errorf("action = %s/%s", act.Kind, act.Command)
	}
	if act.Source != gesture.TypeVoice || act.Priority != gesture.PriorityHigh {
		t.Errorf("source/priority = %s/%d", act.Source, act.Priority)
	}
}

func TestProcessCombinedGesture(t *testing.T) {
	in := startIntegrator(t, testProfile(t))

	now := time.Now()
	a := gesture.Gesture{Name: "fist", Type: gesture.TypeHand, Confidence: 0.9, Timestamp: now, Hand: gesture.HandRight}
	b := gesture.Gesture{Name: "arm_raise", Type: gesture.TypeArm, Confidence: 0.7, Timestamp: now}
	if err := in.ProcessCombinedGesture(a, b); err != nil {
		t.Fatal(err)
	}

	// The combined name has no rule, so it is rejected at
	// authorization, but it must reach processing and the history.
	waitFor(t, func() bool { return in.Stats().Rejected == 1 })
	recent := in.RecentGestures(1)
	if len(recent) != 1 || recent[0].Name != "fist+arm_raise" {
		t.Errorf("recent = %v", recent)
	}
	if recent[0].Type != gesture.TypeCombined {
		t.Errorf("type = %s, want combined", recent[0].Type)
	}
}

func TestSequenceGestureNotContinuousAnnotated(t *testing.T) {
	in := startIntegrator(t, testProfile(t))

	submitHand(t, in, "fist")
	submitHand(t, in, "swipe_left")
	waitFor(t, func() bool { return in.Stats().Sequences == 1 })

	// The synthesized combo carries a motion word in its name but must
	// pass through untracked and without the continuous penalty.
	var seq *gesture.Gesture
	waitFor(t, func() bool {
		for _, g := range in.RecentGestures(10) {
			if g.Type == gesture.TypeSequence {
				seq = &g
				return true
			}
		}
		return false
	})

	if seq.Name != "fist_swipe_left" {
		t.Errorf("sequence name = %q, want fist_swipe_left", seq.Name)
	}
	if seq.Continuous != nil {
		t.Error("sequence gesture was continuous-annotated")
	}
	if seq.Priority != 2 {
		t.Errorf("sequence priority = %d, want 2", seq.Priority)
	}
}

func TestDragLatchBlocksDuplicateStart(t *testing.T) {
	in := startIntegrator(t, testProfile(t))
	in.EnableDebounce(false)
	in.conflicts.Reset()

	submitHand(t, in, "open_palm")
	awaitAction(t, in)

	// Wait out cooldown and conflict windows, then repeat the start.
	time.Sleep(600 * time.Millisecond)
	submitHand(t, in, "open_palm")

	waitFor(t, func() bool { return in.Stats().DragBlocked == 1 })
}

func TestSubmitWhenStopped(t *testing.T) {
	in := New(testProfile(t), DefaultConfig())
	ev := gesture.NewDetectionEvent("hand", gesture.TypeHand, nil, time.Now())
	if err := in.Submit(ev); err != ErrNotRunning {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
	if err := in.ProcessVoiceCommand("nyx abre discord"); err != ErrNotRunning {
		t.Errorf("voice err = %v, want ErrNotRunning", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	in := New(testProfile(t), DefaultConfig())
	if err := in.RegisterInterpreter(handInterpreter()); err != nil {
		t.Fatal(err)
	}
	if err := in.RegisterInterpreter(handInterpreter()); err != ErrDuplicateName {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
}

func TestDisabledInterpreterSkipped(t *testing.T) {
	in := startIntegrator(t, testProfile(t))
	if !in.SetInterpreterEnabled("hand", false) {
		t.Fatal("interpreter not found")
	}

	submitHand(t, in, "fist")
	waitFor(t, func() bool { return in.Stats().Detections == 1 })
	time.Sleep(50 * time.Millisecond)
	if s := in.Stats(); s.Interpreted != 0 {
		t.Errorf("disabled interpreter ran: %+v", s)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.addGesture(gesture.Gesture{Name: string(rune('a' + i))})
	}
	got := h.recentGestures(0)
	if len(got) != 3 {
		t.Fatalf("history len = %d, want 3", len(got))
	}
	if got[0].Name != "c" || got[2].Name != "e" {
		t.Errorf("history = %v", got)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

package track

import (
	"testing"
	"time"

	"github.com/nyxhci/nyx/internal/gesture"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func swipe(dx float64, offset time.Duration) gesture.Gesture {
	return gesture.Gesture{
		Name:      "swipe_right",
		Type:      gesture.TypeHand,
		Timestamp: t0.Add(offset),
		Deltas:    &gesture.Deltas{X: dx},
	}
}

func TestIsContinuousName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"swipe_left", true},
		{"two_finger_scroll", true},
		{"zoom_in", true},
		{"drag_start", true},
		{"rotate_cw", true},
		{"pan_up", true},
		{"fist", false},
		{"open_palm", false},
	}
	for _, tt := range tests {
		if got := IsContinuousName(tt.name); got != tt.want {
			t.Errorf("IsContinuousName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestObserve_AccumulatesDeltas(t *testing.T) {
	tr := NewTracker()

	deltas := []float64{10, 15, 5}
	var last gesture.Gesture
	for i, dx := range deltas {
		last = swipe(dx, time.Duration(i)*100*time.Millisecond)
		tr.Observe(&last)
	}

	if last.Continuous == nil {
		t.Fatal("continuous annotation missing")
	}
	if got := last.Continuous.TotalX; got != 30 {
		t.Errorf("total delta x = %v, want 30", got)
	}
	if got := last.Continuous.Updates; got != 2 {
		t.Errorf("updates = %d, want 2", got)
	}
	if got := last.Continuous.Duration; got != 200*time.Millisecond {
		t.Errorf("duration = %v, want 200ms", got)
	}

	st := tr.Lookup("swipe_right/hand")
	if st == nil {
		t.Fatal("state missing after observations")
	}
	if st.TotalX != 30 {
		t.Errorf("state total x = %v, want 30", st.TotalX)
	}
}

func TestObserve_SequenceTypeIgnored(t *testing.T) {
	tr := NewTracker()
	g := gesture.Gesture{
		Name:      "fist_swipe_left",
		Type:      gesture.TypeSequence,
		Timestamp: t0,
	}

	tr.Observe(&g)
	if g.Continuous != nil {
		t.Error("sequence gesture must not be continuous-annotated")
	}
	if tr.Active() != 0 {
		t.Errorf("sequence gesture created tracker state: %d", tr.Active())
	}
}

func TestObserve_NonContinuousIgnored(t *testing.T) {
	tr := NewTracker()
	g := gesture.Gesture{Name: "fist", Type: gesture.TypeHand, Timestamp: t0}

	tr.Observe(&g)
	if g.Continuous != nil {
		t.Error("non-continuous gesture must not be annotated")
	}
	if tr.Active() != 0 {
		t.Errorf("tracker should hold no state, has %d", tr.Active())
	}
}

func TestPurge_DropsIdleStates(t *testing.T) {
	tr := NewTracker()
	g := swipe(10, 0)
	tr.Observe(&g)

	// Still inside the idle timeout.
	if n := tr.Purge(t0.Add(900 * time.Millisecond)); n != 0 {
		t.Fatalf("purged %d states before the timeout", n)
	}

	// 1.2s without updates: the entry must no longer exist.
	if n := tr.Purge(t0.Add(1200 * time.Millisecond)); n != 1 {
		t.Fatalf("expected 1 purged state, got %d", n)
	}
	if tr.Lookup("swipe_right/hand") != nil {
		t.Error("state still present after purge")
	}
}

func TestObserve_SeparateKeysTrackIndependently(t *testing.T) {
	tr := NewTracker()

	h := swipe(10, 0)
	a := gesture.Gesture{
		Name:      "swipe_right",
		Type:      gesture.TypeArm,
		Timestamp: t0,
		Deltas:    &gesture.Deltas{X: 3},
	}
	tr.Observe(&h)
	tr.Observe(&a)

	if tr.Active() != 2 {
		t.Fatalf("expected 2 independent states, got %d", tr.Active())
	}
	if st := tr.Lookup("swipe_right/arm"); st == nil || st.TotalX != 3 {
		t.Errorf("arm state tracked incorrectly: %+v", st)
	}
}

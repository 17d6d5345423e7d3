package conflict

import (
	"fmt"
	"testing"
	"time"

	"github.com/nyxhci/nyx/internal/gesture"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(offset time.Duration, name string, typ gesture.Type, prio gesture.Priority) *gesture.Gesture {
	return &gesture.Gesture{
		Name:      name,
		Type:      typ,
		Priority:  prio,
		Timestamp: t0.Add(offset),
	}
}

func TestResolve_DuplicateWithinWindow(t *testing.T) {
	r := NewResolver()

	if d := r.Resolve(at(0, "fist", gesture.TypeHand, 2)); !d.Allowed {
		t.Fatalf("first gesture rejected: %+v", d)
	}
	d := r.Resolve(at(150*time.Millisecond, "fist", gesture.TypeHand, 2))
	if d.Allowed {
		t.Fatal("duplicate inside 200ms not suppressed")
	}
	if d.Reason != ReasonDuplicate {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonDuplicate)
	}
	if d.Blocker != "fist/hand" {
		t.Errorf("blocker = %q, want fist/hand", d.Blocker)
	}
}

func TestResolve_DuplicateAfterWindow(t *testing.T) {
	r := NewResolver()
	r.Resolve(at(0, "fist", gesture.TypeHand, 2))

	if d := r.Resolve(at(250*time.Millisecond, "fist", gesture.TypeHand, 2)); !d.Allowed {
		t.Errorf("duplicate after 200ms suppressed: %+v", d)
	}
}

func TestResolve_PriorityPreemption(t *testing.T) {
	r := NewResolver()
	r.Resolve(at(0, "emergency_stop", gesture.TypeHand, 3))

	d := r.Resolve(at(300*time.Millisecond, "t_pose", gesture.TypePose, 1))
	if d.Allowed {
		t.Fatal("low-priority gesture 300ms after a priority-3 one must be suppressed")
	}
	if d.Reason != ReasonPreempted {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonPreempted)
	}

	// Past the preemption window the same gesture goes through.
	if d := r.Resolve(at(600*time.Millisecond, "t_pose", gesture.TypePose, 1)); !d.Allowed {
		t.Errorf("gesture 600ms later suppressed: %+v", d)
	}
}

func TestResolve_EqualPriorityNotPreempted(t *testing.T) {
	r := NewResolver()
	r.Resolve(at(0, "fist", gesture.TypeHand, 2))

	if d := r.Resolve(at(300*time.Millisecond, "open_palm", gesture.TypeHand, 2)); !d.Allowed {
		t.Errorf("equal priority suppressed: %+v", d)
	}
}

func TestResolve_ContinuousHandArmExclusive(t *testing.T) {
	r := NewResolver()
	r.Resolve(at(0, "swipe_left", gesture.TypeHand, 2))

	d := r.Resolve(at(300*time.Millisecond, "pan_left", gesture.TypeArm, 2))
	if d.Allowed {
		t.Fatal("arm continuous motion while hand motion active must be suppressed")
	}
	if d.Reason != ReasonExclusive {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonExclusive)
	}
}

func TestResolve_DiscreteHandDuringContinuousArm(t *testing.T) {
	r := NewResolver()
	r.Resolve(at(0, "swipe_left", gesture.TypeArm, 2))

	// Even a non-continuous hand gesture must wait while the arm is
	// mid-motion.
	d := r.Resolve(at(300*time.Millisecond, "fist", gesture.TypeHand, 2))
	if d.Allowed {
		t.Fatal("hand gesture during active arm motion must be suppressed")
	}
	if d.Reason != ReasonExclusive {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonExclusive)
	}

	// Once the motion entry ages out of the window it no longer holds
	// the channel.
	if d := r.Resolve(at(600*time.Millisecond, "fist", gesture.TypeHand, 2)); !d.Allowed {
		t.Errorf("hand gesture after the window suppressed: %+v", d)
	}
}

func TestResolve_ContinuousSameSourceAllowed(t *testing.T) {
	r := NewResolver()
	r.Resolve(at(0, "swipe_left", gesture.TypeHand, 2))

	if d := r.Resolve(at(300*time.Millisecond, "scroll_up", gesture.TypeHand, 2)); !d.Allowed {
		t.Errorf("hand-on-hand continuous suppressed: %+v", d)
	}
}

func TestResolve_HistoryExpires(t *testing.T) {
	r := NewResolver()
	r.Resolve(at(0, "emergency_stop", gesture.TypeHand, 5))

	// Entries older than a second no longer participate even though the
	// priority gap would otherwise preempt.
	if d := r.Resolve(at(1100*time.Millisecond, "t_pose", gesture.TypePose, 1)); !d.Allowed {
		t.Errorf("stale history entry still suppressing: %+v", d)
	}
}

func TestResolve_HistoryCapped(t *testing.T) {
	r := NewResolver()
	for i := 0; i < 15; i++ {
		g := at(time.Duration(i)*210*time.Millisecond, fmt.Sprintf("g%d", i), gesture.TypeHand, 2)
		if d := r.Resolve(g); !d.Allowed {
			t.Fatalf("gesture %d rejected: %+v", i, d)
		}
	}
	if r.count != 10 {
		t.Errorf("history count = %d, want 10", r.count)
	}
}

func TestSuppressedCounter(t *testing.T) {
	r := NewResolver()
	r.Resolve(at(0, "fist", gesture.TypeHand, 2))
	r.Resolve(at(50*time.Millisecond, "fist", gesture.TypeHand, 2))
	r.Resolve(at(100*time.Millisecond, "fist", gesture.TypeHand, 2))

	if got := r.Suppressed(); got != 2 {
		t.Errorf("suppressed = %d, want 2", got)
	}
}

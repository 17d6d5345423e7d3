package priority

import (
	"testing"

	"github.com/nyxhci/nyx/internal/gesture"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		g    gesture.Gesture
		want gesture.Priority
	}{
		{
			name: "voice base",
			g:    gesture.Gesture{Name: "abre", Type: gesture.TypeVoice, Confidence: 0.7},
			want: 3,
		},
		{
			name: "combined base",
			g:    gesture.Gesture{Name: "fist+arm_raise", Type: gesture.TypeCombined, Confidence: 0.7},
			want: 3,
		},
		{
			name: "hand base",
			g:    gesture.Gesture{Name: "fist", Type: gesture.TypeHand, Confidence: 0.7},
			want: 2,
		},
		{
			name: "pose base",
			g:    gesture.Gesture{Name: "t_pose", Type: gesture.TypePose, Confidence: 0.7},
			want: 1,
		},
		{
			name: "sequence base",
			g:    gesture.Gesture{Name: "double_tap", Type: gesture.TypeSequence, Confidence: 0.7},
			want: 2,
		},
		{
			name: "confidence boost",
			g:    gesture.Gesture{Name: "fist", Type: gesture.TypeHand, Confidence: 0.95},
			want: 3,
		},
		{
			name: "confidence at threshold not boosted",
			g:    gesture.Gesture{Name: "fist", Type: gesture.TypeHand, Confidence: 0.8},
			want: 2,
		},
		{
			name: "emergency stop clamps at max",
			g:    gesture.Gesture{Name: "emergency_stop", Type: gesture.TypeHand, Confidence: 0.9},
			want: 5,
		},
		{
			name: "critical keyword from low base",
			g:    gesture.Gesture{Name: "pause", Type: gesture.TypePose, Confidence: 0.5},
			want: 3,
		},
		{
			name: "critical keyword as substring",
			g:    gesture.Gesture{Name: "emergency_stop_all", Type: gesture.TypeHand, Confidence: 0.7},
			want: 5,
		},
		{
			name: "help variant boosted",
			g:    gesture.Gesture{Name: "help_me", Type: gesture.TypeHand, Confidence: 0.7},
			want: 4,
		},
		{
			name: "sequence exempt from continuous penalty",
			g:    gesture.Gesture{Name: "fist_swipe_left", Type: gesture.TypeSequence, Confidence: 0.8},
			want: 2,
		},
		{
			name: "continuous penalty",
			g:    gesture.Gesture{Name: "swipe_left", Type: gesture.TypeHand, Confidence: 0.7},
			want: 1,
		},
		{
			name: "continuous penalty floors at one",
			g:    gesture.Gesture{Name: "scroll_down", Type: gesture.TypePose, Confidence: 0.5},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(&tt.g); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSort_StableDescending(t *testing.T) {
	batch := []gesture.Gesture{
		{Name: "a", Priority: 2},
		{Name: "b", Priority: 3},
		{Name: "c", Priority: 2},
	}
	Sort(batch)

	want := []string{"b", "a", "c"}
	for i, name := range want {
		if batch[i].Name != name {
			t.Errorf("batch[%d] = %q, want %q", i, batch[i].Name, name)
		}
	}
}

func TestAssign(t *testing.T) {
	batch := []gesture.Gesture{
		{Name: "fist", Type: gesture.TypeHand, Confidence: 0.9},
		{Name: "t_pose", Type: gesture.TypePose, Confidence: 0.5},
	}
	Assign(batch)
	if batch[0].Priority != 3 {
		t.Errorf("fist priority = %d, want 3", batch[0].Priority)
	}
	if batch[1].Priority != 1 {
		t.Errorf("t_pose priority = %d, want 1", batch[1].Priority)
	}
}

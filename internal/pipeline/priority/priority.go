// Package priority scores gestures for dispatch ordering.
//
// Scores start from a base determined by the gesture type, then get
// adjusted for confidence, critical command names, and continuous
// motion, and are finally clamped to the [1, 5] range. Sorting is
// stable so gestures that tie keep their arrival order.
package priority

import (
	"sort"
	"strings"

	"github.com/nyxhci/nyx/internal/gesture"
	"github.com/nyxhci/nyx/internal/pipeline/track"
)

// Base scores per gesture type.
const (
	baseHigh   = 3
	baseMedium = 2
	baseLow    = 1
)

// ConfidenceBoost is the threshold above which a gesture earns a
// one-point bump.
const ConfidenceBoost = 0.8

// critical keywords that earn an extra two points when they appear
// anywhere in the gesture name.
var critical = []string{"emergency_stop", "help", "pause", "activate"}

// Critical reports whether the name contains a safety-relevant keyword
// that earns an unconditional boost.
func Critical(name string) bool {
	for _, kw := range critical {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Score computes the dispatch priority for a single gesture.
func Score(g *gesture.Gesture) gesture.Priority {
	var score int
	switch g.Type {
	case gesture.TypeVoice, gesture.TypeCombined:
		score = baseHigh
	case gesture.TypeArm, gesture.TypeHand, gesture.TypeSequence:
		score = baseMedium
	case gesture.TypePose:
		score = baseLow
	default:
		score = baseLow
	}
	if strings.Contains(g.Name, "emergency") {
		score = baseHigh
	}

	if g.Confidence > ConfidenceBoost {
		score++
	}
	if Critical(g.Name) {
		score += 2
	}
	if g.Type != gesture.TypeSequence && track.IsContinuousName(g.Name) {
		score--
	}

	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return gesture.Priority(score)
}

// Assign scores every gesture in the batch in place.
func Assign(batch []gesture.Gesture) {
	for i := range batch {
		batch[i].Priority = Score(&batch[i])
	}
}

// Sort orders the batch by descending priority. The sort is stable, so
// equal-priority gestures keep their relative positions.
func Sort(batch []gesture.Gesture) {
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Priority > batch[j].Priority
	})
}

package gesture

import "time"

// Deltas carries per-frame motion for continuous gestures.
type Deltas struct {
	X float64
	Y float64
}

// VoiceData carries the recognized transcript for voice gestures.
type VoiceData struct {
	// Text is the normalized (lowercased, trimmed) spoken phrase.
	Text string
}

// FusedData records the two gestures a combined gesture was built from.
type FusedData struct {
	// Sources are the modality names of the two originals, in scan order.
	Sources [2]string

	// Types are the modalities of the two originals, in scan order.
	Types [2]Type

	// Parts are copies of the original gestures prior to fusion.
	Parts [2]Gesture
}

// SequenceData records the temporal pattern a sequence gesture came from.
type SequenceData struct {
	// Pattern is the pattern kind: "double" or "combo".
	Pattern string

	// Members are the gesture names that formed the pattern, oldest first.
	Members []string
}

// ContinuousInfo is the tracking annotation added while a continuous-family
// gesture is active.
type ContinuousInfo struct {
	// Duration is how long the gesture has been active.
	Duration time.Duration

	// Updates is the number of occurrences after the first.
	Updates int

	// TotalX and TotalY are the accumulated motion deltas.
	TotalX float64
	TotalY float64
}

// Gesture is a semantic gesture produced by an interpreter. The envelope
// fields are always set; the pointer fields are stage-specific and nil until
// the owning stage fills them in.
type Gesture struct {
	// Name is the semantic label ("swipe_left", "open_palm", "thumbs_up").
	Name string

	// Type is the producing modality.
	Type Type

	// Confidence is the interpreter's confidence in [0, 1].
	Confidence float64

	// Timestamp is when the gesture was interpreted.
	Timestamp time.Time

	// Hand is which hand performed the gesture, if applicable.
	Hand Hand

	// Source is the registered interpreter name that produced the gesture.
	Source string

	// Priority is assigned by the priority resolver; zero until scored.
	Priority Priority

	// Deltas is per-occurrence motion, set by interpreters of motion gestures.
	Deltas *Deltas

	// Voice is set for voice gestures.
	Voice *VoiceData

	// Fused is set on combined gestures.
	Fused *FusedData

	// Sequence is set on synthesized sequence gestures.
	Sequence *SequenceData

	// Continuous is set by the continuous tracker while the gesture is active.
	Continuous *ContinuousInfo
}

// Key returns the identity used for debounce, conflict, and continuous
// tracking: gestures with equal keys are occurrences of the same gesture.
func (g *Gesture) Key() string {
	return g.Name + "/" + string(g.Type)
}

// IsContinuous reports whether the tracker has annotated this occurrence.
func (g *Gesture) IsContinuous() bool {
	return g.Continuous != nil
}

// Clone returns a deep copy. Histories store clones so later in-place
// mutation by pipeline stages cannot corrupt them.
func (g *Gesture) Clone() Gesture {
	out := *g
	if g.Deltas != nil {
		d := *g.Deltas
		out.Deltas = &d
	}
	if g.Voice != nil {
		v := *g.Voice
		out.Voice = &v
	}
	if g.Fused != nil {
		f := *g.Fused
		out.Fused = &f
	}
	if g.Sequence != nil {
		s := *g.Sequence
		s.Members = append([]string(nil), g.Sequence.Members...)
		out.Sequence = &s
	}
	if g.Continuous != nil {
		c := *g.Continuous
		out.Continuous = &c
	}
	return out
}

package gesture

// Type identifies the modality that produced a gesture.
type Type string

const (
	// TypeHand is a hand-pose gesture.
	TypeHand Type = "hand"
	// TypeArm is an arm-pose gesture.
	TypeArm Type = "arm"
	// TypePose is a full-body pose gesture.
	TypePose Type = "pose"
	// TypeVoice is a spoken command.
	TypeVoice Type = "voice"
	// TypeCombined is the result of fusing two gestures from different modalities.
	TypeCombined Type = "combined"
	// TypeSequence is synthesized from a recognized temporal pattern.
	TypeSequence Type = "sequence"
)

// Valid reports whether t is a known modality.
func (t Type) Valid() bool {
	switch t {
	case TypeHand, TypeArm, TypePose, TypeVoice, TypeCombined, TypeSequence:
		return true
	}
	return false
}

// Hand identifies which hand a gesture was performed with, or which hands a
// rule accepts.
type Hand string

const (
	// HandRight matches the right hand only.
	HandRight Hand = "right"
	// HandLeft matches the left hand only.
	HandLeft Hand = "left"
	// HandBoth matches a two-handed gesture, or either single hand.
	HandBoth Hand = "both"
	// HandAny matches everything, including gestures with no hand at all.
	HandAny Hand = "any"
)

// Valid reports whether h is a known hand selector.
func (h Hand) Valid() bool {
	switch h {
	case HandRight, HandLeft, HandBoth, HandAny:
		return true
	}
	return false
}

// Matches reports whether a rule configured for h accepts a gesture detected
// with the given hand. "any" accepts everything; "both" additionally accepts
// either single hand.
func (h Hand) Matches(detected Hand) bool {
	if h == HandAny {
		return true
	}
	if h == detected {
		return true
	}
	if h == HandBoth && (detected == HandLeft || detected == HandRight) {
		return true
	}
	return false
}

// Priority orders gestures competing for dispatch. Higher wins.
type Priority int

const (
	// PriorityBackground is reserved for context gestures that never preempt.
	PriorityBackground Priority = 0
	// PriorityLow covers navigation and adjustment gestures.
	PriorityLow Priority = 1
	// PriorityMedium covers primary control gestures.
	PriorityMedium Priority = 2
	// PriorityHigh covers critical gestures: emergency, activation, voice.
	PriorityHigh Priority = 3
	// PriorityMax is the ceiling after confidence and keyword bonuses.
	PriorityMax Priority = 5
)

// String returns the priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityBackground:
		return "background"
	case p == PriorityLow:
		return "low"
	case p == PriorityMedium:
		return "medium"
	case p == PriorityHigh:
		return "high"
	default:
		return "critical"
	}
}

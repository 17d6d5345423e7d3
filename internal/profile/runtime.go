package profile

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nyxhci/nyx/internal/gesture"
)

// Reason codes a rejection can carry.
type Reason string

const (
	ReasonAuthorized    Reason = "authorized"
	ReasonUnknown       Reason = "unknown_gesture"
	ReasonDisabled      Reason = "disabled"
	ReasonLowConfidence Reason = "low_confidence"
	ReasonWrongHand     Reason = "wrong_hand"
	ReasonCooldown      Reason = "cooldown"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Authorized bool
	Reason     Reason
	// Remaining is the time left on the cooldown when Reason is
	// ReasonCooldown.
	Remaining time.Duration
}

// Rule is a validated gesture rule. Its lastExecuted field is guarded
// by the owning Runtime's mutex.
type Rule struct {
	Name        string
	Action      string
	Command     string
	Description string
	Hand        gesture.Hand
	Type        gesture.Type
	Enabled     bool
	Confidence  float64
	Cooldown    time.Duration

	lastExecuted time.Time
}

// VoiceCommand is a validated voice rule.
type VoiceCommand struct {
	Trigger            string
	Action             string
	Command            string
	Description        string
	Enabled            bool
	RequiresActivation bool
}

// indices are the derived read-only lookup tables, rebuilt whole on
// every mutation and swapped in atomically.
type indices struct {
	byHand map[gesture.Hand][]string
	byType map[gesture.Type][]string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runtime) { r.now = now }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runtime) { r.log = log }
}

// Runtime answers "is this gesture allowed right now" for one loaded
// profile and produces the action it maps to.
type Runtime struct {
	mu      sync.RWMutex
	name    string
	rules   map[string]*Rule
	voice   map[string]*VoiceCommand
	modules map[string]struct{}
	setting Settings
	idx     atomic.Pointer[indices]

	now func() time.Time
	log *zap.Logger
}

// NewRuntime builds a runtime from a decoded document. Malformed
// entries are skipped and reported; the rest of the document loads.
func NewRuntime(doc *Document, opts ...Option) (*Runtime, []ValidationError) {
	r := &Runtime{now: time.Now, log: zap.NewNop()}
	r.idx.Store(buildIndices(nil))
	for _, opt := range opts {
		opt(r)
	}
	errs := r.Reload(doc)
	return r, errs
}

// Reload replaces the rule set from a new document. On a nil document
// the prior rule set stays in force.
func (r *Runtime) Reload(doc *Document) []ValidationError {
	if doc == nil {
		return []ValidationError{{Entry: "", Field: "document"}}
	}

	settings := normalizeSettings(doc.Settings)
	rules := make(map[string]*Rule, len(doc.Gestures))
	var errs []ValidationError
	for name, e := range doc.Gestures {
		if e.Action == "" {
			errs = append(errs, ValidationError{Entry: name, Field: "action"})
			continue
		}
		if e.Command == "" {
			errs = append(errs, ValidationError{Entry: name, Field: "command"})
			continue
		}
		rules[name] = buildRule(name, e, settings)
	}

	voice := make(map[string]*VoiceCommand, len(doc.VoiceCommands))
	for trigger, e := range doc.VoiceCommands {
		if e.Action == "" {
			errs = append(errs, ValidationError{Entry: trigger, Field: "action"})
			continue
		}
		if e.Command == "" {
			errs = append(errs, ValidationError{Entry: trigger, Field: "command"})
			continue
		}
		voice[strings.ToLower(trigger)] = &VoiceCommand{
			Trigger:            strings.ToLower(trigger),
			Action:             e.Action,
			Command:            e.Command,
			Description:        e.Description,
			Enabled:            e.Enabled == nil || *e.Enabled,
			RequiresActivation: e.RequiresActivation,
		}
	}

	modules := make(map[string]struct{}, len(doc.EnabledModules))
	for _, m := range doc.EnabledModules {
		modules[m] = struct{}{}
	}

	r.mu.Lock()
	r.name = doc.ProfileName
	r.rules = rules
	r.voice = voice
	r.modules = modules
	r.setting = settings
	r.idx.Store(buildIndices(rules))
	r.mu.Unlock()

	r.log.Info("profile loaded",
		zap.String("profile", doc.ProfileName),
		zap.Int("rules", len(rules)),
		zap.Int("voice_commands", len(voice)),
		zap.Int("skipped", len(errs)))
	return errs
}

func buildRule(name string, e RuleEntry, s Settings) *Rule {
	rule := &Rule{
		Name:        name,
		Action:      e.Action,
		Command:     e.Command,
		Description: e.Description,
		Hand:        gesture.Hand(e.Hand),
		Type:        gesture.Type(e.Type),
		Enabled:     e.Enabled == nil || *e.Enabled,
		Confidence:  e.Confidence,
		Cooldown:    time.Duration(e.Cooldown * float64(time.Second)),
	}
	if !rule.Hand.Valid() {
		rule.Hand = gesture.HandAny
	}
	if !rule.Type.Valid() {
		rule.Type = gesture.TypeHand
	}
	if rule.Confidence <= 0 {
		rule.Confidence = s.MinConfidence
	}
	if e.Cooldown <= 0 {
		rule.Cooldown = s.DefaultCooldown
	}
	return rule
}

func buildIndices(rules map[string]*Rule) *indices {
	idx := &indices{
		byHand: make(map[gesture.Hand][]string),
		byType: make(map[gesture.Type][]string),
	}
	for name, rule := range rules {
		if !rule.Enabled {
			continue
		}
		idx.byHand[rule.Hand] = append(idx.byHand[rule.Hand], name)
		idx.byType[rule.Type] = append(idx.byType[rule.Type], name)
	}
	return idx
}

// Name returns the loaded profile's name.
func (r *Runtime) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

// Settings returns the normalized profile settings.
func (r *Runtime) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.setting
}

// Authorize checks g against its rule and, on success, stamps the
// rule's cooldown and returns the mapped action.
func (r *Runtime) Authorize(g *gesture.Gesture) (gesture.Action, Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[g.Name]
	if !ok {
		return gesture.Action{}, Decision{Reason: ReasonUnknown}
	}
	if !rule.Enabled {
		return gesture.Action{}, Decision{Reason: ReasonDisabled}
	}
	if g.Confidence < rule.Confidence {
		return gesture.Action{}, Decision{Reason: ReasonLowConfidence}
	}
	if !rule.Hand.Matches(g.Hand) {
		return gesture.Action{}, Decision{Reason: ReasonWrongHand}
	}
	now := r.now()
	if !rule.lastExecuted.IsZero() {
		if since := now.Sub(rule.lastExecuted); since < rule.Cooldown {
			return gesture.Action{}, Decision{
				Reason:    ReasonCooldown,
				Remaining: rule.Cooldown - since,
			}
		}
	}
	rule.lastExecuted = now

	act := gesture.NewAction(rule.Action, rule.Command, now)
	act.Gesture = g.Name
	act.Source = g.Type
	act.Hand = g.Hand
	act.Confidence = g.Confidence
	act.Priority = g.Priority
	act.Continuous = g.Continuous != nil
	act.Sequence = g.Type == gesture.TypeSequence
	act.Profile = r.name
	return act, Decision{Authorized: true, Reason: ReasonAuthorized}
}

// MatchVoice finds the voice command triggered by spoken text, or nil.
// Text is lowercased and trimmed before matching. Commands that
// require activation only match the exact
// "{activation word} {trigger}" substring. Triggers are checked in
// sorted order so overlapping triggers resolve the same way every
// time.
func (r *Runtime) MatchVoice(text string) *VoiceCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	triggers := make([]string, 0, len(r.voice))
	for trigger := range r.voice {
		triggers = append(triggers, trigger)
	}
	sort.Strings(triggers)

	text = strings.ToLower(strings.TrimSpace(text))
	for _, trigger := range triggers {
		vc := r.voice[trigger]
		if !vc.Enabled {
			continue
		}
		want := vc.Trigger
		if vc.RequiresActivation {
			want = r.setting.ActivationWord + " " + vc.Trigger
		}
		if strings.Contains(text, want) {
			return vc
		}
	}
	return nil
}

// VoiceAction builds the action for a matched voice command.
func (r *Runtime) VoiceAction(vc *VoiceCommand, ts time.Time) gesture.Action {
	r.mu.RLock()
	name := r.name
	r.mu.RUnlock()

	act := gesture.NewAction(vc.Action, vc.Command, ts)
	act.Gesture = vc.Trigger
	act.Source = gesture.TypeVoice
	act.Confidence = 1.0
	act.Priority = gesture.PriorityHigh
	act.Profile = name
	return act
}

// SetRuleEnabled toggles a rule and rebuilds the indices.
func (r *Runtime) SetRuleEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[name]
	if !ok {
		return ErrUnknownRule
	}
	if rule.Enabled != enabled {
		rule.Enabled = enabled
		r.idx.Store(buildIndices(r.rules))
	}
	return nil
}

// SetVoiceEnabled toggles a voice command.
func (r *Runtime) SetVoiceEnabled(trigger string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	vc, ok := r.voice[strings.ToLower(trigger)]
	if !ok {
		return ErrUnknownVoiceCommand
	}
	vc.Enabled = enabled
	return nil
}

// RulesByHand lists the enabled rule names for a hand selector. Reads
// go through the atomically swapped index, never the rule map.
func (r *Runtime) RulesByHand(h gesture.Hand) []string {
	return r.idx.Load().byHand[h]
}

// RulesByType lists the enabled rule names for a modality.
func (r *Runtime) RulesByType(t gesture.Type) []string {
	return r.idx.Load().byType[t]
}

// Rule returns a snapshot copy of the named rule.
func (r *Runtime) Rule(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	if !ok {
		return Rule{}, false
	}
	return *rule, true
}

// ModuleEnabled reports whether a named module is active under this
// profile. An empty enabled_modules list enables everything.
func (r *Runtime) ModuleEnabled(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.modules) == 0 {
		return true
	}
	_, ok := r.modules[module]
	return ok
}

// Package script runs profile-bound Lua hooks for actions of kind
// "script".
//
// Each execution gets a fresh sandboxed state: only the base, table,
// string, and math libraries are opened; io, os, debug, and package
// stay closed. Execution is bounded by a per-call timeout through the
// state's context. gopher-lua states are not goroutine safe, so the
// engine serializes calls.
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nyxhci/nyx/internal/gesture"
)

// DefaultTimeout bounds one script call.
const DefaultTimeout = 2 * time.Second

// ErrUnknownScript is returned when an action's command has no bound
// script.
var ErrUnknownScript = errors.New("script: no script bound to command")

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine executes Lua scripts bound to action commands. It implements
// the executor.Executor interface for the "script" kind.
type Engine struct {
	mu      sync.Mutex
	scripts map[string]string
	timeout time.Duration
	log     *zap.Logger
}

// NewEngine creates an empty script engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		scripts: make(map[string]string),
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bind associates Lua source with an action command name.
func (e *Engine) Bind(command, source string) {
	e.mu.Lock()
	e.scripts[command] = source
	e.mu.Unlock()
}

// Execute runs the script bound to the action's command. The action is
// exposed to the script as a table named "action".
func (e *Engine) Execute(ctx context.Context, act gesture.Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	source, ok := e.scripts[act.Command]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScript, act.Command)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	L := newSandboxedState()
	defer L.Close()
	L.SetContext(ctx)
	L.SetGlobal("action", actionTable(L, act))

	if err := L.DoString(source); err != nil {
		return fmt.Errorf("script: run %q: %w", act.Command, err)
	}
	return nil
}

// newSandboxedState opens only the safe standard libraries. io, os,
// debug, and package stay closed.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	return L
}

// actionTable mirrors the action into a Lua table.
func actionTable(L *lua.LState, act gesture.Action) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(act.ID))
	L.SetField(t, "kind", lua.LString(act.Kind))
	L.SetField(t, "command", lua.LString(act.Command))
	L.SetField(t, "gesture", lua.LString(act.Gesture))
	L.SetField(t, "source", lua.LString(string(act.Source)))
	L.SetField(t, "hand", lua.LString(string(act.Hand)))
	L.SetField(t, "confidence", lua.LNumber(act.Confidence))
	L.SetField(t, "priority", lua.LNumber(act.Priority))
	L.SetField(t, "profile", lua.LString(act.Profile))

	params := L.NewTable()
	for k, v := range act.Parameters {
		switch val := v.(type) {
		case string:
			L.SetField(params, k, lua.LString(val))
		case float64:
			L.SetField(params, k, lua.LNumber(val))
		case int:
			L.SetField(params, k, lua.LNumber(val))
		case bool:
			L.SetField(params, k, lua.LBool(val))
		}
	}
	L.SetField(t, "params", params)
	return t
}

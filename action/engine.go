package action

import (
	"fmt"

	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
)

// Engine owns the accumulated action list for one script run and
// implements registry.ActionSink so interp.Machine can hand it straight
// to an Operation's Exec function. It also implements the four-phase
// commit protocol: Print, then Start/Execute/Finish per action, run
// after interpretation finishes successfully.
type Engine struct {
	entries             []Entry
	cancelledImplicitKeep bool
	keepDef              ActionDef
}

// NewEngine constructs an Engine; keepDef is the registered "keep" action,
// used for the implicit keep when no action cancels it.
func NewEngine(keepDef ActionDef) *Engine {
	return &Engine{keepDef: keepDef}
}

// AddAction validates def against every already-accumulated action for
// duplicates and conflicts before appending it.
func (e *Engine) AddAction(def registry.ActionDef, sideEffects []registry.SideEffect, sourceLine int, ctx any) error {
	full, ok := def.(ActionDef)
	if !ok {
		return fmt.Errorf("%w: action %q does not implement the full action contract", sieveerr.ErrRuntime, def.Name())
	}
	for _, existing := range e.entries {
		if full.CheckDuplicate(existing.Def, ctx, existing.Ctx) {
			return fmt.Errorf("%w: %s", sieveerr.ErrDuplicateAction, full.Name())
		}
		if full.CheckConflict(existing.Def, ctx, existing.Ctx) {
			return fmt.Errorf("%w: %s conflicts with %s", sieveerr.ErrActionConflict, full.Name(), existing.Def.Name())
		}
	}
	e.entries = append(e.entries, Entry{Def: full, Ctx: ctx, SideEffects: sideEffects, SourceLine: sourceLine})
	cancels := full.CancelsImplicitKeep()
	switch c := ctx.(type) {
	case FileintoCtx:
		cancels = cancels && !c.Copy
	case RedirectCtx:
		cancels = cancels && !c.Copy
	}
	if cancels {
		e.cancelledImplicitKeep = true
	}
	return nil
}

// AddImplicitKeep is called once at the very end of a successful
// interpretation's exit sequence; it is a no-op if any accumulated
// action already cancelled the implicit keep.
func (e *Engine) AddImplicitKeep() {
	if e.cancelledImplicitKeep || e.keepDef == nil {
		return
	}
	for _, ent := range e.entries {
		if ent.Def.Name() == e.keepDef.Name() {
			return
		}
	}
	e.entries = append(e.entries, Entry{Def: e.keepDef})
}

// Entries returns the final, ordered action list (read-only use by
// dump/debug tooling and by Commit).
func (e *Engine) Entries() []Entry { return append([]Entry(nil), e.entries...) }

// Print renders the accumulated action list one line per entry, the
// dump used for -nv/dry-run style tooling.
func (e *Engine) Print() []string {
	out := make([]string, len(e.entries))
	for i, ent := range e.entries {
		out[i] = ent.Def.Print(ent.Ctx)
	}
	return out
}

// Commit runs every accumulated action's Start then Execute, in order,
// all the way through the list regardless of earlier failures, then runs
// Finish over the same list in reverse insertion order so the most
// recently opened resource is released first. Every Finish call receives
// the same status: the first Start or Execute error encountered across
// the whole forward pass, or nil if none failed. Commit returns that
// status, folding in a Finish failure only if the forward pass itself
// was clean.
func (e *Engine) Commit(host *registry.HostEnv, msg *registry.HostMsg) error {
	states := make([]any, len(e.entries))
	var status error
	for i, ent := range e.entries {
		state, err := ent.Def.Start(host, ent.Ctx)
		states[i] = state
		if err != nil {
			if status == nil {
				status = fmt.Errorf("%w: starting %s: %v", sieveerr.ErrRuntime, ent.Def.Name(), err)
			}
			continue
		}
		if execErr := ent.Def.Execute(host, msg, state, ent.Ctx); execErr != nil && status == nil {
			status = fmt.Errorf("%w: executing %s: %v", sieveerr.ErrRuntime, ent.Def.Name(), execErr)
		}
	}
	for i := len(e.entries) - 1; i >= 0; i-- {
		ent := e.entries[i]
		if finErr := ent.Def.Finish(states[i], status); finErr != nil && status == nil {
			status = fmt.Errorf("%w: finishing %s: %v", sieveerr.ErrRuntime, ent.Def.Name(), finErr)
		}
	}
	return status
}

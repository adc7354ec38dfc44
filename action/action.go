// Package action implements the Result & Action engine: interpretation
// accumulates a list of actions rather than performing them immediately,
// so that a later action (e.g. a second fileinto) can be checked against
// earlier ones for duplicates and conflicts before any of them actually
// runs, and so that "stop" can discard a partially-built result list
// cleanly.
package action

import "github.com/migadu/sieve/registry"

// ActionDef is the full action contract; every built-in action (keep,
// fileinto, redirect, discard, vacation's reply, ...) implements it.
// It embeds registry.ActionDef so an Engine can be handed to RuntimeEnv
// implementations as a registry.ActionSink without this package needing
// to be imported back into registry.
type ActionDef interface {
	registry.ActionDef

	// Print renders a one-line description for a script dump/dry-run.
	Print(ctx any) string

	// CancelsImplicitKeep reports whether adding this action should
	// cancel the implicit keep (RFC 5228 section 2.10.2 — fileinto,
	// redirect and discard all cancel it, explicit keep does not need
	// to since it stands in for it).
	CancelsImplicitKeep() bool

	// Start/Execute/Finish are the three remaining phases of the
	// commit protocol: Start opens any resource the action needs (e.g.
	// a destination mailbox handle), Execute performs the action's
	// effect, Finish releases what Start opened. ctx is the per-action
	// payload captured at AddAction time (e.g. fileinto's target
	// mailbox name).
	//
	// Finish runs over every accumulated action in reverse insertion
	// order regardless of what that action's own Start/Execute did;
	// status is not this action's own error but the single outcome of
	// the whole commit's forward Start/Execute pass (the first failure
	// across all actions, or nil), so every Finish call in a run
	// observes the same value.
	Start(host *registry.HostEnv, ctx any) (any, error)
	Execute(host *registry.HostEnv, msg *registry.HostMsg, state any, ctx any) error
	Finish(state any, status error) error
}

// Entry is one accumulated action plus its captured context and side
// effects.
type Entry struct {
	Def         ActionDef
	Ctx         any
	SideEffects []registry.SideEffect
	SourceLine  int
}

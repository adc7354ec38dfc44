// Package sieve is the engine's public entry point: Compile, Open and
// Execute, plus the default extension table wiring core + imap4flags +
// vacation + duplicate together the way a host process actually uses
// the engine.
//
// Everything this package needs from the pipeline stages lives in
// parse/validate/generate/interp/bytecode/registry; this file only wires
// them into the three calls a host makes.
package sieve

import (
	"github.com/migadu/sieve/ext/core"
	"github.com/migadu/sieve/ext/duplicate"
	"github.com/migadu/sieve/ext/imap4flags"
	"github.com/migadu/sieve/ext/vacation"
	"github.com/migadu/sieve/registry"
)

// ExitCode mirrors interp.ExitCode so callers don't need to import
// package interp directly for the one type they need at the API surface.
type ExitCode = int

const (
	ExitOk ExitCode = iota
	ExitKeepOnly
	ExitTempFailure
	ExitBinaryCorrupt
	ExitErr
)

// DefaultTable builds the process-wide, append-only registry.Table a
// host process uses: RFC 5228 core plus the imap4flags, vacation and
// duplicate extensions, built once and reused across every compile and
// run. Hosts that want a narrower or wider extension set build their
// own table with registry.NewTable instead of calling this.
func DefaultTable() *registry.Table {
	return registry.NewTable(
		core.New(),
		imap4flags.New(),
		vacation.New(),
		duplicate.New(),
	)
}

// Package imap4flags implements RFC 5232: setflag/addflag/removeflag
// mutate a per-script IMAP flag set that keep/fileinto later attach to
// their mailbox-append action as a side effect, and hasflag tests the
// current set.
//
// ext/core's KEEP and FILEINTO opcodes read this extension's state by
// duck-typing ExtState("imap4flags") against []registry.SideEffect
// rather than importing this package, so the two extensions stay
// mutually unaware of each other.
package imap4flags

import "github.com/migadu/sieve/registry"

// Flag is one IMAP system or keyword flag, e.g. "\\Answered" or
// "$Forwarded" (RFC 5232 section 1.1). It satisfies registry.SideEffect
// so ext/core can attach it to an action without knowing this package.
type Flag string

func (f Flag) Name() string { return string(f) }

type Ext struct{ id int }

func New() *Ext { return &Ext{} }

func (e *Ext) Name() string { return "imap4flags" }

func (e *Ext) Load(id int) { e.id = id }

func (e *Ext) ValidatorLoad(v registry.CommandRegistrar) {
	registerCommands(v)
}

func (e *Ext) RuntimeLoad(rt registry.RuntimeEnv) {}

func (e *Ext) Operations() []registry.Operation { return operations }

func (e *Ext) Operands() []registry.Object { return nil }

// Package core is the always-available RFC 5228 command/test/action set.
// Unlike imap4flags/vacation/duplicate, core never needs a `require`
// statement; Validator.New loads it unconditionally.
package core

import "github.com/migadu/sieve/registry"

// Ext is the core pseudo-extension. Its commands/operations/objects all
// carry Ext == "" so the generator emits single-byte opcodes and
// core-numbered object tags for them.
type Ext struct {
	id int
}

func New() *Ext { return &Ext{} }

func (e *Ext) Name() string { return "core" }

func (e *Ext) Load(id int) { e.id = id }

func (e *Ext) ValidatorLoad(v registry.CommandRegistrar) {
	registerCommands(v)
}

func (e *Ext) RuntimeLoad(rt registry.RuntimeEnv) {}

func (e *Ext) Operations() []registry.Operation { return operations }

func (e *Ext) Operands() []registry.Object { return objects }

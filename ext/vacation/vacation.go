// Package vacation implements RFC 5230: a single "vacation" command that
// sends an auto-reply to the envelope sender of the triggering message,
// at most once per :days window per sender, tracked through the host's
// duplicate-suppression capability (the same hash/expire contract the
// duplicate extension uses, since both are "has this been seen before"
// checks against host storage).
package vacation

import "github.com/migadu/sieve/registry"

const (
	defaultDays    = 7
	defaultSubject = "Automatic reply"
)

type Ext struct{ id int }

func New() *Ext { return &Ext{} }

func (e *Ext) Name() string { return "vacation" }

func (e *Ext) Load(id int) { e.id = id }

func (e *Ext) ValidatorLoad(v registry.CommandRegistrar) {
	registerCommands(v)
}

func (e *Ext) RuntimeLoad(rt registry.RuntimeEnv) {}

func (e *Ext) Operations() []registry.Operation { return operations }

func (e *Ext) Operands() []registry.Object { return nil }

// Package duplicate implements RFC 7352: a "duplicate" test that
// fingerprints the triggering message (by Message-Id, optionally salted
// with a :handle) and asks the host whether that fingerprint has been
// seen within a :seconds window, marking it seen for future calls unless
// :last suppresses marking.
package duplicate

import "github.com/migadu/sieve/registry"

const defaultSeconds = 7 * 24 * 60 * 60

type Ext struct{ id int }

func New() *Ext { return &Ext{} }

func (e *Ext) Name() string { return "duplicate" }

func (e *Ext) Load(id int) { e.id = id }

func (e *Ext) ValidatorLoad(v registry.CommandRegistrar) {
	registerCommands(v)
}

func (e *Ext) RuntimeLoad(rt registry.RuntimeEnv) {}

func (e *Ext) Operations() []registry.Operation { return operations }

func (e *Ext) Operands() []registry.Object { return nil }

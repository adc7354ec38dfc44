// Package interp implements the interpreter: a fetch-dispatch loop over
// a compiled bytecode.Binary, maintaining a program counter, a
// test-result register, per-extension and per-message context
// namespaces, and the result list an action.Engine accumulates.
package interp

import (
	"fmt"

	"github.com/migadu/sieve/bytecode"
	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
)

// ExitCode is the outcome Execute reports to the host.
type ExitCode int

const (
	ExitOk ExitCode = iota
	ExitKeepOnly
	ExitTempFailure
	ExitBinaryCorrupt
	ExitErr
)

// Machine is one interpreter instance; it is not reused across runs, each
// run getting its own interpreter instance.
type Machine struct {
	r    *bytecode.Reader
	bin  *bytecode.Binary
	exts []registry.Extension

	coreOps map[byte]*registry.Operation
	extOps  []map[byte]*registry.Operation

	coreObjs map[uint16]*registry.Object
	extObjs  []map[uint16]*registry.Object

	testReg bool

	extState map[string]any
	msgState map[string]any

	host *registry.HostEnv
	msg  *registry.HostMsg

	actions   registry.ActionSink
	errs      registry.ErrorHandler
	cancelled func() bool

	curLine int
}

// New builds a Machine over bin, resolving bin.ExtIndex against table
// (the binary persists extension names, re-resolved here to the ids
// current in this process) and invoking every resolved extension's
// RuntimeLoad hook.
func New(table *registry.Table, bin *bytecode.Binary, host *registry.HostEnv, msg *registry.HostMsg, actions registry.ActionSink, errs registry.ErrorHandler, msgState map[string]any, cancelled func() bool) (*Machine, error) {
	exts, err := table.ResolveIndex(bin.ExtIndex)
	if err != nil {
		return nil, err
	}
	if msgState == nil {
		msgState = make(map[string]any)
	}
	m := &Machine{
		r:         bytecode.NewReader(bin.Code),
		bin:       bin,
		exts:      exts,
		coreOps:   make(map[byte]*registry.Operation),
		extOps:    make([]map[byte]*registry.Operation, len(exts)),
		coreObjs:  make(map[uint16]*registry.Object),
		extObjs:   make([]map[uint16]*registry.Object, len(exts)),
		extState:  make(map[string]any),
		msgState:  msgState,
		host:      host,
		msg:       msg,
		actions:   actions,
		errs:      errs,
		cancelled: cancelled,
	}

	core, ok := table.Lookup("core")
	if ok {
		for i, op := range core.Operations() {
			m.coreOps[op.LocalCode] = &core.Operations()[i]
		}
		for i, obj := range core.Operands() {
			m.coreObjs[obj.Code] = &core.Operands()[i]
		}
	}
	for idx, ext := range exts {
		ops := make(map[byte]*registry.Operation)
		for i, op := range ext.Operations() {
			ops[op.LocalCode] = &ext.Operations()[i]
		}
		m.extOps[idx] = ops
		objs := make(map[uint16]*registry.Object)
		for i, obj := range ext.Operands() {
			objs[obj.Code] = &ext.Operands()[i]
		}
		m.extObjs[idx] = objs
		ext.RuntimeLoad(m)
	}
	return m, nil
}

// Run executes the bytecode from PC 0 to completion. It is the sole
// public entry point beyond construction.
func (m *Machine) Run() (ExitCode, error) {
	for m.r.Pos() < m.r.Len() {
		if m.cancelled != nil && m.cancelled() {
			return ExitTempFailure, nil
		}
		startPC := m.r.Pos()
		op, err := m.fetch()
		if err != nil {
			m.errs.Critical(fmt.Sprintf("binary corrupt at pc=%d: %v", m.r.Pos(), err))
			return ExitBinaryCorrupt, err
		}
		if line, ok := m.bin.Lines[startPC]; ok {
			m.curLine = line
		}
		sig, err := op.Exec(m)
		if err != nil {
			m.errs.Error(m.curLine, err.Error())
			return ExitErr, err
		}
		switch sig {
		case registry.SigStop:
			m.actions.AddImplicitKeep()
			return ExitOk, nil
		case registry.SigTempFail:
			return ExitTempFailure, nil
		}
	}
	m.actions.AddImplicitKeep()
	return ExitOk, nil
}

// fetch reads the next opcode header and resolves it to a *registry.Operation.
func (m *Machine) fetch() (*registry.Operation, error) {
	extIdx, local, err := m.r.ReadOpcode()
	if err != nil {
		return nil, err
	}
	if extIdx < 0 {
		op, ok := m.coreOps[local]
		if !ok {
			return nil, fmt.Errorf("%w: unknown core opcode %d", sieveerr.ErrBinaryCorrupt, local)
		}
		return op, nil
	}
	if extIdx >= len(m.extOps) {
		return nil, fmt.Errorf("%w: extension index %d out of range", sieveerr.ErrBinaryCorrupt, extIdx)
	}
	op, ok := m.extOps[extIdx][local]
	if !ok {
		return nil, fmt.Errorf("%w: unknown opcode %d for extension %d", sieveerr.ErrBinaryCorrupt, local, extIdx)
	}
	return op, nil
}

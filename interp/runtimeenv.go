package interp

import (
	"fmt"

	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
)

func (m *Machine) ReadU8() (byte, error)             { return m.r.ReadU8() }
func (m *Machine) ReadPackedUint() (uint64, error)   { return m.r.ReadPackedUint() }
func (m *Machine) ReadPackedInt() (int64, error)     { return m.r.ReadPackedInt() }
func (m *Machine) ReadString() (string, error)       { return m.r.ReadString() }
func (m *Machine) ReadStringList() ([]string, error) { return m.r.ReadStringList() }

// ReadObject reads an Object operand's wire tag and resolves it against
// this binary's extension set.
func (m *Machine) ReadObject() (*registry.Object, error) {
	extIdx, code, err := m.r.ReadObjectTag()
	if err != nil {
		return nil, err
	}
	if extIdx < 0 {
		obj, ok := m.coreObjs[code]
		if !ok {
			return nil, fmt.Errorf("%w: unknown core object code %d", sieveerr.ErrBinaryCorrupt, code)
		}
		return obj, nil
	}
	if extIdx >= len(m.extObjs) {
		return nil, fmt.Errorf("%w: extension index %d out of range", sieveerr.ErrBinaryCorrupt, extIdx)
	}
	obj, ok := m.extObjs[extIdx][code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown object code %d for extension %d", sieveerr.ErrBinaryCorrupt, code, extIdx)
	}
	return obj, nil
}

// ReadOptBlock reads the next (opt_code, ...) header of an
// optional-operand block, stopping at the 0 terminator. It returns only
// the opt_code; the caller (an Operation's Exec function)
// knows which Read* to call next for each code it recognizes.
func (m *Machine) ReadOptBlock() (byte, bool, error) {
	b, err := m.r.ReadU8()
	if err != nil {
		return 0, false, err
	}
	if b == 0 {
		return 0, false, nil
	}
	return b, true, nil
}

func (m *Machine) ReadJumpSlot() (int32, error) { return m.r.ReadJumpSlot() }

func (m *Machine) PC() int { return m.r.Pos() }

// Jump applies delta relative to the current PC: the signed offset read
// from a fixed-width jump slot, relative to the instruction after the
// operand. By the time an Exec
// function calls Jump, the reader is already positioned after the jump
// operand it just read, so PC()+delta is that "instruction after the
// operand" plus delta.
func (m *Machine) Jump(delta int64) {
	m.r.SetPos(m.r.Pos() + int(delta))
}

func (m *Machine) TestRegister() bool       { return m.testReg }
func (m *Machine) SetTestRegister(v bool)   { m.testReg = v }

func (m *Machine) Host() *registry.HostEnv { return m.host }
func (m *Machine) Msg() *registry.HostMsg  { return m.msg }

func (m *Machine) ExtState(ext string) any        { return m.extState[ext] }
func (m *Machine) SetExtState(ext string, v any)  { m.extState[ext] = v }
func (m *Machine) MsgState(ext string) any        { return m.msgState[ext] }
func (m *Machine) SetMsgState(ext string, v any)  { m.msgState[ext] = v }

func (m *Machine) Actions() registry.ActionSink { return m.actions }

func (m *Machine) SourceLine() int { return m.curLine }

func (m *Machine) Errs() registry.ErrorHandler { return m.errs }

func (m *Machine) Cancelled() bool {
	return m.cancelled != nil && m.cancelled()
}

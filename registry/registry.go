// Package registry is the extension/opcode registry: a process-wide,
// append-only table of Extensions, each contributing commands, tests,
// tags, Operations (opcodes) and Objects (typed operand classes —
// comparators, match-types, address-parts, side-effects).
//
// It is deliberately the lowest-level package among validate/generate/
// interp: those three packages depend on registry, but registry depends on
// none of them. The interfaces below (CommandRegistrar, Generator,
// RuntimeEnv) exist only to let registry describe the shape an Extension's
// hooks are called with, without importing the concrete packages that
// implement them — the classic Go way to collapse a cyclic
// command-context/argument/argument-object dependency into a
// one-directional import graph.
package registry

import "github.com/migadu/sieve/ast"

// Class identifies which capability set an Object belongs to.
type Class int

const (
	ClassComparator Class = iota
	ClassMatchType
	ClassAddressPart
	ClassSideEffect
)

// Object is a typed extension-contributed value interned with a stable
// local code. Payload carries the concrete implementation (e.g. a
// match.Comparator) as `any` so this package need not import match.
type Object struct {
	Class   Class
	Name    string
	Code    uint16
	Ext     string // "" = core
	Payload any
}

// OperandKind is the typed value class an Operation's operand section is
// built from.
type OperandKind int

const (
	OperandNumber OperandKind = iota
	OperandString
	OperandStringList
	OperandObjectKind
)

// Signal is what an Operation's Exec function tells the interpreter to do
// next.
type Signal int

const (
	SigNext Signal = iota
	SigStop
	SigTempFail
)

// RuntimeEnv is the interpreter surface an Operation's Exec function (and
// Extension.RuntimeLoad) is given. interp.Machine implements it.
type RuntimeEnv interface {
	// ReadU8, ReadPackedUint, ReadPackedInt, ReadString, ReadStringList
	// and ReadObject consume the operation's own operand bytes from the
	// current PC, advancing it.
	ReadU8() (byte, error)
	ReadPackedUint() (uint64, error)
	ReadPackedInt() (int64, error)
	ReadString() (string, error)
	ReadStringList() ([]string, error)
	ReadObject() (*Object, error)

	// ReadOptBlock reads the next (opt_code, ...) pair of an
	// optional-operand block, or ok=false at the 0 terminator.
	ReadOptBlock() (optCode byte, ok bool, err error)

	// ReadJumpSlot reads the fixed-width back-patched offset reserved
	// by Generator.ReserveJump.
	ReadJumpSlot() (int32, error)

	PC() int
	Jump(delta int64)

	TestRegister() bool
	SetTestRegister(bool)

	Host() *HostEnv
	Msg() *HostMsg

	// ExtState/SetExtState is the per-interpreter (one script run)
	// extension context namespace; MsgState/SetMsgState is the
	// per-message namespace shared across chained scripts.
	ExtState(ext string) any
	SetExtState(ext string, v any)
	MsgState(ext string) any
	SetMsgState(ext string, v any)

	Actions() ActionSink

	// SourceLine returns the source line captured for the instruction
	// at the current PC, for RuntimeError reporting.
	SourceLine() int

	Errs() ErrorHandler

	Cancelled() bool
}

// ActionSink is the subset of action.Engine an Operation's Exec function
// needs; declared here (rather than imported from package action) only to
// avoid widening this package's surface — action.Engine satisfies it.
type ActionSink interface {
	AddAction(def ActionDef, sideEffects []SideEffect, sourceLine int, ctx any) error
	AddImplicitKeep()
}

// ActionDef is the minimal shape the registry needs to know about an
// action to route conflict detection; the full definition (with
// Start/Execute/Finish hooks) lives in package action, which embeds this.
type ActionDef interface {
	Name() string
	SendsResponse() bool
	CheckDuplicate(other ActionDef, ctxA, ctxB any) bool
	CheckConflict(other ActionDef, ctxA, ctxB any) bool
}

// SideEffect is a modifier attached to an action, e.g. the imap4flags
// extension's per-action flag set.
type SideEffect interface {
	Name() string
}

// HostEnv and HostMsg re-export host.ScriptEnv/host.MessageData shapes so
// that registry (and everything built on RuntimeEnv) need not import
// package host directly; sieve.Execute builds them from the real host
// types (adaptScriptEnv/adaptMessageData), wrapping each host function.
type HostEnv struct {
	Inbox             string
	Namespaces        []string
	Username          string
	Hostname          string
	PostmasterAddress string

	SMTPOpen       func(dest, returnPath string) (any, error)
	SMTPClose      func(h any) error
	DuplicateCheck func(hash, user string) (bool, error)
	DuplicateMark  func(hash, user string, expireUnix int64) error
}

type HostMsg struct {
	GetHeaders     func(name string) ([]string, bool)
	GetHeadersUTF8 func(name string) ([]string, bool)
	GetFirstHeader func(name string) (string, bool)
	GetSize        func() uint64
	GetRaw         func() ([]byte, error)

	// GetPlaintextBody extracts the message's plaintext part (falling
	// back to an HTML-to-text conversion), used by the vacation
	// extension to quote the original message in its reply.
	GetPlaintextBody func() (string, error)

	ReturnPath string
	ToAddress  string
	AuthUser   string
	MessageID  string
}

// ErrorHandler mirrors host.ErrorHandler.
type ErrorHandler interface {
	Warning(line int, msg string)
	Error(line int, msg string)
	Critical(msg string)
}

// Generator is the codegen surface a TagDef/CommandDescriptor hook emits
// into. generate.Codegen implements it.
type Generator interface {
	EmitU8(b byte)
	EmitPackedUint(n uint64)
	EmitPackedInt(n int64)
	EmitString(s string)
	EmitStringList(list []string)
	EmitObject(obj *Object)
	// EmitOpcode emits the opcode header for op (one byte for core, or
	// the 0x80-prefixed extension-local form).
	EmitOpcode(op *Operation)

	// OptEntry starts one (opt_code, operand...) pair of the command's
	// pending optional-operand block; the block is auto-terminated by
	// the generator once all tags have emitted theirs.
	OptEntry(code byte)

	// ReserveJump reserves a fixed-width offset slot and returns a
	// token to patch it later with PatchJumpHere; every reserved jump slot
	// must be resolved before the enclosing block closes.
	ReserveJump() JumpRef
	PatchJumpHere(ref JumpRef)
	Pos() int

	SourceLine(line int)

	// GenerateNode recursively generates one nested command or test node
	// (e.g. "if"'s condition, "not"'s single subtest); GenerateBlock
	// does the same for a statement sequence (e.g. an if-arm's body).
	// GenerateTagBlock emits cmd's already-validated tags' optional
	// operands followed by the block terminator. These exist on the
	// interface (rather than being generate-package-private) because
	// command Generate hooks for control-flow and capability-bearing
	// commands live in the extension packages, not in generate itself.
	GenerateNode(cmd *ast.Command) error
	GenerateBlock(block []*ast.Command) error
	GenerateTagBlock(cmd *ast.Command) error
}

// JumpRef is an opaque back-patch token returned by Generator.ReserveJump.
type JumpRef int

// Operation is one VM instruction.
type Operation struct {
	Mnemonic  string
	Ext       string // "" = core
	LocalCode byte
	Dump      func(rt RuntimeEnv) string
	Exec      func(rt RuntimeEnv) (Signal, error)
}

// TagDef is a tag argument contributed by a command registration:
// `:is`, `:contains "text"`, `:days 7`, etc.
type TagDef struct {
	Name     string
	HasValue bool
	Value    OperandKind

	// OptCode is the optional-operand code this tag's generator writes
	// under.
	OptCode byte

	Validate func(cmd *ast.Command, tag *ast.Argument, v CommandRegistrar) error
	Generate func(cmd *ast.Command, tag *ast.Argument, g Generator) error
}

// CommandDescriptor is the registered shape of a command or test.
// Interpretation is opcode-driven (via Operation.Exec resolved off the
// generated bytecode), not command-driven, so there is deliberately no
// "interpret" hook here.
type CommandDescriptor struct {
	Name            string
	Kind            ast.Kind
	PositionalArity int // -1 = free (unbounded)
	SubtestArity    int // -1 = free
	HasBlock        bool
	BlockRequired   bool
	Ext             string // "" = core

	Registered  func(cmd *ast.Command)
	PreValidate func(cmd *ast.Command, v CommandRegistrar) error
	Validate    func(cmd *ast.Command, v CommandRegistrar) error
	Generate    func(cmd *ast.Command, g Generator) error
}

// CommandRegistrar is the validator surface an Extension.ValidatorLoad and
// a CommandDescriptor/TagDef hook is given. validate.Validator implements
// it.
type CommandRegistrar interface {
	RegisterCommand(desc *CommandDescriptor)
	RegisterTag(cmdName string, tag *TagDef)
	LinkMatchTypeTags(cmdName string, optCodeBase byte)
	LinkComparatorTag(cmdName string, optCode byte)
	LinkAddressPartTags(cmdName string, optCodeBase byte)

	ValidatePositionalArgument(cmd *ast.Command, arg *ast.Argument, name string, index int, kind ast.ArgKind) error
	ValidateTagParameter(cmd *ast.Command, tag *ast.Argument, kind ast.ArgKind) error
	ValidateCommandArguments(cmd *ast.Command, minPositional int) (firstPositional int, err error)
	ValidateCommandSubtests(cmd *ast.Command, expected int) error
	ValidateCommandBlock(cmd *ast.Command, allowed, required bool) error

	ArgumentActivate(arg *ast.Argument)
	ExtensionLoad(name string) error

	Lookup(class Class, name string) (*Object, bool)

	Warningf(line int, format string, args ...any)
	Errorf(line int, format string, args ...any)
}

// Extension is the unit of registration.
type Extension interface {
	Name() string
	Load(id int)
	ValidatorLoad(v CommandRegistrar)
	RuntimeLoad(rt RuntimeEnv)
	Operations() []Operation
	Operands() []Object
}

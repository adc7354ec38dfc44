// Package generate implements the code generator: a post-order walk over
// a validated ast.Command tree that emits each command's opcode, its
// tags' optional-operand block, then its positional arguments, into a
// bytecode.Writer.
package generate

import (
	"fmt"

	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/bytecode"
	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
)

// Codegen implements registry.Generator over a bytecode.Writer.
type Codegen struct {
	w          *bytecode.Writer
	line       int
	lines      map[int]int
	unresolved map[registry.JumpRef]bool
}

func New() *Codegen {
	return &Codegen{w: bytecode.NewWriter(), lines: make(map[int]int), unresolved: make(map[registry.JumpRef]bool)}
}

func (g *Codegen) EmitU8(b byte)                  { g.w.EmitU8(b) }
func (g *Codegen) EmitPackedUint(n uint64)         { g.w.EmitPackedUint(n) }
func (g *Codegen) EmitPackedInt(n int64)           { g.w.EmitPackedInt(n) }
func (g *Codegen) EmitString(s string)             { g.w.EmitString(s) }
func (g *Codegen) EmitStringList(list []string)    { g.w.EmitStringList(list) }
func (g *Codegen) Pos() int                        { return g.w.Len() }
func (g *Codegen) SourceLine(line int) {
	g.line = line
	g.lines[g.w.Len()] = line
}

func (g *Codegen) EmitObject(obj *registry.Object) {
	g.w.EmitObjectTag(obj.Ext, obj.Code)
}

func (g *Codegen) EmitOpcode(op *registry.Operation) {
	g.lines[g.w.Len()] = g.line
	g.w.EmitOpcode(op.Ext, op.LocalCode)
}

// OptEntry starts one non-zero (opt_code, operand...) pair; the generator
// relies on callers to follow it immediately with the operand emission
// (EmitObject/EmitString/etc.), and on GenerateTagBlock to close the block with a 0
// terminator once every tag has emitted theirs.
func (g *Codegen) OptEntry(code byte) {
	g.w.EmitU8(code)
}

func (g *Codegen) endOptBlock() {
	g.w.EmitU8(0)
}

// ReserveJump reserves a fixed-width offset slot for later back-patching
// and returns a token identifying it.
func (g *Codegen) ReserveJump() registry.JumpRef {
	off := g.w.EmitJumpSlot()
	ref := registry.JumpRef(off)
	g.unresolved[ref] = true
	return ref
}

// PatchJumpHere resolves ref to a signed offset from the byte after the
// slot to the current position.
func (g *Codegen) PatchJumpHere(ref registry.JumpRef) {
	slot := int(ref)
	delta := int32(g.w.Len() - (slot + 4))
	g.w.WriteAt(slot, delta)
	delete(g.unresolved, ref)
}

// Finish returns the compiled Binary; it is an error to call this while
// any reserved jump remains unpatched.
func (g *Codegen) Finish() (*bytecode.Binary, error) {
	if len(g.unresolved) > 0 {
		return nil, sieveerr.ErrJumpUnresolved
	}
	b := g.w.Finish()
	b.Lines = g.lines
	return b, nil
}

// Run generates code for an entire validated script.
func Run(g *Codegen, script []*ast.Command) error {
	for _, cmd := range script {
		if err := g.GenerateNode(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (g *Codegen) GenerateNode(cmd *ast.Command) error {
	desc, ok := cmd.Descriptor.(*registry.CommandDescriptor)
	if !ok {
		return fmt.Errorf("%w: %q has no descriptor at generation time", sieveerr.ErrObjectNotReg, cmd.Name)
	}
	g.SourceLine(cmd.Line)
	if desc.Generate == nil {
		return fmt.Errorf("%w: %q has no generator", sieveerr.ErrObjectNotReg, cmd.Name)
	}
	if err := desc.Generate(cmd, g); err != nil {
		return err
	}
	return nil
}

// GenerateTagBlock emits every tag attached to cmd (in validated order)
// followed by the 0 terminator; command Generate hooks that have an
// optional-operand block call this once before emitting their own
// positional operands. Each tag argument carries its own *registry.TagDef
// in Object, stashed there by the validator's tag loop, so no side table
// keyed by tag name is needed here.
func (g *Codegen) GenerateTagBlock(cmd *ast.Command) error {
	for _, tag := range cmd.Tags {
		def, ok := tag.Object.(*registry.TagDef)
		if !ok {
			return fmt.Errorf("%w: %q has no generator for tag %q", sieveerr.ErrObjectNotReg, cmd.Name, tag.Tag)
		}
		if def.Generate != nil {
			if err := def.Generate(cmd, tag, g); err != nil {
				return err
			}
		}
	}
	g.endOptBlock()
	return nil
}

// GenerateBlock generates the nested command sequence of an if/elsif/else
// arm or similar block-bearing command.
func (g *Codegen) GenerateBlock(block []*ast.Command) error {
	for _, cmd := range block {
		if err := g.GenerateNode(cmd); err != nil {
			return err
		}
	}
	return nil
}

package core

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func op(ext string, code byte) *registry.Operation { return &registry.Operation{Ext: ext, LocalCode: code} }

func generateFileinto(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(op("", opFILEINTO))
	if err := g.GenerateTagBlock(cmd); err != nil {
		return err
	}
	g.EmitString(cmd.Args[0].Str)
	return nil
}

func generateRedirect(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(op("", opREDIRECT))
	if err := g.GenerateTagBlock(cmd); err != nil {
		return err
	}
	g.EmitString(cmd.Args[0].Str)
	return nil
}

// generateIf compiles `if cond {then} [else {else}]` to the test
// expression followed by a back-patched IF_JMPFALSE. An elsif chain
// arrives here already desugared by the front end into nested "if"
// commands under cmd.Else.
func generateIf(cmd *ast.Command, g registry.Generator) error {
	if err := g.GenerateNode(cmd.Tests[0]); err != nil {
		return err
	}
	g.EmitOpcode(op("", opJMPFALSE))
	elseJump := g.ReserveJump()

	if err := g.GenerateBlock(cmd.Block); err != nil {
		return err
	}

	if len(cmd.Else) == 0 {
		g.PatchJumpHere(elseJump)
		return nil
	}

	g.EmitOpcode(op("", opJMP))
	endJump := g.ReserveJump()
	g.PatchJumpHere(elseJump)
	if err := g.GenerateBlock(cmd.Else); err != nil {
		return err
	}
	g.PatchJumpHere(endJump)
	return nil
}

func generateNot(cmd *ast.Command, g registry.Generator) error {
	if err := g.GenerateNode(cmd.Tests[0]); err != nil {
		return err
	}
	g.EmitOpcode(op("", opNOT))
	return nil
}

// generateAnyAll compiles anyof/allof by evaluating each subtest in turn
// and short-circuiting via JMPTRUE (anyof) or JMPFALSE (allof) to a
// shared tail that leaves the test register holding the final verdict.
func generateAnyAll(any bool) func(cmd *ast.Command, g registry.Generator) error {
	return func(cmd *ast.Command, g registry.Generator) error {
		var shortCircuit []registry.JumpRef
		for i, sub := range cmd.Tests {
			if err := g.GenerateNode(sub); err != nil {
				return err
			}
			if i == len(cmd.Tests)-1 {
				break
			}
			if any {
				g.EmitOpcode(op("", opJMPTRUE))
			} else {
				g.EmitOpcode(op("", opJMPFALSE))
			}
			shortCircuit = append(shortCircuit, g.ReserveJump())
		}
		for _, ref := range shortCircuit {
			g.PatchJumpHere(ref)
		}
		return nil
	}
}

func generateExists(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(op("", opEXISTS))
	g.EmitStringList(cmd.Args[0].List)
	return nil
}

func generateSize(cmd *ast.Command, g registry.Generator) error {
	// size's one tag IS the opcode (:over vs :under), so this command
	// itself emits nothing beyond what the tag's own Generate writes.
	for _, tag := range cmd.Tags {
		def, ok := tag.Object.(*registry.TagDef)
		if !ok || def.Generate == nil {
			continue
		}
		if err := def.Generate(cmd, tag, g); err != nil {
			return err
		}
	}
	return nil
}

func generateSizeTag(opCode byte) func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	return func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
		g.EmitOpcode(op("", opCode))
		g.EmitPackedUint(uint64(tag.Value.Num))
		return nil
	}
}

func generateHeader(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(op("", opHEADER))
	if err := g.GenerateTagBlock(cmd); err != nil {
		return err
	}
	g.EmitStringList(cmd.Args[0].List)
	g.EmitStringList(cmd.Args[1].List)
	return nil
}

func generateAddress(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(op("", opADDRESS))
	if err := g.GenerateTagBlock(cmd); err != nil {
		return err
	}
	g.EmitStringList(cmd.Args[0].List)
	g.EmitStringList(cmd.Args[1].List)
	return nil
}

func generateEnvelope(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(op("", opENVELOPE))
	if err := g.GenerateTagBlock(cmd); err != nil {
		return err
	}
	g.EmitStringList(cmd.Args[0].List)
	g.EmitStringList(cmd.Args[1].List)
	return nil
}

package imap4flags

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func op(code byte) *registry.Operation { return &registry.Operation{Ext: "imap4flags", LocalCode: code} }

func generateFlagOp(code byte) func(cmd *ast.Command, g registry.Generator) error {
	return func(cmd *ast.Command, g registry.Generator) error {
		g.EmitOpcode(op(code))
		g.EmitStringList(cmd.Args[0].List)
		return nil
	}
}

func generateHasflag(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(op(opHASFLAG))
	if err := g.GenerateTagBlock(cmd); err != nil {
		return err
	}
	g.EmitStringList(cmd.Args[0].List)
	return nil
}

package duplicate

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func generateDuplicate(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(&registry.Operation{Ext: "duplicate", LocalCode: opDUPLICATE})
	return g.GenerateTagBlock(cmd)
}

func generateStringTag(code byte) func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	return func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
		g.OptEntry(code)
		g.EmitString(tag.Value.Str)
		return nil
	}
}

func generateSecondsTag(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	g.OptEntry(optSeconds)
	g.EmitPackedUint(uint64(tag.Value.Num))
	return nil
}

func generateFlagTag(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	g.OptEntry(optLast)
	return nil
}

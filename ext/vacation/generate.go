package vacation

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func generateVacation(cmd *ast.Command, g registry.Generator) error {
	g.EmitOpcode(&registry.Operation{Ext: "vacation", LocalCode: opVACATION})
	if err := g.GenerateTagBlock(cmd); err != nil {
		return err
	}
	g.EmitString(cmd.Args[0].Str)
	return nil
}

func generateStringTag(code byte) func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	return func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
		g.OptEntry(code)
		g.EmitString(tag.Value.Str)
		return nil
	}
}

func generateDaysTag(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	g.OptEntry(optDays)
	g.EmitPackedUint(uint64(tag.Value.Num))
	return nil
}

func generateFlagTag(code byte) func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	return func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
		g.OptEntry(code)
		return nil
	}
}

func generateAddressesTag(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	g.OptEntry(optAddrs)
	g.EmitStringList(tag.Value.List)
	return nil
}

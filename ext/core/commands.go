package core

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func registerCommands(v registry.CommandRegistrar) {
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "require", Kind: ast.KindCommand, PositionalArity: 1,
		Validate: validateRequire, Generate: generateNoop,
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "stop", Kind: ast.KindCommand, PositionalArity: 0,
		Generate: generateSimple(opSTOP),
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "keep", Kind: ast.KindCommand, PositionalArity: 0,
		Generate: generateSimple(opKEEP),
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "discard", Kind: ast.KindCommand, PositionalArity: 0,
		Generate: generateSimple(opDISCARD),
	})

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "fileinto", Kind: ast.KindCommand, PositionalArity: 1,
		Validate: validateFileinto, Generate: generateFileinto,
	})
	v.RegisterTag("fileinto", &registry.TagDef{Name: "copy", OptCode: optCopy, Generate: generateFlagTag(optCopy)})

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "redirect", Kind: ast.KindCommand, PositionalArity: 1,
		Validate: validateRedirect, Generate: generateRedirect,
	})
	v.RegisterTag("redirect", &registry.TagDef{Name: "copy", OptCode: optCopy, Generate: generateFlagTag(optCopy)})

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "if", Kind: ast.KindCommand, SubtestArity: 1,
		HasBlock: true, BlockRequired: true,
		Validate: validateIf, Generate: generateIf,
	})

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "not", Kind: ast.KindTest, SubtestArity: 1,
		Generate: generateNot,
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "anyof", Kind: ast.KindTest, SubtestArity: -1,
		Generate: generateAnyAll(true),
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "allof", Kind: ast.KindTest, SubtestArity: -1,
		Generate: generateAnyAll(false),
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "true", Kind: ast.KindTest, PositionalArity: 0,
		Generate: generateSimple(opTRUE),
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "false", Kind: ast.KindTest, PositionalArity: 0,
		Generate: generateSimple(opFALSE),
	})

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "exists", Kind: ast.KindTest, PositionalArity: 1,
		Validate: validateExists, Generate: generateExists,
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "size", Kind: ast.KindTest, PositionalArity: 0,
		Validate: validateSize, Generate: generateSize,
	})
	v.RegisterTag("size", &registry.TagDef{Name: "over", HasValue: true, Value: registry.OperandNumber, Validate: validateSizeTag, Generate: generateSizeTag(opSIZEOVER)})
	v.RegisterTag("size", &registry.TagDef{Name: "under", HasValue: true, Value: registry.OperandNumber, Validate: validateSizeTag, Generate: generateSizeTag(opSIZEUNDER)})

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "header", Kind: ast.KindTest, PositionalArity: 2,
		Validate: validateHeaderLike, Generate: generateHeader,
	})
	v.LinkComparatorTag("header", optComparator)
	v.LinkMatchTypeTags("header", optMatchBase)

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "address", Kind: ast.KindTest, PositionalArity: 2,
		Validate: validateHeaderLike, Generate: generateAddress,
	})
	v.LinkComparatorTag("address", optComparator)
	v.LinkMatchTypeTags("address", optMatchBase)
	v.LinkAddressPartTags("address", optAddrPartBase)

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "envelope", Kind: ast.KindTest, PositionalArity: 2,
		Validate: validateHeaderLike, Generate: generateEnvelope,
	})
	v.LinkComparatorTag("envelope", optComparator)
	v.LinkMatchTypeTags("envelope", optMatchBase)
	v.LinkAddressPartTags("envelope", optAddrPartBase)
}

func generateNoop(cmd *ast.Command, g registry.Generator) error { return nil }

func generateSimple(op byte) func(cmd *ast.Command, g registry.Generator) error {
	return func(cmd *ast.Command, g registry.Generator) error {
		g.EmitOpcode(&registry.Operation{Ext: "", LocalCode: op})
		return nil
	}
}

// generateFlagTag emits a bare (no-value) opt entry for a boolean tag
// such as fileinto/redirect's :copy.
func generateFlagTag(code byte) func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
	return func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
		g.OptEntry(code)
		return nil
	}
}

package imap4flags

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func registerCommands(v registry.CommandRegistrar) {
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "setflag", Kind: ast.KindCommand, PositionalArity: 1, Ext: "imap4flags",
		Validate: validateFlagList, Generate: generateFlagOp(opSETFLAG),
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "addflag", Kind: ast.KindCommand, PositionalArity: 1, Ext: "imap4flags",
		Validate: validateFlagList, Generate: generateFlagOp(opADDFLAG),
	})
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "removeflag", Kind: ast.KindCommand, PositionalArity: 1, Ext: "imap4flags",
		Validate: validateFlagList, Generate: generateFlagOp(opREMOVEFLAG),
	})

	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "hasflag", Kind: ast.KindTest, PositionalArity: 1, Ext: "imap4flags",
		Validate: validateFlagList, Generate: generateHasflag,
	})
	v.LinkComparatorTag("hasflag", optComparator)
}

package duplicate

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func registerCommands(v registry.CommandRegistrar) {
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "duplicate", Kind: ast.KindTest, PositionalArity: 0, Ext: "duplicate",
		Generate: generateDuplicate,
	})
	v.RegisterTag("duplicate", &registry.TagDef{Name: "handle", HasValue: true, Value: registry.OperandString, OptCode: optHandle, Validate: validateStringTag, Generate: generateStringTag(optHandle)})
	v.RegisterTag("duplicate", &registry.TagDef{Name: "seconds", HasValue: true, Value: registry.OperandNumber, OptCode: optSeconds, Validate: validateNumberTag, Generate: generateSecondsTag})
	v.RegisterTag("duplicate", &registry.TagDef{Name: "last", OptCode: optLast, Generate: generateFlagTag})
}

package vacation

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func registerCommands(v registry.CommandRegistrar) {
	v.RegisterCommand(&registry.CommandDescriptor{
		Name: "vacation", Kind: ast.KindCommand, PositionalArity: 1, Ext: "vacation",
		Validate: validateVacation, Generate: generateVacation,
	})
	v.RegisterTag("vacation", &registry.TagDef{Name: "subject", HasValue: true, Value: registry.OperandString, OptCode: optSubject, Validate: validateStringTag, Generate: generateStringTag(optSubject)})
	v.RegisterTag("vacation", &registry.TagDef{Name: "from", HasValue: true, Value: registry.OperandString, OptCode: optFrom, Validate: validateStringTag, Generate: generateStringTag(optFrom)})
	v.RegisterTag("vacation", &registry.TagDef{Name: "handle", HasValue: true, Value: registry.OperandString, OptCode: optHandle, Validate: validateStringTag, Generate: generateStringTag(optHandle)})
	v.RegisterTag("vacation", &registry.TagDef{Name: "days", HasValue: true, Value: registry.OperandNumber, OptCode: optDays, Validate: validateDaysTag, Generate: generateDaysTag})
	v.RegisterTag("vacation", &registry.TagDef{Name: "mime", OptCode: optMime, Generate: generateFlagTag(optMime)})
	v.RegisterTag("vacation", &registry.TagDef{Name: "addresses", HasValue: true, Value: registry.OperandStringList, OptCode: optAddrs, Validate: validateAddressesTag, Generate: generateAddressesTag})
}

package validate

import (
	"fmt"

	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
)

// LinkMatchTypeTags registers one TagDef per known match-type object as a
// bare tag on cmdName (":is", ":contains", ":matches", ...); the keys stay
// a positional argument of the test. optCodeBase is the first of a
// contiguous run of optional-operand codes, one per match-type,
// in objectOrder[ClassMatchType]'s registration order — stable because
// that order is fixed once the table stops accepting new extensions.
func (v *Validator) LinkMatchTypeTags(cmdName string, optCodeBase byte) {
	for i, obj := range v.objectOrder[registry.ClassMatchType] {
		obj := obj
		opt := optCodeBase + byte(i)
		v.RegisterTag(cmdName, &registry.TagDef{
			Name:     obj.Name,
			HasValue: false,
			OptCode:  opt,
			Validate: func(cmd *ast.Command, tag *ast.Argument, reg registry.CommandRegistrar) error {
				commandSelection(cmd).MatchType = obj
				return nil
			},
			Generate: func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
				g.OptEntry(opt)
				g.EmitObject(obj)
				return nil
			},
		})
	}
}

// LinkComparatorTag registers the ":comparator" tag on cmdName.
func (v *Validator) LinkComparatorTag(cmdName string, optCode byte) {
	v.RegisterTag(cmdName, &registry.TagDef{
		Name:     "comparator",
		HasValue: true,
		Value:    registry.OperandString,
		OptCode:  optCode,
		Validate: func(cmd *ast.Command, tag *ast.Argument, reg registry.CommandRegistrar) error {
			if err := reg.ValidateTagParameter(cmd, tag, ast.ArgString); err != nil {
				return err
			}
			obj, ok := reg.Lookup(registry.ClassComparator, tag.Value.Str)
			if !ok {
				return fmt.Errorf("%w: comparator %q", sieveerr.ErrSemantic, tag.Value.Str)
			}
			commandSelection(cmd).Comparator = obj
			return nil
		},
		Generate: func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
			g.OptEntry(optCode)
			g.EmitString(tag.Value.Str)
			return nil
		},
	})
}

// LinkAddressPartTags registers one TagDef per known address-part object
// (":all", ":localpart", ":domain", ":user", ":detail") as a bare tag;
// optCodeBase runs contiguously as in LinkMatchTypeTags.
func (v *Validator) LinkAddressPartTags(cmdName string, optCodeBase byte) {
	for i, obj := range v.objectOrder[registry.ClassAddressPart] {
		obj := obj
		opt := optCodeBase + byte(i)
		v.RegisterTag(cmdName, &registry.TagDef{
			Name:     obj.Name,
			HasValue: false,
			OptCode:  opt,
			Validate: func(cmd *ast.Command, tag *ast.Argument, reg registry.CommandRegistrar) error {
				commandSelection(cmd).AddressPart = obj
				return nil
			},
			Generate: func(cmd *ast.Command, tag *ast.Argument, g registry.Generator) error {
				g.OptEntry(opt)
				g.EmitObject(obj)
				return nil
			},
		})
	}
}

// commandSelection returns (creating if absent) the Selection attached to
// cmd.Data.
func commandSelection(cmd *ast.Command) *Selection {
	sel, _ := cmd.Data.(*Selection)
	if sel == nil {
		sel = &Selection{}
		cmd.Data = sel
	}
	return sel
}

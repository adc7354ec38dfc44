package vacation

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func validateVacation(cmd *ast.Command, v registry.CommandRegistrar) error {
	first, err := v.ValidateCommandArguments(cmd, 1)
	if err != nil {
		return err
	}
	return v.ValidatePositionalArgument(cmd, cmd.Args[first], "reason", 0, ast.ArgString)
}

func validateStringTag(cmd *ast.Command, tag *ast.Argument, v registry.CommandRegistrar) error {
	return v.ValidateTagParameter(cmd, tag, ast.ArgString)
}

func validateAddressesTag(cmd *ast.Command, tag *ast.Argument, v registry.CommandRegistrar) error {
	return v.ValidateTagParameter(cmd, tag, ast.ArgStringList)
}

// validateDaysTag handles ":days 0" by clamping to 1 and warning, rather
// than rejecting it outright: a zero-day window would otherwise mean
// "always resend" and silently defeat the suppression this tag exists
// for.
func validateDaysTag(cmd *ast.Command, tag *ast.Argument, v registry.CommandRegistrar) error {
	if err := v.ValidateTagParameter(cmd, tag, ast.ArgNumber); err != nil {
		return err
	}
	if tag.Value.Num == 0 {
		tag.Value.Num = 1
		v.Warningf(tag.Line, "vacation: :days 0 clamped to 1")
	}
	return nil
}

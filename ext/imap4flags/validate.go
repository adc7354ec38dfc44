package imap4flags

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func validateFlagList(cmd *ast.Command, v registry.CommandRegistrar) error {
	first, err := v.ValidateCommandArguments(cmd, 1)
	if err != nil {
		return err
	}
	return v.ValidatePositionalArgument(cmd, cmd.Args[first], "flags", 0, ast.ArgStringList)
}

package core

import (
	"fmt"

	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
)

func validateRequire(cmd *ast.Command, v registry.CommandRegistrar) error {
	first, err := v.ValidateCommandArguments(cmd, 1)
	if err != nil {
		return err
	}
	arg := cmd.Args[first]
	if err := v.ValidatePositionalArgument(cmd, arg, "extensions", 0, ast.ArgStringList); err != nil {
		return err
	}
	var firstErr error
	for _, name := range arg.List {
		if name == "core" {
			continue
		}
		if name == "fileinto" {
			// fileinto is registered with core's commands, so requiring
			// it loads nothing further.
			continue
		}
		if err := v.ExtensionLoad(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func validateFileinto(cmd *ast.Command, v registry.CommandRegistrar) error {
	first, err := v.ValidateCommandArguments(cmd, 1)
	if err != nil {
		return err
	}
	return v.ValidatePositionalArgument(cmd, cmd.Args[first], "mailbox", 0, ast.ArgString)
}

func validateRedirect(cmd *ast.Command, v registry.CommandRegistrar) error {
	first, err := v.ValidateCommandArguments(cmd, 1)
	if err != nil {
		return err
	}
	return v.ValidatePositionalArgument(cmd, cmd.Args[first], "address", 0, ast.ArgString)
}

func validateIf(cmd *ast.Command, v registry.CommandRegistrar) error {
	return v.ValidateCommandSubtests(cmd, 1)
}

func validateExists(cmd *ast.Command, v registry.CommandRegistrar) error {
	first, err := v.ValidateCommandArguments(cmd, 1)
	if err != nil {
		return err
	}
	return v.ValidatePositionalArgument(cmd, cmd.Args[first], "header-names", 0, ast.ArgStringList)
}

func validateSize(cmd *ast.Command, v registry.CommandRegistrar) error {
	if len(cmd.Tags) != 1 || (cmd.Tags[0].Tag != "over" && cmd.Tags[0].Tag != "under") {
		return fmt.Errorf("%w: size requires exactly one of :over or :under", sieveerr.ErrSemantic)
	}
	return nil
}

func validateSizeTag(cmd *ast.Command, tag *ast.Argument, v registry.CommandRegistrar) error {
	return v.ValidateTagParameter(cmd, tag, ast.ArgNumber)
}

// validateHeaderLike validates the shared {header-list, key-list} shape of
// header/address/envelope. Comparator/match-type/address-part defaults
// for tags the script omits are applied at runtime by readSelection.
func validateHeaderLike(cmd *ast.Command, v registry.CommandRegistrar) error {
	first, err := v.ValidateCommandArguments(cmd, 2)
	if err != nil {
		return err
	}
	if err := v.ValidatePositionalArgument(cmd, cmd.Args[first], "header-names", 0, ast.ArgStringList); err != nil {
		return err
	}
	return v.ValidatePositionalArgument(cmd, cmd.Args[first+1], "keys", 1, ast.ArgStringList)
}

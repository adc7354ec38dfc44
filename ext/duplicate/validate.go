package duplicate

import (
	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
)

func validateStringTag(cmd *ast.Command, tag *ast.Argument, v registry.CommandRegistrar) error {
	return v.ValidateTagParameter(cmd, tag, ast.ArgString)
}

func validateNumberTag(cmd *ast.Command, tag *ast.Argument, v registry.CommandRegistrar) error {
	return v.ValidateTagParameter(cmd, tag, ast.ArgNumber)
}

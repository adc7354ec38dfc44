// Package sieveerr holds the sentinel errors shared across the engine and
// the host, grouped by the phase that reports them.
package sieveerr

import "errors"

// Validation-time errors: accumulated by the validator up to its fatal
// limit, reported with a source location.
var (
	ErrSyntax           = errors.New("syntax error")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrUnknownTag       = errors.New("unknown tag")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrArityMismatch    = errors.New("arity mismatch")
	ErrUnknownExtension = errors.New("unknown extension")
	ErrSemantic         = errors.New("semantic error")
)

// Generation-time errors: fatal, indicate an engine bug rather than a bad
// script.
var (
	ErrJumpUnresolved  = errors.New("internal: jump offset left unresolved")
	ErrObjectNotReg    = errors.New("internal: object not registered")
	ErrTooManyExtLocal = errors.New("internal: extension-local index overflow")
)

// Runtime errors.
var (
	ErrBinaryCorrupt        = errors.New("binary corrupt")
	ErrRuntime              = errors.New("runtime error")
	ErrActionConflict       = errors.New("action conflict")
	ErrDuplicateAction      = errors.New("duplicate action")
	ErrHostCapabilityMissing = errors.New("host capability missing")
	ErrTempFailure          = errors.New("temporary failure")
)

// Host/db errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrDBNotFound   = errors.New("not found")
)

package sieve

import (
	"fmt"
	"os"

	"github.com/migadu/sieve/bytecode"
	"github.com/migadu/sieve/generate"
	"github.com/migadu/sieve/parse"
	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
	"github.com/migadu/sieve/validate"
)

// Compile runs the full parse/validate/generate pipeline over the script
// at scriptPath against table, returning the resulting bytecode.Binary.
// Validation errors are reported through ehandler as they're found;
// Compile itself returns a single error once the run is known to have
// failed — success means zero errors were reported during validation.
func Compile(table *registry.Table, scriptPath string, ehandler registry.ErrorHandler) (*bytecode.Binary, error) {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return CompileSource(table, src, ehandler)
}

// CompileSource is Compile over in-memory source, used by ManageSieve's
// CHECKSCRIPT/PUTSCRIPT validation path where the script text arrives
// over the wire rather than from a file.
func CompileSource(table *registry.Table, src []byte, ehandler registry.ErrorHandler) (*bytecode.Binary, error) {
	script, err := parse.Parse(src)
	if err != nil {
		ehandler.Error(0, err.Error())
		return nil, fmt.Errorf("%w: %v", sieveerr.ErrSyntax, err)
	}

	v := validate.New(table, ehandler)
	if ok := v.Run(script); !ok {
		return nil, fmt.Errorf("%w: script failed validation", sieveerr.ErrSemantic)
	}

	g := generate.New()
	if err := generate.Run(g, script); err != nil {
		return nil, err
	}
	bin, err := g.Finish()
	if err != nil {
		return nil, err
	}
	return bin, nil
}

// Open loads a previously compiled binary from disk and verifies its
// extension index resolves against table. A binary naming an extension
// the host no longer registers fails with ErrUnknownExtension.
func Open(table *registry.Table, binaryPath string) (*bytecode.Binary, error) {
	data, err := os.ReadFile(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("reading binary: %w", err)
	}
	bin, err := bytecode.Decode(data)
	if err != nil {
		return nil, err
	}
	if _, err := table.ResolveIndex(bin.ExtIndex); err != nil {
		return nil, err
	}
	return bin, nil
}

// Save serializes bin to its on-disk bytecode form for later reloading
// via Open — the cached-compile path ManageSieve's SETACTIVE uses
// instead of recompiling on every delivery.
func Save(bin *bytecode.Binary) []byte {
	return bytecode.Encode(bin)
}

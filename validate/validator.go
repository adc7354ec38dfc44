// Package validate implements the semantic checker: a pre-order walk
// over the parser's ast.Command tree that resolves every command/test
// against the extension registry, runs its tag loop, checks positional
// argument types and arity, and mutates the tree (activating arguments,
// attaching per-command data) in place for the generator.
package validate

import (
	"fmt"

	"github.com/migadu/sieve/ast"
	"github.com/migadu/sieve/registry"
	"github.com/migadu/sieve/sieveerr"
)

const defaultFatalLimit = 100

// Validator implements registry.CommandRegistrar. One instance is built
// per script validation run; it is not reused across scripts.
type Validator struct {
	table *registry.Table
	errs  registry.ErrorHandler

	fatalLimit int
	errCount   int
	aborted    bool

	commands map[string]*registry.CommandDescriptor
	tags     map[string]map[string]*registry.TagDef
	seen     map[string]bool // Registered hook fired once per command name

	loadedExt map[string]bool

	// objects is populated once, eagerly, from every extension in
	// table regardless of require state: capability sets are data, not
	// behavior — only command/tag registration is require-gated.
	objects     map[registry.Class]map[string]*registry.Object
	objectOrder map[registry.Class][]*registry.Object
}

// New builds a Validator over table, eagerly loading "core"'s validator
// hook (RFC 5228 commands/tests are always available, unlike extensions
// which need a `require`) and every extension's Operands().
func New(table *registry.Table, errs registry.ErrorHandler) *Validator {
	v := &Validator{
		table:       table,
		errs:        errs,
		fatalLimit:  defaultFatalLimit,
		commands:    make(map[string]*registry.CommandDescriptor),
		tags:        make(map[string]map[string]*registry.TagDef),
		seen:        make(map[string]bool),
		loadedExt:   make(map[string]bool),
		objects:     make(map[registry.Class]map[string]*registry.Object),
		objectOrder: make(map[registry.Class][]*registry.Object),
	}
	for _, ext := range table.All() {
		for i := range ext.Operands() {
			obj := ext.Operands()[i]
			v.addObject(&obj)
		}
	}
	if core, ok := table.Lookup("core"); ok {
		v.loadedExt["core"] = true
		core.ValidatorLoad(v)
	}
	return v
}

func (v *Validator) addObject(obj *registry.Object) {
	if v.objects[obj.Class] == nil {
		v.objects[obj.Class] = make(map[string]*registry.Object)
	}
	v.objects[obj.Class][obj.Name] = obj
	v.objectOrder[obj.Class] = append(v.objectOrder[obj.Class], obj)
}

// Run validates every top-level command (statement context) and reports
// whether the script is free of errors.
func (v *Validator) Run(script []*ast.Command) bool {
	for _, cmd := range script {
		if v.aborted {
			break
		}
		v.walk(cmd, ast.KindCommand)
	}
	return v.errCount == 0
}

func (v *Validator) walk(cmd *ast.Command, expectedKind ast.Kind) {
	if v.aborted {
		return
	}
	desc, ok := v.commands[cmd.Name]
	if !ok {
		v.Errorf(cmd.Line, "%s: %q", sieveerr.ErrUnknownCommand, cmd.Name)
		return
	}
	if desc.Kind != expectedKind {
		v.Errorf(cmd.Line, "%v: %q used as %s, expected %s", sieveerr.ErrSemantic, cmd.Name, expectedKind, desc.Kind)
		return
	}
	cmd.Descriptor = desc

	if !v.seen[cmd.Name] {
		v.seen[cmd.Name] = true
		if desc.Registered != nil {
			desc.Registered(cmd)
		}
	}
	if desc.PreValidate != nil {
		if err := desc.PreValidate(cmd, v); err != nil {
			v.Errorf(cmd.Line, "%v", err)
			return
		}
	}

	v.runTagLoop(cmd, desc)

	if desc.PositionalArity >= 0 && len(cmd.Args) != desc.PositionalArity {
		v.Errorf(cmd.Line, "%v: %q takes %d argument(s), got %d", sieveerr.ErrArityMismatch, cmd.Name, desc.PositionalArity, len(cmd.Args))
	}
	if err := v.ValidateCommandBlock(cmd, desc.HasBlock, desc.BlockRequired); err != nil {
		v.Errorf(cmd.Line, "%v", err)
	}

	if desc.Validate != nil {
		if err := desc.Validate(cmd, v); err != nil {
			v.Errorf(cmd.Line, "%v", err)
		}
	}

	for _, t := range cmd.Tests {
		v.walk(t, ast.KindTest)
	}
	for _, c := range cmd.Block {
		v.walk(c, ast.KindCommand)
	}
	for _, c := range cmd.Else {
		v.walk(c, ast.KindCommand)
	}
}

// runTagLoop detaches leading tag arguments off the front of cmd.Args,
// dispatching each to its registered TagDef.
func (v *Validator) runTagLoop(cmd *ast.Command, desc *registry.CommandDescriptor) {
	cmdTags := v.tags[cmd.Name]
	i := 0
	for i < len(cmd.Args) {
		arg := cmd.Args[i]
		if arg.Kind != ast.ArgTag {
			break
		}
		tagDef, ok := cmdTags[arg.Tag]
		if !ok {
			v.Errorf(arg.Line, "%v: %q on %q", sieveerr.ErrUnknownTag, arg.Tag, cmd.Name)
			i++
			continue
		}
		arg.Object = tagDef
		if !tagDef.HasValue && arg.Value != nil {
			// The parser attached the following argument as this tag's
			// value; the tag takes none, so hand it back as the next argument.
			cmd.Args = append(cmd.Args[:i+1], append([]*ast.Argument{arg.Value}, cmd.Args[i+1:]...)...)
			arg.Value = nil
		}
		cmd.Tags = append(cmd.Tags, arg)
		if tagDef.Validate != nil {
			if err := tagDef.Validate(cmd, arg, v); err != nil {
				v.Errorf(arg.Line, "%v", err)
			}
		}
		i++
	}
	cmd.Args = cmd.Args[i:]
	cmd.FirstPositional = 0
}

// --- registry.CommandRegistrar ---

func (v *Validator) RegisterCommand(desc *registry.CommandDescriptor) {
	v.commands[desc.Name] = desc
	if v.tags[desc.Name] == nil {
		v.tags[desc.Name] = make(map[string]*registry.TagDef)
	}
}

func (v *Validator) RegisterTag(cmdName string, tag *registry.TagDef) {
	if v.tags[cmdName] == nil {
		v.tags[cmdName] = make(map[string]*registry.TagDef)
	}
	v.tags[cmdName][tag.Name] = tag
}

func (v *Validator) ValidatePositionalArgument(cmd *ast.Command, arg *ast.Argument, name string, index int, kind ast.ArgKind) error {
	promoteToStringList(arg, kind)
	if arg.Kind != kind {
		return fmt.Errorf("%w: %s argument %d (%s)", sieveerr.ErrTypeMismatch, cmd.Name, index, name)
	}
	v.ArgumentActivate(arg)
	return nil
}

func (v *Validator) ValidateTagParameter(cmd *ast.Command, tag *ast.Argument, kind ast.ArgKind) error {
	if tag.Value == nil {
		return fmt.Errorf("%w: %s:%s value", sieveerr.ErrTypeMismatch, cmd.Name, tag.Tag)
	}
	promoteToStringList(tag.Value, kind)
	if tag.Value.Kind != kind {
		return fmt.Errorf("%w: %s:%s value", sieveerr.ErrTypeMismatch, cmd.Name, tag.Tag)
	}
	v.ArgumentActivate(tag.Value)
	return nil
}

// promoteToStringList applies RFC 5228 section 8.2's "a string is also a
// valid string-list of one" rule: the parser has no way to know, from
// syntax alone, whether a bare quoted string is meant as a scalar or a
// one-element list, so it always emits ArgString and validation promotes
// it here wherever a command/tag's schema expects ArgStringList.
func promoteToStringList(arg *ast.Argument, want ast.ArgKind) {
	if want == ast.ArgStringList && arg.Kind == ast.ArgString {
		arg.Kind = ast.ArgStringList
		arg.List = []string{arg.Str}
	}
}

func (v *Validator) ValidateCommandArguments(cmd *ast.Command, minPositional int) (int, error) {
	if len(cmd.Args) < minPositional {
		return 0, fmt.Errorf("%w: %s requires at least %d argument(s), got %d", sieveerr.ErrArityMismatch, cmd.Name, minPositional, len(cmd.Args))
	}
	return cmd.FirstPositional, nil
}

func (v *Validator) ValidateCommandSubtests(cmd *ast.Command, expected int) error {
	if expected < 0 {
		if len(cmd.Tests) == 0 {
			return fmt.Errorf("%w: %s requires at least one subtest", sieveerr.ErrArityMismatch, cmd.Name)
		}
		return nil
	}
	if len(cmd.Tests) != expected {
		return fmt.Errorf("%w: %s expects %d subtest(s), got %d", sieveerr.ErrArityMismatch, cmd.Name, expected, len(cmd.Tests))
	}
	return nil
}

func (v *Validator) ValidateCommandBlock(cmd *ast.Command, allowed, required bool) error {
	has := cmd.Block != nil
	if has && !allowed {
		return fmt.Errorf("%w: %s does not take a block", sieveerr.ErrSemantic, cmd.Name)
	}
	if required && !has {
		return fmt.Errorf("%w: %s requires a block", sieveerr.ErrSemantic, cmd.Name)
	}
	return nil
}

func (v *Validator) ArgumentActivate(arg *ast.Argument) {
	arg.Activated = true
}

// ExtensionLoad resolves name against the table and, on first use this
// run, calls its ValidatorLoad hook (the `require` statement's effect).
func (v *Validator) ExtensionLoad(name string) error {
	if v.loadedExt[name] {
		return nil
	}
	ext, ok := v.table.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", sieveerr.ErrUnknownExtension, name)
	}
	v.loadedExt[name] = true
	ext.ValidatorLoad(v)
	return nil
}

func (v *Validator) Lookup(class registry.Class, name string) (*registry.Object, bool) {
	obj, ok := v.objects[class][name]
	return obj, ok
}

func (v *Validator) Warningf(line int, format string, args ...any) {
	v.errs.Warning(line, fmt.Sprintf(format, args...))
}

func (v *Validator) Errorf(line int, format string, args ...any) {
	v.errs.Error(line, fmt.Sprintf(format, args...))
	v.errCount++
	if v.errCount >= v.fatalLimit {
		v.aborted = true
	}
}

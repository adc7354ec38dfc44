// Package ast defines the validator's input contract: a tree of commands
// and tests with typed arguments. Nodes are produced by the front end in
// parse/ and consumed, in place, by validate/Validator and then
// generate/Generator.
package ast

// Kind distinguishes a command node used as a statement from one used as a
// test (the same node shape serves both; kind is checked against the
// parent context during validation).
type Kind int

const (
	KindCommand Kind = iota
	KindTest
)

func (k Kind) String() string {
	if k == KindTest {
		return "test"
	}
	return "command"
}

// ArgKind tags the variant carried by an Argument.
type ArgKind int

const (
	ArgString ArgKind = iota
	ArgNumber
	ArgStringList
	ArgTag
	ArgTest
)

// Argument is the tagged variant over {string, number, string_list, tag,
// test}. Only the field matching Kind is meaningful.
//
// A tag carries an identifier (Tag) and, once validated, a pointer to the
// argument object contributed by the tag's owning extension (Object) plus
// an optional payload argument (Value) — e.g. ":is" carries no Value,
// ":days 7" carries Value holding the number 7.
//
// Object is deliberately `any`: it is populated by a tag's validator with
// whatever the owning extension's Object (match-type, comparator,
// address-part, side-effect) happens to be, and read back by the
// generator without the ast package needing to know the registry's types.
type Argument struct {
	Kind ArgKind

	Str    string
	Num    int64
	List   []string
	Tag    string
	Value  *Argument
	Test   *Command
	Object any

	Line int

	// Activated is set by validate.Validator.ArgumentActivate once the
	// argument has been type-checked; the generator does not consult it.
	Activated bool
}

// Command is a command or test node: `header :is "Subject" "Hi"`,
// `if <test> { <block> }`, `fileinto "INBOX.Foo"`, etc.
type Command struct {
	Name string
	Kind Kind
	Line int

	// Args holds positional and tag arguments in source order before
	// validation detaches the leading tags; after validation it holds
	// only the positional arguments.
	Args []*Argument

	// Tags holds the tag arguments detached from the front of Args by
	// the validator's tag loop.
	Tags []*Argument

	// Tests holds subtest nodes (arguments of kind ArgTest unwrapped),
	// e.g. anyof/allof's operands or if/elsif's condition.
	Tests []*Command

	// Block holds the nested command sequence for commands with a
	// block (if/elsif/else arms; under RFC 5228 these are the only
	// block-bearing commands).
	Block []*Command

	// Else holds the desugared else-branch of an "if" command: the
	// front end rewrites `if c1 {b1} elsif c2 {b2} else {b3}` into
	// `if c1 {b1} else { if c2 {b2} else {b3} } }`, so Else is either
	// nil (no else) or a single-element slice wrapping one synthetic
	// "if" command (for a rewritten elsif) or the literal else block's
	// statements (for a terminal else). Only "if" ever sets this.
	Else []*Command

	// Descriptor, Data and FirstPositional are filled in by the
	// validator.
	Descriptor      any // *registry.CommandDescriptor, kept untyped to avoid an ast->registry import
	Data            any
	FirstPositional int
}

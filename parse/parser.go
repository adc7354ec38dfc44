// Package parse is the external front-end boundary: a minimal RFC 5228
// lexer and recursive-descent parser that turns Sieve source text into
// the ast.Command trees validate.Validator treats as its input contract.
// It carries no opcode or extension knowledge — it only recognizes the
// language's structural grammar (commands, blocks, tagged/positional
// arguments, test-lists, the if/elsif/else shape) and leaves every
// semantic question (which commands exist, which tags they take, which
// extension a name belongs to) to the validator that runs after it.
package parse

import (
	"fmt"

	"github.com/migadu/sieve/ast"
)

type parser struct {
	lex *lexer
	tok token
}

func newParser(src []byte) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.tok.kind != kind {
		return fmt.Errorf("line %d: expected %s", p.tok.line, what)
	}
	return p.advance()
}

// Parse parses a whole script into its top-level command sequence (spec
// section 3's ast.Command tree, the validator's input contract).
func Parse(src []byte) ([]*ast.Command, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	var out []*ast.Command
	for p.tok.kind != tokEOF {
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

// parseCommand parses one statement: identifier, arguments, then either a
// ";" or a block. "if" additionally consumes any trailing elsif/else
// chain, desugared into cmd.Else (spec's ast.Command.Else contract).
func (p *parser) parseCommand() (*ast.Command, error) {
	if p.tok.kind != tokIdent {
		return nil, fmt.Errorf("line %d: expected command name", p.tok.line)
	}
	name := p.tok.str
	line := p.tok.line
	if err := p.advance(); err != nil {
		return nil, err
	}
	cmd := &ast.Command{Name: name, Kind: ast.KindCommand, Line: line}
	if err := p.parseArguments(cmd); err != nil {
		return nil, err
	}
	if p.tok.kind == tokLBrace {
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		cmd.Block = block
	} else {
		if err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
	}
	if name == "if" {
		if err := p.attachElseChain(cmd); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

// attachElseChain consumes any "elsif"/"else" clauses following an "if"
// command's block, rewriting `if c1 {b1} elsif c2 {b2} else {b3}` into
// nested synthetic "if" commands under cmd.Else.
func (p *parser) attachElseChain(cmd *ast.Command) error {
	if p.tok.kind != tokIdent {
		return nil
	}
	switch p.tok.str {
	case "elsif":
		line := p.tok.line
		if err := p.advance(); err != nil {
			return err
		}
		test, err := p.parseTest()
		if err != nil {
			return err
		}
		if err := p.expect2LBrace(); err != nil {
			return err
		}
		block, err := p.parseBlock()
		if err != nil {
			return err
		}
		synthetic := &ast.Command{Name: "if", Kind: ast.KindCommand, Line: line, Tests: []*ast.Command{test}, Block: block}
		if err := p.attachElseChain(synthetic); err != nil {
			return err
		}
		cmd.Else = []*ast.Command{synthetic}
		return nil
	case "else":
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.expect2LBrace(); err != nil {
			return err
		}
		block, err := p.parseBlock()
		if err != nil {
			return err
		}
		cmd.Else = block
		return nil
	default:
		return nil
	}
}

func (p *parser) expect2LBrace() error {
	if p.tok.kind != tokLBrace {
		return fmt.Errorf("line %d: expected '{'", p.tok.line)
	}
	return nil
}

// parseBlock parses "{" *command "}".
func (p *parser) parseBlock() ([]*ast.Command, error) {
	if err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	var out []*ast.Command
	for p.tok.kind != tokRBrace {
		if p.tok.kind == tokEOF {
			return nil, fmt.Errorf("line %d: unterminated block", p.tok.line)
		}
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, p.advance()
}

// parseTest parses one "identifier arguments" test node (RFC 5228
// section 8.2's `test` production).
func (p *parser) parseTest() (*ast.Command, error) {
	if p.tok.kind != tokIdent {
		return nil, fmt.Errorf("line %d: expected test name", p.tok.line)
	}
	name := p.tok.str
	line := p.tok.line
	if err := p.advance(); err != nil {
		return nil, err
	}
	t := &ast.Command{Name: name, Kind: ast.KindTest, Line: line}
	if err := p.parseArguments(t); err != nil {
		return nil, err
	}
	return t, nil
}

// parseArguments parses zero or more positional/tag arguments followed by
// an optional trailing test or test-list (RFC 5228's `arguments`
// production: "*argument [test / test-list]").
func (p *parser) parseArguments(cmd *ast.Command) error {
	for {
		switch p.tok.kind {
		case tokString, tokLBracket:
			arg, err := p.parseStringOrList()
			if err != nil {
				return err
			}
			cmd.Args = append(cmd.Args, arg)
		case tokNumber:
			arg := &ast.Argument{Kind: ast.ArgNumber, Num: p.tok.num, Line: p.tok.line}
			if err := p.advance(); err != nil {
				return err
			}
			cmd.Args = append(cmd.Args, arg)
		case tokTag:
			arg, err := p.parseTagArgument()
			if err != nil {
				return err
			}
			cmd.Args = append(cmd.Args, arg)
		case tokLParen:
			tests, err := p.parseTestList()
			if err != nil {
				return err
			}
			cmd.Tests = tests
			return nil
		case tokIdent:
			test, err := p.parseTest()
			if err != nil {
				return err
			}
			cmd.Tests = []*ast.Command{test}
			return nil
		default:
			return nil
		}
	}
}

// parseStringOrList parses either a single quoted string, surfaced as
// ArgString, or a "[" string *("," string) "]" list, surfaced as
// ArgStringList. RFC 5228's grammar makes a bare string a valid
// string-list of one wherever a string-list is expected, but the two
// are still distinct productions; validate.Validator promotes ArgString
// to a one-element ArgStringList at the point a command/tag's schema
// asks for a list, so callers that want "a string" (ArgString) and
// callers that want "a string-list" (ArgStringList) both see the kind
// they declared regardless of which surface form the script used.
func (p *parser) parseStringOrList() (*ast.Argument, error) {
	line := p.tok.line
	if p.tok.kind == tokString {
		s := p.tok.str
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Argument{Kind: ast.ArgString, Str: s, Line: line}, nil
	}
	if err := p.advance(); err != nil { // consume "["
		return nil, err
	}
	var list []string
	for p.tok.kind != tokRBracket {
		if p.tok.kind != tokString {
			return nil, fmt.Errorf("line %d: expected string in list", p.tok.line)
		}
		list = append(list, p.tok.str)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.advance(); err != nil { // consume "]"
		return nil, err
	}
	return &ast.Argument{Kind: ast.ArgStringList, List: list, Line: line}, nil
}

// parseTagArgument parses ":name" and, when the next token looks like a
// value rather than the start of another argument or a structural
// delimiter, greedily attaches it as the tag's Value (mirroring how
// minimal Sieve front ends resolve the grammar's tag/value ambiguity
// without per-tag schema knowledge; the validator's tag loop hands the
// value back as a positional argument when the tag takes none, and a tag
// that takes a value of another kind fails its parameter check).
func (p *parser) parseTagArgument() (*ast.Argument, error) {
	line := p.tok.line
	name := p.tok.str
	if err := p.advance(); err != nil {
		return nil, err
	}
	arg := &ast.Argument{Kind: ast.ArgTag, Tag: name, Line: line}
	switch p.tok.kind {
	case tokString, tokLBracket:
		val, err := p.parseStringOrList()
		if err != nil {
			return nil, err
		}
		arg.Value = val
	case tokNumber:
		arg.Value = &ast.Argument{Kind: ast.ArgNumber, Num: p.tok.num, Line: p.tok.line}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return arg, nil
}

// parseTestList parses "(" test *("," test) ")".
func (p *parser) parseTestList() ([]*ast.Command, error) {
	if err := p.advance(); err != nil { // consume "("
		return nil, err
	}
	var out []*ast.Command
	for {
		t, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return out, nil
}

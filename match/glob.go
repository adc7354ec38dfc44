package match

// Glob is a compiled ":matches" pattern: '*' matches any sequence, '?'
// matches one character, '\' escapes the next character. CompileGlob
// runs when Matches.Init builds a match context, once per key; patterns
// are not compiled ahead of time during generation.
type Glob struct {
	tokens []globToken
}

type globKind int

const (
	globLit globKind = iota
	globAny
	globStar
)

type globToken struct {
	kind globKind
	lit  rune
}

// CompileGlob parses pattern into a Glob ready for Match.
func CompileGlob(pattern string) *Glob {
	g := &Glob{}
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if i+1 < len(runes) {
				i++
				g.tokens = append(g.tokens, globToken{kind: globLit, lit: runes[i]})
			}
		case '*':
			g.tokens = append(g.tokens, globToken{kind: globStar})
		case '?':
			g.tokens = append(g.tokens, globToken{kind: globAny})
		default:
			g.tokens = append(g.tokens, globToken{kind: globLit, lit: runes[i]})
		}
	}
	return g
}

// Match reports whether value matches the pattern under cmp's folding
// rules (comparator-dependent equality on literal characters).
func (g *Glob) Match(cmp Comparator, value string) bool {
	return matchTokens(g.tokens, []rune(value), cmp)
}

func matchTokens(tokens []globToken, value []rune, cmp Comparator) bool {
	if len(tokens) == 0 {
		return len(value) == 0
	}
	t := tokens[0]
	switch t.kind {
	case globStar:
		// Try consuming 0..len(value) characters for '*', backtracking.
		for n := 0; n <= len(value); n++ {
			if matchTokens(tokens[1:], value[n:], cmp) {
				return true
			}
		}
		return false
	case globAny:
		if len(value) == 0 {
			return false
		}
		return matchTokens(tokens[1:], value[1:], cmp)
	default:
		if len(value) == 0 {
			return false
		}
		if !cmp.Equals(string(value[0]), string(t.lit)) {
			return false
		}
		return matchTokens(tokens[1:], value[1:], cmp)
	}
}

package match

import (
	"regexp"
	"strconv"
	"strings"
)

// Context is per-test match-context state: it is initialized once with
// the comparator and key list, fed each candidate value via Match, and
// asked for a final verdict via Finalize once every candidate has been
// offered — the indirection that lets accumulating match-types such as
// :count give a different answer than any single Match call would.
type Context interface {
	// Match offers one candidate value (e.g. one decoded header, or one
	// address-part projection) and returns true if this call alone
	// decides the test (non-accumulating types return their real
	// verdict here and the caller may stop early; accumulating types
	// always return false and wait for Finalize).
	Match(value string) bool
	Finalize() bool
}

// MatchType is a named match-type contributed to a comparison test.
type MatchType interface {
	Name() string
	Init(cmp Comparator, keys []string) Context
}

// Is implements ":is": exact match against one of keys.
type Is struct{}

func (Is) Name() string { return "is" }
func (Is) Init(cmp Comparator, keys []string) Context {
	return &simpleCtx{cmp: cmp, keys: keys, test: cmp.Equals}
}

// Contains implements ":contains": substring match against one of keys.
type Contains struct{}

func (Contains) Name() string { return "contains" }
func (Contains) Init(cmp Comparator, keys []string) Context {
	return &simpleCtx{cmp: cmp, keys: keys, test: func(value, key string) bool {
		return cmp.Contains(value, key)
	}}
}

type simpleCtx struct {
	cmp  Comparator
	keys []string
	test func(value, key string) bool
}

func (c *simpleCtx) Match(value string) bool {
	for _, k := range c.keys {
		if c.test(value, k) {
			return true
		}
	}
	return false
}
func (c *simpleCtx) Finalize() bool { return false }

// Matches implements ":matches": glob pattern match.
type Matches struct{}

func (Matches) Name() string { return "matches" }
func (Matches) Init(cmp Comparator, keys []string) Context {
	globs := make([]*Glob, len(keys))
	for i, k := range keys {
		globs[i] = CompileGlob(k)
	}
	return &globCtx{cmp: cmp, globs: globs}
}

type globCtx struct {
	cmp   Comparator
	globs []*Glob
}

func (c *globCtx) Match(value string) bool {
	for _, g := range c.globs {
		if g.Match(c.cmp, value) {
			return true
		}
	}
	return false
}
func (c *globCtx) Finalize() bool { return false }

// Regex implements ":regex" (draft-ietf-sieve-regex), an extension match
// type beyond the RFC 5228 trio, wired to exercise Go's stdlib regexp —
// no pack example depends on a third-party regex engine, and regexp is
// the idiom the whole corpus reaches for (server/address.go uses it for
// local-part/domain validation).
type Regex struct{}

func (Regex) Name() string { return "regex" }
func (Regex) Init(cmp Comparator, keys []string) Context {
	res := make([]*regexp.Regexp, 0, len(keys))
	for _, k := range keys {
		pattern := k
		if _, ok := cmp.(ASCIICasemap); ok {
			pattern = "(?i)" + pattern
		}
		if re, err := regexp.Compile(pattern); err == nil {
			res = append(res, re)
		}
	}
	return &regexCtx{res: res}
}

type regexCtx struct{ res []*regexp.Regexp }

func (c *regexCtx) Match(value string) bool {
	for _, re := range c.res {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
func (c *regexCtx) Finalize() bool { return false }

// Count implements ":count" (RFC 5231 relational extension, narrowed to
// its "count of matching headers" mode): it ignores per-value matches and
// compares the number of candidate values offered against keys (each key
// parsed as an integer threshold via the relational operator carried in
// the key string, e.g. "ge:3").
type Count struct{}

func (Count) Name() string { return "count" }
func (Count) Init(cmp Comparator, keys []string) Context {
	return &countCtx{keys: keys}
}

type countCtx struct {
	keys  []string
	count int
}

func (c *countCtx) Match(value string) bool {
	c.count++
	return false
}
func (c *countCtx) Finalize() bool {
	for _, k := range c.keys {
		if matchesCount(c.count, k) {
			return true
		}
	}
	return false
}

// Value implements a narrowed ":value" (RFC 5231): it reports whether any
// candidate value equals a key under the comparator; no relational
// operator is applied.
type Value struct{}

func (Value) Name() string { return "value" }
func (Value) Init(cmp Comparator, keys []string) Context {
	return &valueCtx{cmp: cmp, keys: keys}
}

type valueCtx struct {
	cmp    Comparator
	keys   []string
	values []string
}

func (c *valueCtx) Match(value string) bool {
	c.values = append(c.values, value)
	return false
}
func (c *valueCtx) Finalize() bool {
	for _, v := range c.values {
		for _, k := range c.keys {
			if c.cmp.Equals(v, k) {
				return true
			}
		}
	}
	return false
}

// MatchTypes returns the built-in match-type set, by name.
func MatchTypes() map[string]MatchType {
	return map[string]MatchType{
		"is":       Is{},
		"contains": Contains{},
		"matches":  Matches{},
		"regex":    Regex{},
		"count":    Count{},
		"value":    Value{},
	}
}

const DefaultMatchType = "is"

// matchesCount evaluates one ":count" key against the observed header
// count. A key has the form "op:N" (e.g. "ge:3", "eq:0"); an unrecognized
// or malformed key never matches rather than erroring; count keys are not
// checked at validate time.
func matchesCount(count int, key string) bool {
	op, numStr, ok := strings.Cut(key, ":")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return false
	}
	switch op {
	case "gt":
		return count > n
	case "ge":
		return count >= n
	case "lt":
		return count < n
	case "le":
		return count <= n
	case "eq":
		return count == n
	case "ne":
		return count != n
	default:
		return false
	}
}

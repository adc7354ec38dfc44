package core

import (
	"github.com/migadu/sieve/match"
	"github.com/migadu/sieve/registry"
)

// objects lists every comparator/match-type/address-part core
// contributes. Codes run on across the three classes, so every core
// object has a code of its own: an object tag carries only the extension
// and the code, and the interpreter resolves core objects by code alone.
var objects = buildObjects()

func buildObjects() []registry.Object {
	var out []registry.Object

	var code uint16
	for _, name := range []string{"i;octet", "i;ascii-casemap"} {
		out = append(out, registry.Object{Class: registry.ClassComparator, Name: name, Code: code, Payload: match.Comparators()[name]})
		code++
	}

	for _, name := range []string{"is", "contains", "matches", "count", "value", "regex"} {
		out = append(out, registry.Object{Class: registry.ClassMatchType, Name: name, Code: code, Payload: match.MatchTypes()[name]})
		code++
	}

	for _, name := range []string{"all", "localpart", "domain", "user", "detail"} {
		out = append(out, registry.Object{Class: registry.ClassAddressPart, Name: name, Code: code, Payload: match.AddressParts()[name]})
		code++
	}

	return out
}

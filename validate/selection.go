package validate

import "github.com/migadu/sieve/registry"

// Selection is the comparator x match-type x address-part triple chosen
// for one test argument, attached to the owning ast.Command's Data field
// at validate time. The generator and interpreter do not read it: the
// tags' optional-operand entries carry the choice into the binary. A
// test with no address-part (header) leaves AddressPart nil, and the
// tag hooks do not fill Keys.
type Selection struct {
	Comparator   *registry.Object
	MatchType    *registry.Object
	AddressPart  *registry.Object
	Keys         []string
}

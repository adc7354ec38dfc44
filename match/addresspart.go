package match

import "strings"

// DetailSeparator is the RFC 5233 subaddress separator ("+detail"),
// e.g. "user+work@example.com" has user "user" and detail "work".
const DetailSeparator = "+"

// AddressPart projects a full email address down to the slice a test
// actually compares against.
type AddressPart interface {
	Name() string
	Extract(address string) string
}

// ParsedAddress is a loosely-parsed "local-part@domain" address, split
// the way server/address.go's Address does for validated account
// addresses, generalized here to tolerate arbitrary message addresses
// (which need not be registered accounts) and to separate the
// RFC 5233 +detail suffix out of the local-part.
type ParsedAddress struct {
	LocalPart string
	Domain    string
}

// ParseAddress splits address into local-part and domain on the last '@',
// lower-casing neither (case folding is the comparator's job).
func ParseAddress(address string) ParsedAddress {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return ParsedAddress{LocalPart: address}
	}
	return ParsedAddress{LocalPart: address[:at], Domain: address[at+1:]}
}

// User returns the local-part with any +detail suffix stripped.
func (p ParsedAddress) User() string {
	if i := strings.Index(p.LocalPart, DetailSeparator); i >= 0 {
		return p.LocalPart[:i]
	}
	return p.LocalPart
}

// Detail returns the +detail suffix, or "" if the local-part carries none.
func (p ParsedAddress) Detail() string {
	i := strings.Index(p.LocalPart, DetailSeparator)
	if i < 0 {
		return ""
	}
	return p.LocalPart[i+len(DetailSeparator):]
}

// All returns the address unmodified.
type All struct{}

func (All) Name() string                { return "all" }
func (All) Extract(address string) string { return address }

// LocalPart returns everything before the last '@'.
type LocalPart struct{}

func (LocalPart) Name() string { return "localpart" }
func (LocalPart) Extract(address string) string {
	return ParseAddress(address).LocalPart
}

// Domain returns everything after the last '@'.
type Domain struct{}

func (Domain) Name() string { return "domain" }
func (Domain) Extract(address string) string {
	return ParseAddress(address).Domain
}

// User returns the local-part with any +detail suffix removed (RFC 5233).
type User struct{}

func (User) Name() string { return "user" }
func (User) Extract(address string) string {
	return ParseAddress(address).User()
}

// Detail returns the +detail suffix, or "" when the address carries none.
type Detail struct{}

func (Detail) Name() string { return "detail" }
func (Detail) Extract(address string) string {
	return ParseAddress(address).Detail()
}

// AddressParts returns the built-in address-part set, by name.
func AddressParts() map[string]AddressPart {
	return map[string]AddressPart{
		"all":       All{},
		"localpart": LocalPart{},
		"domain":    Domain{},
		"user":      User{},
		"detail":    Detail{},
	}
}

const DefaultAddressPart = "all"

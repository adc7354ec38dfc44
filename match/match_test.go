package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComparators(t *testing.T) {
	octet := Octet{}
	assert.True(t, octet.Equals("Foo", "Foo"))
	assert.False(t, octet.Equals("Foo", "foo"))
	assert.True(t, octet.Contains("Subject: FooBar", "FooBar"))

	casemap := ASCIICasemap{}
	assert.True(t, casemap.Equals("Foo", "foo"))
	assert.True(t, casemap.Contains("Subject: FooBar", "foobar"))
	assert.Equal(t, 0, casemap.Compare("ABC", "abc"))
}

func TestMatchTypeIs(t *testing.T) {
	ctx := Is{}.Init(ASCIICasemap{}, []string{"urgent", "important"})
	assert.True(t, ctx.Match("Important"))
	assert.False(t, ctx.Match("spam"))
}

func TestMatchTypeContains(t *testing.T) {
	ctx := Contains{}.Init(ASCIICasemap{}, []string{"invoice"})
	assert.True(t, ctx.Match("Your INVOICE is attached"))
	assert.False(t, ctx.Match("Your receipt is attached"))
}

func TestMatchTypeMatches(t *testing.T) {
	ctx := Matches{}.Init(ASCIICasemap{}, []string{"*@example.com"})
	assert.True(t, ctx.Match("user@example.com"))
	assert.False(t, ctx.Match("user@example.org"))
}

func TestMatchTypeCount(t *testing.T) {
	ctx := Count{}.Init(ASCIICasemap{}, []string{"ge:2"})
	ctx.Match("a")
	ctx.Match("b")
	assert.True(t, ctx.Finalize())

	ctx = Count{}.Init(ASCIICasemap{}, []string{"ge:3"})
	ctx.Match("a")
	ctx.Match("b")
	assert.False(t, ctx.Finalize())
}

func TestMatchTypeValue(t *testing.T) {
	ctx := Value{}.Init(ASCIICasemap{}, []string{"urgent"})
	ctx.Match("normal")
	ctx.Match("Urgent")
	assert.True(t, ctx.Finalize())
}

func TestAddressPartExtraction(t *testing.T) {
	addr := "user+work@example.com"
	assert.Equal(t, addr, All{}.Extract(addr))
	assert.Equal(t, "user+work", LocalPart{}.Extract(addr))
	assert.Equal(t, "example.com", Domain{}.Extract(addr))
	assert.Equal(t, "user", User{}.Extract(addr))
	assert.Equal(t, "work", Detail{}.Extract(addr))
}

func TestAddressPartNoDetail(t *testing.T) {
	addr := "user@example.com"
	assert.Equal(t, "user", User{}.Extract(addr))
	assert.Equal(t, "", Detail{}.Extract(addr))
}

func TestAddressPartNoAt(t *testing.T) {
	parsed := ParseAddress("not-an-address")
	assert.Equal(t, "not-an-address", parsed.LocalPart)
	assert.Equal(t, "", parsed.Domain)
}

func TestGlobMatch(t *testing.T) {
	cmp := ASCIICasemap{}
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"*@example.com", "joe@example.com", true},
		{"*@example.com", "joe@example.org", false},
		{"sub?ect", "subject", true},
		{"sub?ect", "subjject", false},
		{"*important*", "RE: important notice", true},
	}
	for _, tc := range tests {
		g := CompileGlob(tc.pattern)
		assert.Equal(t, tc.want, g.Match(cmp, tc.value), "pattern %q vs %q", tc.pattern, tc.value)
	}
}

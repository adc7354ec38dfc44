package registry

import (
	"fmt"
	"sync"

	"github.com/migadu/sieve/sieveerr"
)

// Table is the process-wide extension table: a quiescent-after-
// construction append-only list, built once and read by every
// concurrently running validator/generator/interpreter instance
// thereafter.
type Table struct {
	mu      sync.Mutex
	byName  map[string]*registered
	order   []*registered
	started bool
}

type registered struct {
	ext Extension
	id  int
}

// NewTable builds a registry containing the given extensions in
// registration order. Core is registered here like any other extension,
// under the name "core", and is found through Lookup("core"); its
// operations and objects carry "" as their extension name.
func NewTable(exts ...Extension) *Table {
	t := &Table{byName: make(map[string]*registered)}
	for _, e := range exts {
		t.Register(e)
	}
	return t
}

// Register adds ext to the table, assigning it the next dense id and
// invoking its Load hook. Panics if called after the table has started
// serving interpreters — registration is forbidden once the first
// interpreter has been constructed from it.
func (t *Table) Register(ext Extension) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		panic("registry: Register called after first interpreter construction")
	}
	if _, exists := t.byName[ext.Name()]; exists {
		return
	}
	id := len(t.order)
	r := &registered{ext: ext, id: id}
	t.order = append(t.order, r)
	t.byName[ext.Name()] = r
	ext.Load(id)
}

// markStarted is called by ResolveIndex, i.e. once the first interpreter
// is built or binary opened from this table, closing registration.
func (t *Table) markStarted() {
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()
}

// Lookup resolves an extension by name.
func (t *Table) Lookup(name string) (Extension, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return r.ext, true
}

// All returns every registered extension in registration order.
func (t *Table) All() []Extension {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Extension, len(t.order))
	for i, r := range t.order {
		out[i] = r.ext
	}
	return out
}

// ResolveIndex maps the binary's persisted extension names back to
// Extension instances current in this table, failing with
// ErrUnknownExtension if any name is no longer registered.
func (t *Table) ResolveIndex(names []string) ([]Extension, error) {
	t.markStarted()
	out := make([]Extension, len(names))
	for i, n := range names {
		ext, ok := t.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", sieveerr.ErrUnknownExtension, n)
		}
		out[i] = ext
	}
	return out, nil
}

// Package phase defines the processing pipeline a dirty node travels
// through: an ordered table of named phases, each with its own traversal
// policy (how a dirty base set expands across the dependency graph),
// interest set (the masks it listens on, resolved through a phase-router),
// and executor shape (one node at a time, or the whole settled batch at
// once).
package phase

import (
	"github.com/voodooEntity/reactor/internal/archivist"
	"github.com/voodooEntity/reactor/internal/graph"
	"github.com/voodooEntity/reactor/internal/pathmodel"
	"github.com/voodooEntity/reactor/internal/router"
)

// Kind selects how a phase's dirty nodes are delivered to its callback.
type Kind int

const (
	// Each invokes the phase callback once per dirty node, in ascending
	// priority-index order.
	Each Kind = iota
	// All collects every node the phase drains in one cycle and invokes
	// the phase callback once with the whole batch.
	All
)

// NodeFilter narrows which nodes a phase actually processes once the
// traversal policy has expanded the dirty base set.
type NodeFilter func(id int, nodeType string, meta interface{}) bool

// Definition names one stage of the pipeline. Routes lists the path masks
// this phase listens on; a mutation only reaches this phase's traversal
// and executor when at least one of these masks matches the mutated path.
type Definition struct {
	Name      string
	Kind      Kind
	Traversal graph.TraversalPolicy
	Routes    []string
	Filter    NodeFilter
}

// maxPhases bounds the pipeline to the width of the bitmask used for
// per-node phase-dedup.
const maxPhases = 64

// Table is an ordered, named registry of phase definitions, alongside the
// phase-router built from every definition's Routes. Definition order is
// registration order and doubles as bit position in the dedup bitmask
// handed to the scheduler.
type Table struct {
	defs   []Definition
	index  map[string]int
	routes *router.Router[string]
	seen   map[string]map[string]struct{}
	log    *archivist.Archivist
}

// NewTable returns an empty phase table.
func NewTable() *Table {
	return &Table{
		index:  make(map[string]int),
		routes: router.New[string](),
		seen:   make(map[string]map[string]struct{}),
		log:    archivist.New(&archivist.Config{LogLevel: archivist.LEVEL_WARNING}),
	}
}

// Define registers a phase, wires its routes into the phase-router, and
// returns its dedup bit. Re-defining a name already present only merges in
// any new routes and returns the existing bit.
func (t *Table) Define(d Definition) uint64 {
	if i, exists := t.index[d.Name]; exists {
		t.registerRoutes(d.Name, d.Routes)
		return uint64(1) << uint(i)
	}
	if len(t.defs) >= maxPhases {
		t.log.Warning("phase: dropping definition past the dedup bitmask width", d.Name, maxPhases)
		return 0
	}
	t.index[d.Name] = len(t.defs)
	t.defs = append(t.defs, d)
	t.registerRoutes(d.Name, d.Routes)
	return uint64(1) << uint(len(t.defs)-1)
}

// registerRoutes adds mask to the phase-router under name for every mask in
// routes, skipping (and logging once) any mask that canonicalizes to a form
// already registered under the same phase: a duplicate is a data-quality
// warning, not an error.
func (t *Table) registerRoutes(name string, routes []string) {
	canon := t.seen[name]
	if canon == nil {
		canon = make(map[string]struct{})
		t.seen[name] = canon
	}
	for _, mask := range routes {
		p, err := pathmodel.ParseCanonical(mask)
		if err != nil {
			continue
		}
		key := pathmodel.Serialize(p)
		if _, dup := canon[key]; dup {
			t.log.Warning("phase: duplicate route mask under phase", name, key)
			continue
		}
		canon[key] = struct{}{}
		t.routes.Add(mask, name)
	}
}

// MatchingPhases returns the set of phase names whose routes match pathStr.
func (t *Table) MatchingPhases(pathStr string) (map[string]struct{}, error) {
	return t.routes.Match(pathStr)
}

// BitFor returns name's dedup bit, or 0 if name was never defined.
func (t *Table) BitFor(name string) uint64 {
	i, ok := t.index[name]
	if !ok {
		return 0
	}
	return uint64(1) << uint(i)
}

// Get returns the definition registered under name.
func (t *Table) Get(name string) (Definition, bool) {
	i, ok := t.index[name]
	if !ok {
		return Definition{}, false
	}
	return t.defs[i], true
}

// Definitions returns every registered phase, in pipeline order.
func (t *Table) Definitions() []Definition {
	return t.defs
}

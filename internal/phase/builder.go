package phase

import "github.com/voodooEntity/reactor/internal/graph"

// Builder assembles a Table through a chained, return-self method style:
// each call configures one more piece of the pipeline and returns the
// builder for the next.
type Builder struct {
	table *Table
}

// NewBuilder starts an empty phase pipeline.
func NewBuilder() *Builder {
	return &Builder{table: NewTable()}
}

// Phase begins defining a new named phase.
func (b *Builder) Phase(name string) *PhaseBuilder {
	return &PhaseBuilder{parent: b, def: Definition{Name: name}}
}

// Build returns the assembled table.
func (b *Builder) Build() *Table {
	return b.table
}

// PhaseBuilder configures a single phase before it is committed back to
// its parent Builder with Done.
type PhaseBuilder struct {
	parent *Builder
	def    Definition
}

// Each marks the phase as invoking its callback once per dirty node.
func (p *PhaseBuilder) Each() *PhaseBuilder {
	p.def.Kind = Each
	return p
}

// All marks the phase as invoking its callback once with the whole batch.
func (p *PhaseBuilder) All() *PhaseBuilder {
	p.def.Kind = All
	return p
}

// Traversal sets how a dirty base set expands before this phase runs.
func (p *PhaseBuilder) Traversal(t graph.TraversalPolicy) *PhaseBuilder {
	p.def.Traversal = t
	return p
}

// Routes sets the path masks this phase listens on.
func (p *PhaseBuilder) Routes(masks ...string) *PhaseBuilder {
	p.def.Routes = masks
	return p
}

// Filter narrows which nodes this phase actually processes.
func (p *PhaseBuilder) Filter(f NodeFilter) *PhaseBuilder {
	p.def.Filter = f
	return p
}

// Done commits the phase to the parent Builder's table and returns it, so
// calls chain: NewBuilder().Phase("a")...Done().Phase("b")...Done().Build().
func (p *PhaseBuilder) Done() *Builder {
	p.parent.table.Define(p.def)
	return p.parent
}

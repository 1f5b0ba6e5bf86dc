// Package reactor is the engine's façade: it wires the path router, the
// dependency graph, the hierarchical data adapter, the phase table and the
// dirty-bucket scheduler into a single application object, and threads
// settled nodes through the reactivity registry's notify pipeline.
package reactor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/voodooEntity/reactor/internal/adapter"
	"github.com/voodooEntity/reactor/internal/archivist"
	"github.com/voodooEntity/reactor/internal/event"
	"github.com/voodooEntity/reactor/internal/graph"
	"github.com/voodooEntity/reactor/internal/pathmodel"
	"github.com/voodooEntity/reactor/internal/phase"
	"github.com/voodooEntity/reactor/internal/reactivity"
	"github.com/voodooEntity/reactor/internal/router"
	"github.com/voodooEntity/reactor/internal/scheduler"
)

// Metrics is the engine's read-only metrics surface.
type Metrics struct {
	UpdatesTotal        uint64
	EventsTotal         uint64
	NodesProcessedTotal uint64
	RouterCacheHits     int
	RouterCacheMisses   int
}

// Options configures a new App.
type Options struct {
	AdapterOptions adapter.Options
	Policy         scheduler.Policy
	MaxUPS         int
	Phases         []phase.Definition
	// PrimaryTypes ranks node types by preference when an All-phase batch
	// needs a single anchor for its settled-event witness signature.
	PrimaryTypes []string
}

// DefaultOptions matches DefaultOptions from internal/adapter and drains
// synchronously with a single "notify" each-phase stage routed on every
// path ("*"), the smallest pipeline that satisfies the notify contract on
// its own. MaxUPS defaults to 120 drains/second.
func DefaultOptions() Options {
	return Options{
		AdapterOptions: adapter.DefaultOptions(),
		Policy:         scheduler.PolicySync,
		MaxUPS:         120,
		Phases: []phase.Definition{
			{Name: "notify", Kind: phase.Each, Traversal: graph.TraversalDirtyAndUp, Routes: []string{"*"}},
		},
	}
}

// App is the engine root: one router, one graph, one document, one
// scheduler, driven from a handful of Track/Set/Merge/Delete calls.
type App struct {
	mu sync.Mutex

	Router     *router.Router[int]
	Graph      *graph.Graph
	Data       *adapter.Adapter
	Phases     *phase.Table
	Scheduler  *scheduler.Scheduler
	Reactivity *reactivity.Registry

	log         *archivist.Archivist
	nextNodeID  int
	externalIDs map[int]uuid.UUID
	tick        uint64
	metrics     Metrics
}

// New builds an App from opts.
func New(opts Options, log *archivist.Archivist) *App {
	if log == nil {
		log = archivist.New(&archivist.Config{LogLevel: archivist.LEVEL_WARNING})
	}
	table := phase.NewTable()
	defs := make([]scheduler.PhaseDef, len(opts.Phases))
	for i, d := range opts.Phases {
		bit := table.Define(d)
		kind := scheduler.ExecutorEach
		if d.Kind == phase.All {
			kind = scheduler.ExecutorAll
		}
		defs[i] = scheduler.PhaseDef{Name: d.Name, Bit: bit, Executor: kind}
	}

	app := &App{
		Router:      router.New[int](),
		Graph:       graph.New(),
		Data:        adapter.New(opts.AdapterOptions),
		Phases:      table,
		Reactivity:  reactivity.NewRegistry(),
		log:         log,
		externalIDs: make(map[int]uuid.UUID),
	}
	app.Reactivity.SetPrimaryTypes(opts.PrimaryTypes...)
	for i, d := range opts.Phases {
		def := d
		if def.Kind == phase.All {
			defs[i].All = app.allExecutor(def)
		} else {
			defs[i].Each = app.eachExecutor(def)
		}
	}
	app.Scheduler = scheduler.New(defs, opts.Policy, opts.MaxUPS, log)
	return app
}

func (a *App) eachExecutor(d phase.Definition) func(scheduler.NodeContext) {
	return func(ctx scheduler.NodeContext) {
		node, ok := a.Graph.GetNode(ctx.NodeID)
		if !ok {
			return
		}
		if d.Filter != nil && !d.Filter(node.ID, node.Type, node.Meta) {
			return
		}
		a.metrics.NodesProcessedTotal++
		a.Reactivity.Notify(a.tick, reactivity.Node{
			ID:     node.ID,
			Type:   node.Type,
			Meta:   node.Meta,
			Params: capturedParams(ctx.Events),
			Events: ctx.Events,
		})
		a.metrics.EventsTotal++
	}
}

func (a *App) allExecutor(d phase.Definition) func([]scheduler.NodeContext) {
	return func(ctxs []scheduler.NodeContext) {
		nodes := make([]reactivity.Node, 0, len(ctxs))
		for _, ctx := range ctxs {
			node, ok := a.Graph.GetNode(ctx.NodeID)
			if !ok {
				continue
			}
			if d.Filter != nil && !d.Filter(node.ID, node.Type, node.Meta) {
				continue
			}
			a.metrics.NodesProcessedTotal++
			nodes = append(nodes, reactivity.Node{
				ID:     node.ID,
				Type:   node.Type,
				Meta:   node.Meta,
				Params: capturedParams(ctx.Events),
				Events: ctx.Events,
			})
		}
		if len(nodes) == 0 {
			return
		}
		a.Reactivity.NotifyBatch(a.tick, nodes)
		a.metrics.EventsTotal++
	}
}

// capturedParams returns the most recent non-empty placeholder capture
// among events, or nil if none of them bound any.
func capturedParams(events []interface{}) map[string]interface{} {
	for i := len(events) - 1; i >= 0; i-- {
		if c, ok := events[i].(event.Capture); ok && len(c.Params) > 0 {
			return c.Params
		}
	}
	return nil
}

// RegisterNode adds a node to the dependency graph and returns its id. Every
// node also gets an external UUID that survives independently of the
// internal, process-local integer id, so a node can be named durably across
// restarts or handed to another system without leaking scheduler internals.
func (a *App) RegisterNode(nodeType string, weight int, meta interface{}) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextNodeID++
	id := a.nextNodeID
	a.Graph.AddNode(graph.Node{ID: id, Weight: weight, Type: nodeType, Meta: meta})
	a.externalIDs[id] = uuid.New()
	return id
}

// ExternalID returns the durable UUID minted for nodeID at RegisterNode
// time, or the zero UUID if nodeID is unknown.
func (a *App) ExternalID(nodeID int) uuid.UUID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.externalIDs[nodeID]
}

// DependOn records that childID depends on parentID (parentID -> childID
// in the DAG). It reports false, and logs a warning, if the graph rejects the
// edge (a self-loop, an unknown node id, or an edge that would create a
// cycle).
func (a *App) DependOn(parentID, childID int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	ok := a.Graph.AddEdge(parentID, childID)
	if !ok {
		a.log.Warning("reactor: dependency edge rejected", parentID, childID)
	}
	return ok
}

// Track registers nodeID as interested in any path matching mask.
func (a *App) Track(mask string, nodeID int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Router.Add(mask, nodeID)
}

// Untrack removes nodeID's interest in mask.
func (a *App) Untrack(mask string, nodeID int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Router.Remove(mask, nodeID)
}

// Get resolves pathStr against the document.
func (a *App) Get(pathStr string, vars map[string]interface{}) (interface{}, bool, error) {
	p, err := pathmodel.ParseCanonical(pathStr)
	if err != nil {
		return nil, false, err
	}
	return a.Data.Get(p, vars)
}

// Set writes value at pathStr and schedules every tracked node whose mask
// matches it (or a path below it) for processing.
func (a *App) Set(pathStr string, value interface{}, vars map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, err := pathmodel.ParseCanonical(pathStr)
	if err != nil {
		return err
	}
	if err := a.Data.Set(p, value, vars); err != nil {
		return err
	}
	a.metrics.UpdatesTotal++
	a.tick++
	a.markDirty(pathStr, p, vars)
	a.Scheduler.Flush()
	return nil
}

// Merge shallow-merges value at pathStr, otherwise behaving like Set.
func (a *App) Merge(pathStr string, value interface{}, vars map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, err := pathmodel.ParseCanonical(pathStr)
	if err != nil {
		return err
	}
	if err := a.Data.Merge(p, value, vars); err != nil {
		return err
	}
	a.metrics.UpdatesTotal++
	a.tick++
	a.markDirty(pathStr, p, vars)
	a.Scheduler.Flush()
	return nil
}

// Delete removes the value at pathStr and schedules dependents.
func (a *App) Delete(pathStr string, vars map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, err := pathmodel.ParseCanonical(pathStr)
	if err != nil {
		return err
	}
	if err := a.Data.Delete(p, vars); err != nil {
		return err
	}
	a.metrics.UpdatesTotal++
	a.tick++
	a.markDirty(pathStr, p, vars)
	a.Scheduler.Flush()
	return nil
}

// markDirty resolves the phase-router's set of phases interested in
// pathStr, resolves the node-router's base set of nodes tracking pathStr
// (or a mask below it) along with any placeholder values each tracked mask
// captured from the mutated path, and for each interested phase expands
// that base set per its own traversal policy, marking the result dirty at
// its priority index with the mutation's event attached. A phase whose
// routes don't match pathStr is skipped entirely: its traversal never runs
// and its executor never fires.
func (a *App) markDirty(pathStr string, p pathmodel.Path, vars map[string]interface{}) {
	interested, err := a.Phases.MatchingPhases(pathStr)
	if err != nil {
		a.log.Warning("reactor: failed resolving matching phases", err)
		return
	}
	if len(interested) == 0 {
		return
	}
	results, err := a.Router.MatchIncludingPrefixWithParams(pathStr)
	if err != nil {
		a.log.Warning("reactor: failed resolving dirty base set", err)
		return
	}
	if len(results) == 0 {
		return
	}
	baseSet := make(map[int]struct{}, len(results))
	nodeParams := make(map[int]map[string]interface{})
	for _, res := range results {
		baseSet[res.Payload] = struct{}{}
		if len(res.Params) > 0 {
			nodeParams[res.Payload] = res.Params
		}
	}

	ev := a.buildPhaseEvent(pathStr, p, vars)

	for _, def := range a.Phases.Definitions() {
		if _, ok := interested[def.Name]; !ok {
			continue
		}
		expanded := a.Graph.ExpandByTraversal(baseSet, def.Traversal)
		for id := range expanded {
			node, ok := a.Graph.GetNode(id)
			if !ok {
				continue
			}
			pi := scheduler.PriorityIndex(a.Graph.Depth(id), node.Weight)
			a.Scheduler.Dirty(id, pi, def.Name, event.Capture{Event: ev, Params: nodeParams[id]})
		}
	}
}

// buildPhaseEvent captures pathStr in its three forms plus the concrete
// value of every Param segment it addresses.
func (a *App) buildPhaseEvent(pathStr string, p pathmodel.Path, vars map[string]interface{}) event.PhaseEvent {
	return event.PhaseEvent{
		OriginalPath:  pathStr,
		CanonicalPath: pathmodel.Serialize(widenToWildcard(p)),
		Parsed:        p,
		Resolved:      buildResolvedEntries(a.Data, p, vars),
	}
}

// widenToWildcard replaces every Index and Param segment of p with an
// index wildcard, collapsing paths that only differ in which array element
// they addressed onto one canonical form.
func widenToWildcard(p pathmodel.Path) pathmodel.Path {
	segs := make([]pathmodel.Segment, len(p.Segments))
	for i, s := range p.Segments {
		switch s.Kind {
		case pathmodel.KindIndex, pathmodel.KindParam:
			segs[i] = pathmodel.Segment{Kind: pathmodel.KindWildcard, AsIndex: true}
		default:
			segs[i] = s
		}
	}
	return pathmodel.Path{Segments: segs}
}

// buildResolvedEntries walks p's Param segments and, for each, resolves the
// concrete container field, captured value and array index it addressed.
func buildResolvedEntries(data *adapter.Adapter, p pathmodel.Path, vars map[string]interface{}) []event.ResolvedEntry {
	var entries []event.ResolvedEntry
	for i, seg := range p.Segments {
		if seg.Kind != pathmodel.KindParam {
			continue
		}
		containerKey := ""
		if i > 0 && p.Segments[i-1].Kind == pathmodel.KindKey {
			containerKey = p.Segments[i-1].Key
		}
		sub := pathmodel.Path{Segments: p.Segments[:i+1]}
		entries = append(entries, event.ResolvedEntry{
			ContainerKey: containerKey,
			ParamKey:     seg.ParamKey,
			Value:        paramSegmentValue(seg, vars),
			Index:        data.IndexOf(sub, vars),
		})
	}
	return entries
}

// paramSegmentValue resolves a Param segment to its concrete value: the
// literal it carries, or vars[seg.PlaceholderName] when it names a
// placeholder.
func paramSegmentValue(seg pathmodel.Segment, vars map[string]interface{}) interface{} {
	if seg.ParamValueKind == pathmodel.ParamPlaceholder {
		return vars[seg.PlaceholderName]
	}
	switch seg.ParamValueKind {
	case pathmodel.ParamLiteralString:
		return seg.ParamString
	case pathmodel.ParamLiteralNumber:
		return seg.ParamNumber
	case pathmodel.ParamLiteralBool:
		return seg.ParamBool
	}
	return nil
}

// Metrics returns a snapshot of the engine's counters, including the
// router's cumulative cache hit/miss totals.
func (a *App) Metrics() Metrics {
	a.mu.Lock()
	m := a.metrics
	a.mu.Unlock()
	m.RouterCacheHits, m.RouterCacheMisses = a.Router.CacheStats()
	return m
}

package reactor

import (
	"testing"

	"github.com/google/uuid"

	"github.com/voodooEntity/reactor/internal/event"
	"github.com/voodooEntity/reactor/internal/graph"
	"github.com/voodooEntity/reactor/internal/phase"
	"github.com/voodooEntity/reactor/internal/reactivity"
)

func TestRegisterNodeAssignsDistinctExternalIDs(t *testing.T) {
	app := New(DefaultOptions(), nil)
	a := app.RegisterNode("watcher", 0, nil)
	b := app.RegisterNode("watcher", 0, nil)

	uuidA, uuidB := app.ExternalID(a), app.ExternalID(b)
	if uuidA == uuid.Nil || uuidB == uuid.Nil {
		t.Fatalf("expected non-nil external ids, got %v and %v", uuidA, uuidB)
	}
	if uuidA == uuidB {
		t.Fatalf("expected distinct external ids, both were %v", uuidA)
	}
	if app.ExternalID(999) != uuid.Nil {
		t.Fatalf("expected zero uuid for an unknown node id")
	}
}

func TestNotifiedNodeMatchesRegisteredMetadata(t *testing.T) {
	app := New(DefaultOptions(), nil)
	nodeID := app.RegisterNode("gate-watcher", 3, map[string]string{"leg": "0"})
	if err := app.Track("legs[0].gate", nodeID); err != nil {
		t.Fatal(err)
	}

	var got reactivity.Node
	app.Reactivity.Effect(nodeID, func(n reactivity.Node) { got = n })

	if err := app.Set("legs[0].gate", "A1", nil); err != nil {
		t.Fatal(err)
	}

	if got.ID != nodeID || got.Type != "gate-watcher" {
		t.Fatalf("notified node mismatch: got %+v", got)
	}
	if len(got.Events) != 1 {
		t.Fatalf("expected exactly one accumulated event, got %d", len(got.Events))
	}
	c, ok := got.Events[0].(event.Capture)
	if !ok || c.Event.OriginalPath != "legs[0].gate" {
		t.Fatalf("expected the notified node to carry the mutation's event, got %+v", got.Events[0])
	}
}

func TestSetNotifiesTrackedDependent(t *testing.T) {
	app := New(DefaultOptions(), nil)
	nodeID := app.RegisterNode("watcher", 0, "legs[0].gate watcher")
	if err := app.Track("legs[0].gate", nodeID); err != nil {
		t.Fatal(err)
	}

	var fired []reactivity.Node
	app.Reactivity.Effect(nodeID, func(n reactivity.Node) {
		fired = append(fired, n)
	})

	if err := app.Set("legs[0].gate", "A1", nil); err != nil {
		t.Fatal(err)
	}

	if len(fired) != 1 || fired[0].ID != nodeID {
		t.Fatalf("expected exactly one notify for node %d, got %v", nodeID, fired)
	}
}

func TestAnchorDedupsWithinOneUpdateBatch(t *testing.T) {
	app := New(Options{
		AdapterOptions: DefaultOptions().AdapterOptions,
		Policy:         DefaultOptions().Policy,
		Phases: []phase.Definition{
			{Name: "notify-a", Kind: phase.Each, Traversal: graph.TraversalDirtyAndUp, Routes: []string{"*"}},
			{Name: "notify-b", Kind: phase.Each, Traversal: graph.TraversalDirtyOnly, Routes: []string{"*"}},
		},
	}, nil)

	nodeID := app.RegisterNode("watcher", 0, nil)
	if err := app.Track("legs[0].gate", nodeID); err != nil {
		t.Fatal(err)
	}

	calls := 0
	app.Reactivity.Effect(nodeID, func(n reactivity.Node) { calls++ })

	if err := app.Set("legs[0].gate", "A1", nil); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected a single anchored notification across both phases, got %d", calls)
	}
}

func TestPhaseRoutingMissSkipsExecutor(t *testing.T) {
	app := New(Options{
		AdapterOptions: DefaultOptions().AdapterOptions,
		Policy:         DefaultOptions().Policy,
		Phases: []phase.Definition{
			{Name: "notify", Kind: phase.Each, Traversal: graph.TraversalDirtyAndUp, Routes: []string{"foo.*"}},
		},
	}, nil)

	nodeID := app.RegisterNode("watcher", 0, nil)
	if err := app.Track("com.*", nodeID); err != nil {
		t.Fatal(err)
	}

	calls := 0
	app.Reactivity.Effect(nodeID, func(n reactivity.Node) { calls++ })

	if err := app.Set("com.x", 1, nil); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatalf("expected the executor not to run when no phase route matches the path, got %d calls", calls)
	}
}

func TestAllPhaseAnchorsBatchOnPrimaryType(t *testing.T) {
	app := New(Options{
		AdapterOptions: DefaultOptions().AdapterOptions,
		Policy:         DefaultOptions().Policy,
		Phases: []phase.Definition{
			{Name: "settle", Kind: phase.All, Traversal: graph.TraversalDirtyAndUp, Routes: []string{"*"}},
		},
		PrimaryTypes: []string{"leg"},
	}, nil)

	watcher := app.RegisterNode("watcher", 0, nil)
	leg := app.RegisterNode("leg", 0, nil)
	if err := app.Track("legs[0].gate", watcher); err != nil {
		t.Fatal(err)
	}
	if err := app.Track("legs[0].gate", leg); err != nil {
		t.Fatal(err)
	}

	var anchored reactivity.Node
	calls := 0
	app.Reactivity.Effect(leg, func(n reactivity.Node) { anchored = n; calls++ })

	if err := app.Set("legs[0].gate", "A1", nil); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected the leg-anchored effect to fire once, got %d", calls)
	}
	if anchored.ID != leg {
		t.Fatalf("expected the settled batch to anchor on the leg node, got %+v", anchored)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	app := New(DefaultOptions(), nil)
	if err := app.Set("legs[0].id", "LEG-1", nil); err != nil {
		t.Fatal(err)
	}
	v, found, err := app.Get("legs[0].id", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !found || v != "LEG-1" {
		t.Fatalf("expected LEG-1, got %v found=%v", v, found)
	}
}

func TestMetricsCountUpdatesAndCacheStats(t *testing.T) {
	app := New(DefaultOptions(), nil)
	if err := app.Set("legs[0].id", "LEG-1", nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := app.Get("legs[0].id", nil); err != nil {
		t.Fatal(err)
	}
	m := app.Metrics()
	if m.UpdatesTotal != 1 {
		t.Fatalf("expected 1 update, got %d", m.UpdatesTotal)
	}
}

func TestWatchOnParamMaskCapturesMatchedID(t *testing.T) {
	opts := DefaultOptions()
	// Unthrottled, so the second Set drains inline instead of waiting for
	// the max_ups slot opened by the first one.
	opts.MaxUPS = 0
	app := New(opts, nil)
	nodeID := app.RegisterNode("leg-watcher", 0, nil)
	if err := app.Track("FLT_ARR.legs[id=$id].*", nodeID); err != nil {
		t.Fatal(err)
	}
	if err := app.Set("FLT_ARR.legs[id=1]", map[string]interface{}{"name": "a"}, nil); err != nil {
		t.Fatal(err)
	}

	var got reactivity.Node
	calls := 0
	app.Reactivity.Watch(nodeID, func(n reactivity.Node) { got = n; calls++ })

	if err := app.Set("FLT_ARR.legs[id=1].name", "b", nil); err != nil {
		t.Fatal(err)
	}

	if calls != 1 {
		t.Fatalf("expected the watch to fire once, got %d", calls)
	}
	if got.Params["id"] != float64(1) {
		t.Fatalf("expected the watch to observe captured id=1, got %v", got.Params)
	}
}

func TestDependOnRejectsCycle(t *testing.T) {
	app := New(DefaultOptions(), nil)
	a := app.RegisterNode("a", 0, nil)
	b := app.RegisterNode("b", 0, nil)
	if !app.DependOn(a, b) {
		t.Fatal("expected a->b to succeed")
	}
	if app.DependOn(b, a) {
		t.Fatal("expected b->a to be rejected as a cycle")
	}
}

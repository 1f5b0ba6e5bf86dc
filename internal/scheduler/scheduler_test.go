package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPriorityIndexOrdersByDepthThenWeight(t *testing.T) {
	shallow := PriorityIndex(0, 0)
	deep := PriorityIndex(1, 0)
	if shallow >= deep {
		t.Fatalf("expected shallower node to drain first: shallow=%d deep=%d", shallow, deep)
	}
	heavier := PriorityIndex(0, 10)
	lighter := PriorityIndex(0, 1)
	if heavier >= lighter {
		t.Fatalf("expected heavier weight to drain first within a depth band: heavier=%d lighter=%d", heavier, lighter)
	}
}

func TestSyncPolicyDrainsImmediately(t *testing.T) {
	var processed []int
	defs := []PhaseDef{{
		Name:     "notify",
		Bit:      1,
		Executor: ExecutorEach,
		Each:     func(ctx NodeContext) { processed = append(processed, ctx.NodeID) },
	}}
	s := New(defs, PolicySync, 0, nil)
	s.Dirty(7, PriorityIndex(0, 0), "notify", nil)
	if len(processed) != 1 || processed[0] != 7 {
		t.Fatalf("expected node 7 processed synchronously, got %v", processed)
	}
	if s.PendingCount() != 0 {
		t.Fatalf("expected empty queue after sync drain, got %d", s.PendingCount())
	}
}

func TestMicrotaskPolicyDefersUntilFlush(t *testing.T) {
	var processed []int
	defs := []PhaseDef{{
		Name:     "notify",
		Bit:      1,
		Executor: ExecutorEach,
		Each:     func(ctx NodeContext) { processed = append(processed, ctx.NodeID) },
	}}
	s := New(defs, PolicyMicrotask, 0, nil)
	s.Dirty(1, PriorityIndex(0, 0), "notify", nil)
	if len(processed) != 0 {
		t.Fatalf("expected no processing before Flush, got %v", processed)
	}
	s.Flush()
	if len(processed) != 1 {
		t.Fatalf("expected processing after Flush, got %v", processed)
	}
}

func TestDirtyDedupesSamePhaseMarking(t *testing.T) {
	calls := 0
	defs := []PhaseDef{{
		Name:     "notify",
		Bit:      1,
		Executor: ExecutorEach,
		Each:     func(ctx NodeContext) { calls++ },
	}}
	s := New(defs, PolicyMicrotask, 0, nil)
	s.Dirty(1, PriorityIndex(0, 0), "notify", nil)
	s.Dirty(1, PriorityIndex(0, 0), "notify", nil)
	s.Flush()
	if calls != 1 {
		t.Fatalf("expected a single dedup'd call, got %d", calls)
	}
}

func TestDirtyAccumulatesEventsAcrossDedupedMarkings(t *testing.T) {
	var got []interface{}
	defs := []PhaseDef{{
		Name:     "notify",
		Bit:      1,
		Executor: ExecutorEach,
		Each:     func(ctx NodeContext) { got = ctx.Events },
	}}
	s := New(defs, PolicyMicrotask, 0, nil)
	s.Dirty(1, PriorityIndex(0, 0), "notify", "first")
	s.Dirty(1, PriorityIndex(0, 0), "notify", "second")
	s.Flush()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("expected both events to accumulate despite the phase-bit dedup, got %v", got)
	}
}

func TestAscendingBucketDrainOrder(t *testing.T) {
	var order []int
	defs := []PhaseDef{{
		Name:     "notify",
		Bit:      1,
		Executor: ExecutorEach,
		Each:     func(ctx NodeContext) { order = append(order, ctx.NodeID) },
	}}
	s := New(defs, PolicyMicrotask, 0, nil)
	s.Dirty(30, PriorityIndex(3, 0), "notify", nil)
	s.Dirty(10, PriorityIndex(1, 0), "notify", nil)
	s.Dirty(20, PriorityIndex(2, 0), "notify", nil)
	s.Flush()
	want := []int{10, 20, 30}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected drain order %v, got %v", want, order)
		}
	}
}

func TestMaxUPSThrottleCoalescesRapidDrains(t *testing.T) {
	var processed int32
	defs := []PhaseDef{{
		Name:     "notify",
		Bit:      1,
		Executor: ExecutorEach,
		Each:     func(ctx NodeContext) { atomic.AddInt32(&processed, 1) },
	}}
	// 5/s -> a 200ms slot, comfortably longer than the burst below.
	s := New(defs, PolicySync, 5, nil)

	s.Dirty(0, PriorityIndex(0, 0), "notify", nil)
	s.Dirty(1, PriorityIndex(0, 0), "notify", nil)
	s.Dirty(2, PriorityIndex(0, 0), "notify", nil)

	if got := atomic.LoadInt32(&processed); got != 1 {
		t.Fatalf("expected only the first dirty to drain immediately under the throttle, got %d", got)
	}

	time.Sleep(250 * time.Millisecond)
	if got := atomic.LoadInt32(&processed); got != 3 {
		t.Fatalf("expected the coalesced drain to process the remaining nodes once the slot opened, got %d", got)
	}
}

func TestZeroMaxUPSIsUnbounded(t *testing.T) {
	var processed int32
	defs := []PhaseDef{{
		Name:     "notify",
		Bit:      1,
		Executor: ExecutorEach,
		Each:     func(ctx NodeContext) { atomic.AddInt32(&processed, 1) },
	}}
	s := New(defs, PolicySync, 0, nil)
	for i := 0; i < 5; i++ {
		s.Dirty(i, PriorityIndex(0, 0), "notify", nil)
	}
	if got := atomic.LoadInt32(&processed); got != 5 {
		t.Fatalf("expected every dirty to drain immediately with no throttle, got %d", got)
	}
}

func TestAllExecutorReceivesWholeBatch(t *testing.T) {
	var batches [][]NodeContext
	defs := []PhaseDef{{
		Name:     "settle",
		Bit:      1,
		Executor: ExecutorAll,
		All:      func(ctxs []NodeContext) { batches = append(batches, ctxs) },
	}}
	s := New(defs, PolicyMicrotask, 0, nil)
	s.Dirty(1, PriorityIndex(0, 0), "settle", nil)
	s.Dirty(2, PriorityIndex(0, 0), "settle", nil)
	s.Flush()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("expected one batch of two nodes, got %v", batches)
	}
}

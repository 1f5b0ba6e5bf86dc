// Package scheduler implements the dirty-bucket scheduler: dirty nodes are
// bucketed by a priority index derived from their graph depth and weight,
// drained in ascending bucket order through a small integer min-heap, and
// dispatched to per-phase executors under a pluggable timing policy, all
// subject to a max_ups wall-clock throttle on drain frequency.
package scheduler

import (
	"sync"
	"time"

	"github.com/voodooEntity/reactor/internal/archivist"
	"github.com/voodooEntity/reactor/internal/heap"
)

// PriorityScale spaces depth bands far enough apart that any plausible
// per-node weight only ever nudges a node within its own depth band, never
// across one, matching spec's "depth*SCALE - weight" ordering.
const PriorityScale = 1 << 20

// PriorityIndex computes the bucket key for a node at depth with weight.
// Lower depth drains first; within a depth band, higher weight drains
// first (a bigger weight subtracts more, giving a smaller index).
func PriorityIndex(depth, weight int) int {
	return depth*PriorityScale - weight
}

// Policy selects when a scheduler drains its dirty buckets.
type Policy int

const (
	// PolicySync drains immediately, inline with the Dirty call that
	// produced the marking.
	PolicySync Policy = iota
	// PolicyMicrotask defers draining until Flush is called, mirroring a
	// microtask queue flushing at the end of the current synchronous job.
	PolicyMicrotask
	// PolicyFrame drains only on the ticking loop started by
	// StartFrameLoop.
	PolicyFrame
)

// ExecutorKind selects how a phase's dirty nodes are delivered.
type ExecutorKind int

const (
	ExecutorEach ExecutorKind = iota
	ExecutorAll
)

// NodeContext is what a phase executor receives for one node: its id and
// every event accumulated for this phase since the node last drained.
type NodeContext struct {
	NodeID int
	Events []interface{}
}

// PhaseDef binds a named phase's dedup bit to its executor callbacks.
type PhaseDef struct {
	Name     string
	Bit      uint64
	Executor ExecutorKind
	Each     func(ctx NodeContext)
	All      func(ctxs []NodeContext)
}

// phaseQueue buckets one phase's dirty node ids by priority index and
// tracks which phase bits are still pending per node, so re-marking a node
// already dirty for this phase is a no-op. events accumulates every
// mutation event seen for a node this tick regardless of the bucket
// dedup, since a node can be marked several times before it drains.
type phaseQueue struct {
	buckets   map[int]map[int]struct{}
	occupied  map[int]bool
	order     *heap.IntHeap
	dirtyMask map[int]uint64
	events    map[int][]interface{}
}

func newPhaseQueue() *phaseQueue {
	return &phaseQueue{
		buckets:   make(map[int]map[int]struct{}),
		occupied:  make(map[int]bool),
		order:     heap.New(64),
		dirtyMask: make(map[int]uint64),
		events:    make(map[int][]interface{}),
	}
}

func (q *phaseQueue) mark(nodeID, priorityIndex int, bit uint64, ev interface{}) {
	if ev != nil {
		q.events[nodeID] = append(q.events[nodeID], ev)
	}
	if q.dirtyMask[nodeID]&bit != 0 {
		return
	}
	q.dirtyMask[nodeID] |= bit
	b := q.buckets[priorityIndex]
	if b == nil {
		b = make(map[int]struct{})
		q.buckets[priorityIndex] = b
	}
	b[nodeID] = struct{}{}
	if !q.occupied[priorityIndex] {
		q.occupied[priorityIndex] = true
		q.order.Push(priorityIndex)
	}
}

// takeEvents returns and clears the accumulated events for nodeID.
func (q *phaseQueue) takeEvents(nodeID int) []interface{} {
	ev := q.events[nodeID]
	delete(q.events, nodeID)
	return ev
}

func (q *phaseQueue) len() int {
	total := 0
	for _, b := range q.buckets {
		total += len(b)
	}
	return total
}

// drainOne pops one node id from the lowest occupied priority bucket.
func (q *phaseQueue) drainOne() (int, bool) {
	for q.order.Len() > 0 {
		top, _ := q.order.Peek()
		b := q.buckets[top]
		if len(b) == 0 {
			q.order.Pop()
			q.occupied[top] = false
			delete(q.buckets, top)
			continue
		}
		for id := range b {
			delete(b, id)
			if len(b) == 0 {
				q.order.Pop()
				q.occupied[top] = false
				delete(q.buckets, top)
			}
			return id, true
		}
	}
	return 0, false
}

func (q *phaseQueue) clear(nodeID int, bit uint64) {
	if m, ok := q.dirtyMask[nodeID]; ok {
		m &^= bit
		if m == 0 {
			delete(q.dirtyMask, nodeID)
		} else {
			q.dirtyMask[nodeID] = m
		}
	}
}

// Scheduler owns one phaseQueue per registered phase and drives them
// according to Policy, subject to a max_ups drain-rate throttle.
type Scheduler struct {
	mu      sync.Mutex
	phases  []PhaseDef
	queues  map[string]*phaseQueue
	policy  Policy
	maxUPS  int
	log     *archivist.Archivist
	pending bool

	minInterval   time.Duration
	lastDrain     time.Time
	coalesceTimer *time.Timer

	ticker *time.Ticker
	stopCh chan struct{}
}

// New builds a Scheduler over phases, using maxUPS<=0 to mean unbounded
// drain throughput and maxUPS>0 to cap drains at maxUPS per second.
func New(phases []PhaseDef, policy Policy, maxUPS int, log *archivist.Archivist) *Scheduler {
	queues := make(map[string]*phaseQueue, len(phases))
	for _, p := range phases {
		queues[p.Name] = newPhaseQueue()
	}
	var minInterval time.Duration
	if maxUPS > 0 {
		minInterval = time.Second / time.Duration(maxUPS)
	}
	return &Scheduler{phases: phases, queues: queues, policy: policy, maxUPS: maxUPS, log: log, minInterval: minInterval}
}

// Dirty marks nodeID dirty for phaseName at priorityIndex, appending ev (if
// non-nil) to the node's per-tick event list for this phase regardless of
// whether the phase bit was already set. Under PolicySync this drains as
// soon as the max_ups throttle allows; under PolicyMicrotask it only flags
// pending work for the next Flush; under PolicyFrame it waits for the
// ticking loop. A phaseName the scheduler does not know is logged and
// ignored.
func (s *Scheduler) Dirty(nodeID, priorityIndex int, phaseName string, ev interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pd := s.findPhase(phaseName)
	if pd == nil {
		if s.log != nil {
			s.log.Warning("scheduler: ignoring dirty mark for unknown phase", phaseName)
		}
		return
	}
	s.queues[phaseName].mark(nodeID, priorityIndex, pd.Bit, ev)
	switch s.policy {
	case PolicySync:
		s.tryDrainLocked()
	case PolicyMicrotask:
		s.pending = true
	}
}

// Flush drains pending work queued under PolicyMicrotask, subject to the
// max_ups throttle. It is a no-op under the other two policies.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy != PolicyMicrotask || !s.pending {
		return
	}
	s.pending = false
	s.tryDrainLocked()
}

// tryDrainLocked drains immediately if the max_ups throttle's slot is
// open; otherwise it schedules exactly one deferred drain for when the
// slot opens, so that further Dirty/Flush calls arriving within the wait
// coalesce into that single drain rather than each queuing their own.
// Caller must hold s.mu.
func (s *Scheduler) tryDrainLocked() {
	if s.minInterval <= 0 {
		s.drainLocked()
		s.lastDrain = time.Now()
		return
	}
	if s.lastDrain.IsZero() {
		s.drainLocked()
		s.lastDrain = time.Now()
		return
	}
	elapsed := time.Since(s.lastDrain)
	if elapsed >= s.minInterval {
		s.drainLocked()
		s.lastDrain = time.Now()
		return
	}
	if s.coalesceTimer != nil {
		return
	}
	wait := s.minInterval - elapsed
	s.coalesceTimer = time.AfterFunc(wait, func() {
		s.mu.Lock()
		s.coalesceTimer = nil
		s.drainLocked()
		s.lastDrain = time.Now()
		s.mu.Unlock()
	})
}

// drainLocked walks the pipeline in phase order, fully draining each
// phase's queue before moving to the next. Drain frequency, not batch
// size, is what max_ups throttles — see tryDrainLocked.
func (s *Scheduler) drainLocked() {
	for _, pd := range s.phases {
		q := s.queues[pd.Name]
		var batch []NodeContext
		for {
			id, ok := q.drainOne()
			if !ok {
				break
			}
			q.clear(id, pd.Bit)
			ctx := NodeContext{NodeID: id, Events: q.takeEvents(id)}
			if pd.Executor == ExecutorEach {
				if pd.Each != nil {
					pd.Each(ctx)
				}
				continue
			}
			batch = append(batch, ctx)
		}
		if pd.Executor == ExecutorAll && pd.All != nil && len(batch) > 0 {
			pd.All(batch)
		}
	}
}

// StartFrameLoop begins a ticking loop that drains every interval.
func (s *Scheduler) StartFrameLoop(interval time.Duration) {
	s.mu.Lock()
	if s.ticker != nil {
		s.mu.Unlock()
		return
	}
	s.ticker = time.NewTicker(interval)
	s.stopCh = make(chan struct{})
	ticker, stop := s.ticker, s.stopCh
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.tryDrainLocked()
				s.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// StopFrameLoop halts a running frame loop; it is a no-op if none is
// running.
func (s *Scheduler) StopFrameLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stopCh)
	s.ticker = nil
}

// PendingCount reports the total number of dirty node markings still
// queued across every phase.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, q := range s.queues {
		total += q.len()
	}
	return total
}

func (s *Scheduler) findPhase(name string) *PhaseDef {
	for i := range s.phases {
		if s.phases[i].Name == name {
			return &s.phases[i]
		}
	}
	return nil
}

// Package heap implements a small integer min-heap used by the dirty-bucket
// scheduler to order per-phase priority indices. It is a plain slice-backed
// binary heap with no container/heap interface indirection — the scheduler
// only ever needs int keys, so a direct implementation avoids the boxing
// container/heap requires.
package heap

// IntHeap is a reusable-capacity binary min-heap of int.
type IntHeap struct {
	data []int
}

// New returns an empty heap with the given initial capacity reserved.
func New(capacityHint int) *IntHeap {
	return &IntHeap{data: make([]int, 0, capacityHint)}
}

// Len returns the number of elements currently in the heap.
func (h *IntHeap) Len() int { return len(h.data) }

// Reset empties the heap while keeping its backing array, so the next burst
// of Push calls does not reallocate.
func (h *IntHeap) Reset() {
	h.data = h.data[:0]
}

// Build replaces the heap's contents with values, heapifying in O(n) via
// Floyd's method instead of n sequential Push calls.
func (h *IntHeap) Build(values []int) {
	if cap(h.data) < len(values) {
		h.data = make([]int, len(values))
	} else {
		h.data = h.data[:len(values)]
	}
	copy(h.data, values)
	for i := len(h.data)/2 - 1; i >= 0; i-- {
		h.siftDown(i)
	}
}

// Push inserts v into the heap.
func (h *IntHeap) Push(v int) {
	h.data = append(h.data, v)
	h.siftUp(len(h.data) - 1)
}

// Peek returns the minimum element without removing it.
func (h *IntHeap) Peek() (int, bool) {
	if len(h.data) == 0 {
		return 0, false
	}
	return h.data[0], true
}

// Pop removes and returns the minimum element.
func (h *IntHeap) Pop() (int, bool) {
	if len(h.data) == 0 {
		return 0, false
	}
	top := h.data[0]
	last := len(h.data) - 1
	h.data[0] = h.data[last]
	h.data = h.data[:last]
	if len(h.data) > 0 {
		h.siftDown(0)
	}
	return top, true
}

// ReplaceTop pops the minimum and pushes v in a single rebalance, cheaper
// than a Pop followed by a Push when the caller already knows the
// replacement value (e.g. draining one bucket and immediately reinserting
// the next occupied priority index).
func (h *IntHeap) ReplaceTop(v int) (int, bool) {
	if len(h.data) == 0 {
		h.Push(v)
		return 0, false
	}
	top := h.data[0]
	h.data[0] = v
	h.siftDown(0)
	return top, true
}

func (h *IntHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.data[parent] <= h.data[i] {
			break
		}
		h.data[parent], h.data[i] = h.data[i], h.data[parent]
		i = parent
	}
}

func (h *IntHeap) siftDown(i int) {
	n := len(h.data)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && h.data[left] < h.data[smallest] {
			smallest = left
		}
		if right < n && h.data[right] < h.data[smallest] {
			smallest = right
		}
		if smallest == i {
			return
		}
		h.data[i], h.data[smallest] = h.data[smallest], h.data[i]
		i = smallest
	}
}

package graph

import "testing"

func TestDepthIncrementsFromParent(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: 1})
	g.AddNode(Node{ID: 2})
	g.AddNode(Node{ID: 3})
	if !g.AddEdge(1, 2) {
		t.Fatal("expected edge 1->2 to succeed")
	}
	if !g.AddEdge(2, 3) {
		t.Fatal("expected edge 2->3 to succeed")
	}
	if g.Depth(1) != 0 || g.Depth(2) != 1 || g.Depth(3) != 2 {
		t.Fatalf("unexpected depths: 1=%d 2=%d 3=%d", g.Depth(1), g.Depth(2), g.Depth(3))
	}
}

func TestAddEdgeRejectsCycle(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: 1})
	g.AddNode(Node{ID: 2})
	g.AddEdge(1, 2)
	if g.AddEdge(2, 1) {
		t.Fatal("expected cycle-forming edge to be rejected")
	}
}

func TestAddEdgeRejectsSelfLoop(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: 1})
	if g.AddEdge(1, 1) {
		t.Fatal("expected self-loop to be rejected")
	}
}

func TestRemoveNodePromotesOrphanedChildToRoot(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: 1})
	g.AddNode(Node{ID: 2})
	g.AddEdge(1, 2)
	g.RemoveNode(1)
	roots := g.Roots()
	if _, ok := roots[2]; !ok {
		t.Fatalf("expected node 2 to become a root, got %v", roots)
	}
	if g.Depth(2) != 0 {
		t.Fatalf("expected node 2 depth to reset to 0, got %d", g.Depth(2))
	}
}

func TestExpandByTraversalDirtyAndDown(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: 1})
	g.AddNode(Node{ID: 2})
	g.AddNode(Node{ID: 3})
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)

	out := g.ExpandByTraversal(map[int]struct{}{1: {}}, TraversalDirtyAndDown)
	for _, id := range []int{1, 2, 3} {
		if _, ok := out[id]; !ok {
			t.Fatalf("expected node %d in dirty-and-down closure, got %v", id, out)
		}
	}
}

func TestExpandByTraversalDirtyAndUp(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: 1})
	g.AddNode(Node{ID: 2})
	g.AddNode(Node{ID: 3})
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)

	out := g.ExpandByTraversal(map[int]struct{}{3: {}}, TraversalDirtyAndUp)
	for _, id := range []int{1, 2, 3} {
		if _, ok := out[id]; !ok {
			t.Fatalf("expected node %d in dirty-and-up closure, got %v", id, out)
		}
	}
}

func TestDepthCascadeStopsWhenUnchanged(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: 1})
	g.AddNode(Node{ID: 2})
	g.AddNode(Node{ID: 3})
	g.AddNode(Node{ID: 4})
	g.AddEdge(1, 3)
	g.AddEdge(2, 3)
	g.AddEdge(3, 4)
	if g.Depth(3) != 1 || g.Depth(4) != 2 {
		t.Fatalf("unexpected initial depths: 3=%d 4=%d", g.Depth(3), g.Depth(4))
	}
	// Adding a third parent of equal depth to node 3 should not change its
	// depth (still max(depth(1), depth(2), depth(5))+1 == 1) or cascade further.
	g.AddNode(Node{ID: 5})
	g.AddEdge(5, 3)
	if g.Depth(3) != 1 || g.Depth(4) != 2 {
		t.Fatalf("depth should not change from an equal-depth parent: 3=%d 4=%d", g.Depth(3), g.Depth(4))
	}
}

// Package event describes what actually changed inside one mutation call,
// so a phase executor can inspect a diff rather than just a dirtied node
// id. A single PhaseEvent is built once per Set/Merge/Delete and shared
// across every node that mutation dirties; per-node capture (which
// placeholder bound to which value for a given tracked mask) travels
// alongside it rather than inside it, since the same event reaches nodes
// tracked through different masks with different captures.
package event

import "github.com/voodooEntity/reactor/internal/pathmodel"

// ResolvedEntry pins down one Param segment of the path a mutation touched:
// which container field held the array, which param key was addressed,
// what value it carried, and the array index it resolved to.
type ResolvedEntry struct {
	ContainerKey string
	ParamKey     string
	Value        interface{}
	Index        int
}

// PhaseEvent carries the path a mutation touched, in three forms, plus the
// concrete value of every Param segment along it.
type PhaseEvent struct {
	// OriginalPath is the exact string passed to Set/Merge/Delete.
	OriginalPath string
	// CanonicalPath is OriginalPath with every Index and Param segment
	// widened to an index wildcard, so events from "legs[0].gate" and
	// "legs[1].gate" share one canonical form.
	CanonicalPath string
	// Parsed is OriginalPath's parsed segment sequence.
	Parsed pathmodel.Path
	// Resolved holds one entry per Param segment in Parsed, in path order.
	Resolved []ResolvedEntry
}

// Capture is the per-node placeholder binding produced by matching a
// mutated path against one of a node's tracked masks.
type Capture struct {
	Event  PhaseEvent
	Params map[string]interface{}
}

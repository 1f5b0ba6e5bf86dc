// Package adapter implements the hierarchical data adapter: a tree of
// maps, ordered sequences and leaves, addressed by the same path language
// the router matches masks against, with an optional lazy secondary index
// over parameterised array lookups.
package adapter

import (
	"strconv"
	"sync"

	"github.com/voodooEntity/reactor/internal/pathmodel"
)

// Array is an ordered sequence. It is always referenced through a pointer
// so identity survives being embedded inside a map or another Array —
// the secondary index keys off that pointer identity.
type Array struct {
	Items []any
}

// ArrayDeletePolicy selects how deleting an Index or Param segment affects
// the host array's remaining element order.
type ArrayDeletePolicy int

const (
	// ArraySplice removes the element and shifts everything after it down
	// by one, and wholesale-invalidates the array's secondary index.
	ArraySplice ArrayDeletePolicy = iota
	// ArrayUnset sets the element to nil in place, leaving a hole and every
	// other element's index unchanged.
	ArrayUnset
)

// IndexStrategy selects how the secondary array index is populated.
type IndexStrategy int

const (
	// IndexLazyKey builds the index for one field key only the first time
	// that key is queried against a given array.
	IndexLazyKey IndexStrategy = iota
	// IndexEagerAllKeys builds the index for every scalar field of every
	// element the first time any param lookup touches the array.
	IndexEagerAllKeys
)

// Options configures adapter behaviour.
type Options struct {
	AutoCreate    bool
	ArrayDelete   ArrayDeletePolicy
	IndexEnabled  bool
	IndexStrategy IndexStrategy
}

// DefaultOptions builds missing structure on write rather than rejecting
// it, and defaults array-delete to unset and the index-build strategy to
// eager-all-keys.
func DefaultOptions() Options {
	return Options{
		AutoCreate:    true,
		ArrayDelete:   ArrayUnset,
		IndexEnabled:  true,
		IndexStrategy: IndexEagerAllKeys,
	}
}

type arrayIndex struct {
	buckets    map[string]map[string]int
	builtKeys  map[string]bool
	eagerBuilt bool
}

// Adapter owns a single hierarchical document plus its secondary index
// bookkeeping. Every exported method holds the adapter's own mutex for its
// duration; Merge releases it between its read and its fallback Set, so a
// Merge is not atomic with respect to other writers.
type Adapter struct {
	mu       sync.Mutex
	root     any
	opts     Options
	secIndex map[*Array]*arrayIndex
}

// New returns an adapter over an empty document.
func New(opts Options) *Adapter {
	return &Adapter{opts: opts, secIndex: make(map[*Array]*arrayIndex)}
}

// Root returns the current root value (map[string]any, *Array, a leaf, or
// nil for an empty document).
func (a *Adapter) Root() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.root
}

// ref is a settable location inside the document: the adapter root itself,
// one key of a map, or one index of an Array. Every container in the
// document is a reference type (map or *Array pointer) so only the
// outermost root needs this indirection to be replaceable in place.
type ref interface {
	Get() any
	Set(any)
}

type rootRef struct{ a *Adapter }

func (r *rootRef) Get() any  { return r.a.root }
func (r *rootRef) Set(v any) { r.a.root = v }

type mapRef struct {
	m   map[string]any
	key string
}

func (r *mapRef) Get() any  { return r.m[r.key] }
func (r *mapRef) Set(v any) { r.m[r.key] = v }

type arrayRef struct {
	arr *Array
	idx int
}

func (r *arrayRef) Get() any {
	if r.idx < 0 || r.idx >= len(r.arr.Items) {
		return nil
	}
	return r.arr.Items[r.idx]
}
func (r *arrayRef) Set(v any) {
	if r.idx >= 0 && r.idx < len(r.arr.Items) {
		r.arr.Items[r.idx] = v
	}
}

func zeroContainerFor(next pathmodel.Segment) any {
	switch next.Kind {
	case pathmodel.KindKey:
		return map[string]any{}
	case pathmodel.KindIndex, pathmodel.KindParam:
		return &Array{}
	default:
		return nil
	}
}

func resolveKeyName(seg pathmodel.Segment, vars map[string]any) string {
	key := seg.Key
	if len(key) > 0 && key[0] == '$' {
		if v, ok := vars[key[1:]]; ok {
			return toKeyString(v)
		}
	}
	return key
}

func toKeyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func paramFieldValue(seg pathmodel.Segment, vars map[string]any) any {
	if seg.ParamValueKind == pathmodel.ParamPlaceholder {
		if v, ok := vars[seg.PlaceholderName]; ok {
			return v
		}
		return nil
	}
	return literalValue(seg)
}

func literalValue(seg pathmodel.Segment) any {
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

func toIndexAny(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), t == float64(int(t))
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	}
	return 0, false
}

func isSimple(v any) bool {
	switch v.(type) {
	case string, float64, int, bool:
		return true
	}
	return false
}

func encodeValueKey(v any) string {
	switch t := v.(type) {
	case string:
		return "s:" + t
	case float64:
		return "n:" + strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return "n:" + strconv.FormatFloat(float64(t), 'g', -1, 64)
	case bool:
		if t {
			return "b:true"
		}
		return "b:false"
	default:
		return "o:"
	}
}

func valuesEqual(a, b any) bool {
	return encodeValueKey(a) == encodeValueKey(b)
}

func ensureLen(arr *Array, n int) {
	for len(arr.Items) < n {
		arr.Items = append(arr.Items, nil)
	}
}

// Package router implements the parameterised pattern trie: register path
// masks with an arbitrary comparable payload, then match a concrete path
// against every registered mask, optionally capturing placeholder
// parameters. Compiled match results are cached (matchCache/prefixCache
// and their params-carrying counterparts) behind a version counter that
// invalidates on the next Add/Remove.
package router

import (
	"sync"

	"github.com/voodooEntity/reactor/internal/pathmodel"
)

type paramAnyChild[P comparable] struct {
	child   *trieNode[P]
	varName string
}

type trieNode[P comparable] struct {
	exact    map[string]*trieNode[P]
	wc       *trieNode[P]
	param    map[string]map[string]*trieNode[P]
	paramAny map[string]*paramAnyChild[P]
	end      map[P]struct{}
	deep     map[P]struct{}
}

func newTrieNode[P comparable]() *trieNode[P] {
	return &trieNode[P]{}
}

// MatchResult pairs a matched payload with the parameters captured while
// descending through placeholder segments.
type MatchResult[P comparable] struct {
	Payload P
	Params  map[string]interface{}
}

const cacheCap = 2048
const clearCacheEveryNBumps = 1024

type versioned[T any] struct {
	version uint64
	value   T
}

// Router is a parameterised pattern trie over payload type P. It is safe
// for concurrent use.
type Router[P comparable] struct {
	mu      sync.Mutex
	root    *trieNode[P]
	version uint64
	bumps   uint64

	segCache          map[string]pathmodel.Path
	matchCache        map[string]versioned[map[P]struct{}]
	matchParamsCache  map[string][]versioned0[P]
	prefixCache       map[string]versioned[map[P]struct{}]
	prefixParamsCache map[string][]versioned0[P]

	hits   int
	misses int
}

// versioned0 avoids storing a slice inside `versioned[T]` generically in a
// way Go's type inference struggles with; it is functionally identical to
// versioned[[]MatchResult[P]].
type versioned0[P comparable] struct {
	version uint64
	results []MatchResult[P]
}

// New returns an empty Router.
func New[P comparable]() *Router[P] {
	return &Router[P]{
		root:              newTrieNode[P](),
		segCache:          make(map[string]pathmodel.Path),
		matchCache:        make(map[string]versioned[map[P]struct{}]),
		matchParamsCache:  make(map[string][]versioned0[P]),
		prefixCache:       make(map[string]versioned[map[P]struct{}]),
		prefixParamsCache: make(map[string][]versioned0[P]),
	}
}

func (r *Router[P]) parseCached(s string) (pathmodel.Path, error) {
	if p, ok := r.segCache[s]; ok {
		return p, nil
	}
	p, err := pathmodel.Parse(s, pathmodel.ParseOptions{})
	if err != nil {
		return pathmodel.Path{}, err
	}
	if len(r.segCache) >= cacheCap {
		r.segCache = make(map[string]pathmodel.Path)
	}
	r.segCache[s] = p
	return p, nil
}

func (r *Router[P]) bumpVersion() {
	r.version++
	r.bumps++
	if r.bumps%clearCacheEveryNBumps == 0 {
		r.matchCache = make(map[string]versioned[map[P]struct{}])
		r.matchParamsCache = make(map[string][]versioned0[P])
		r.prefixCache = make(map[string]versioned[map[P]struct{}])
		r.prefixParamsCache = make(map[string][]versioned0[P])
	}
}

// Add registers payload under mask. Adding the same (mask, payload) pair
// twice is idempotent at the set level.
func (r *Router[P]) Add(mask string, payload P) error {
	path, err := pathmodel.Parse(mask, pathmodel.ParseOptions{})
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.root
	segs := path.Segments
	terminated := false
	for i, seg := range segs {
		if seg.Kind == pathmodel.KindWildcard && !seg.AsIndex && seg.Deep && i == len(segs)-1 {
			addTo(node, &node.deep, payload)
			terminated = true
			break
		}
		node = descendOrCreate(node, seg)
	}
	if !terminated {
		addTo(node, &node.end, payload)
	}
	r.bumpVersion()
	return nil
}

func addTo[P comparable](node *trieNode[P], set *map[P]struct{}, payload P) {
	if *set == nil {
		*set = make(map[P]struct{})
	}
	(*set)[payload] = struct{}{}
}

func descendOrCreate[P comparable](node *trieNode[P], seg pathmodel.Segment) *trieNode[P] {
	switch seg.Kind {
	case pathmodel.KindKey, pathmodel.KindIndex:
		token := pathmodel.EncodeToken(seg)
		if node.exact == nil {
			node.exact = make(map[string]*trieNode[P])
		}
		child, ok := node.exact[token]
		if !ok {
			child = newTrieNode[P]()
			node.exact[token] = child
		}
		return child
	case pathmodel.KindWildcard:
		if node.wc == nil {
			node.wc = newTrieNode[P]()
		}
		return node.wc
	case pathmodel.KindParam:
		if seg.ParamValueKind == pathmodel.ParamPlaceholder {
			if node.paramAny == nil {
				node.paramAny = make(map[string]*paramAnyChild[P])
			}
			pa, ok := node.paramAny[seg.ParamKey]
			if !ok {
				pa = &paramAnyChild[P]{child: newTrieNode[P](), varName: seg.PlaceholderName}
				node.paramAny[seg.ParamKey] = pa
			}
			return pa.child
		}
		token := pathmodel.EncodeToken(seg)
		if node.param == nil {
			node.param = make(map[string]map[string]*trieNode[P])
		}
		m, ok := node.param[seg.ParamKey]
		if !ok {
			m = make(map[string]*trieNode[P])
			node.param[seg.ParamKey] = m
		}
		child, ok := m[token]
		if !ok {
			child = newTrieNode[P]()
			m[token] = child
		}
		return child
	}
	return node
}

// descend walks without creating; returns nil if the mask has no
// corresponding structural path in the trie.
func descend[P comparable](node *trieNode[P], seg pathmodel.Segment) *trieNode[P] {
	switch seg.Kind {
	case pathmodel.KindKey, pathmodel.KindIndex:
		if node.exact == nil {
			return nil
		}
		return node.exact[pathmodel.EncodeToken(seg)]
	case pathmodel.KindWildcard:
		return node.wc
	case pathmodel.KindParam:
		if seg.ParamValueKind == pathmodel.ParamPlaceholder {
			if node.paramAny == nil {
				return nil
			}
			pa, ok := node.paramAny[seg.ParamKey]
			if !ok {
				return nil
			}
			return pa.child
		}
		if node.param == nil {
			return nil
		}
		m, ok := node.param[seg.ParamKey]
		if !ok {
			return nil
		}
		return m[pathmodel.EncodeToken(seg)]
	}
	return nil
}

// Remove removes a single payload from the mask's terminal registration
// (end, or deep for a deep mask). Absence is a no-op.
func (r *Router[P]) Remove(mask string, payload P) error {
	path, err := pathmodel.Parse(mask, pathmodel.ParseOptions{})
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.root
	segs := path.Segments
	deep := false
	for i, seg := range segs {
		if seg.Kind == pathmodel.KindWildcard && !seg.AsIndex && seg.Deep && i == len(segs)-1 {
			deep = true
			break
		}
		node = descend(node, seg)
		if node == nil {
			return nil
		}
	}
	set := &node.end
	if deep {
		set = &node.deep
	}
	if *set != nil {
		delete(*set, payload)
		if len(*set) == 0 {
			*set = nil
		}
	}
	r.bumpVersion()
	return nil
}

// RemoveMask clears the entire payload set registered at mask's terminal
// position.
func (r *Router[P]) RemoveMask(mask string) error {
	path, err := pathmodel.Parse(mask, pathmodel.ParseOptions{})
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.root
	segs := path.Segments
	deep := false
	for i, seg := range segs {
		if seg.Kind == pathmodel.KindWildcard && !seg.AsIndex && seg.Deep && i == len(segs)-1 {
			deep = true
			break
		}
		node = descend(node, seg)
		if node == nil {
			return nil
		}
	}
	if deep {
		node.deep = nil
	} else {
		node.end = nil
	}
	r.bumpVersion()
	return nil
}

// RemovePayload removes p from every end/deep set in the trie.
func (r *Router[P]) RemovePayload(p P) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var walk func(n *trieNode[P])
	walk = func(n *trieNode[P]) {
		if n == nil {
			return
		}
		if n.end != nil {
			delete(n.end, p)
		}
		if n.deep != nil {
			delete(n.deep, p)
		}
		for _, c := range n.exact {
			walk(c)
		}
		walk(n.wc)
		for _, m := range n.param {
			for _, c := range m {
				walk(c)
			}
		}
		for _, pa := range n.paramAny {
			walk(pa.child)
		}
	}
	walk(r.root)
	r.bumpVersion()
}

// CacheStats reports cumulative cache hit/miss counters, exposed on the
// metrics surface as router:cache_hits / router:cache_misses.
func (r *Router[P]) CacheStats() (hits, misses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits, r.misses
}

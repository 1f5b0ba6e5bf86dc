package router

import (
	"strconv"

	"github.com/voodooEntity/reactor/internal/pathmodel"
)

// Match returns the set of payloads registered under any mask matching
// path.
func (r *Router[P]) Match(path string) (map[P]struct{}, error) {
	target, err := pathmodel.ParseCanonical(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if cached, ok := r.matchCache[path]; ok && cached.version == r.version {
		r.hits++
		r.mu.Unlock()
		return cloneSet(cached.value), nil
	}
	r.misses++
	root := r.root
	version := r.version
	r.mu.Unlock()

	out := make(map[P]struct{})
	var results []MatchResult[P]
	r.walk(root, target.Segments, 0, nil, false, &results)
	for _, res := range results {
		out[res.Payload] = struct{}{}
	}

	r.mu.Lock()
	if version == r.version {
		if len(r.matchCache) >= cacheCap {
			r.matchCache = make(map[string]versioned[map[P]struct{}])
		}
		r.matchCache[path] = versioned[map[P]struct{}]{version: version, value: cloneSet(out)}
	}
	r.mu.Unlock()
	return out, nil
}

// MatchWithParams returns every (payload, captured-params) pair for masks
// matching path.
func (r *Router[P]) MatchWithParams(path string) ([]MatchResult[P], error) {
	target, err := pathmodel.ParseCanonical(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if cached, ok := r.matchParamsCache[path]; ok {
		for _, v := range cached {
			if v.version == r.version {
				r.hits++
				r.mu.Unlock()
				return cloneResults(v.results), nil
			}
		}
	}
	r.misses++
	root := r.root
	version := r.version
	r.mu.Unlock()

	var results []MatchResult[P]
	r.walk(root, target.Segments, 0, nil, false, &results)
	results = dedupeResults(results)

	r.mu.Lock()
	if version == r.version {
		if len(r.matchParamsCache) >= cacheCap {
			r.matchParamsCache = make(map[string][]versioned0[P])
		}
		r.matchParamsCache[path] = []versioned0[P]{{version: version, results: cloneResults(results)}}
	}
	r.mu.Unlock()
	return results, nil
}

// MatchIncludingPrefix returns Match(path) union every payload registered
// strictly below path in the trie.
func (r *Router[P]) MatchIncludingPrefix(path string) (map[P]struct{}, error) {
	target, err := pathmodel.ParseCanonical(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if cached, ok := r.prefixCache[path]; ok && cached.version == r.version {
		r.hits++
		r.mu.Unlock()
		return cloneSet(cached.value), nil
	}
	r.misses++
	root := r.root
	version := r.version
	r.mu.Unlock()

	var results []MatchResult[P]
	r.walk(root, target.Segments, 0, nil, true, &results)
	out := make(map[P]struct{})
	for _, res := range results {
		out[res.Payload] = struct{}{}
	}

	r.mu.Lock()
	if version == r.version {
		if len(r.prefixCache) >= cacheCap {
			r.prefixCache = make(map[string]versioned[map[P]struct{}])
		}
		r.prefixCache[path] = versioned[map[P]struct{}]{version: version, value: cloneSet(out)}
	}
	r.mu.Unlock()
	return out, nil
}

// MatchIncludingPrefixWithParams is MatchIncludingPrefix threading captured
// params, deduplicated by (payload identity, params).
func (r *Router[P]) MatchIncludingPrefixWithParams(path string) ([]MatchResult[P], error) {
	target, err := pathmodel.ParseCanonical(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if cached, ok := r.prefixParamsCache[path]; ok {
		for _, v := range cached {
			if v.version == r.version {
				r.hits++
				r.mu.Unlock()
				return cloneResults(v.results), nil
			}
		}
	}
	r.misses++
	root := r.root
	version := r.version
	r.mu.Unlock()

	var results []MatchResult[P]
	r.walk(root, target.Segments, 0, nil, true, &results)
	results = dedupeResults(results)

	r.mu.Lock()
	if version == r.version {
		if len(r.prefixParamsCache) >= cacheCap {
			r.prefixParamsCache = make(map[string][]versioned0[P])
		}
		r.prefixParamsCache[path] = []versioned0[P]{{version: version, results: cloneResults(results)}}
	}
	r.mu.Unlock()
	return results, nil
}

// CollectByPrefix walks only exact/param-literal steps (never wc) and
// returns the union of end+deep payloads of the subtree rooted at the
// arrival node. Any wildcard segment in prefix yields an empty result.
func (r *Router[P]) CollectByPrefix(prefix string) (map[P]struct{}, error) {
	target, err := pathmodel.ParseCanonical(prefix)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.root
	for _, seg := range target.Segments {
		if seg.Kind == pathmodel.KindWildcard {
			return map[P]struct{}{}, nil
		}
		if seg.Kind == pathmodel.KindParam && seg.ParamValueKind == pathmodel.ParamPlaceholder {
			return map[P]struct{}{}, nil
		}
		var next *trieNode[P]
		switch seg.Kind {
		case pathmodel.KindKey, pathmodel.KindIndex:
			if node.exact != nil {
				next = node.exact[pathmodel.EncodeToken(seg)]
			}
		case pathmodel.KindParam:
			if node.param != nil {
				if m, ok := node.param[seg.ParamKey]; ok {
					next = m[pathmodel.EncodeToken(seg)]
				}
			}
		}
		if next == nil {
			return map[P]struct{}{}, nil
		}
		node = next
	}

	out := make(map[P]struct{})
	var results []MatchResult[P]
	collectChildren(node, nil, &results, true)
	for _, res := range results {
		out[res.Payload] = struct{}{}
	}
	return out, nil
}

// walk is a cursor DFS over the trie: at every visited node it accumulates
// deep payloads unconditionally, and end payloads once the cursor has
// consumed every target segment. When collectBelow is set (the
// MatchIncludingPrefix* variants), reaching the end of the target also
// collects every payload registered anywhere in the subtree below the
// arrival node.
func (r *Router[P]) walk(node *trieNode[P], segs []pathmodel.Segment, idx int, params map[string]interface{}, collectBelow bool, out *[]MatchResult[P]) {
	if node == nil {
		return
	}
	for p := range node.deep {
		*out = append(*out, MatchResult[P]{Payload: p, Params: params})
	}

	if idx == len(segs) {
		for p := range node.end {
			*out = append(*out, MatchResult[P]{Payload: p, Params: params})
		}
		if collectBelow {
			collectChildren(node, params, out, false)
		}
		return
	}

	seg := segs[idx]

	if seg.Kind == pathmodel.KindKey || seg.Kind == pathmodel.KindIndex {
		if node.exact != nil {
			if child, ok := node.exact[pathmodel.EncodeToken(seg)]; ok {
				r.walk(child, segs, idx+1, params, collectBelow, out)
			}
		}
	}

	if node.wc != nil {
		r.walk(node.wc, segs, idx+1, params, collectBelow, out)
	}

	if seg.Kind == pathmodel.KindParam {
		if node.param != nil {
			if m, ok := node.param[seg.ParamKey]; ok {
				if child, ok := m[pathmodel.EncodeToken(seg)]; ok {
					r.walk(child, segs, idx+1, params, collectBelow, out)
				}
			}
		}
		if node.paramAny != nil {
			if pa, ok := node.paramAny[seg.ParamKey]; ok {
				r.walk(pa.child, segs, idx+1, extend(params, pa.varName, paramValue(seg)), collectBelow, out)
			}
		}
	}

	if seg.Kind == pathmodel.KindIndex {
		if node.paramAny != nil {
			if pa, ok := node.paramAny["$index"]; ok {
				r.walk(pa.child, segs, idx+1, extend(params, pa.varName, seg.Index), collectBelow, out)
			}
		}
	}
}

// collectChildren walks every child of node (and node itself only when
// includeSelf is set), collecting end+deep payloads without binding any new
// placeholder variables — variables captured deeper than a prefix remain
// unbound.
func collectChildren[P comparable](node *trieNode[P], params map[string]interface{}, out *[]MatchResult[P], includeSelf bool) {
	if node == nil {
		return
	}
	var walk func(n *trieNode[P])
	walk = func(n *trieNode[P]) {
		for p := range n.end {
			*out = append(*out, MatchResult[P]{Payload: p, Params: params})
		}
		for p := range n.deep {
			*out = append(*out, MatchResult[P]{Payload: p, Params: params})
		}
		for _, c := range n.exact {
			walk(c)
		}
		if n.wc != nil {
			walk(n.wc)
		}
		for _, m := range n.param {
			for _, c := range m {
				walk(c)
			}
		}
		for _, pa := range n.paramAny {
			walk(pa.child)
		}
	}
	if includeSelf {
		walk(node)
		return
	}
	for _, c := range node.exact {
		walk(c)
	}
	if node.wc != nil {
		walk(node.wc)
	}
	for _, m := range node.param {
		for _, c := range m {
			walk(c)
		}
	}
	for _, pa := range node.paramAny {
		walk(pa.child)
	}
}

func paramValue(seg pathmodel.Segment) interface{} {
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

func extend(params map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out[key] = value
	return out
}

func cloneSet[P comparable](in map[P]struct{}) map[P]struct{} {
	out := make(map[P]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func cloneResults[P comparable](in []MatchResult[P]) []MatchResult[P] {
	out := make([]MatchResult[P], len(in))
	copy(out, in)
	return out
}

func dedupeResults[P comparable](in []MatchResult[P]) []MatchResult[P] {
	type key struct {
		payload P
		sig     string
	}
	seen := make(map[key]struct{}, len(in))
	out := make([]MatchResult[P], 0, len(in))
	for _, r := range in {
		k := key{payload: r.Payload, sig: paramsSignature(r.Params)}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func paramsSignature(params map[string]interface{}) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	// simple insertion sort; param maps are tiny (one entry per placeholder
	// segment in a path, realistically single digits)
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	sig := ""
	for _, k := range keys {
		sig += k + "=" + toString(params[k]) + ";"
	}
	return sig
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return "s:" + t
	case float64:
		return "n:" + formatFloat(t)
	case bool:
		if t {
			return "b:true"
		}
		return "b:false"
	case int:
		return "n:" + formatFloat(float64(t))
	default:
		return "?"
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

package pathmodel

import "sync"

// cacheCap bounds the parse/segment caches; on overflow the whole cache is
// cleared rather than evicting individual entries (§4.1 "size-capped with
// wholesale eviction when capped").
const cacheCap = 4096

type pathCache struct {
	mu sync.Mutex
	m  map[string]Path
}

func newPathCache() *pathCache {
	return &pathCache{m: make(map[string]Path, 256)}
}

func (c *pathCache) get(key string) (Path, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.m[key]
	return p, ok
}

func (c *pathCache) put(key string, p Path) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m) >= cacheCap {
		c.m = make(map[string]Path, 256)
	}
	c.m[key] = p
}

// parseCache memoizes ParseCanonical (vars-free, non-dynamic parses),
// shared by the router for canonical mask/target lookups.
var parseCache = newPathCache()

// ParseCanonical parses s with no variable resolution, the form used for
// concrete target paths flowing through the router and dirty pipeline.
// Results are cached; a structural change to the input caching semantics
// never applies here since there is no "structure" to invalidate — only
// the cache's own size cap matters.
func ParseCanonical(s string) (Path, error) {
	if p, ok := parseCache.get(s); ok {
		return p, nil
	}
	p, err := Parse(s, ParseOptions{})
	if err != nil {
		return Path{}, err
	}
	parseCache.put(s, p)
	return p, nil
}

// ClearCaches resets the package-level parse cache. Exposed for tests.
func ClearCaches() {
	parseCache = newPathCache()
}

package adapter

import "github.com/voodooEntity/reactor/internal/pathmodel"

// resolveParamIndex finds the position of the array element a Param
// segment addresses, using the secondary index when enabled and falling
// back to a linear scan otherwise.
func (a *Adapter) resolveParamIndex(arr *Array, seg pathmodel.Segment, vars map[string]any) int {
	if seg.IsIndexPlaceholder() {
		v, ok := vars[seg.PlaceholderName]
		if !ok {
			return -1
		}
		idx, ok := toIndexAny(v)
		if !ok || idx < 0 || idx >= len(arr.Items) {
			return -1
		}
		return idx
	}

	key := seg.ParamKey
	value := paramFieldValue(seg, vars)
	if seg.ParamValueKind == pathmodel.ParamPlaceholder && value == nil {
		return -1
	}

	if a.opts.IndexEnabled {
		a.ensureIndexBuilt(arr, key)
		if idx, ok := a.indexLookup(arr, key, value); ok {
			return idx
		}
		return -1
	}

	for i, item := range arr.Items {
		if m, ok := item.(map[string]any); ok {
			if fv, ok2 := m[key]; ok2 && valuesEqual(fv, value) {
				return i
			}
		}
	}
	return -1
}

func (a *Adapter) ensureIndexBuilt(arr *Array, key string) {
	idx := a.secIndex[arr]
	if idx == nil {
		idx = &arrayIndex{buckets: map[string]map[string]int{}, builtKeys: map[string]bool{}}
		a.secIndex[arr] = idx
	}
	switch a.opts.IndexStrategy {
	case IndexEagerAllKeys:
		if idx.eagerBuilt {
			return
		}
		for i, item := range arr.Items {
			if m, ok := item.(map[string]any); ok {
				for k, v := range m {
					if isSimple(v) {
						addBucket(idx, k, v, i)
					}
				}
			}
		}
		idx.eagerBuilt = true
	default: // IndexLazyKey
		if idx.builtKeys[key] {
			return
		}
		for i, item := range arr.Items {
			if m, ok := item.(map[string]any); ok {
				if v, ok2 := m[key]; ok2 && isSimple(v) {
					addBucket(idx, key, v, i)
				}
			}
		}
		idx.builtKeys[key] = true
	}
}

func addBucket(idx *arrayIndex, key string, value any, i int) {
	b := idx.buckets[key]
	if b == nil {
		b = map[string]int{}
		idx.buckets[key] = b
	}
	b[encodeValueKey(value)] = i
}

func (a *Adapter) indexLookup(arr *Array, key string, value any) (int, bool) {
	idx := a.secIndex[arr]
	if idx == nil {
		return -1, false
	}
	b := idx.buckets[key]
	if b == nil {
		return -1, false
	}
	i, ok := b[encodeValueKey(value)]
	return i, ok
}

func (a *Adapter) indexUpsert(arr *Array, key string, value any, i int) {
	if !a.opts.IndexEnabled || i < 0 {
		return
	}
	idx := a.secIndex[arr]
	if idx == nil {
		idx = &arrayIndex{buckets: map[string]map[string]int{}, builtKeys: map[string]bool{}}
		a.secIndex[arr] = idx
	}
	addBucket(idx, key, value, i)
	idx.builtKeys[key] = true
}

// invalidateArrayWholesale drops the entire secondary index for arr: any
// mutation that changes element positions (splice) or replaces an element
// wholesale by numeric Index makes the index unsafe to trust incrementally.
func (a *Adapter) invalidateArrayWholesale(arr *Array) {
	delete(a.secIndex, arr)
}

// invalidateValueUnset drops a single bucket entry after an ArrayUnset
// delete, since that element's position is still valid for everyone else
// but no longer holds this value.
func (a *Adapter) invalidateValueUnset(arr *Array, key string, value any) {
	idx := a.secIndex[arr]
	if idx == nil {
		return
	}
	b := idx.buckets[key]
	if b == nil {
		return
	}
	delete(b, encodeValueKey(value))
}

// invalidateItemUnset drops the bucket entry for every simple-valued field
// of item, mirroring invalidateValueUnset across a whole removed element
// rather than a single known key.
func (a *Adapter) invalidateItemUnset(arr *Array, item any) {
	m, ok := item.(map[string]any)
	if !ok {
		return
	}
	for k, v := range m {
		if isSimple(v) {
			a.invalidateValueUnset(arr, k, v)
		}
	}
}

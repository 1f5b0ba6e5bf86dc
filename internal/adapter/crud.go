package adapter

import "github.com/voodooEntity/reactor/internal/pathmodel"

// Get resolves path against the document. found is false whenever any step
// along the way is absent; that is never an error. Wildcard segments and a
// Param segment landing on a non-sequence are hard errors.
func (a *Adapter) Get(path pathmodel.Path, vars map[string]any) (any, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.get(path, vars)
}

func (a *Adapter) get(path pathmodel.Path, vars map[string]any) (any, bool, error) {
	for _, s := range path.Segments {
		if s.Kind == pathmodel.KindWildcard {
			return nil, false, ErrWildcardInCRUD
		}
	}
	cursor := a.root
	for _, seg := range path.Segments {
		switch seg.Kind {
		case pathmodel.KindKey:
			m, ok := cursor.(map[string]any)
			if !ok {
				return nil, false, nil
			}
			v, ok := m[resolveKeyName(seg, vars)]
			if !ok {
				return nil, false, nil
			}
			cursor = v
		case pathmodel.KindIndex:
			arr, ok := cursor.(*Array)
			if !ok {
				return nil, false, nil
			}
			if seg.Index < 0 || seg.Index >= len(arr.Items) {
				return nil, false, nil
			}
			cursor = arr.Items[seg.Index]
		case pathmodel.KindWildcard:
			return nil, false, ErrWildcardInCRUD
		case pathmodel.KindParam:
			arr, ok := cursor.(*Array)
			if !ok {
				return nil, false, ErrParamOnNonSequence
			}
			idx := a.resolveParamIndex(arr, seg, vars)
			if idx < 0 {
				return nil, false, nil
			}
			cursor = arr.Items[idx]
		}
	}
	return cursor, true, nil
}

// Set writes value at path, auto-creating missing intermediate containers
// when Options.AutoCreate is set (the default), or failing with
// ErrMissingContainer/ErrParamElementAbsent otherwise.
func (a *Adapter) Set(path pathmodel.Path, value any, vars map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	segs := path.Segments
	if len(segs) == 0 {
		a.root = value
		return nil
	}
	for _, s := range segs {
		if s.Kind == pathmodel.KindWildcard {
			return ErrWildcardInCRUD
		}
	}

	var cur ref = &rootRef{a: a}
	for i := 0; i < len(segs)-1; i++ {
		nr, err := a.step(cur, segs[i], segs[i+1], vars)
		if err != nil {
			return err
		}
		cur = nr
	}
	return a.setLeaf(cur, segs[len(segs)-1], value, vars)
}

// step descends one segment, auto-creating the container this segment
// addresses (a map for the next Key, an *Array for the next Index/Param) if
// it is missing and AutoCreate is set.
func (a *Adapter) step(cur ref, seg, next pathmodel.Segment, vars map[string]any) (ref, error) {
	switch seg.Kind {
	case pathmodel.KindKey:
		key := resolveKeyName(seg, vars)
		m, ok := cur.Get().(map[string]any)
		if !ok {
			if !a.opts.AutoCreate {
				return nil, ErrMissingContainer
			}
			m = map[string]any{}
			cur.Set(m)
		}
		if _, exists := m[key]; !exists {
			if !a.opts.AutoCreate {
				return nil, ErrMissingContainer
			}
			m[key] = zeroContainerFor(next)
		}
		return &mapRef{m: m, key: key}, nil

	case pathmodel.KindIndex:
		arr, ok := cur.Get().(*Array)
		if !ok {
			if !a.opts.AutoCreate {
				return nil, ErrMissingContainer
			}
			arr = &Array{}
			cur.Set(arr)
		}
		ensureLen(arr, seg.Index+1)
		if arr.Items[seg.Index] == nil {
			arr.Items[seg.Index] = zeroContainerFor(next)
		}
		return &arrayRef{arr: arr, idx: seg.Index}, nil

	case pathmodel.KindParam:
		arr, ok := cur.Get().(*Array)
		if !ok {
			if !a.opts.AutoCreate {
				return nil, ErrMissingContainer
			}
			arr = &Array{}
			cur.Set(arr)
		}
		idx := a.resolveParamIndex(arr, seg, vars)
		if idx < 0 {
			if !a.opts.AutoCreate {
				return nil, ErrParamElementAbsent
			}
			fieldVal := paramFieldValue(seg, vars)
			elem := map[string]any{seg.ParamKey: fieldVal}
			arr.Items = append(arr.Items, elem)
			idx = len(arr.Items) - 1
			a.indexUpsert(arr, seg.ParamKey, fieldVal, idx)
		}
		return &arrayRef{arr: arr, idx: idx}, nil
	}
	return nil, ErrMissingContainer
}

func (a *Adapter) setLeaf(cur ref, seg pathmodel.Segment, value any, vars map[string]any) error {
	switch seg.Kind {
	case pathmodel.KindKey:
		key := resolveKeyName(seg, vars)
		m, ok := cur.Get().(map[string]any)
		if !ok {
			if !a.opts.AutoCreate {
				return ErrMissingContainer
			}
			m = map[string]any{}
			cur.Set(m)
		}
		m[key] = value

	case pathmodel.KindIndex:
		arr, ok := cur.Get().(*Array)
		if !ok {
			if !a.opts.AutoCreate {
				return ErrMissingContainer
			}
			arr = &Array{}
			cur.Set(arr)
		}
		ensureLen(arr, seg.Index+1)
		arr.Items[seg.Index] = value
		a.invalidateArrayWholesale(arr)

	case pathmodel.KindParam:
		arr, ok := cur.Get().(*Array)
		if !ok {
			return ErrParamOnNonSequence
		}
		valMap, ok := value.(map[string]any)
		if !ok {
			return ErrParamLeafNotMapping
		}
		fieldVal := paramFieldValue(seg, vars)
		idx := a.resolveParamIndex(arr, seg, vars)
		if idx < 0 {
			if !a.opts.AutoCreate {
				return ErrParamElementAbsent
			}
			elem := make(map[string]any, len(valMap)+1)
			for k, v := range valMap {
				elem[k] = v
			}
			elem[seg.ParamKey] = fieldVal
			arr.Items = append(arr.Items, elem)
			idx = len(arr.Items) - 1
		} else {
			existing, ok := arr.Items[idx].(map[string]any)
			if !ok {
				return ErrParamLeafNotMapping
			}
			for k := range existing {
				delete(existing, k)
			}
			for k, v := range valMap {
				existing[k] = v
			}
			existing[seg.ParamKey] = fieldVal
		}
		a.indexUpsert(arr, seg.ParamKey, fieldVal, idx)
	}
	return nil
}

// stepReadOnly descends one segment without ever creating structure,
// reporting false the moment any step is absent.
func (a *Adapter) stepReadOnly(cur ref, seg pathmodel.Segment, vars map[string]any) (ref, bool) {
	switch seg.Kind {
	case pathmodel.KindKey:
		m, ok := cur.Get().(map[string]any)
		if !ok {
			return nil, false
		}
		key := resolveKeyName(seg, vars)
		if _, exists := m[key]; !exists {
			return nil, false
		}
		return &mapRef{m: m, key: key}, true
	case pathmodel.KindIndex:
		arr, ok := cur.Get().(*Array)
		if !ok || seg.Index < 0 || seg.Index >= len(arr.Items) {
			return nil, false
		}
		return &arrayRef{arr: arr, idx: seg.Index}, true
	case pathmodel.KindParam:
		arr, ok := cur.Get().(*Array)
		if !ok {
			return nil, false
		}
		idx := a.resolveParamIndex(arr, seg, vars)
		if idx < 0 {
			return nil, false
		}
		return &arrayRef{arr: arr, idx: idx}, true
	}
	return nil, false
}

// Merge shallow-merges value's keys into the existing mapping at path when
// both the current value and value are mappings; otherwise it behaves like
// Set.
func (a *Adapter) Merge(path pathmodel.Path, value any, vars map[string]any) error {
	a.mu.Lock()
	current, found, err := a.get(path, vars)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	curMap, curIsMap := current.(map[string]any)
	valMap, valIsMap := value.(map[string]any)
	if found && curIsMap && valIsMap {
		for k, v := range valMap {
			curMap[k] = v
		}
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()
	return a.Set(path, value, vars)
}

// Delete removes the value addressed by path. A path that cannot be
// resolved is a silent no-op; a wildcard segment, or a final Param segment
// whose host is not a sequence, is a hard error.
func (a *Adapter) Delete(path pathmodel.Path, vars map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	segs := path.Segments
	if len(segs) == 0 {
		a.root = nil
		return nil
	}
	for _, s := range segs {
		if s.Kind == pathmodel.KindWildcard {
			return ErrWildcardInCRUD
		}
	}

	var cur ref = &rootRef{a: a}
	for i := 0; i < len(segs)-1; i++ {
		nr, ok := a.stepReadOnly(cur, segs[i], vars)
		if !ok {
			return nil
		}
		cur = nr
	}

	last := segs[len(segs)-1]
	switch last.Kind {
	case pathmodel.KindKey:
		m, ok := cur.Get().(map[string]any)
		if !ok {
			return nil
		}
		delete(m, resolveKeyName(last, vars))

	case pathmodel.KindIndex:
		arr, ok := cur.Get().(*Array)
		if !ok || last.Index < 0 || last.Index >= len(arr.Items) {
			return nil
		}
		switch a.opts.ArrayDelete {
		case ArraySplice:
			arr.Items = append(arr.Items[:last.Index], arr.Items[last.Index+1:]...)
			a.invalidateArrayWholesale(arr)
		case ArrayUnset:
			removed := arr.Items[last.Index]
			arr.Items[last.Index] = nil
			a.invalidateItemUnset(arr, removed)
		}

	case pathmodel.KindParam:
		arr, ok := cur.Get().(*Array)
		if !ok {
			return ErrParamOnNonSequence
		}
		idx := a.resolveParamIndex(arr, last, vars)
		if idx < 0 {
			return nil
		}
		fieldVal := paramFieldValue(last, vars)
		switch a.opts.ArrayDelete {
		case ArraySplice:
			arr.Items = append(arr.Items[:idx], arr.Items[idx+1:]...)
			a.invalidateArrayWholesale(arr)
		case ArrayUnset:
			arr.Items[idx] = nil
			a.invalidateValueUnset(arr, last.ParamKey, fieldVal)
		}
	}
	return nil
}

// IndexOf resolves the array position the final Index/Param segment of
// path addresses. It never errors: an unresolved path, a wildcard-terminal
// path, or a non-sequence host all report -1.
func (a *Adapter) IndexOf(path pathmodel.Path, vars map[string]any) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(path.Segments) == 0 {
		return -1
	}
	segs := path.Segments
	last := segs[len(segs)-1]
	if last.Kind == pathmodel.KindWildcard {
		return -1
	}

	var cur ref = &rootRef{a: a}
	for i := 0; i < len(segs)-1; i++ {
		nr, ok := a.stepReadOnly(cur, segs[i], vars)
		if !ok {
			return -1
		}
		cur = nr
	}

	switch last.Kind {
	case pathmodel.KindIndex:
		arr, ok := cur.Get().(*Array)
		if !ok || last.Index < 0 || last.Index >= len(arr.Items) {
			return -1
		}
		return last.Index
	case pathmodel.KindParam:
		arr, ok := cur.Get().(*Array)
		if !ok {
			return -1
		}
		return a.resolveParamIndex(arr, last, vars)
	default:
		return -1
	}
}

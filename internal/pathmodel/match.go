package pathmodel

// Match performs stepwise mask/target comparison. It does not support
// placeholder params in the mask: a mask segment carrying a placeholder
// always reports no match here rather than panicking. Placeholder-capable
// matching is the trie router's job (see the router package's
// Match/MatchWithParams).
func Match(mask, target Path) bool {
	m, t := mask.Segments, target.Segments
	i, j := 0, 0
	for i < len(m) {
		seg := m[i]
		if seg.Kind == KindWildcard && !seg.AsIndex && seg.Deep {
			// Deep key-wildcard: matches any remaining tail, including empty.
			return true
		}
		if j >= len(t) {
			return false
		}
		tseg := t[j]
		switch seg.Kind {
		case KindKey:
			if tseg.Kind != KindKey || tseg.Key != seg.Key {
				return false
			}
		case KindIndex:
			if tseg.Kind != KindIndex || tseg.Index != seg.Index {
				return false
			}
		case KindWildcard:
			// Non-deep wildcard (key- or index-form) matches any one
			// segment of any kind.
		case KindParam:
			if seg.ParamValueKind == ParamPlaceholder {
				return false
			}
			if tseg.Kind != KindParam || tseg.ParamKey != seg.ParamKey {
				return false
			}
			if !paramValuesEqual(seg, tseg) {
				return false
			}
		}
		i++
		j++
	}
	return j == len(t)
}

func paramValuesEqual(a, b Segment) bool {
	if a.ParamValueKind == ParamPlaceholder || b.ParamValueKind == ParamPlaceholder {
		return false
	}
	if a.ParamValueKind != b.ParamValueKind {
		return false
	}
	switch a.ParamValueKind {
	case ParamLiteralString:
		return a.ParamString == b.ParamString
	case ParamLiteralNumber:
		return a.ParamNumber == b.ParamNumber
	case ParamLiteralBool:
		return a.ParamBool == b.ParamBool
	}
	return false
}

package pathmodel

// Path is an ordered sequence of segments, e.g. the parsed form of
// "rows[id=$id].name".
type Path struct {
	Segments []Segment
}

// Len is the number of segments.
func (p Path) Len() int { return len(p.Segments) }

// Last returns the final segment and true, or the zero Segment and false
// for an empty path.
func (p Path) Last() (Segment, bool) {
	if len(p.Segments) == 0 {
		return Segment{}, false
	}
	return p.Segments[len(p.Segments)-1], true
}

// IsDeep reports whether the path's terminal segment is a deep key-wildcard.
func (p Path) IsDeep() bool {
	last, ok := p.Last()
	return ok && last.Kind == KindWildcard && !last.AsIndex && last.Deep
}

// HasPlaceholder reports whether any segment of the path is a placeholder
// param (field or index). match() rejects masks containing these; only the
// trie router supports them.
func (p Path) HasPlaceholder() bool {
	for _, s := range p.Segments {
		if s.Kind == KindParam && s.ParamValueKind == ParamPlaceholder {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	out := Path{Segments: make([]Segment, len(p.Segments))}
	copy(out.Segments, p.Segments)
	return out
}

// Package pathmodel implements the path language: parsing, serialization,
// interpolation and mask/target matching described by the path grammar,
// built as small structs with methods rather than a parser-generator or
// external grammar library.
package pathmodel

import "fmt"

// Kind identifies the shape of a single path segment.
type Kind int

const (
	KindKey Kind = iota
	KindIndex
	KindWildcard
	KindParam
)

func (k Kind) String() string {
	switch k {
	case KindKey:
		return "Key"
	case KindIndex:
		return "Index"
	case KindWildcard:
		return "Wildcard"
	case KindParam:
		return "Param"
	default:
		return "Unknown"
	}
}

// ParamValueKind distinguishes a literal param value from a placeholder.
type ParamValueKind int

const (
	ParamLiteralString ParamValueKind = iota
	ParamLiteralNumber
	ParamLiteralBool
	ParamPlaceholder
)

// Segment is one step of a Path. Only the fields relevant to Kind are set.
type Segment struct {
	Kind Kind

	// KindKey
	Key string

	// KindIndex
	Index int

	// KindWildcard
	AsIndex bool
	Deep    bool

	// KindParam
	ParamKey       string
	ParamValueKind ParamValueKind
	ParamString    string
	ParamNumber    float64
	ParamBool      bool
	// PlaceholderName is set when ParamValueKind == ParamPlaceholder, or
	// when the segment is an index-wildcard placeholder ("[$name]"), in
	// which case Kind == KindParam, ParamKey == "$index".
	PlaceholderName string
}

const indexPlaceholderKey = "$index"

func keySeg(name string) Segment { return Segment{Kind: KindKey, Key: name} }

func indexSeg(i int) Segment { return Segment{Kind: KindIndex, Index: i} }

func wildcardSeg(asIndex, deep bool) Segment {
	return Segment{Kind: KindWildcard, AsIndex: asIndex, Deep: deep}
}

func paramLiteralString(key, val string) Segment {
	return Segment{Kind: KindParam, ParamKey: key, ParamValueKind: ParamLiteralString, ParamString: val}
}

func paramLiteralNumber(key string, val float64) Segment {
	return Segment{Kind: KindParam, ParamKey: key, ParamValueKind: ParamLiteralNumber, ParamNumber: val}
}

func paramLiteralBool(key string, val bool) Segment {
	return Segment{Kind: KindParam, ParamKey: key, ParamValueKind: ParamLiteralBool, ParamBool: val}
}

func paramPlaceholder(key, name string) Segment {
	return Segment{Kind: KindParam, ParamKey: key, ParamValueKind: ParamPlaceholder, PlaceholderName: name}
}

func indexPlaceholder(name string) Segment {
	return Segment{Kind: KindParam, ParamKey: indexPlaceholderKey, ParamValueKind: ParamPlaceholder, PlaceholderName: name}
}

// IsIndexPlaceholder reports whether this Param segment is the special
// "[$name]" index-capturing form rather than a "[key=$name]" field param.
func (s Segment) IsIndexPlaceholder() bool {
	return s.Kind == KindParam && s.ParamKey == indexPlaceholderKey
}

// Equal reports value equality between two segments, used by the pair
// matcher and by trie token encoding.
func (s Segment) Equal(o Segment) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindKey:
		return s.Key == o.Key
	case KindIndex:
		return s.Index == o.Index
	case KindWildcard:
		return s.AsIndex == o.AsIndex && s.Deep == o.Deep
	case KindParam:
		if s.ParamKey != o.ParamKey || s.ParamValueKind != o.ParamValueKind {
			return false
		}
		switch s.ParamValueKind {
		case ParamLiteralString:
			return s.ParamString == o.ParamString
		case ParamLiteralNumber:
			return s.ParamNumber == o.ParamNumber
		case ParamLiteralBool:
			return s.ParamBool == o.ParamBool
		case ParamPlaceholder:
			return s.PlaceholderName == o.PlaceholderName
		}
	}
	return false
}

func (s Segment) String() string {
	return fmt.Sprintf("%s(%s)", s.Kind, segDebug(s))
}

func segDebug(s Segment) string {
	switch s.Kind {
	case KindKey:
		return s.Key
	case KindIndex:
		return fmt.Sprintf("%d", s.Index)
	case KindWildcard:
		return fmt.Sprintf("asIndex=%v deep=%v", s.AsIndex, s.Deep)
	case KindParam:
		return fmt.Sprintf("%s=%v", s.ParamKey, s.ParamString)
	}
	return ""
}

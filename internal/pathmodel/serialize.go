package pathmodel

import (
	"strconv"
	"strings"
)

// Serialize renders a Path back into its canonical string form. It is the
// deterministic inverse of Parse: parsing the output of Serialize always
// reproduces an equivalent Path.
func Serialize(p Path) string {
	var b strings.Builder
	for i, seg := range p.Segments {
		switch seg.Kind {
		case KindKey:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Key)
		case KindIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		case KindWildcard:
			if seg.AsIndex {
				b.WriteString("[*]")
			} else {
				if i > 0 {
					b.WriteByte('.')
				}
				b.WriteByte('*')
			}
		case KindParam:
			b.WriteByte('[')
			if seg.IsIndexPlaceholder() {
				b.WriteByte('$')
				b.WriteString(seg.PlaceholderName)
			} else {
				b.WriteString(seg.ParamKey)
				b.WriteByte('=')
				b.WriteString(formatParamValue(seg))
			}
			b.WriteByte(']')
		}
	}
	return b.String()
}

func formatParamValue(seg Segment) string {
	switch seg.ParamValueKind {
	case ParamPlaceholder:
		return "$" + seg.PlaceholderName
	case ParamLiteralString:
		return `"` + strings.ReplaceAll(seg.ParamString, `"`, `\"`) + `"`
	case ParamLiteralNumber:
		return strconv.FormatFloat(seg.ParamNumber, 'g', -1, 64)
	case ParamLiteralBool:
		if seg.ParamBool {
			return "true"
		}
		return "false"
	}
	return ""
}

// EncodeToken produces the trie's exact-map token for a Key or Index
// segment: a type-prefixed encoding that prevents an integer index from
// colliding with an identically-spelled string key.
func EncodeToken(seg Segment) string {
	switch seg.Kind {
	case KindKey:
		return "k:" + seg.Key
	case KindIndex:
		return "i:" + strconv.Itoa(seg.Index)
	case KindParam:
		return "p:" + seg.ParamKey + "=" + formatParamValue(seg)
	}
	return ""
}

package pathmodel

// Interpolate substitutes "$name" occurrences in key, index and param-value
// positions with values from vars, producing a new path string. It is
// defined in terms of Parse+Serialize so the two share a single source of
// truth for variable-resolution and wildcard-widening rules.
func Interpolate(s string, vars map[string]interface{}, wildcardDynamic bool) (string, error) {
	p, err := Parse(s, ParseOptions{Vars: vars, WildcardDynamic: wildcardDynamic})
	if err != nil {
		return "", err
	}
	return Serialize(p), nil
}

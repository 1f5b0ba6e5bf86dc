package pathmodel

import "testing"

func TestParseSerializeRoundTrip(t *testing.T) {
	cases := []string{
		"flights.legs[0].id",
		`legs[id="LEG-1"].gate`,
		"legs.*",
		"legs.foo.*",
		"legs[*]",
		`legs[active=true]`,
		`legs[count=3]`,
	}
	for _, c := range cases {
		p, err := Parse(c, ParseOptions{})
		if err != nil {
			t.Fatalf("Parse(%q): %v", c, err)
		}
		out := Serialize(p)
		p2, err := Parse(out, ParseOptions{})
		if err != nil {
			t.Fatalf("re-Parse(%q): %v", out, err)
		}
		if len(p.Segments) != len(p2.Segments) {
			t.Fatalf("round trip segment count mismatch for %q: %q", c, out)
		}
		for i := range p.Segments {
			if !p.Segments[i].Equal(p2.Segments[i]) {
				t.Fatalf("round trip mismatch for %q at segment %d: %q", c, i, out)
			}
		}
	}
}

func TestDanglingPlaceholderStaysLiteralByDefault(t *testing.T) {
	p, err := Parse("$store.legs", ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Segments[0].Kind != KindKey || p.Segments[0].Key != "$store" {
		t.Fatalf("expected dangling literal key \"$store\", got %v", p.Segments[0])
	}
}

func TestWildcardDynamicWidensUnresolvedPlaceholder(t *testing.T) {
	p, err := Parse("$store.legs", ParseOptions{WildcardDynamic: true})
	if err != nil {
		t.Fatal(err)
	}
	if p.Segments[0].Kind != KindWildcard {
		t.Fatalf("expected wildcard widening, got %v", p.Segments[0])
	}
}

func TestVarsResolvePlaceholderAtParseTime(t *testing.T) {
	p, err := Parse("$store.legs", ParseOptions{Vars: map[string]interface{}{"store": "FLT_ARR"}})
	if err != nil {
		t.Fatal(err)
	}
	if p.Segments[0].Kind != KindKey || p.Segments[0].Key != "FLT_ARR" {
		t.Fatalf("expected resolved key FLT_ARR, got %v", p.Segments[0])
	}
}

func TestDeepWildcardMustBeTrailing(t *testing.T) {
	p, err := Parse("legs.*", ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	last, _ := p.Last()
	if !last.Deep {
		t.Fatalf("trailing bareword wildcard should widen to deep, got %v", last)
	}
}

func TestIndexPlaceholderCapturesIndex(t *testing.T) {
	p, err := Parse("legs[$i]", ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	seg := p.Segments[1]
	if !seg.IsIndexPlaceholder() || seg.PlaceholderName != "i" {
		t.Fatalf("expected index placeholder \"i\", got %v", seg)
	}
}

func TestInterpolate(t *testing.T) {
	out, err := Interpolate("legs[id=$id].gate", map[string]interface{}{"id": "LEG-1"}, false)
	if err != nil {
		t.Fatal(err)
	}
	want := `legs[id="LEG-1"].gate`
	if out != want {
		t.Fatalf("Interpolate: got %q want %q", out, want)
	}
}

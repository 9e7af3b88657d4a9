package version

import (
	"testing"

	"github.com/lithiumaddons/core/errs"
)

func TestParseValid(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Version
	}{
		{"0.0.0", Version{}},
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"1.2.3-rc", Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "rc"}},
		{"1.2.3-alpha.1", Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "alpha.1"}},
		{"1.2.3+build", Version{Major: 1, Minor: 2, Patch: 3, Build: "build"}},
		{"1.2.3-rc+build", Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "rc", Build: "build"}},
	} {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{
		"", "1", "1.2", "1.2.3.4", "a.b.c", "1.2.3-", "1.2.3 ", " 1.2.3",
	} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		} else if _, ok := err.(*errs.ParseError); !ok {
			t.Errorf("Parse(%q) error type = %T, want *errs.ParseError", in, err)
		}
	}
}

// TestOrderingTotality establishes P1: for any two valid versions, exactly
// one of a<b, a==b, a>b holds.
func TestOrderingTotality(t *testing.T) {
	vs := []string{"0.0.0", "1.0.0", "1.0.0-alpha", "1.0.0-alpha.1", "1.0.0-rc", "1.0.0", "1.2.3", "2.0.0"}
	for _, a := range vs {
		for _, b := range vs {
			va, vb := MustParse(a), MustParse(b)
			less, equal, greater := va.Less(vb), va.Equal(vb), va.Greater(vb)
			count := 0
			for _, v := range []bool{less, equal, greater} {
				if v {
					count++
				}
			}
			if count != 1 {
				t.Errorf("ordering(%q,%q): less=%v equal=%v greater=%v (want exactly one true)", a, b, less, equal, greater)
			}
		}
	}
}

func TestPrereleaseOrdering(t *testing.T) {
	for _, tt := range []struct{ lo, hi string }{
		{"1.0.0-alpha", "1.0.0-alpha.1"},
		{"1.0.0-rc", "1.0.0"},
		{"1.0.0-alpha", "1.0.0-beta"},
	} {
		lo, hi := MustParse(tt.lo), MustParse(tt.hi)
		if !lo.Less(hi) {
			t.Errorf("%q should be less than %q", tt.lo, tt.hi)
		}
	}
}

func TestBuildIgnoredInOrdering(t *testing.T) {
	a := MustParse("1.2.3+build1")
	b := MustParse("1.2.3+build2")
	if !a.Equal(b) {
		t.Errorf("versions differing only in build metadata should compare equal")
	}
}

func TestEvaluateCaret(t *testing.T) {
	c, err := ParseConstraint("^1.2.0")
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		v    string
		want bool
	}{
		{"1.2.0", true},
		{"1.9.9", true},
		{"1.1.0", false},
		{"2.0.0", false},
	} {
		if got := Evaluate(MustParse(tt.v), c); got != tt.want {
			t.Errorf("Evaluate(%q, ^1.2.0) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEvaluateTilde(t *testing.T) {
	c, err := ParseConstraint("~1.2.0")
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		v    string
		want bool
	}{
		{"1.2.0", true},
		{"1.2.9", true},
		{"1.3.0", false},
		{"1.1.9", false},
	} {
		if got := Evaluate(MustParse(tt.v), c); got != tt.want {
			t.Errorf("Evaluate(%q, ~1.2.0) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

// TestConstraintMonotonicity establishes P2: if evaluate(v, "^X.Y.Z") holds,
// it holds for every v' >= v with the same major.
func TestConstraintMonotonicity(t *testing.T) {
	c, err := ParseConstraint("^1.2.0")
	if err != nil {
		t.Fatal(err)
	}
	base := MustParse("1.2.0")
	if !Evaluate(base, c) {
		t.Fatal("base should satisfy its own caret constraint")
	}
	for _, v := range []string{"1.2.1", "1.3.0", "1.99.0"} {
		vv := MustParse(v)
		if !vv.GreaterEqual(base) {
			t.Fatalf("test bug: %s should be >= %s", v, base)
		}
		if !Evaluate(vv, c) {
			t.Errorf("monotonicity violated: %s >= %s with same major should satisfy ^1.2.0", v, base)
		}
	}
}

func TestEvaluateDirectOperators(t *testing.T) {
	for _, tt := range []struct {
		constraint string
		v          string
		want       bool
	}{
		{">1.0.0", "1.0.1", true},
		{">1.0.0", "1.0.0", false},
		{"<1.0.0", "0.9.9", true},
		{">=1.0.0", "1.0.0", true},
		{"<=1.0.0", "1.0.0", true},
		{"=1.0.0", "1.0.0", true},
		{"=1.0.0", "1.0.1", false},
	} {
		got, err := EvaluateString(MustParse(tt.v), tt.constraint)
		if err != nil {
			t.Fatalf("EvaluateString(%q, %q): %v", tt.v, tt.constraint, err)
		}
		if got != tt.want {
			t.Errorf("EvaluateString(%q, %q) = %v, want %v", tt.v, tt.constraint, got, tt.want)
		}
	}
}

func TestMalformedConstraint(t *testing.T) {
	for _, in := range []string{"", "!1.0.0", "1.0.0", "^"} {
		if _, err := ParseConstraint(in); err == nil {
			t.Errorf("ParseConstraint(%q) succeeded, want error", in)
		} else if _, ok := err.(*errs.ConstraintSyntax); !ok {
			t.Errorf("ParseConstraint(%q) error type = %T, want *errs.ConstraintSyntax", in, err)
		}
	}
}

func TestDateVersion(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	if err != nil {
		t.Fatal(err)
	}
	if d.Year != 2024 || d.Month != 1 || d.Day != 31 {
		t.Errorf("ParseDate = %+v", d)
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Error("month 13 should fail")
	}
	if _, err := ParseDate("2024-01-32"); err == nil {
		t.Error("day 32 should fail")
	}
}

func TestDateVersionOrdering(t *testing.T) {
	a, _ := ParseDate("2024-01-01")
	b, _ := ParseDate("2024-01-02")
	c, _ := ParseDate("2024-02-01")
	d, _ := ParseDate("2025-01-01")
	if !a.Less(b) || !b.Less(c) || !c.Less(d) {
		t.Error("expected strictly increasing order a < b < c < d")
	}
}

func TestCompatibleCrossCheck(t *testing.T) {
	c, err := ParseConstraint("^1.2.0")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"1.2.0", "1.9.9", "1.1.0", "2.0.0"} {
		want := Evaluate(MustParse(v), c)
		got, err := Compatible(MustParse(v), c)
		if err != nil {
			t.Fatalf("Compatible(%s): %v", v, err)
		}
		if got != want {
			t.Errorf("Compatible(%s, ^1.2.0) = %v, Evaluate = %v, expected agreement", v, got, want)
		}
	}
}

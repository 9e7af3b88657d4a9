// Package version implements semantic and date version parsing, ordering,
// and constraint evaluation for the addon platform (spec.md C1).
package version

import (
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/lithiumaddons/core/errs"
)

// Version is a semantic version: major.minor.patch[-prerelease][+build].
type Version struct {
	Major      uint32
	Minor      uint32
	Patch      uint32
	Prerelease string
	Build      string
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`)

// Parse accepts the full N.N.N[-pre][+build] grammar; any deviation
// (missing component, non-numeric core, trailing junk) fails.
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, &errs.ParseError{Source: s, Reason: "does not match N.N.N[-pre][+build]"}
	}
	major, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return Version{}, &errs.ParseError{Source: s, Reason: "major component: " + err.Error()}
	}
	minor, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return Version{}, &errs.ParseError{Source: s, Reason: "minor component: " + err.Error()}
	}
	patch, err := strconv.ParseUint(m[3], 10, 32)
	if err != nil {
		return Version{}, &errs.ParseError{Source: s, Reason: "patch component: " + err.Error()}
	}
	return Version{
		Major:      uint32(major),
		Minor:      uint32(minor),
		Patch:      uint32(patch),
		Prerelease: m[4],
		Build:      m[5],
	}, nil
}

// MustParse is Parse but panics on error; intended for tests and literals.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version back to its canonical textual form.
func (v Version) String() string {
	s := itoa3(v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

func itoa3(a, b, c uint32) string {
	return strconv.FormatUint(uint64(a), 10) + "." +
		strconv.FormatUint(uint64(b), 10) + "." +
		strconv.FormatUint(uint64(c), 10)
}

// Ordering is the result of Compare.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
)

// Compare orders two versions: lexicographic on (major, minor, patch); an
// empty prerelease sorts above any non-empty prerelease; otherwise
// prereleases compare lexicographically. Build metadata is ignored.
func Compare(a, b Version) Ordering {
	if a.Major != b.Major {
		return cmpUint(a.Major, b.Major)
	}
	if a.Minor != b.Minor {
		return cmpUint(a.Minor, b.Minor)
	}
	if a.Patch != b.Patch {
		return cmpUint(a.Patch, b.Patch)
	}
	if a.Prerelease == b.Prerelease {
		return Equal
	}
	if a.Prerelease == "" {
		return Greater // empty prerelease sorts above non-empty
	}
	if b.Prerelease == "" {
		return Less
	}
	if a.Prerelease < b.Prerelease {
		return Less
	}
	return Greater
}

func cmpUint(a, b uint32) Ordering {
	if a < b {
		return Less
	}
	if a > b {
		return Greater
	}
	return Equal
}

// Less reports whether a orders strictly before b.
func (a Version) Less(b Version) bool { return Compare(a, b) == Less }

// Equal reports whether a and b are equal, ignoring build metadata.
func (a Version) Equal(b Version) bool { return Compare(a, b) == Equal }

// LessEqual derives <= from Less and Equal, per spec.md §4.1.
func (a Version) LessEqual(b Version) bool { return a.Less(b) || a.Equal(b) }

// GreaterEqual derives >= from Less and Equal, per spec.md §4.1.
func (a Version) GreaterEqual(b Version) bool { return !a.Less(b) }

// Greater reports whether a orders strictly after b.
func (a Version) Greater(b Version) bool { return Compare(a, b) == Greater }

// DateVersion is a calendar-style version: YYYY-MM-DD.
type DateVersion struct {
	Year  uint32
	Month uint32 // 1..12
	Day   uint32 // 1..31
}

var datePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ParseDate validates month ∈ 1..12 and day ∈ 1..31 (no calendar-aware
// validation beyond range, per spec.md §4.1).
func ParseDate(s string) (DateVersion, error) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return DateVersion{}, &errs.ParseError{Source: s, Reason: "does not match YYYY-MM-DD"}
	}
	year, _ := strconv.ParseUint(m[1], 10, 32)
	month, _ := strconv.ParseUint(m[2], 10, 32)
	day, _ := strconv.ParseUint(m[3], 10, 32)
	if month < 1 || month > 12 {
		return DateVersion{}, &errs.ParseError{Source: s, Reason: "month out of range 1..12"}
	}
	if day < 1 || day > 31 {
		return DateVersion{}, &errs.ParseError{Source: s, Reason: "day out of range 1..31"}
	}
	return DateVersion{Year: uint32(year), Month: uint32(month), Day: uint32(day)}, nil
}

// String renders the date version as YYYY-MM-DD.
func (d DateVersion) String() string {
	return pad4(d.Year) + "-" + pad2(d.Month) + "-" + pad2(d.Day)
}

func pad2(n uint32) string {
	s := strconv.FormatUint(uint64(n), 10)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func pad4(n uint32) string {
	s := strconv.FormatUint(uint64(n), 10)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

// CompareDate orders two date versions lexicographically on (year, month, day).
func CompareDate(a, b DateVersion) Ordering {
	if a.Year != b.Year {
		return cmpUint(a.Year, b.Year)
	}
	if a.Month != b.Month {
		return cmpUint(a.Month, b.Month)
	}
	return cmpUint(a.Day, b.Day)
}

func (a DateVersion) Less(b DateVersion) bool    { return CompareDate(a, b) == Less }
func (a DateVersion) Equal(b DateVersion) bool   { return CompareDate(a, b) == Equal }
func (a DateVersion) Greater(b DateVersion) bool { return CompareDate(a, b) == Greater }

// Constraint is a prefix operator in {^, ~, >, <, >=, <=, =} followed by a
// version literal.
type Constraint struct {
	Op      string
	Literal Version
	raw     string
}

var opOrder = []string{">=", "<=", "^", "~", ">", "<", "="}

// ParseConstraint splits the constraint into operator (1-2 chars) and
// literal, per spec.md §4.1.
func ParseConstraint(s string) (Constraint, error) {
	for _, op := range opOrder {
		if len(s) > len(op) && s[:len(op)] == op {
			lit, err := Parse(s[len(op):])
			if err != nil {
				return Constraint{}, &errs.ConstraintSyntax{Constraint: s}
			}
			return Constraint{Op: op, Literal: lit, raw: s}, nil
		}
	}
	return Constraint{}, &errs.ConstraintSyntax{Constraint: s}
}

// String returns the constraint's original textual form.
func (c Constraint) String() string { return c.raw }

// Evaluate reports whether actual satisfies the constraint.
//
//   - ^X.Y.Z — same major and actual >= required.
//   - ~X.Y.Z — same major and minor and actual >= required.
//   - other operators compare directly.
func Evaluate(actual Version, c Constraint) bool {
	switch c.Op {
	case "^":
		return actual.Major == c.Literal.Major && actual.GreaterEqual(c.Literal)
	case "~":
		return actual.Major == c.Literal.Major &&
			actual.Minor == c.Literal.Minor &&
			actual.GreaterEqual(c.Literal)
	case ">":
		return actual.Greater(c.Literal)
	case "<":
		return actual.Less(c.Literal)
	case ">=":
		return actual.GreaterEqual(c.Literal)
	case "<=":
		return actual.LessEqual(c.Literal)
	case "=":
		return actual.Equal(c.Literal)
	default:
		return actual.Equal(c.Literal)
	}
}

// EvaluateString parses constraintStr and evaluates it against actual in
// one step, returning a ConstraintSyntax error for malformed input.
func EvaluateString(actual Version, constraintStr string) (bool, error) {
	c, err := ParseConstraint(constraintStr)
	if err != nil {
		return false, err
	}
	return Evaluate(actual, c), nil
}

// Compatible cross-checks ^ and ~ range semantics against
// github.com/Masterminds/semver/v3, which implements the same caret/tilde
// range conventions used across the wider Go package-manager ecosystem.
// It is used as an independent verification path in tests rather than as
// the primary evaluator, since Masterminds/semver does not implement this
// spec's exact prerelease-ordering rule (empty sorts above non-empty).
func Compatible(actual Version, c Constraint) (bool, error) {
	if c.Op != "^" && c.Op != "~" {
		return Evaluate(actual, c), nil
	}
	rangeExpr := c.Op + c.Literal.String()
	constraints, err := semver.NewConstraint(rangeExpr)
	if err != nil {
		return false, &errs.ConstraintSyntax{Constraint: c.raw}
	}
	sv, err := semver.NewVersion(actual.String())
	if err != nil {
		return false, &errs.ParseError{Source: actual.String(), Reason: err.Error()}
	}
	return constraints.Check(sv), nil
}

// Package lithium re-exports the addon platform's version primitives at
// the module root, the way distri's root package re-exported its own
// version helpers for callers that only need the common types.
package lithium

import "github.com/lithiumaddons/core/internal/version"

// Version is an addon's semantic version.
type Version = version.Version

// DateVersion is an addon's calendar-date version.
type DateVersion = version.DateVersion

// Constraint is a parsed dependency version constraint.
type Constraint = version.Constraint

// Ordering is the result of comparing two versions.
type Ordering = version.Ordering

const (
	Less    = version.Less
	Equal   = version.Equal
	Greater = version.Greater
)

// Parse parses a semantic version string.
func Parse(s string) (Version, error) { return version.Parse(s) }

// MustParse is Parse but panics on error.
func MustParse(s string) Version { return version.MustParse(s) }

// ParseDate parses a calendar-date version string.
func ParseDate(s string) (DateVersion, error) { return version.ParseDate(s) }

// ParseConstraint parses a dependency version constraint.
func ParseConstraint(s string) (Constraint, error) { return version.ParseConstraint(s) }

// Compare orders two semantic versions.
func Compare(a, b Version) Ordering { return version.Compare(a, b) }

// CompareDate orders two date versions.
func CompareDate(a, b DateVersion) Ordering { return version.CompareDate(a, b) }

// Evaluate reports whether actual satisfies c.
func Evaluate(actual Version, c Constraint) bool { return version.Evaluate(actual, c) }

// EvaluateString parses constraintStr and evaluates it against actual.
func EvaluateString(actual Version, constraintStr string) (bool, error) {
	return version.EvaluateString(actual, constraintStr)
}

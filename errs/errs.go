// Package errs defines the error taxonomy shared by every component of the
// addon platform (see spec.md §7). Each kind is a distinct type so callers
// can use errors.As to recover the offending name without parsing strings.
package errs

import "fmt"

// ParseError reports that a manifest, version, or constraint string was
// textually malformed.
type ParseError struct {
	Source string // e.g. the manifest path or the raw version string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Source, e.Reason)
}

// MissingField reports that a manifest is missing a required field.
type MissingField struct {
	Source string
	Field  string
}

func (e *MissingField) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Source, e.Field)
}

// VersionConflict reports that a package's advertised version fails a
// constraint carried by an incoming dependency edge.
type VersionConflict struct {
	Package    string
	Version    string
	Constraint string
}

func (e *VersionConflict) Error() string {
	return fmt.Sprintf("%s@%s does not satisfy constraint %q", e.Package, e.Version, e.Constraint)
}

// Cycle reports that a dependency cycle was detected.
type Cycle struct {
	Members []string
}

func (e *Cycle) Error() string {
	return fmt.Sprintf("dependency cycle detected among %v", e.Members)
}

// UnknownPackage reports a reference to a package id absent from the graph.
type UnknownPackage struct {
	ID string
}

func (e *UnknownPackage) Error() string { return fmt.Sprintf("unknown package %q", e.ID) }

// UnknownComponent reports a reference to a component name absent from the
// component manager's registry.
type UnknownComponent struct {
	Name string
}

func (e *UnknownComponent) Error() string { return fmt.Sprintf("unknown component %q", e.Name) }

// UnknownModule reports a reference to a module name absent from the
// module loader's table.
type UnknownModule struct {
	Name string
}

func (e *UnknownModule) Error() string { return fmt.Sprintf("unknown module %q", e.Name) }

// Duplicate reports an attempt to register a name that already exists.
type Duplicate struct {
	Kind string // "package", "component", "module", ...
	Name string
}

func (e *Duplicate) Error() string { return fmt.Sprintf("duplicate %s %q", e.Kind, e.Name) }

// IoError wraps a filesystem or subprocess-pipe failure.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// SubprocessFailure reports a non-zero exit code from a spawned child.
type SubprocessFailure struct {
	Argv     []string
	ExitCode int
	Message  string
}

func (e *SubprocessFailure) Error() string {
	return fmt.Sprintf("%v: exit code %d: %s", e.Argv, e.ExitCode, e.Message)
}

// LoadFailure reports that a dynamic artifact could not be opened or a
// required symbol was absent.
type LoadFailure struct {
	Module string
	Reason string
}

func (e *LoadFailure) Error() string { return fmt.Sprintf("load %s: %s", e.Module, e.Reason) }

// ConstraintSyntax reports that a constraint string could not be tokenized.
type ConstraintSyntax struct {
	Constraint string
}

func (e *ConstraintSyntax) Error() string {
	return fmt.Sprintf("malformed constraint %q", e.Constraint)
}

// ResourceExceeded reports that a sandboxed process tripped its time or
// memory limit.
type ResourceExceeded struct {
	Resource string // "time" or "memory"
	Limit    int64
	Used     int64
}

func (e *ResourceExceeded) Error() string {
	return fmt.Sprintf("%s limit exceeded: used %d, limit %d", e.Resource, e.Used, e.Limit)
}

// PlatformUnsupported reports that an operation has no implementation for
// the detected platform.
type PlatformUnsupported struct {
	Operation string
	Platform  string
}

func (e *PlatformUnsupported) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Operation, e.Platform)
}

// InUse reports that a component cannot be unloaded because a dependent is
// still loaded.
type InUse struct {
	Name       string
	Dependents []string
}

func (e *InUse) Error() string {
	return fmt.Sprintf("%s is still in use by %v", e.Name, e.Dependents)
}

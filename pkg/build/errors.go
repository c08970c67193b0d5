package build

import "errors"

// Errors the builder detects at the call that finds them. Nothing is
// retried and no partial manifest is ever returned; callers fix the
// input and compile again.
var (
	// ErrInvalidName rejects names that cannot become a manifest
	// identifier (lowercase alphanumerics and dashes).
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidImage rejects container image references that do not
	// parse.
	ErrInvalidImage = errors.New("invalid image reference")

	// ErrUnencodableValue rejects literal values that do not survive
	// JSON encoding.
	ErrUnencodableValue = errors.New("value is not JSON encodable")

	// ErrMissingDependency rejects an edge whose dependency name is
	// not in the DAG yet.
	ErrMissingDependency = errors.New("dependency is not in the DAG")

	// ErrDependencyCycle rejects a DAG whose edges form a cycle.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrInvalidState rejects illegal operation ordering, like
	// submitting while a workflow scope is still open.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnknownParameter rejects a reference to a parameter the
	// workflow does not declare.
	ErrUnknownParameter = errors.New("unknown parameter")
)

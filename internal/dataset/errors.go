package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned when the schema changes after a row was materialized.
	ErrFrozen = errors.New("schema is frozen")
	// ErrDuplicate is returned when a column name is registered twice.
	ErrDuplicate = errors.New("feature already exists")
	// ErrUnknownFeature is returned for a column name absent from the schema.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrRoleConflict is returned when a column already carries a non-input role.
	ErrRoleConflict = errors.New("feature already marked")
	// ErrNotSet is returned by Get for a column still holding the unset sentinel.
	ErrNotSet = errors.New("value not set")
)

// SchemaError reports a schema violation for one column.
type SchemaError struct {
	Op   string
	Name string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IncompleteVectorError names the first unset column of a rejected vector.
type IncompleteVectorError struct {
	Name string
}

func (e *IncompleteVectorError) Error() string {
	return fmt.Sprintf("feature %q not set", e.Name)
}

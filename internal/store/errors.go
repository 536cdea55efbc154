package store

import "fmt"

// SchemaError wraps a failure while applying the DDL script.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema initialization failed: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// LoadError wraps a failure while upserting snapshots.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("database load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

package store

import (
	"errors"
	"fmt"
)

// ErrUnknownSchema is returned for a schema variant name that is not registered.
var ErrUnknownSchema = errors.New("unknown results schema")

// DataAccessError reports a failed read against the results store: the store
// being unreachable, a malformed query or a table that does not match the
// configured schema.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// IsDataAccess reports whether err wraps a *DataAccessError.
func IsDataAccess(err error) bool {
	var dae *DataAccessError
	return errors.As(err, &dae)
}

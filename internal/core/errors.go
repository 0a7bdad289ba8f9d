package core

import "fmt"

// DataAccessError reports that the transaction store could not be reached or
// a query failed. It is passed to the caller unchanged and never retried here.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// IntegrityError reports a stored record whose amount or date cannot be
// interpreted. It aborts the aggregation of the record's collection.
type IntegrityError struct {
	Kind     Kind
	RecordID int64
	Field    string
	Value    string
	Err      error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s record %d: field %s=%q: %v", e.Kind, e.RecordID, e.Field, e.Value, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// InvalidRangeError reports a malformed window bound. Empty or reversed
// windows are not errors.
type InvalidRangeError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *InvalidRangeError) Unwrap() error { return e.Err }

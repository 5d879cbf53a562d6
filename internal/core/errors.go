package core

import "fmt"

// ValidationError reports a required field missing or a structural business
// rule violated. It is always raised before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ReferencedError reports a delete blocked by live dependent rows, naming
// the relation that blocked it.
type ReferencedError struct {
	Entity   string
	Relation string
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("cannot delete %s associated with %s", e.Entity, e.Relation)
}

// NotFoundError reports a get/save/delete targeting a nonexistent id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

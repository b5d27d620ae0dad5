// Package apperr defines the lookup-failure error taxon named in the
// engine's error handling design: NotFound is raised from getters, never
// from submitters, which instead return (ok, permanent) verdict tuples.
package apperr

import "fmt"

// NotFoundError reports that a requested block, transaction, or output does
// not exist in the store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound constructs a NotFoundError for the given kind ("block",
// "transaction", "output", ...) and id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

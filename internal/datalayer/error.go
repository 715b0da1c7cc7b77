package datalayer

import "fmt"

// ObjectNotFoundError indicates that no object exists under Key.
// Err holds the backend's own error, if any.
type ObjectNotFoundError struct {
	Key string
	Err error
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object %s not found", e.Key)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return e.Err
}

var _ error = (*ObjectNotFoundError)(nil)

/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across layers. Callers match with errors.Is.
var (
	// ErrItemNotFound is returned when an item id does not exist in the store.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidTransition is returned when a GTD stage transition is not
	// permitted by the workflow graph.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrMissingDisposition is returned when a non-actionable item is
	// clarified without an explicit disposition.
	ErrMissingDisposition = errors.New("disposition required for non-actionable item")

	// ErrValidation is returned when an ingest payload or model fails
	// struct validation. It is always wrapped with field detail.
	ErrValidation = errors.New("validation failed")

	// ErrNotEnoughOverrides is returned when the feedback loop is asked to
	// adjust weights with fewer pending override events than its minimum.
	ErrNotEnoughOverrides = errors.New("not enough override events to adjust weights")
)

// WorkflowError carries the stage context of a rejected transition so it
// can be audit-logged rather than silently dropped.
type WorkflowError struct {
	ItemID string
	From   string
	To     string
	Err    error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("item %s: transition %s -> %s: %v", e.ItemID, e.From, e.To, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

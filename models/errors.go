package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing image directory or checkpoint. Fatal, no retry.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedClassCount marks a class count outside {1000, 1001}.
	ErrUnsupportedClassCount = errors.New("unsupported class count")

	// ErrNotEnoughImages marks a run asked to fill a batch from fewer
	// images than the configured batch size.
	ErrNotEnoughImages = errors.New("not enough images for batch")
)

type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

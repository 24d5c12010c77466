package generator

import (
	"errors"
	"fmt"
)

// ErrNoHTML means the model answered without any <html root.
var ErrNoHTML = errors.New("no <html> root found in model output")

// GenerationError is returned for every failure of Agent.Generate: the
// completion call itself or extracting a document from its answer.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "generation failed: " + e.Reason
	}
	return fmt.Sprintf("generation failed: %s: %v", e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

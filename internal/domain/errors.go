package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStructuralLoad indicates the corpus artifacts cannot be loaded.
	// It is fatal at startup.
	ErrStructuralLoad = errors.New("structural load error")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates a query vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexCorrupt indicates a search hit could not be joined back to its chunk.
	ErrIndexCorrupt = errors.New("index does not match corpus")

	// ErrClassificationAmbiguous indicates the router could not read the classifier verdict.
	ErrClassificationAmbiguous = errors.New("ambiguous classification")

	// ErrGenerationFailed indicates the generative model call failed.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationTimeout indicates the generative model did not answer in time.
	ErrGenerationTimeout = errors.New("generation timed out")
)

// LoadError describes why a corpus artifact was rejected.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports every LoadError as ErrStructuralLoad.
func (e *LoadError) Is(target error) bool { return target == ErrStructuralLoad }

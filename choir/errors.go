package choir

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a rejected argument. The call made no change.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotPrepared is returned by calls that need Prepare first.
	ErrNotPrepared = errors.New("not prepared")
	// ErrSynthesisFailure is the kind of every *SynthesisError.
	ErrSynthesisFailure = errors.New("synthesis failure")
	// ErrQueueFull is returned when a control change cannot be queued.
	ErrQueueFull = errors.New("event queue full")
)

// SynthesisError reports a method that produced unusable output for a voice.
type SynthesisError struct {
	Voice  int
	Method string
	Reason string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failure: %s voice %d: %s", e.Method, e.Voice, e.Reason)
}

// Unwrap makes errors.Is(err, ErrSynthesisFailure) hold.
func (e *SynthesisError) Unwrap() error { return ErrSynthesisFailure }

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

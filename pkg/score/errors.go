package score

import "fmt"

// InputError reports an unsupported or out-of-range request parameter.
type InputError struct {
	Field string
	Value string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("score: invalid %s %q", e.Field, e.Value)
}

// GenerationError reports a voice generator that violated an internal
// invariant. Stage and Track carry enough detail for the caller to log and
// decide whether to retry with a different seed.
type GenerationError struct {
	Stage string
	Track string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Track == "" {
		return fmt.Sprintf("score: generation failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("score: generation failed at %s (track %s): %v", e.Stage, e.Track, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// SerializationError reports a value outside the MIDI contract reaching a
// note constructor or a writer. It is a contract violation, never retried.
type SerializationError struct {
	Field string
	Value string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("score: %s %s outside serializable range", e.Field, e.Value)
}

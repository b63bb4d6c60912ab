package score

import (
	"fmt"

	"github.com/compogen/compogen/pkg/theory"
)

// Note is a single timed event. Start and Duration are measured in beats.
// Notes are value types and never mutated after creation.
type Note struct {
	Pitch    int
	Start    float64
	Duration float64
	Velocity int
}

// NewNote validates the MIDI contract before any note can reach a
// serializer: out-of-range values are rejected here, not downstream.
func NewNote(pitch int, start, duration float64, velocity int) (Note, error) {
	if pitch < 0 || pitch > 127 {
		return Note{}, &SerializationError{Field: "pitch", Value: fmt.Sprint(pitch)}
	}
	if velocity < 1 || velocity > 127 {
		return Note{}, &SerializationError{Field: "velocity", Value: fmt.Sprint(velocity)}
	}
	if start < 0 {
		return Note{}, &SerializationError{Field: "start", Value: fmt.Sprint(start)}
	}
	if duration <= 0 {
		return Note{}, &SerializationError{Field: "duration", Value: fmt.Sprint(duration)}
	}
	return Note{Pitch: pitch, Start: start, Duration: duration, Velocity: velocity}, nil
}

// End returns the beat at which the note stops sounding.
func (n Note) End() float64 {
	return n.Start + n.Duration
}

// TimeSignature is beats per bar over the note value of one beat.
type TimeSignature struct {
	Numerator   int
	Denominator int
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Numerator, ts.Denominator)
}

// ParseTimeSignature parses tokens such as "4/4" or "3/4".
func ParseTimeSignature(s string) (TimeSignature, error) {
	var n, d int
	if _, err := fmt.Sscanf(s, "%d/%d", &n, &d); err != nil {
		return TimeSignature{}, &InputError{Field: "time_signature", Value: s}
	}
	if n < 1 || n > 12 || (d != 2 && d != 4 && d != 8 && d != 16) {
		return TimeSignature{}, &InputError{Field: "time_signature", Value: s}
	}
	return TimeSignature{Numerator: n, Denominator: d}, nil
}

// Track is one logical voice of the score.
type Track struct {
	ID         string
	Instrument string
	Role       Role
	Program    int
	Percussion bool
	Notes      []Note
}

// Score is the final assembled composition. It is built incrementally by the
// orchestrator, finalized once and handed to the serializers read-only.
type Score struct {
	Tracks        []Track
	Tempo         int
	TimeSignature TimeSignature
}

// Duration returns the total length of the score in beats.
func (s *Score) Duration() float64 {
	var end float64
	for _, t := range s.Tracks {
		for _, n := range t.Notes {
			if n.End() > end {
				end = n.End()
			}
		}
	}
	return end
}

// Parameters is the validated input of one generation request. The core
// treats it as read-only.
type Parameters struct {
	Tempo         int
	Key           theory.Scale
	TimeSignature TimeSignature
	Genre         Genre
	Mood          Mood
	Complexity    float64
	Instruments   []string
	Style         Style
	Bars          int
	Seed          int64
}

// Validate checks every field against its documented range and returns an
// InputError naming the first offending field.
func (p *Parameters) Validate() error {
	if p.Tempo < 40 || p.Tempo > 240 {
		return &InputError{Field: "tempo", Value: fmt.Sprint(p.Tempo)}
	}
	if _, err := p.Key.Mode.Intervals(); err != nil {
		return &InputError{Field: "key", Value: string(p.Key.Mode)}
	}
	if p.TimeSignature.Numerator == 0 {
		return &InputError{Field: "time_signature", Value: p.TimeSignature.String()}
	}
	if !p.Genre.Known() {
		return &InputError{Field: "genre", Value: string(p.Genre)}
	}
	if !p.Mood.Known() {
		return &InputError{Field: "mood", Value: string(p.Mood)}
	}
	if p.Complexity < 0 || p.Complexity > 1 {
		return &InputError{Field: "complexity", Value: fmt.Sprint(p.Complexity)}
	}
	if !p.Style.Known() {
		return &InputError{Field: "style", Value: string(p.Style)}
	}
	if p.Bars < 1 || p.Bars > 256 {
		return &InputError{Field: "bars", Value: fmt.Sprint(p.Bars)}
	}
	for _, in := range p.Instruments {
		if !theory.KnownInstrument(in) {
			return &InputError{Field: "instruments", Value: in}
		}
	}
	return nil
}

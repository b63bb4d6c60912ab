package theory

import (
	"fmt"
	"math"
	"strings"
)

// Mode is a scale mode identified by its interval pattern.
type Mode string

const (
	Major           Mode = "major"
	Minor           Mode = "minor"
	HarmonicMinor   Mode = "harmonic_minor"
	Dorian          Mode = "dorian"
	Mixolydian      Mode = "mixolydian"
	PentatonicMajor Mode = "pentatonic_major"
	PentatonicMinor Mode = "pentatonic_minor"
	Blues           Mode = "blues"
)

// scaleIntervals maps each mode to its pitch-class offsets from the root.
var scaleIntervals = map[Mode][]int{
	Major:           {0, 2, 4, 5, 7, 9, 11},
	Minor:           {0, 2, 3, 5, 7, 8, 10},
	HarmonicMinor:   {0, 2, 3, 5, 7, 8, 11},
	Dorian:          {0, 2, 3, 5, 7, 9, 10},
	Mixolydian:      {0, 2, 4, 5, 7, 9, 10},
	PentatonicMajor: {0, 2, 4, 7, 9},
	PentatonicMinor: {0, 3, 5, 7, 10},
	Blues:           {0, 3, 5, 6, 7, 10},
}

// Intervals returns the pitch-class offsets of the mode from its root.
func (m Mode) Intervals() ([]int, error) {
	iv, ok := scaleIntervals[m]
	if !ok {
		return nil, fmt.Errorf("theory: unknown mode %q", m)
	}
	return iv, nil
}

// ChordType identifies a chord quality.
type ChordType string

const (
	MajorTriad      ChordType = "major"
	MinorTriad      ChordType = "minor"
	Diminished      ChordType = "diminished"
	Augmented       ChordType = "augmented"
	Dominant7       ChordType = "dominant7"
	Major7          ChordType = "major7"
	Minor7          ChordType = "minor7"
	HalfDiminished7 ChordType = "half_diminished7"
	Diminished7     ChordType = "diminished7"
	Sus2            ChordType = "sus2"
	Sus4            ChordType = "sus4"
)

var chordIntervals = map[ChordType][]int{
	MajorTriad:      {0, 4, 7},
	MinorTriad:      {0, 3, 7},
	Diminished:      {0, 3, 6},
	Augmented:       {0, 4, 8},
	Dominant7:       {0, 4, 7, 10},
	Major7:          {0, 4, 7, 11},
	Minor7:          {0, 3, 7, 10},
	HalfDiminished7: {0, 3, 6, 10},
	Diminished7:     {0, 3, 6, 9},
	Sus2:            {0, 2, 7},
	Sus4:            {0, 5, 7},
}

// Intervals returns the semitone offsets of the chord type from its root.
func (t ChordType) Intervals() ([]int, error) {
	iv, ok := chordIntervals[t]
	if !ok {
		return nil, fmt.Errorf("theory: unknown chord type %q", t)
	}
	return iv, nil
}

// Chord is a concrete chord: a root pitch class, a quality and the actual
// pitches being sounded.
type Chord struct {
	Root  int
	Type  ChordType
	Notes []int
}

// NewChord builds a chord of the given type rooted at an absolute pitch.
func NewChord(rootPitch int, t ChordType) (Chord, error) {
	iv, err := t.Intervals()
	if err != nil {
		return Chord{}, err
	}
	notes := make([]int, len(iv))
	for i, offset := range iv {
		notes[i] = rootPitch + offset
	}
	return Chord{
		Root:  ((rootPitch % 12) + 12) % 12,
		Type:  t,
		Notes: notes,
	}, nil
}

// Valid reports whether the chord sounds at least three distinct pitch
// classes.
func (c Chord) Valid() bool {
	return len(c.PitchClasses()) >= 3
}

// PitchClasses returns the set of pitch classes present in the chord.
func (c Chord) PitchClasses() map[int]bool {
	pcs := make(map[int]bool, len(c.Notes))
	for _, n := range c.Notes {
		pcs[((n%12)+12)%12] = true
	}
	return pcs
}

// Scale is a root pitch class plus a mode.
type Scale struct {
	Root int
	Mode Mode
}

// Degrees returns the pitch classes of the scale in ascending degree order.
func (s Scale) Degrees() ([]int, error) {
	iv, err := s.Mode.Intervals()
	if err != nil {
		return nil, err
	}
	degrees := make([]int, len(iv))
	for i, offset := range iv {
		degrees[i] = (s.Root + offset) % 12
	}
	return degrees, nil
}

// Contains reports whether the pitch belongs to the scale.
func (s Scale) Contains(pitch int) bool {
	degrees, err := s.Degrees()
	if err != nil {
		return false
	}
	pc := ((pitch % 12) + 12) % 12
	for _, d := range degrees {
		if d == pc {
			return true
		}
	}
	return false
}

// Pitches returns every scale member within [low, high].
func (s Scale) Pitches(low, high int) ([]int, error) {
	degrees, err := s.Degrees()
	if err != nil {
		return nil, err
	}
	member := make(map[int]bool, len(degrees))
	for _, d := range degrees {
		member[d] = true
	}
	var pitches []int
	for p := low; p <= high; p++ {
		if member[((p%12)+12)%12] {
			pitches = append(pitches, p)
		}
	}
	return pitches, nil
}

// noteNames maps note name tokens to pitch classes. Both sharp and flat
// spellings are accepted.
var noteNames = map[string]int{
	"C": 0, "B#": 0,
	"C#": 1, "Db": 1,
	"D":  2,
	"D#": 3, "Eb": 3,
	"E": 4, "Fb": 4,
	"F": 5, "E#": 5,
	"F#": 6, "Gb": 6,
	"G":  7,
	"G#": 8, "Ab": 8,
	"A":  9,
	"A#": 10, "Bb": 10,
	"B": 11, "Cb": 11,
}

var pitchClassNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// PitchClassName returns the sharp spelling of a pitch class.
func PitchClassName(pc int) string {
	return pitchClassNames[((pc%12)+12)%12]
}

// ParseKey parses a key token such as "C", "F#", "Bbm", "c minor" or
// "A minor" into a scale.
func ParseKey(s string) (Scale, error) {
	token := strings.TrimSpace(s)
	if token == "" {
		return Scale{}, fmt.Errorf("theory: empty key")
	}
	mode := Major
	lower := strings.ToLower(token)
	switch {
	case strings.HasSuffix(lower, " minor"):
		mode = Minor
		token = token[:len(token)-len(" minor")]
	case strings.HasSuffix(lower, " major"):
		token = token[:len(token)-len(" major")]
	case strings.HasSuffix(token, "m") && len(token) > 1:
		mode = Minor
		token = token[:len(token)-1]
	}
	token = strings.TrimSpace(token)
	name := strings.ToUpper(token[:1]) + token[1:]
	pc, ok := noteNames[name]
	if !ok {
		return Scale{}, fmt.Errorf("theory: unknown key %q", s)
	}
	return Scale{Root: pc, Mode: mode}, nil
}

// String renders the scale as a key token, e.g. "C major".
func (s Scale) String() string {
	return fmt.Sprintf("%s %s", PitchClassName(s.Root), s.Mode)
}

// Pitch returns the MIDI pitch of a pitch class in the given octave, where
// octave 4 contains middle C (60).
func Pitch(pc, octave int) int {
	return (octave+1)*12 + ((pc%12)+12)%12
}

// Frequency returns the equal-temperament frequency of a MIDI pitch in Hz.
func Frequency(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}

// RomanNumeral is a chord expressed relative to a key: a zero-based scale
// degree plus a quality.
type RomanNumeral struct {
	Degree int
	Type   ChordType
}

var romanDegrees = map[string]int{
	"i": 0, "ii": 1, "iii": 2, "iv": 3, "v": 4, "vi": 5, "vii": 6,
}

// ParseRoman parses tokens such as "I", "ii", "V7", "viio" or "IVmaj7";
// case selects major or minor quality and a suffix refines it.
func ParseRoman(s string) (RomanNumeral, error) {
	token := strings.TrimSpace(s)
	if token == "" {
		return RomanNumeral{}, fmt.Errorf("theory: empty roman numeral")
	}
	base := token
	var suffix string
	for i, r := range token {
		if r != 'i' && r != 'v' && r != 'I' && r != 'V' {
			base, suffix = token[:i], token[i:]
			break
		}
	}
	degree, ok := romanDegrees[strings.ToLower(base)]
	if !ok {
		return RomanNumeral{}, fmt.Errorf("theory: unknown roman numeral %q", s)
	}
	minor := base == strings.ToLower(base)
	var typ ChordType
	switch suffix {
	case "":
		typ = MajorTriad
		if minor {
			typ = MinorTriad
		}
	case "7":
		typ = Dominant7
		if minor {
			typ = Minor7
		}
	case "maj7":
		typ = Major7
	case "o", "dim":
		typ = Diminished
	case "o7", "dim7":
		typ = Diminished7
	case "ø7", "m7b5":
		typ = HalfDiminished7
	case "+", "aug":
		typ = Augmented
	case "sus2":
		typ = Sus2
	case "sus4":
		typ = Sus4
	default:
		return RomanNumeral{}, fmt.Errorf("theory: unknown chord suffix %q in %q", suffix, s)
	}
	return RomanNumeral{Degree: degree, Type: typ}, nil
}

// Resolve turns the numeral into a concrete chord in the given key, rooted
// in the given octave.
func (rn RomanNumeral) Resolve(key Scale, octave int) (Chord, error) {
	degrees, err := key.Degrees()
	if err != nil {
		return Chord{}, err
	}
	if rn.Degree < 0 || rn.Degree >= len(degrees) {
		return Chord{}, fmt.Errorf("theory: degree %d out of range for %s", rn.Degree, key)
	}
	root := Pitch(degrees[rn.Degree], octave)
	// Keep chord roots within a single octave of the key root.
	tonic := Pitch(key.Root, octave)
	if root < tonic {
		root += 12
	}
	return NewChord(root, rn.Type)
}

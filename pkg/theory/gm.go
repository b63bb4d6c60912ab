package theory

import (
	"fmt"
	"strings"
)

// General MIDI percussion keys on channel 10.
const (
	KeyKick      = 36
	KeySnare     = 38
	KeyClosedHat = 42
	KeyOpenHat   = 46
	KeyCrash     = 49
	KeyRide      = 51
)

// gmPrograms maps instrument name tokens to General MIDI program numbers
// (zero based).
var gmPrograms = map[string]int{
	"piano":             0,
	"grand piano":       0,
	"electric piano":    4,
	"harpsichord":       6,
	"celesta":           8,
	"glockenspiel":      9,
	"vibraphone":        11,
	"marimba":           12,
	"organ":             19,
	"acoustic guitar":   24,
	"guitar":            25,
	"electric guitar":   27,
	"distortion guitar": 30,
	"acoustic bass":     32,
	"bass":              33,
	"electric bass":     33,
	"slap bass":         36,
	"synth bass":        38,
	"violin":            40,
	"viola":             41,
	"cello":             42,
	"contrabass":        43,
	"double bass":       43,
	"harp":              46,
	"strings":           48,
	"string ensemble":   48,
	"synth strings":     50,
	"choir":             52,
	"voice":             53,
	"trumpet":           56,
	"trombone":          57,
	"tuba":              58,
	"french horn":       60,
	"brass":             61,
	"soprano sax":       64,
	"alto sax":          65,
	"saxophone":         66,
	"tenor sax":         66,
	"baritone sax":      67,
	"oboe":              68,
	"bassoon":           70,
	"clarinet":          71,
	"piccolo":           72,
	"flute":             73,
	"recorder":          74,
	"pan flute":         75,
	"synth lead":        80,
	"square lead":       80,
	"saw lead":          81,
	"synth pad":         88,
	"pad":               89,
	"warm pad":          89,
	"drums":             0,
	"percussion":        0,
}

// percussionNames marks instrument tokens routed to the percussion channel.
var percussionNames = map[string]bool{
	"drums":      true,
	"percussion": true,
	"drum kit":   true,
}

// Program returns the General MIDI program number for an instrument token.
func Program(instrument string) (int, error) {
	p, ok := gmPrograms[strings.ToLower(strings.TrimSpace(instrument))]
	if !ok {
		return 0, fmt.Errorf("theory: unknown instrument %q", instrument)
	}
	return p, nil
}

// IsPercussion reports whether the instrument token names a drum kit rather
// than a pitched instrument.
func IsPercussion(instrument string) bool {
	return percussionNames[strings.ToLower(strings.TrimSpace(instrument))]
}

// KnownInstrument reports whether the token maps to a General MIDI program.
func KnownInstrument(instrument string) bool {
	_, ok := gmPrograms[strings.ToLower(strings.TrimSpace(instrument))]
	return ok
}

// Package generate holds the voice generators: melody, harmony
// accompaniment, bass line, chord voicing and percussion. Each one is a
// deterministic function of the request parameters and an explicit random
// source, advancing an internal time cursor bar by bar.
package generate

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
)

// Melodic register bounds shared by every pitched generator.
const (
	registerLow  = 48
	registerHigh = 84
)

// Generator produces the note stream of one logical voice. It carries the
// per-request random source so identical parameters and seed reproduce the
// same music.
type Generator struct {
	rand        *rand.Rand
	params      score.Parameters
	profile     *Profile
	beatsPerBar int
	progression []theory.Chord
	scalePitch  []int
}

// New builds a generator for one request. The chord progression template is
// resolved to concrete chords up front so every voice shares one harmonic
// plan.
func New(params score.Parameters, profile *Profile, rng *rand.Rand) (*Generator, error) {
	if rng == nil {
		return nil, fmt.Errorf("generate: nil random source")
	}
	numerals := profile.Numerals()
	if len(numerals) == 0 {
		return nil, fmt.Errorf("generate: profile %s not validated", profile.Genre)
	}
	progression := make([]theory.Chord, len(numerals))
	for i, rn := range numerals {
		chord, err := rn.Resolve(params.Key, 3)
		if err != nil {
			return nil, fmt.Errorf("generate: couldn't resolve progression: %w", err)
		}
		progression[i] = chord
	}
	pitches, err := params.Key.Pitches(registerLow, registerHigh)
	if err != nil {
		return nil, err
	}
	if len(pitches) == 0 {
		return nil, fmt.Errorf("generate: empty scale for key %s", params.Key)
	}
	return &Generator{
		rand:        rng,
		params:      params,
		profile:     profile,
		beatsPerBar: params.TimeSignature.Numerator,
		progression: progression,
		scalePitch:  pitches,
	}, nil
}

// ChordAt returns the chord governing the given bar, cycling the
// progression template.
func (g *Generator) ChordAt(bar int) theory.Chord {
	return g.progression[bar%len(g.progression)]
}

// Progression returns the resolved per-bar chords of the whole request.
func (g *Generator) Progression() []theory.Chord {
	chords := make([]theory.Chord, g.params.Bars)
	for bar := range chords {
		chords[bar] = g.ChordAt(bar)
	}
	return chords
}

// emphasis returns the relative weight of a beat within the bar.
func (g *Generator) emphasis(beat int) float64 {
	return g.profile.Emphasis[beat%len(g.profile.Emphasis)]
}

// dynamics shapes velocity over one bar as the sum of three sine waves at
// one, two and three times the bar frequency, scaled to base±range.
func (g *Generator) dynamics(posInBar float64) int {
	x := 2 * math.Pi * posInBar
	wave := math.Sin(x) + 0.5*math.Sin(2*x) + 0.25*math.Sin(3*x)
	// The raw sum spans roughly ±1.6; normalize to ±1.
	wave /= 1.6
	v := float64(g.profile.VelocityBase) + wave*float64(g.profile.VelocityRange)/2
	return clampVelocity(int(math.Round(v + g.moodVelocity())))
}

// moodVelocity nudges the dynamic level per mood.
func (g *Generator) moodVelocity() float64 {
	switch g.params.Mood {
	case score.Energetic:
		return 10
	case score.Happy, score.Uplifting:
		return 5
	case score.Calm:
		return -8
	case score.Sad, score.Dark:
		return -5
	default:
		return 0
	}
}

func errEmptyVoice(voice string) error {
	return fmt.Errorf("generate: %s produced zero notes", voice)
}

func clampVelocity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}

func clampPitch(p int) int {
	if p < registerLow {
		return registerLow
	}
	if p > registerHigh {
		return registerHigh
	}
	return p
}

// nearestScaleIndex finds the index into the scale register closest to the
// given pitch, ties toward the lower member.
func (g *Generator) nearestScaleIndex(pitch int) int {
	best := 0
	bestDist := math.MaxInt32
	for i, p := range g.scalePitch {
		d := p - pitch
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// applyStyle post-processes a voice according to the articulation style.
func (g *Generator) applyStyle(notes []score.Note) []score.Note {
	switch g.params.Style {
	case score.Staccato:
		out := make([]score.Note, 0, len(notes))
		for _, n := range notes {
			d := n.Duration / 2
			if d < 0.125 {
				d = 0.125
			}
			nn, err := score.NewNote(n.Pitch, n.Start, d, n.Velocity)
			if err != nil {
				continue
			}
			out = append(out, nn)
		}
		return out
	case score.Legato:
		out := make([]score.Note, 0, len(notes))
		for i, n := range notes {
			d := n.Duration
			if i+1 < len(notes) && notes[i+1].Start > n.Start {
				d = notes[i+1].Start - n.Start
			}
			nn, err := score.NewNote(n.Pitch, n.Start, d, n.Velocity)
			if err != nil {
				continue
			}
			out = append(out, nn)
		}
		return out
	default:
		return notes
	}
}

package generate

import (
	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
)

// Voicing spaces a chord for the request's genre: classical keeps a close
// mid-register spread, jazz drops the fifth and adds sixths and ninths, pop
// splits a wide bass from a close upper structure.
func (g *Generator) Voicing(chord theory.Chord) []int {
	if len(chord.Notes) == 0 {
		return nil
	}
	root := chord.Notes[0]
	iv, err := chord.Type.Intervals()
	if err != nil {
		iv = []int{0, 4, 7}
	}
	switch g.params.Genre {
	case score.Jazz:
		// Rootless-leaning voicing: keep the guide tones, drop the fifth,
		// colour with sixth and ninth.
		voiced := []int{root + 12}
		for _, offset := range iv {
			if offset == 0 || offset == 7 {
				continue
			}
			voiced = append(voiced, root+12+offset)
		}
		voiced = append(voiced, root+12+9, root+24+2)
		return clampAll(voiced)
	case score.Pop, score.Rock:
		voiced := []int{root - 12} // wide bass below a close upper split
		for _, offset := range iv {
			voiced = append(voiced, root+12+offset)
		}
		return clampAll(voiced)
	case score.Ambient:
		voiced := []int{root - 12, root + 7}
		for _, offset := range iv[1:] {
			voiced = append(voiced, root+12+offset)
		}
		return clampAll(voiced)
	default:
		// Close spacing around the middle register.
		voiced := make([]int, len(iv))
		for i, offset := range iv {
			voiced[i] = root + 12 + offset
		}
		return clampAll(voiced)
	}
}

func clampAll(pitches []int) []int {
	out := make([]int, len(pitches))
	for i, p := range pitches {
		out[i] = clampPitch(p)
	}
	return out
}

// Harmony generates the accompaniment voice: the per-bar chord resolved from
// the progression template, voiced for the genre and emitted with the
// genre's rhythmic feel.
func (g *Generator) Harmony() ([]score.Note, error) {
	var notes []score.Note
	for bar := 0; bar < g.params.Bars; bar++ {
		chord := g.ChordAt(bar)
		voiced := g.Voicing(chord)
		barStart := float64(bar * g.beatsPerBar)

		if g.params.Style == score.Arpeggio {
			emitted, err := g.arpeggiate(voiced, barStart)
			if err != nil {
				return nil, err
			}
			notes = append(notes, emitted...)
			continue
		}

		switch g.params.Genre {
		case score.Jazz:
			// Sparse comping on and around the offbeats.
			hits := 2 + g.rand.Intn(2)
			for h := 0; h < hits; h++ {
				at := float64(g.rand.Intn(g.beatsPerBar*2)) / 2
				if g.rand.Float64() < g.profile.Syncopation {
					at += 0.5
				}
				if at >= float64(g.beatsPerBar) {
					at = float64(g.beatsPerBar) - 0.5
				}
				emitted, err := g.chordHit(voiced, barStart+at, 1.0, at/float64(g.beatsPerBar))
				if err != nil {
					return nil, err
				}
				notes = append(notes, emitted...)
			}
		case score.Pop, score.Rock, score.Electronic:
			for beat := 0; beat < g.beatsPerBar; beat++ {
				pos := float64(beat) / float64(g.beatsPerBar)
				emitted, err := g.chordHit(voiced, barStart+float64(beat), 1.0, pos)
				if err != nil {
					return nil, err
				}
				notes = append(notes, emitted...)
			}
		default:
			// Classical and ambient sustain through half bars.
			half := float64(g.beatsPerBar) / 2
			for _, at := range []float64{0, half} {
				emitted, err := g.chordHit(voiced, barStart+at, half, at/float64(g.beatsPerBar))
				if err != nil {
					return nil, err
				}
				notes = append(notes, emitted...)
			}
		}
	}
	if len(notes) == 0 {
		return nil, errEmptyVoice("harmony")
	}
	return g.applyStyle(notes), nil
}

// Pad generates the sustained background voice: one wide voicing per bar,
// shaped by the dynamics curve.
func (g *Generator) Pad() ([]score.Note, error) {
	var notes []score.Note
	for bar := 0; bar < g.params.Bars; bar++ {
		chord := g.ChordAt(bar)
		root := chord.Notes[0]
		voiced := clampAll([]int{root - 12, root + 7, root + 12 + thirdOf(chord), root + 24})
		barStart := float64(bar * g.beatsPerBar)
		velocity := g.dynamics(0.25)
		for _, p := range voiced {
			n, err := score.NewNote(p, barStart, float64(g.beatsPerBar), velocity)
			if err != nil {
				return nil, err
			}
			notes = append(notes, n)
		}
	}
	if len(notes) == 0 {
		return nil, errEmptyVoice("pad")
	}
	return notes, nil
}

func thirdOf(chord theory.Chord) int {
	iv, err := chord.Type.Intervals()
	if err != nil || len(iv) < 2 {
		return 4
	}
	return iv[1]
}

func (g *Generator) chordHit(voiced []int, start, duration, posInBar float64) ([]score.Note, error) {
	velocity := g.dynamics(posInBar)
	notes := make([]score.Note, 0, len(voiced))
	for _, p := range voiced {
		n, err := score.NewNote(p, start, duration, velocity)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// arpeggiate spreads the voicing across the bar as eighth notes, cycling
// bottom to top.
func (g *Generator) arpeggiate(voiced []int, barStart float64) ([]score.Note, error) {
	steps := g.beatsPerBar * 2
	notes := make([]score.Note, 0, steps)
	for i := 0; i < steps; i++ {
		p := voiced[i%len(voiced)]
		at := barStart + float64(i)/2
		velocity := g.dynamics(float64(i) / float64(steps))
		n, err := score.NewNote(p, at, 0.5, velocity)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

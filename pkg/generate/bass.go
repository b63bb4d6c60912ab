package generate

import (
	"github.com/compogen/compogen/pkg/score"
)

// Bass octave relative to the resolved chord roots.
const bassDrop = 12

// Bass generates the bass line. Jazz walks quarter notes through root,
// fifth and passing tones toward the next bar's root; classical and ambient
// hold static roots; pop, rock and electronic pulse the root with the fifth
// answering on the back half of the bar.
func (g *Generator) Bass() ([]score.Note, error) {
	var notes []score.Note
	for bar := 0; bar < g.params.Bars; bar++ {
		chord := g.ChordAt(bar)
		next := g.ChordAt(bar + 1)
		root := chord.Notes[0] - bassDrop
		fifth := root + 7
		barStart := float64(bar * g.beatsPerBar)

		switch {
		case g.profile.WalkingBass:
			targets := g.walk(root, fifth, next.Notes[0]-bassDrop)
			for beat := 0; beat < g.beatsPerBar; beat++ {
				p := targets[beat%len(targets)]
				velocity := g.dynamics(float64(beat) / float64(g.beatsPerBar))
				n, err := score.NewNote(clampBass(p), barStart+float64(beat), 1.0, velocity)
				if err != nil {
					return nil, err
				}
				notes = append(notes, n)
			}
		case g.params.Genre == score.Classical || g.params.Genre == score.Ambient:
			n, err := score.NewNote(clampBass(root), barStart, float64(g.beatsPerBar), g.dynamics(0))
			if err != nil {
				return nil, err
			}
			notes = append(notes, n)
		default:
			// Pulsing root with the fifth answering; density follows
			// complexity.
			subdivision := 1.0
			if g.params.Complexity > 0.5 {
				subdivision = 0.5
			}
			for at := 0.0; at < float64(g.beatsPerBar); at += subdivision {
				p := root
				if int(at) >= g.beatsPerBar/2 && g.rand.Float64() < 0.4 {
					p = fifth
				}
				velocity := g.dynamics(at / float64(g.beatsPerBar))
				n, err := score.NewNote(clampBass(p), barStart+at, subdivision, velocity)
				if err != nil {
					return nil, err
				}
				notes = append(notes, n)
			}
		}
	}
	if len(notes) == 0 {
		return nil, errEmptyVoice("bass")
	}
	return g.applyStyle(notes), nil
}

// walk lays out one bar of walking bass: root, a passing tone, the fifth,
// then a chromatic approach into the next bar's root.
func (g *Generator) walk(root, fifth, nextRoot int) []int {
	passing := root + 2
	if g.rand.Intn(2) == 0 {
		passing = root + 4
	}
	approach := nextRoot + 1
	if g.rand.Intn(2) == 0 {
		approach = nextRoot - 1
	}
	return []int{root, passing, fifth, approach}
}

func clampBass(p int) int {
	for p < 28 {
		p += 12
	}
	for p > 60 {
		p -= 12
	}
	return p
}

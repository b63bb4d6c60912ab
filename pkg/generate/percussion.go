package generate

import (
	"math"

	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
)

// Percussion generates the drum track on the General MIDI percussion keys.
// Kick and snare placement follows the genre; hi-hat subdivision and fill
// count scale linearly with complexity, so a request at complexity 1 always
// lands strictly more hits than the same request at 0.
func (g *Generator) Percussion() ([]score.Note, error) {
	var notes []score.Note
	hatPerBeat := 1 + int(math.Floor(g.params.Complexity*3))
	extraKicks := int(math.Round(g.params.Complexity * 2))

	for bar := 0; bar < g.params.Bars; bar++ {
		barStart := float64(bar * g.beatsPerBar)
		for beat := 0; beat < g.beatsPerBar; beat++ {
			at := barStart + float64(beat)
			pos := float64(beat) / float64(g.beatsPerBar)

			if g.kickOn(beat) {
				if err := appendHit(&notes, theory.KeyKick, at, g.accent(pos, 12)); err != nil {
					return nil, err
				}
			}
			if g.snareOn(beat) {
				if err := appendHit(&notes, theory.KeySnare, at, g.accent(pos, 8)); err != nil {
					return nil, err
				}
			}
			hatKey := theory.KeyClosedHat
			if g.params.Genre == score.Jazz {
				hatKey = theory.KeyRide
			}
			for sub := 0; sub < hatPerBeat; sub++ {
				offset := float64(sub) / float64(hatPerBeat)
				if err := appendHit(&notes, hatKey, at+offset, g.accent(pos, -16)); err != nil {
					return nil, err
				}
			}
		}
		// Deterministic offbeat kick fills, count linear in complexity.
		for k := 0; k < extraKicks; k++ {
			at := barStart + float64(k) + 0.5
			if at >= barStart+float64(g.beatsPerBar) {
				break
			}
			if err := appendHit(&notes, theory.KeyKick, at, g.accent(0.5, -8)); err != nil {
				return nil, err
			}
		}
		if bar%4 == 3 && g.params.Complexity > 0.7 {
			if err := appendHit(&notes, theory.KeyCrash, barStart, g.accent(0, 16)); err != nil {
				return nil, err
			}
		}
	}
	if len(notes) == 0 {
		return nil, errEmptyVoice("percussion")
	}
	return notes, nil
}

func (g *Generator) kickOn(beat int) bool {
	switch g.params.Genre {
	case score.Electronic:
		return true // four on the floor
	case score.Jazz:
		return beat == 0
	default:
		return beat%2 == 0
	}
}

func (g *Generator) snareOn(beat int) bool {
	if g.params.Genre == score.Ambient {
		return false
	}
	return beat%2 == 1
}

func (g *Generator) accent(posInBar float64, delta int) int {
	return clampVelocity(g.dynamics(posInBar) + delta)
}

func appendHit(notes *[]score.Note, key int, at float64, velocity int) error {
	n, err := score.NewNote(key, at, 0.25, velocity)
	if err != nil {
		return err
	}
	*notes = append(*notes, n)
	return nil
}

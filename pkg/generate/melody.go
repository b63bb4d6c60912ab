package generate

import (
	"math"

	"github.com/compogen/compogen/pkg/analysis"
	"github.com/compogen/compogen/pkg/score"
)

// Contour is the overall shape of a melody over its duration.
type contour int

const (
	contourArch contour = iota
	contourWave
	contourLinear
)

// strongBeat marks emphasis weights that count as strong for interval and
// consonance constraints.
const strongBeat = 0.65

// Melody generates the lead voice: a contour is chosen up front, then the
// line walks the scale beat by beat, inserting genre motifs and constraining
// step sizes by beat emphasis. Strong beats are biased toward chord tones,
// the register stays within [48, 84] and the final note lands on the tonic,
// mediant or dominant.
func (g *Generator) Melody() ([]score.Note, error) {
	shape := contour(g.rand.Intn(3))
	direction := 1
	if g.rand.Intn(2) == 0 {
		direction = -1
	}

	totalBeats := float64(g.params.Bars * g.beatsPerBar)
	idx := g.nearestScaleIndex(72) // start near the middle of the register
	var notes []score.Note

	cursor := 0.0
	for cursor < totalBeats {
		bar := int(cursor) / g.beatsPerBar
		beat := int(cursor) % g.beatsPerBar
		posInBar := math.Mod(cursor, float64(g.beatsPerBar)) / float64(g.beatsPerBar)
		progress := cursor / totalBeats
		dir := g.contourDirection(shape, direction, progress)
		strong := g.emphasis(beat) >= strongBeat

		if g.rand.Float64() < g.profile.MotifChance {
			emitted, advance, err := g.motif(idx, cursor, totalBeats, posInBar)
			if err != nil {
				return nil, err
			}
			if len(emitted) > 0 {
				notes = append(notes, emitted...)
				idx = g.nearestScaleIndex(emitted[len(emitted)-1].Pitch)
				cursor += advance
				continue
			}
		}

		idx = g.step(idx, dir, strong, bar)
		pitch := g.scalePitch[idx]
		if !strong && g.rand.Float64() < 0.1+0.15*g.params.Complexity {
			// Weak beats may slide chromatically off the scale.
			pitch = clampPitch(pitch + g.chooseSign())
		}

		duration := 1.0
		if g.rand.Float64() < 0.3+0.4*g.params.Complexity {
			duration = 0.5
		}
		if cursor+duration > totalBeats {
			duration = totalBeats - cursor
		}
		velocity := clampVelocity(g.dynamics(posInBar) + int(g.emphasis(beat)*12))
		n, err := score.NewNote(pitch, cursor, duration, velocity)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
		cursor += duration
	}

	if len(notes) == 0 {
		return nil, errEmptyVoice("melody")
	}
	notes = g.genrePost(notes)
	notes = g.forceCadence(notes)
	return g.applyStyle(notes), nil
}

// step picks the next scale index. Strong beats move one to four scale steps
// toward the contour direction; weak beats wander wider either way.
func (g *Generator) step(idx, dir int, strong bool, bar int) int {
	var next int
	if strong {
		move := (1 + g.rand.Intn(4)) * dir
		next = idx + move
		// Bias strong beats toward consonance with the governing chord.
		chord := g.ChordAt(bar)
		for attempt := 0; attempt < 3; attempt++ {
			if next >= 0 && next < len(g.scalePitch) {
				deg := analysis.ClassifyScaleDegree(g.scalePitch[next], chord)
				if deg == analysis.ChordTone || deg == analysis.ColorTone {
					break
				}
			}
			next = idx + (1+g.rand.Intn(4))*dir
		}
	} else {
		next = idx + (g.rand.Intn(13) - 6)
	}
	if next < 0 {
		next = 0
	}
	if next >= len(g.scalePitch) {
		next = len(g.scalePitch) - 1
	}
	return next
}

// motif transposes one of the genre's interval patterns to the current scale
// position and emits it as eighth notes.
func (g *Generator) motif(idx int, cursor, totalBeats, posInBar float64) ([]score.Note, float64, error) {
	pattern := g.profile.Motifs[g.rand.Intn(len(g.profile.Motifs))]
	var notes []score.Note
	advance := 0.0
	for _, offset := range pattern {
		if cursor+advance+0.5 > totalBeats {
			break
		}
		at := idx + offset
		if at < 0 {
			at = 0
		}
		if at >= len(g.scalePitch) {
			at = len(g.scalePitch) - 1
		}
		velocity := g.dynamics(posInBar)
		n, err := score.NewNote(g.scalePitch[at], cursor+advance, 0.5, velocity)
		if err != nil {
			return nil, 0, err
		}
		notes = append(notes, n)
		advance += 0.5
	}
	return notes, advance, nil
}

func (g *Generator) contourDirection(shape contour, direction int, progress float64) int {
	switch shape {
	case contourArch:
		if progress < 0.5 {
			return 1
		}
		return -1
	case contourWave:
		if math.Sin(progress*4*math.Pi) >= 0 {
			return 1
		}
		return -1
	default:
		return direction
	}
}

func (g *Generator) chooseSign() int {
	if g.rand.Intn(2) == 0 {
		return 1
	}
	return -1
}

// forceCadence snaps the final note onto the tonic, mediant or dominant.
func (g *Generator) forceCadence(notes []score.Note) []score.Note {
	degrees, err := g.params.Key.Degrees()
	if err != nil || len(degrees) < 5 {
		return notes
	}
	targets := map[int]bool{degrees[0]: true, degrees[2]: true, degrees[4]: true}
	last := notes[len(notes)-1]
	if targets[((last.Pitch%12)+12)%12] {
		return notes
	}
	var allowed []int
	for p := registerLow; p <= registerHigh; p++ {
		if targets[p%12] {
			allowed = append(allowed, p)
		}
	}
	snapped := analysis.SnapToScale([]int{last.Pitch}, allowed)
	fixed, err := score.NewNote(snapped[0], last.Start, last.Duration, last.Velocity)
	if err != nil {
		return notes
	}
	notes[len(notes)-1] = fixed
	return notes
}

// genrePost applies the genre-specific melodic treatment: blue notes and
// repeated syncopations for jazz, neighbour-tone ornaments for classical,
// note repetition for pop, octave doubling for electronic.
func (g *Generator) genrePost(notes []score.Note) []score.Note {
	switch g.params.Genre {
	case score.Jazz:
		out := make([]score.Note, 0, len(notes))
		for _, n := range notes {
			pitch := n.Pitch
			if g.rand.Float64() < 0.15 {
				pitch = clampPitch(pitch - 1) // blue-note lowering
			}
			nn, err := score.NewNote(pitch, n.Start, n.Duration, n.Velocity)
			if err != nil {
				continue
			}
			out = append(out, nn)
			if g.rand.Float64() < g.profile.Syncopation && n.Duration >= 1.0 {
				rep, err := score.NewNote(pitch, n.Start+n.Duration/2, n.Duration/2, clampVelocity(n.Velocity-10))
				if err == nil {
					out = append(out, rep)
				}
			}
		}
		return out
	case score.Classical:
		out := make([]score.Note, 0, len(notes))
		for _, n := range notes {
			if g.rand.Float64() < 0.2 && n.Duration >= 1.0 {
				neighbor := clampPitch(n.Pitch + 2)
				orn, err := score.NewNote(neighbor, n.Start, 0.25, clampVelocity(n.Velocity-15))
				if err == nil {
					out = append(out, orn)
					main, err := score.NewNote(n.Pitch, n.Start+0.25, n.Duration-0.25, n.Velocity)
					if err == nil {
						out = append(out, main)
						continue
					}
				}
			}
			out = append(out, n)
		}
		return out
	case score.Pop:
		out := make([]score.Note, 0, len(notes))
		var prev *score.Note
		for i := range notes {
			n := notes[i]
			if prev != nil && g.rand.Float64() < 0.25 {
				nn, err := score.NewNote(prev.Pitch, n.Start, n.Duration, n.Velocity)
				if err == nil {
					n = nn
				}
			}
			out = append(out, n)
			prev = &out[len(out)-1]
		}
		return out
	case score.Electronic:
		out := make([]score.Note, 0, len(notes)*2)
		for _, n := range notes {
			out = append(out, n)
			if n.Pitch+12 <= 127 {
				double, err := score.NewNote(n.Pitch+12, n.Start, n.Duration, clampVelocity(n.Velocity-20))
				if err == nil {
					out = append(out, double)
				}
			}
		}
		return out
	default:
		return notes
	}
}

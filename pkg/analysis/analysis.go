package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
)

// EstimateKey estimates the key of a note set from a duration-weighted
// pitch-class histogram correlated against the 24 binary major/minor scale
// templates. Ties break toward the lowest root, major before minor, so the
// result is deterministic.
func EstimateKey(notes []score.Note) (theory.Scale, error) {
	if len(notes) == 0 {
		return theory.Scale{}, fmt.Errorf("analysis: no notes to estimate key from")
	}
	var histogram [12]float64
	for _, n := range notes {
		histogram[((n.Pitch%12)+12)%12] += n.Duration
	}

	best := theory.Scale{Root: 0, Mode: theory.Major}
	bestScore := math.Inf(-1)
	for root := 0; root < 12; root++ {
		for _, mode := range []theory.Mode{theory.Major, theory.Minor} {
			candidate := theory.Scale{Root: root, Mode: mode}
			degrees, err := candidate.Degrees()
			if err != nil {
				return theory.Scale{}, err
			}
			var template [12]float64
			for _, d := range degrees {
				template[d] = 1
			}
			r := correlate(histogram[:], template[:])
			if r > bestScore {
				bestScore = r
				best = candidate
			}
		}
	}
	return best, nil
}

// correlate computes the Pearson correlation coefficient of two equal-length
// series. Zero variance on either side yields zero.
func correlate(a, b []float64) float64 {
	n := float64(len(a))
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n
	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// IdentifyChord classifies the pitches of one harmonic window. The root is
// taken as the most frequent pitch class and the quality is read off the
// interval set relative to it. Doubled or omitted tones can misclassify;
// this mirrors the approximate behaviour the rest of the pipeline expects.
func IdentifyChord(pitches []int) (theory.Chord, error) {
	if len(pitches) == 0 {
		return theory.Chord{}, fmt.Errorf("analysis: no pitches to identify")
	}
	counts := make(map[int]int)
	for _, p := range pitches {
		counts[((p%12)+12)%12]++
	}
	root := 0
	max := -1
	for pc := 0; pc < 12; pc++ {
		if counts[pc] > max {
			root = pc
			max = counts[pc]
		}
	}

	intervals := make(map[int]bool)
	for pc := range counts {
		intervals[((pc-root)%12+12)%12] = true
	}

	typ := theory.MajorTriad
	switch {
	case intervals[4] && intervals[7]:
		typ = theory.MajorTriad
		if intervals[10] {
			typ = theory.Dominant7
		} else if intervals[11] {
			typ = theory.Major7
		}
	case intervals[3] && intervals[7]:
		typ = theory.MinorTriad
		if intervals[10] {
			typ = theory.Minor7
		}
	case intervals[3] && intervals[6]:
		typ = theory.Diminished
		if intervals[9] {
			typ = theory.Diminished7
		} else if intervals[10] {
			typ = theory.HalfDiminished7
		}
	case intervals[4] && intervals[8]:
		typ = theory.Augmented
	case intervals[5] && intervals[7]:
		typ = theory.Sus4
	case intervals[2] && intervals[7]:
		typ = theory.Sus2
	}

	notes := append([]int(nil), pitches...)
	sort.Ints(notes)
	notes = dedupe(notes)
	return theory.Chord{Root: root, Type: typ, Notes: notes}, nil
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// DetectParallelFifths scans adjacent chord pairs for perfect fifths that
// persist with both voices moved. The scan is exact over every intra-chord
// pitch pair, O(chords·notes²); it is an approximation of textbook analysis
// when tones are doubled or omitted.
func DetectParallelFifths(chords []theory.Chord) [][2]int {
	var found [][2]int
	for i := 0; i+1 < len(chords); i++ {
		if hasParallelFifth(chords[i], chords[i+1]) {
			found = append(found, [2]int{i, i + 1})
		}
	}
	return found
}

func hasParallelFifth(cur, next theory.Chord) bool {
	for _, a := range cur.Notes {
		for _, b := range cur.Notes {
			if b <= a || !isPerfectFifth(a, b) {
				continue
			}
			for _, c := range next.Notes {
				for _, d := range next.Notes {
					if d <= c || !isPerfectFifth(c, d) {
						continue
					}
					if c != a && d != b {
						return true
					}
				}
			}
		}
	}
	return false
}

func isPerfectFifth(low, high int) bool {
	return ((high-low)%12+12)%12 == 7
}

// SnapToScale replaces each value with the nearest member of allowed,
// breaking ties toward the lower pitch. An empty allowed set passes values
// through unchanged.
func SnapToScale(values, allowed []int) []int {
	out := make([]int, len(values))
	copy(out, values)
	if len(allowed) == 0 {
		return out
	}
	for i, v := range values {
		best := allowed[0]
		bestDist := distance(v, allowed[0])
		for _, a := range allowed[1:] {
			d := distance(v, a)
			if d < bestDist || (d == bestDist && a < best) {
				best = a
				bestDist = d
			}
		}
		out[i] = best
	}
	return out
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// maxShiftedVoices bounds the exhaustive per-voice octave search; larger
// chords fall back to uniform shifts of the whole voicing.
const maxShiftedVoices = 5

// OptimizeVoiceLeading re-voices next so that its total nearest-neighbour
// semitone movement from prev is minimal over per-voice octave shifts of
// -12, 0 and +12. Pitch classes and chord type are preserved, the no-shift
// voicing is never beaten by a worse candidate, and identical chords come
// back unchanged.
func OptimizeVoiceLeading(prev, next theory.Chord) theory.Chord {
	if len(prev.Notes) == 0 || len(next.Notes) == 0 {
		return next
	}
	n := len(next.Notes)
	best := append([]int(nil), next.Notes...)
	bestCost := movementCost(prev.Notes, next.Notes)

	try := func(candidate []int) {
		for _, p := range candidate {
			if p < 0 || p > 127 {
				return
			}
		}
		if cost := movementCost(prev.Notes, candidate); cost < bestCost {
			bestCost = cost
			best = append([]int(nil), candidate...)
		}
	}

	if n > maxShiftedVoices {
		for _, shift := range []int{-12, 12} {
			candidate := make([]int, n)
			for i, p := range next.Notes {
				candidate[i] = p + shift
			}
			try(candidate)
		}
	} else {
		shifts := []int{-12, 0, 12}
		candidate := make([]int, n)
		total := 1
		for i := 0; i < n; i++ {
			total *= len(shifts)
		}
		for mask := 0; mask < total; mask++ {
			m := mask
			for i := 0; i < n; i++ {
				candidate[i] = next.Notes[i] + shifts[m%len(shifts)]
				m /= len(shifts)
			}
			try(candidate)
		}
	}

	return theory.Chord{Root: next.Root, Type: next.Type, Notes: best}
}

func movementCost(prev, next []int) int {
	var total int
	for _, p := range next {
		best := distance(p, prev[0])
		for _, q := range prev[1:] {
			if d := distance(p, q); d < best {
				best = d
			}
		}
		total += best
	}
	return total
}

// Degree classifies how a melody note relates to the chord under it.
type Degree string

const (
	ChordTone    Degree = "chord_tone"
	ColorTone    Degree = "color_tone"
	TensionTone  Degree = "tension_tone"
	NonChordTone Degree = "non_chord"
)

// colorIntervals are extensions (9th, 11th, 13th reduced mod 12) that add
// colour without clashing; tensionIntervals pull toward resolution.
var (
	colorIntervals   = map[int]bool{2: true, 5: true, 9: true}
	tensionIntervals = map[int]bool{1: true, 6: true, 11: true}
)

// ClassifyScaleDegree uses a fixed relative-interval lookup against the
// chord type. Melodic generation biases strong beats toward chord tones.
func ClassifyScaleDegree(pitch int, chord theory.Chord) Degree {
	interval := ((pitch-chord.Root)%12 + 12) % 12
	if iv, err := chord.Type.Intervals(); err == nil {
		for _, o := range iv {
			if o%12 == interval {
				return ChordTone
			}
		}
	}
	if colorIntervals[interval] {
		return ColorTone
	}
	if tensionIntervals[interval] {
		return TensionTone
	}
	return NonChordTone
}

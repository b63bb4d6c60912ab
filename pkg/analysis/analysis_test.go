package analysis

import (
	"testing"

	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notesFromPitches(t *testing.T, pitches []int) []score.Note {
	t.Helper()
	notes := make([]score.Note, 0, len(pitches))
	for i, p := range pitches {
		n, err := score.NewNote(p, float64(i), 1, 100)
		require.NoError(t, err)
		notes = append(notes, n)
	}
	return notes
}

func TestEstimateKeyCMajor(t *testing.T) {
	// The seven degrees of C major, evenly weighted.
	notes := notesFromPitches(t, []int{60, 62, 64, 65, 67, 69, 71})
	key, err := EstimateKey(notes)
	require.NoError(t, err)
	assert.Equal(t, 0, key.Root)
	assert.Equal(t, theory.Major, key.Mode)
}

func TestEstimateKeyDMinor(t *testing.T) {
	// D natural minor shares its pitch-class set with F major; the lower
	// root wins the tie.
	notes := notesFromPitches(t, []int{62, 64, 65, 67, 69, 70, 72})
	key, err := EstimateKey(notes)
	require.NoError(t, err)
	assert.Equal(t, 2, key.Root)
	assert.Equal(t, theory.Minor, key.Mode)
}

func TestEstimateKeyEmpty(t *testing.T) {
	_, err := EstimateKey(nil)
	assert.Error(t, err)
}

func TestIdentifyChord(t *testing.T) {
	tests := []struct {
		name    string
		pitches []int
		root    int
		typ     theory.ChordType
	}{
		{"major", []int{60, 64, 67}, 0, theory.MajorTriad},
		{"minor", []int{60, 63, 67}, 0, theory.MinorTriad},
		{"dominant7", []int{60, 64, 67, 70}, 0, theory.Dominant7},
		{"major7", []int{60, 64, 67, 71}, 0, theory.Major7},
		{"minor7", []int{62, 65, 69, 72, 74}, 2, theory.Minor7},
		{"diminished", []int{59, 62, 65, 71}, 11, theory.Diminished},
		{"augmented", []int{60, 64, 68}, 0, theory.Augmented},
		{"sus4", []int{60, 65, 67}, 0, theory.Sus4},
		{"sus2", []int{60, 62, 67}, 0, theory.Sus2},
		{"doubled root wins", []int{60, 72, 64, 67}, 0, theory.MajorTriad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chord, err := IdentifyChord(tt.pitches)
			require.NoError(t, err)
			assert.Equal(t, tt.root, chord.Root)
			assert.Equal(t, tt.typ, chord.Type)
		})
	}
}

func TestDetectParallelFifths(t *testing.T) {
	// C3/G3 -> D3/A3: both voices up a whole step, fifths persist.
	parallel := []theory.Chord{
		{Root: 0, Type: theory.MajorTriad, Notes: []int{48, 55}},
		{Root: 2, Type: theory.MinorTriad, Notes: []int{50, 57}},
	}
	pairs := DetectParallelFifths(parallel)
	require.Len(t, pairs, 1)
	assert.Equal(t, [2]int{0, 1}, pairs[0])

	// Resolving into a first-inversion triad leaves no fifth to flag.
	contrary := []theory.Chord{
		{Root: 0, Type: theory.MajorTriad, Notes: []int{48, 55}},
		{Root: 0, Type: theory.MajorTriad, Notes: []int{52, 55, 60}},
	}
	assert.Empty(t, DetectParallelFifths(contrary))

	// A held fifth is not parallel motion: neither voice moved.
	held := []theory.Chord{
		{Root: 0, Type: theory.MajorTriad, Notes: []int{48, 55}},
		{Root: 0, Type: theory.MajorTriad, Notes: []int{48, 55, 64}},
	}
	assert.Empty(t, DetectParallelFifths(held))
}

func TestSnapToScale(t *testing.T) {
	allowed := []int{60, 62, 64, 65, 67, 69, 71}
	got := SnapToScale([]int{61, 66, 72, 64}, allowed)
	// Ties break toward the lower pitch: 61 -> 60, 66 -> 65.
	assert.Equal(t, []int{60, 65, 71, 64}, got)

	// Empty allowed set passes through unchanged.
	got = SnapToScale([]int{13, 99}, nil)
	assert.Equal(t, []int{13, 99}, got)
}

func TestOptimizeVoiceLeading(t *testing.T) {
	prev, err := theory.NewChord(60, theory.MajorTriad) // C4 E4 G4
	require.NoError(t, err)
	next, err := theory.NewChord(67, theory.MajorTriad) // G4 B4 D5
	require.NoError(t, err)

	optimized := OptimizeVoiceLeading(prev, next)
	assert.Equal(t, next.Root, optimized.Root)
	assert.Equal(t, next.Type, optimized.Type)

	// Never worse than leaving the chord in place.
	base := movementCost(prev.Notes, next.Notes)
	assert.LessOrEqual(t, movementCost(prev.Notes, optimized.Notes), base)

	// Pitch-class set is preserved.
	assert.Equal(t, next.PitchClasses(), optimized.PitchClasses())
}

func TestOptimizeVoiceLeadingIdempotent(t *testing.T) {
	chord, err := theory.NewChord(60, theory.Minor7)
	require.NoError(t, err)
	optimized := OptimizeVoiceLeading(chord, chord)
	assert.Equal(t, chord.Notes, optimized.Notes)
}

func TestClassifyScaleDegree(t *testing.T) {
	chord, err := theory.NewChord(60, theory.MajorTriad)
	require.NoError(t, err)
	assert.Equal(t, ChordTone, ClassifyScaleDegree(64, chord))
	assert.Equal(t, ChordTone, ClassifyScaleDegree(79, chord)) // G, any octave
	assert.Equal(t, ColorTone, ClassifyScaleDegree(62, chord)) // ninth
	assert.Equal(t, TensionTone, ClassifyScaleDegree(61, chord))
	assert.Equal(t, NonChordTone, ClassifyScaleDegree(63, chord))
}

package compose

import (
	"testing"

	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() score.Parameters {
	return score.Parameters{
		Tempo:         120,
		Key:           theory.Scale{Root: 0, Mode: theory.Major},
		TimeSignature: score.TimeSignature{Numerator: 4, Denominator: 4},
		Genre:         score.Pop,
		Mood:          score.Happy,
		Complexity:    0.5,
		Instruments:   []string{"piano", "bass", "drums"},
		Style:         score.Normal,
		Bars:          4,
		Seed:          1,
	}
}

func TestCompose(t *testing.T) {
	o, err := New(nil)
	require.NoError(t, err)

	params := testParams()
	result, err := o.Compose(params)
	require.NoError(t, err)
	require.NotNil(t, result.Score)
	assert.Equal(t, int64(1), result.Seed)
	assert.Equal(t, params.Tempo, result.Score.Tempo)

	require.Len(t, result.Score.Tracks, 3)
	for _, track := range result.Score.Tracks {
		assert.NotEmpty(t, track.Notes, "track %s", track.ID)
		for _, n := range track.Notes {
			assert.GreaterOrEqual(t, n.Pitch, 0, "track %s", track.ID)
			assert.LessOrEqual(t, n.Pitch, 127, "track %s", track.ID)
		}
	}
}

func TestComposeDeterministic(t *testing.T) {
	o, err := New(nil)
	require.NoError(t, err)

	a, err := o.Compose(testParams())
	require.NoError(t, err)
	b, err := o.Compose(testParams())
	require.NoError(t, err)

	require.Equal(t, len(a.Score.Tracks), len(b.Score.Tracks))
	for i := range a.Score.Tracks {
		assert.Equal(t, a.Score.Tracks[i].Notes, b.Score.Tracks[i].Notes)
	}
}

func TestComposePicksSeedWhenZero(t *testing.T) {
	o, err := New(nil)
	require.NoError(t, err)

	params := testParams()
	params.Seed = 0
	result, err := o.Compose(params)
	require.NoError(t, err)
	assert.NotZero(t, result.Seed)
}

func TestComposeInvalidInput(t *testing.T) {
	o, err := New(nil)
	require.NoError(t, err)

	params := testParams()
	params.Tempo = 999
	_, err = o.Compose(params)
	var inputErr *score.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "tempo", inputErr.Field)

	params = testParams()
	params.Genre = score.Genre("polka")
	_, err = o.Compose(params)
	assert.Error(t, err)
}

func TestComposeExpandsClassicalEnsemble(t *testing.T) {
	o, err := New(nil)
	require.NoError(t, err)

	params := testParams()
	params.Genre = score.Classical
	params.Instruments = []string{"violin"}
	result, err := o.Compose(params)
	require.NoError(t, err)

	// Classical convention demands a full string section even when a
	// single instrument was requested.
	instruments := make(map[string]bool)
	for _, track := range result.Score.Tracks {
		instruments[track.Instrument] = true
	}
	assert.GreaterOrEqual(t, len(instruments), 4, "got %v", instruments)
}

func TestComposeMelodyAlwaysPresent(t *testing.T) {
	o, err := New(nil)
	require.NoError(t, err)

	params := testParams()
	params.Instruments = []string{"pad", "strings", "choir"}
	result, err := o.Compose(params)
	require.NoError(t, err)

	var hasMelody bool
	for _, track := range result.Score.Tracks {
		if track.Role == score.RoleMelody {
			hasMelody = true
		}
	}
	assert.True(t, hasMelody, "no track was promoted to the lead voice")
}

func TestComposeDrumsOnRhythm(t *testing.T) {
	o, err := New(nil)
	require.NoError(t, err)

	result, err := o.Compose(testParams())
	require.NoError(t, err)

	for _, track := range result.Score.Tracks {
		if track.Instrument == "drums" {
			assert.Equal(t, score.RoleRhythm, track.Role)
			assert.True(t, track.Percussion)
		}
	}
}

func TestFallbackPad(t *testing.T) {
	params := testParams()
	notes, err := fallbackPad(params)
	require.NoError(t, err)
	// One tonic triad per bar, each lasting the whole bar.
	require.Len(t, notes, params.Bars*3)
	for _, n := range notes {
		assert.Equal(t, float64(params.TimeSignature.Numerator), n.Duration)
		assert.Contains(t, []int{0, 4, 7}, n.Pitch%12)
	}

	params.Key = theory.Scale{Root: 9, Mode: theory.Minor}
	notes, err = fallbackPad(params)
	require.NoError(t, err)
	assert.Contains(t, []int{9, 0, 4}, notes[0].Pitch%12)
}

func TestSnapMelody(t *testing.T) {
	chord, err := theory.NewChord(60, theory.MajorTriad)
	require.NoError(t, err)

	onBeat, err := score.NewNote(63, 0, 1, 100) // minor third against C major
	require.NoError(t, err)
	offBeat, err := score.NewNote(63, 1.5, 0.5, 100)
	require.NoError(t, err)

	track := &score.Track{Role: score.RoleMelody, Notes: []score.Note{onBeat, offBeat}}
	snapMelody(track, []theory.Chord{chord}, testParams())

	assert.Contains(t, []int{0, 4, 7}, track.Notes[0].Pitch%12, "on-beat clash must snap to a chord tone")
	assert.Equal(t, 63, track.Notes[1].Pitch, "off-beat notes pass through")
}

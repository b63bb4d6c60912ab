package midi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/compogen/compogen/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

func testScore(t *testing.T) *score.Score {
	t.Helper()
	mkNote := func(pitch int, start, duration float64, velocity int) score.Note {
		n, err := score.NewNote(pitch, start, duration, velocity)
		require.NoError(t, err)
		return n
	}
	return &score.Score{
		Tempo:         120,
		TimeSignature: score.TimeSignature{Numerator: 4, Denominator: 4},
		Tracks: []score.Track{
			{
				ID: "melody-piano", Instrument: "piano", Role: score.RoleMelody, Program: 0,
				Notes: []score.Note{
					mkNote(60, 0, 1, 100),
					mkNote(64, 1, 0.5, 90),
					mkNote(67, 1.5, 2.5, 80),
				},
			},
			{
				ID: "rhythm-drums", Instrument: "drums", Role: score.RoleRhythm, Percussion: true,
				Notes: []score.Note{
					mkNote(36, 0, 0.25, 110),
					mkNote(38, 1, 0.25, 95),
				},
			},
		},
	}
}

// readNotes replays one SMF track and returns (pitch, absolute tick, channel)
// per note-on.
type smfNote struct {
	pitch   uint8
	tick    uint32
	channel uint8
}

func readNotes(track smf.Track) []smfNote {
	var notes []smfNote
	var abs uint32
	for _, ev := range track {
		abs += ev.Delta
		var ch, key, vel uint8
		if ev.Message.GetNoteStart(&ch, &key, &vel) {
			notes = append(notes, smfNote{pitch: key, tick: abs, channel: ch})
		}
	}
	return notes
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(testScore(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("MThd")))
	assert.Contains(t, string(data), "MTrk")

	parsed, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, parsed.Tracks, 2)

	ticks, ok := parsed.TimeFormat.(smf.MetricTicks)
	require.True(t, ok, "time format should be metric ticks")
	assert.Equal(t, TicksPerBeat, int(ticks))

	melody := readNotes(parsed.Tracks[0])
	require.Len(t, melody, 3)
	wantTicks := []uint32{0, 480, 720}
	wantPitch := []uint8{60, 64, 67}
	for i, n := range melody {
		assert.Equal(t, wantPitch[i], n.pitch)
		assert.InDelta(t, float64(wantTicks[i]), float64(n.tick), 1)
		assert.EqualValues(t, 0, n.channel)
	}

	drums := readNotes(parsed.Tracks[1])
	require.Len(t, drums, 2)
	for _, n := range drums {
		assert.EqualValues(t, 9, n.channel, "percussion belongs on channel 10")
	}
}

func TestEncodeTempoAndTimeSignature(t *testing.T) {
	data, err := Encode(testScore(t))
	require.NoError(t, err)
	parsed, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)

	var sawTimeSig bool
	for trackNo, track := range parsed.Tracks {
		var sawTempo bool
		for _, ev := range track {
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				assert.InDelta(t, 120, bpm, 0.01)
				sawTempo = true
			}
			var num, denom, clocks, dsq uint8
			if ev.Message.GetMetaTimeSig(&num, &denom, &clocks, &dsq) {
				assert.EqualValues(t, 4, num)
				assert.EqualValues(t, 4, denom)
				assert.Equal(t, 0, trackNo, "time signature belongs on the first track")
				sawTimeSig = true
			}
		}
		assert.True(t, sawTempo, "track %d carries no tempo", trackNo)
	}
	assert.True(t, sawTimeSig)
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode(testScore(t))
	require.NoError(t, err)
	b, err := Encode(testScore(t))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "same score must serialize to identical bytes")
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(&score.Score{Tempo: 120})
	assert.Error(t, err, "empty score")

	s := testScore(t)
	s.Tracks[0].Notes[0].Pitch = 200
	_, err = Encode(s)
	var serErr *score.SerializationError
	require.ErrorAs(t, err, &serErr)
	assert.Equal(t, "pitch", serErr.Field)

	s = testScore(t)
	s.Tempo = 0
	_, err = Encode(s)
	assert.True(t, errors.As(err, &serErr))
}

func TestEncodeZeroLengthNoteGetsMinimalDuration(t *testing.T) {
	s := testScore(t)
	// Force rounding to collapse the note to zero ticks.
	s.Tracks[0].Notes = s.Tracks[0].Notes[:1]
	s.Tracks[0].Notes[0].Duration = 0.0001

	data, err := Encode(s)
	require.NoError(t, err)
	parsed, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)

	var abs, onTick, offTick uint32
	for _, ev := range parsed.Tracks[0] {
		abs += ev.Delta
		var ch, key, vel uint8
		if ev.Message.GetNoteStart(&ch, &key, &vel) {
			onTick = abs
		}
		if ev.Message.GetNoteEnd(&ch, &key) {
			offTick = abs
		}
	}
	assert.Greater(t, offTick, onTick)
}

func TestWriteVLQ(t *testing.T) {
	tests := []struct {
		value uint32
		want  []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		writeVLQ(&buf, tt.value)
		assert.Equal(t, tt.want, buf.Bytes(), "value %#x", tt.value)
	}
}

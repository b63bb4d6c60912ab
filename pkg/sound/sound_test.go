package sound

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/wav"
)

func testWAV(t *testing.T, channels int) string {
	t.Helper()
	n, err := score.NewNote(69, 0, 2, 100)
	if err != nil {
		t.Fatal(err)
	}
	s := &score.Score{
		Tempo:         120, // two beats == one second
		TimeSignature: score.TimeSignature{Numerator: 4, Denominator: 4},
		Tracks:        []score.Track{{ID: "melody-piano", Notes: []score.Note{n}}},
	}
	b, err := wav.Encode(s, &wav.Config{Channels: channels})
	if err != nil {
		t.Fatalf("couldn't encode wav: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test.wav")
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzerWAV(t *testing.T) {
	for _, channels := range []int{1, 2} {
		a, err := NewAnalyzer(testWAV(t, channels))
		if err != nil {
			t.Fatalf("channels %d: couldn't analyze: %v", channels, err)
		}
		if d := a.Duration(); d < 900*time.Millisecond || d > 1100*time.Millisecond {
			t.Errorf("channels %d: got duration %s, want about 1s", channels, d)
		}
		if p := a.Peak(); p < 0.05 || p > 1 {
			t.Errorf("channels %d: got peak %f", channels, p)
		}
		rms := a.RMS(100 * time.Millisecond)
		if len(rms) < 9 || len(rms) > 11 {
			t.Errorf("channels %d: got %d rms windows, want about 10", channels, len(rms))
		}
	}
}

func TestAnalyzerRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	if err := os.WriteFile(path, []byte("definitely not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewAnalyzer(path); err == nil {
		t.Error("garbage accepted as wav")
	}

	if _, err := NewAnalyzer(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("missing file accepted")
	}
}

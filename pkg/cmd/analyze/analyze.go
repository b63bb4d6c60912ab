package analyze

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/compogen/compogen/pkg/analysis"
	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/sound"
	"github.com/compogen/compogen/pkg/theory"
	"gitlab.com/gomidi/midi/v2/smf"
)

type Config struct {
	Debug bool
	Input string
	Plot  string
}

// Run inspects a generated file: MIDI files get key estimation and per-bar
// chord identification, audio files get level statistics and an optional
// waveform plot.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Input == "" {
		return fmt.Errorf("analyze: missing input file")
	}
	switch strings.ToLower(filepath.Ext(cfg.Input)) {
	case ".mid", ".midi":
		return analyzeMIDI(cfg)
	case ".wav", ".mp3":
		return analyzeAudio(cfg)
	default:
		return fmt.Errorf("analyze: unsupported file type %q", filepath.Ext(cfg.Input))
	}
}

func analyzeMIDI(cfg *Config) error {
	s, err := smf.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("analyze: couldn't read midi file: %w", err)
	}
	resolution := float64(480)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		resolution = float64(int(mt))
	}

	beatsPerBar := 4
	var notes []score.Note
	for _, track := range s.Tracks {
		var ticks int64
		open := map[[2]uint8]score.Note{}
		for _, ev := range track {
			ticks += int64(ev.Delta)
			var ch, key, vel uint8
			var num, denom, clocks, dsq uint8
			switch {
			case ev.Message.GetMetaTimeSig(&num, &denom, &clocks, &dsq):
				beatsPerBar = int(num)
			case ev.Message.GetNoteStart(&ch, &key, &vel):
				n, err := score.NewNote(int(key), float64(ticks)/resolution, 1, int(vel))
				if err != nil {
					continue
				}
				open[[2]uint8{ch, key}] = n
			case ev.Message.GetNoteEnd(&ch, &key):
				n, ok := open[[2]uint8{ch, key}]
				if !ok {
					continue
				}
				delete(open, [2]uint8{ch, key})
				duration := float64(ticks)/resolution - n.Start
				if duration <= 0 {
					continue
				}
				done, err := score.NewNote(n.Pitch, n.Start, duration, n.Velocity)
				if err != nil {
					continue
				}
				notes = append(notes, done)
			}
		}
	}
	if len(notes) == 0 {
		return fmt.Errorf("analyze: no notes in %s", cfg.Input)
	}

	key, err := analysis.EstimateKey(notes)
	if err != nil {
		return fmt.Errorf("analyze: couldn't estimate key: %w", err)
	}
	log.Printf("analyze: %d notes, estimated key %s\n", len(notes), key)

	bars := map[int][]int{}
	for _, n := range notes {
		bars[int(n.Start)/beatsPerBar] = append(bars[int(n.Start)/beatsPerBar], n.Pitch)
	}
	var chords []theory.Chord
	for bar := 0; ; bar++ {
		pitches, ok := bars[bar]
		if !ok {
			break
		}
		chord, err := analysis.IdentifyChord(pitches)
		if err != nil {
			continue
		}
		chords = append(chords, chord)
		log.Printf("analyze: bar %d: %s %s\n", bar, theory.PitchClassName(chord.Root), chord.Type)
	}
	if pairs := analysis.DetectParallelFifths(chords); len(pairs) > 0 {
		for _, p := range pairs {
			log.Printf("analyze: parallel fifths between bars %d and %d\n", p[0], p[1])
		}
	}
	return nil
}

func analyzeAudio(cfg *Config) error {
	a, err := sound.NewAnalyzer(cfg.Input)
	if err != nil {
		return fmt.Errorf("analyze: couldn't analyze audio: %w", err)
	}
	rms := a.RMS(500 * time.Millisecond)
	var avg float64
	for _, v := range rms {
		avg += v
	}
	if len(rms) > 0 {
		avg /= float64(len(rms))
	}
	log.Printf("analyze: %s duration %s peak %.3f rms %.3f\n", cfg.Input, a.Duration(), a.Peak(), avg)

	if cfg.Plot == "" {
		return nil
	}
	b, err := a.PlotWave(filepath.Base(cfg.Input))
	if err != nil {
		return fmt.Errorf("analyze: couldn't plot waveform: %w", err)
	}
	if err := os.WriteFile(cfg.Plot, b, 0644); err != nil {
		return fmt.Errorf("analyze: couldn't write plot: %w", err)
	}
	log.Printf("analyze: wrote %s\n", cfg.Plot)
	return nil
}

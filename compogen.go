// Package compogen turns high-level musical parameters into concrete
// note-level music and serializes it to MIDI and WAV bytes.
package compogen

import (
	"fmt"
	"strings"

	"github.com/compogen/compogen/pkg/compose"
	"github.com/compogen/compogen/pkg/generate"
	"github.com/compogen/compogen/pkg/midi"
	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
	"github.com/compogen/compogen/pkg/wav"
)

// Config is the string-token form of a generation request, as it arrives
// from flags or an API body.
type Config struct {
	Tempo         int     `json:"tempo"`
	Key           string  `json:"key"`
	TimeSignature string  `json:"time_signature"`
	Genre         string  `json:"genre"`
	Mood          string  `json:"mood"`
	Complexity    float64 `json:"complexity"`
	Instruments   string  `json:"instruments"`
	Style         string  `json:"style"`
	Bars          int     `json:"bars"`
	Seed          int64   `json:"seed"`

	Profiles   string `json:"-"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Debug      bool   `json:"-"`
}

// Result is one finished composition.
type Result struct {
	MIDI     []byte
	WAV      []byte
	Seed     int64
	Warnings []string
	Score    *score.Score
}

// Params validates the config tokens into a typed parameter object. Every
// default lives here so flags, API bodies and tests agree on them.
func Params(cfg *Config) (score.Parameters, error) {
	if cfg.Tempo == 0 {
		cfg.Tempo = 120
	}
	if cfg.Key == "" {
		cfg.Key = "C"
	}
	if cfg.TimeSignature == "" {
		cfg.TimeSignature = "4/4"
	}
	if cfg.Genre == "" {
		cfg.Genre = "pop"
	}
	if cfg.Mood == "" {
		cfg.Mood = "happy"
	}
	if cfg.Style == "" {
		cfg.Style = "normal"
	}
	if cfg.Bars == 0 {
		cfg.Bars = 8
	}
	key, err := theory.ParseKey(cfg.Key)
	if err != nil {
		return score.Parameters{}, &score.InputError{Field: "key", Value: cfg.Key}
	}
	ts, err := score.ParseTimeSignature(cfg.TimeSignature)
	if err != nil {
		return score.Parameters{}, err
	}
	var instruments []string
	for _, in := range strings.Split(cfg.Instruments, ",") {
		in = strings.TrimSpace(in)
		if in != "" {
			instruments = append(instruments, in)
		}
	}
	params := score.Parameters{
		Tempo:         cfg.Tempo,
		Key:           key,
		TimeSignature: ts,
		Genre:         score.Genre(strings.ToLower(cfg.Genre)),
		Mood:          score.Mood(strings.ToLower(cfg.Mood)),
		Complexity:    cfg.Complexity,
		Instruments:   instruments,
		Style:         score.Style(strings.ToLower(cfg.Style)),
		Bars:          cfg.Bars,
		Seed:          cfg.Seed,
	}
	if err := params.Validate(); err != nil {
		return score.Parameters{}, err
	}
	return params, nil
}

// Compose runs one request end to end: parameters, orchestration and both
// serializations.
func Compose(cfg *Config) (*Result, error) {
	params, err := Params(cfg)
	if err != nil {
		return nil, err
	}
	profiles, err := generate.LoadProfiles(cfg.Profiles)
	if err != nil {
		return nil, err
	}
	orchestrator, err := compose.New(&compose.Config{
		Profiles: profiles,
		Debug:    cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	result, err := orchestrator.Compose(params)
	if err != nil {
		return nil, err
	}
	midiBytes, err := midi.Encode(result.Score)
	if err != nil {
		return nil, fmt.Errorf("compogen: couldn't serialize midi: %w", err)
	}
	wavBytes, err := wav.Encode(result.Score, &wav.Config{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Seed:       result.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("compogen: couldn't serialize wav: %w", err)
	}
	return &Result{
		MIDI:     midiBytes,
		WAV:      wavBytes,
		Seed:     result.Seed,
		Warnings: result.Warnings,
		Score:    result.Score,
	}, nil
}

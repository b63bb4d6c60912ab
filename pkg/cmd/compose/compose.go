package compose

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/compogen/compogen"
	"github.com/compogen/compogen/pkg/storage"
	"github.com/oklog/ulid/v2"
)

type Config struct {
	Debug  bool
	DBType string
	DBConn string

	Generation compogen.Config
	Output     string
}

// Run generates one composition and writes the .mid and .wav files. When a
// database connection is configured the composition is persisted too.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("compose: process started")
	start := time.Now()
	defer func() {
		log.Printf("compose: process ended (%s)\n", time.Since(start))
	}()

	cfg.Generation.Debug = cfg.Debug
	result, err := compogen.Compose(&cfg.Generation)
	if err != nil {
		return fmt.Errorf("compose: couldn't generate composition: %w", err)
	}
	for _, w := range result.Warnings {
		log.Printf("compose: warning: %s\n", w)
	}

	id := ulid.Make().String()
	output := cfg.Output
	if output == "" {
		output = strings.ToLower(id)
	}
	base := strings.TrimSuffix(output, filepath.Ext(output))
	if err := os.WriteFile(base+".mid", result.MIDI, 0644); err != nil {
		return fmt.Errorf("compose: couldn't write midi file: %w", err)
	}
	if err := os.WriteFile(base+".wav", result.WAV, 0644); err != nil {
		return fmt.Errorf("compose: couldn't write wav file: %w", err)
	}
	log.Printf("compose: wrote %s.mid and %s.wav (seed %d)\n", base, base, result.Seed)

	if cfg.DBConn == "" {
		return nil
	}
	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("compose: couldn't create orm store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("compose: couldn't start orm store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("compose: couldn't migrate orm store: %w", err)
	}
	if err := store.SetComposition(ctx, &storage.Composition{
		ID:            id,
		Genre:         cfg.Generation.Genre,
		Key:           cfg.Generation.Key,
		Mood:          cfg.Generation.Mood,
		Style:         cfg.Generation.Style,
		Tempo:         cfg.Generation.Tempo,
		TimeSignature: cfg.Generation.TimeSignature,
		Complexity:    cfg.Generation.Complexity,
		Instruments:   cfg.Generation.Instruments,
		Bars:          cfg.Generation.Bars,
		Seed:          result.Seed,
		MIDI:          result.MIDI,
		WAV:           result.WAV,
		Warnings:      strings.Join(result.Warnings, "; "),
		State:         storage.Done,
	}); err != nil {
		return fmt.Errorf("compose: couldn't persist composition: %w", err)
	}
	log.Printf("compose: persisted composition %s\n", id)
	return nil
}

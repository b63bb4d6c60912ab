// Package compose orchestrates one generation request: it allocates
// instrument roles, runs the voice generators, validates the result against
// the music-theory constraints and assembles the final score.
package compose

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/compogen/compogen/pkg/analysis"
	"github.com/compogen/compogen/pkg/generate"
	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
)

// stage names the orchestrator's states; they appear in error detail and
// logs so a failed request can be placed precisely.
type stage string

const (
	stageInit           stage = "init"
	stageAllocateRoles  stage = "allocate_roles"
	stageGenerateTracks stage = "generate_tracks"
	stageValidate       stage = "validate"
	stageFinalize       stage = "finalize"
)

// Transcriber is the pitch-detection collaborator: it turns recorded audio
// into note events with a confidence estimate. The core never implements it;
// a caller that has one passes it in.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) ([]score.Note, float64, error)
}

// Renderer is the soundfont collaborator turning MIDI bytes into
// higher-quality audio than the built-in sine preview.
type Renderer interface {
	Render(ctx context.Context, midi []byte) ([]byte, error)
}

// Orchestrator runs composition requests. Capabilities are explicit: a nil
// Transcriber or Renderer simply means the feature is absent.
type Orchestrator struct {
	profiles    map[score.Genre]*generate.Profile
	transcriber Transcriber
	renderer    Renderer
	debug       bool
}

// Config configures an Orchestrator.
type Config struct {
	Profiles    map[score.Genre]*generate.Profile
	Transcriber Transcriber
	Renderer    Renderer
	Debug       bool
}

// New creates an orchestrator. A nil profile map loads the built-in
// defaults.
func New(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	profiles := cfg.Profiles
	if profiles == nil {
		var err error
		profiles, err = generate.Profiles()
		if err != nil {
			return nil, fmt.Errorf("compose: couldn't load profiles: %w", err)
		}
	}
	return &Orchestrator{
		profiles:    profiles,
		transcriber: cfg.Transcriber,
		renderer:    cfg.Renderer,
		debug:       cfg.Debug,
	}, nil
}

// Renderer returns the configured soundfont collaborator, nil when absent.
func (o *Orchestrator) Renderer() Renderer {
	return o.renderer
}

// Transcriber returns the configured pitch-detection collaborator, nil when
// absent.
func (o *Orchestrator) Transcriber() Transcriber {
	return o.transcriber
}

// Result is the outcome of one request: the finalized score, the seed that
// produced it and any non-fatal validation findings.
type Result struct {
	Score    *score.Score
	Seed     int64
	Warnings []string
}

// allocation binds one instrument to the role it will play.
type allocation struct {
	instrument string
	role       score.Role
}

// Compose runs the full pipeline for one request. A voice generator failing
// degrades that track to a deterministic tonic pad instead of aborting the
// request; everything else surfaces as a typed error.
func (o *Orchestrator) Compose(params score.Parameters) (*Result, error) {
	// INIT
	if err := params.Validate(); err != nil {
		return nil, err
	}
	profile, ok := o.profiles[params.Genre]
	if !ok {
		return nil, &score.InputError{Field: "genre", Value: string(params.Genre)}
	}
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	params.Seed = seed
	rng := rand.New(rand.NewSource(seed))
	o.logf("compose: request started (genre %s, key %s, %d bars, seed %d)",
		params.Genre, params.Key, params.Bars, seed)

	// ALLOCATE_ROLES
	allocations, err := o.allocateRoles(params, profile)
	if err != nil {
		return nil, &score.GenerationError{Stage: string(stageAllocateRoles), Err: err}
	}

	// GENERATE_TRACKS
	gen, err := generate.New(params, profile, rng)
	if err != nil {
		return nil, &score.GenerationError{Stage: string(stageGenerateTracks), Err: err}
	}
	s := &score.Score{
		Tempo:         params.Tempo,
		TimeSignature: params.TimeSignature,
	}
	var warnings []string
	for _, a := range allocations {
		notes, err := o.generateVoice(gen, a.role)
		if err != nil {
			// Degrade locally: a broken voice becomes a tonic pad, the
			// request survives.
			warnings = append(warnings, fmt.Sprintf("track %s/%s degraded: %v", a.role, a.instrument, err))
			o.logf("compose: track %s/%s degraded to fallback: %v", a.role, a.instrument, err)
			notes, err = fallbackPad(params)
			if err != nil {
				return nil, &score.GenerationError{Stage: string(stageGenerateTracks), Track: a.instrument, Err: err}
			}
		}
		program, err := theory.Program(a.instrument)
		if err != nil {
			return nil, &score.GenerationError{Stage: string(stageGenerateTracks), Track: a.instrument, Err: err}
		}
		s.Tracks = append(s.Tracks, score.Track{
			ID:         fmt.Sprintf("%s-%s", a.role, a.instrument),
			Instrument: a.instrument,
			Role:       a.role,
			Program:    program,
			Percussion: a.role == score.RoleRhythm && theory.IsPercussion(a.instrument),
			Notes:      notes,
		})
	}

	// VALIDATE
	validateWarnings, err := o.validate(s, gen, params)
	if err != nil {
		return nil, &score.GenerationError{Stage: string(stageValidate), Err: err}
	}
	warnings = append(warnings, validateWarnings...)

	// FINALIZE
	if len(s.Tracks) == 0 {
		return nil, &score.GenerationError{Stage: string(stageFinalize), Err: fmt.Errorf("no tracks generated")}
	}
	o.logf("compose: request finished (%d tracks, %.1f beats)", len(s.Tracks), s.Duration())
	return &Result{Score: s, Seed: seed, Warnings: warnings}, nil
}

// allocateRoles maps the requested instruments onto roles using the genre's
// preference tables, first expanding the list to the genre's minimum
// ensemble when convention requires more voices than were asked for.
func (o *Orchestrator) allocateRoles(params score.Parameters, profile *generate.Profile) ([]allocation, error) {
	instruments := append([]string(nil), params.Instruments...)
	if len(instruments) == 0 {
		instruments = append(instruments, profile.MinEnsemble...)
	}
	have := make(map[string]bool, len(instruments))
	for _, in := range instruments {
		have[in] = true
	}
	if len(instruments) < len(profile.MinEnsemble) {
		for _, in := range profile.MinEnsemble {
			if !have[in] {
				instruments = append(instruments, in)
				have[in] = true
			}
		}
	}

	filled := make(map[score.Role]bool)
	var allocations []allocation
	for _, in := range instruments {
		role := o.roleFor(in, profile, filled)
		allocations = append(allocations, allocation{instrument: in, role: role})
		filled[role] = true
	}
	// A score without a lead voice is not playable; promote the first
	// track when no instrument claimed the melody.
	if !filled[score.RoleMelody] && len(allocations) > 0 {
		allocations[0].role = score.RoleMelody
	}
	return allocations, nil
}

// roleFor finds the first unfilled role whose genre preference list names
// the instrument, falling back to preference-list membership regardless of
// fill state, then to harmony.
func (o *Orchestrator) roleFor(instrument string, profile *generate.Profile, filled map[score.Role]bool) score.Role {
	if theory.IsPercussion(instrument) {
		return score.RoleRhythm
	}
	for _, role := range score.Roles() {
		if filled[role] {
			continue
		}
		for _, preferred := range profile.Ensembles[role] {
			if preferred == instrument {
				return role
			}
		}
	}
	for _, role := range score.Roles() {
		for _, preferred := range profile.Ensembles[role] {
			if preferred == instrument {
				return role
			}
		}
	}
	if filled[score.RoleHarmony] && !filled[score.RolePad] {
		return score.RolePad
	}
	return score.RoleHarmony
}

func (o *Orchestrator) generateVoice(gen *generate.Generator, role score.Role) ([]score.Note, error) {
	switch role {
	case score.RoleMelody:
		return gen.Melody()
	case score.RoleHarmony:
		return gen.Harmony()
	case score.RoleBass:
		return gen.Bass()
	case score.RoleRhythm:
		return gen.Percussion()
	case score.RolePad:
		return gen.Pad()
	default:
		return nil, fmt.Errorf("compose: no generator for role %s", role)
	}
}

// validate runs the constraint passes: melody notes are snapped onto the
// governing chord where they clash on strong beats, harmony and bass are
// re-voiced for minimal movement and the progression is scanned for
// parallel fifths.
func (o *Orchestrator) validate(s *score.Score, gen *generate.Generator, params score.Parameters) ([]string, error) {
	var warnings []string
	progression := gen.Progression()

	for i := range s.Tracks {
		track := &s.Tracks[i]
		switch track.Role {
		case score.RoleMelody:
			snapMelody(track, progression, params)
		case score.RoleHarmony, score.RoleBass:
			smoothVoiceLeading(track, params)
		}
	}

	if pairs := analysis.DetectParallelFifths(progression); len(pairs) > 0 {
		for _, p := range pairs {
			warnings = append(warnings, fmt.Sprintf("parallel fifths between bars %d and %d", p[0], p[1]))
		}
	}
	return warnings, nil
}

// snapMelody moves strong-beat melody notes that clash with the governing
// chord onto the nearest chord tone.
func snapMelody(track *score.Track, progression []theory.Chord, params score.Parameters) {
	beatsPerBar := params.TimeSignature.Numerator
	for i, n := range track.Notes {
		bar := int(n.Start) / beatsPerBar
		if bar >= len(progression) {
			bar = len(progression) - 1
		}
		if n.Start != float64(int(n.Start)) {
			continue // only notes on the beat are snapped
		}
		chord := progression[bar]
		deg := analysis.ClassifyScaleDegree(n.Pitch, chord)
		if deg == analysis.ChordTone || deg == analysis.ColorTone {
			continue
		}
		allowed := chordPitchesInRegister(chord, 48, 84)
		snapped := analysis.SnapToScale([]int{n.Pitch}, allowed)
		fixed, err := score.NewNote(snapped[0], n.Start, n.Duration, n.Velocity)
		if err != nil {
			continue
		}
		track.Notes[i] = fixed
	}
}

// smoothVoiceLeading re-voices each bar of a harmonic track for minimal
// total movement from the previous bar.
func smoothVoiceLeading(track *score.Track, params score.Parameters) {
	beatsPerBar := float64(params.TimeSignature.Numerator)
	byBar := make(map[int][]int)
	for i, n := range track.Notes {
		bar := int(n.Start / beatsPerBar)
		byBar[bar] = append(byBar[bar], i)
	}
	var bars []int
	for bar := range byBar {
		bars = append(bars, bar)
	}
	sort.Ints(bars)

	var prev theory.Chord
	for _, bar := range bars {
		indices := byBar[bar]
		pitches := make([]int, 0, len(indices))
		seen := make(map[int]bool)
		for _, i := range indices {
			if p := track.Notes[i].Pitch; !seen[p] {
				pitches = append(pitches, p)
				seen[p] = true
			}
		}
		sort.Ints(pitches)
		chord, err := analysis.IdentifyChord(pitches)
		if err != nil {
			continue
		}
		chord.Notes = pitches
		if len(prev.Notes) > 0 {
			optimized := analysis.OptimizeVoiceLeading(prev, chord)
			shift := make(map[int]int, len(pitches))
			for i, p := range pitches {
				shift[p] = optimized.Notes[i]
			}
			for _, i := range indices {
				n := track.Notes[i]
				fixed, err := score.NewNote(shift[n.Pitch], n.Start, n.Duration, n.Velocity)
				if err != nil {
					continue
				}
				track.Notes[i] = fixed
			}
			chord = optimized
		}
		prev = chord
	}
}

func chordPitchesInRegister(chord theory.Chord, low, high int) []int {
	pcs := chord.PitchClasses()
	var pitches []int
	for p := low; p <= high; p++ {
		if pcs[((p%12)+12)%12] {
			pitches = append(pitches, p)
		}
	}
	return pitches
}

// fallbackPad is the deterministic minimal track substituted for a failed
// voice: whole-bar tonic triads at a fixed velocity.
func fallbackPad(params score.Parameters) ([]score.Note, error) {
	typ := theory.MajorTriad
	if params.Key.Mode == theory.Minor || params.Key.Mode == theory.HarmonicMinor {
		typ = theory.MinorTriad
	}
	chord, err := theory.NewChord(theory.Pitch(params.Key.Root, 3), typ)
	if err != nil {
		return nil, err
	}
	beatsPerBar := params.TimeSignature.Numerator
	var notes []score.Note
	for bar := 0; bar < params.Bars; bar++ {
		for _, p := range chord.Notes {
			n, err := score.NewNote(p, float64(bar*beatsPerBar), float64(beatsPerBar), 64)
			if err != nil {
				return nil, err
			}
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if !o.debug {
		return
	}
	log.Printf(format+"\n", args...)
}

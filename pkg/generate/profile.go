package generate

import (
	"fmt"
	"os"

	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
	"gopkg.in/yaml.v3"
)

// Profile bundles everything genre-specific the generators consume: the
// progression template, beat emphasis, motif vocabulary, velocity envelope
// and ensemble conventions. Profiles are built once at startup and validated
// for completeness; string tokens inside them are parsed eagerly so a broken
// profile fails at load time, not mid-generation.
type Profile struct {
	Genre         score.Genre             `yaml:"genre"`
	Progression   []string                `yaml:"progression"`
	Emphasis      []float64               `yaml:"emphasis"`
	Motifs        [][]int                 `yaml:"motifs"`
	MotifChance   float64                 `yaml:"motif_chance"`
	VelocityBase  int                     `yaml:"velocity_base"`
	VelocityRange int                     `yaml:"velocity_range"`
	WalkingBass   bool                    `yaml:"walking_bass"`
	Syncopation   float64                 `yaml:"syncopation"`
	Ensembles     map[score.Role][]string `yaml:"ensembles"`
	MinEnsemble   []string                `yaml:"min_ensemble"`

	numerals []theory.RomanNumeral
}

// Numerals returns the parsed progression template.
func (p *Profile) Numerals() []theory.RomanNumeral {
	return p.numerals
}

// Validate parses the progression and checks the profile carries everything
// the generators will ask for.
func (p *Profile) Validate() error {
	if !p.Genre.Known() {
		return fmt.Errorf("generate: profile has unknown genre %q", p.Genre)
	}
	if len(p.Progression) == 0 {
		return fmt.Errorf("generate: profile %s has no progression", p.Genre)
	}
	p.numerals = p.numerals[:0]
	for _, token := range p.Progression {
		rn, err := theory.ParseRoman(token)
		if err != nil {
			return fmt.Errorf("generate: profile %s: %w", p.Genre, err)
		}
		p.numerals = append(p.numerals, rn)
	}
	if len(p.Emphasis) == 0 {
		return fmt.Errorf("generate: profile %s has no beat emphasis", p.Genre)
	}
	if len(p.Motifs) == 0 {
		return fmt.Errorf("generate: profile %s has no motifs", p.Genre)
	}
	if p.VelocityBase < 1 || p.VelocityBase > 127 {
		return fmt.Errorf("generate: profile %s has velocity base %d", p.Genre, p.VelocityBase)
	}
	if p.VelocityRange < 0 || p.VelocityBase+p.VelocityRange > 127 {
		return fmt.Errorf("generate: profile %s has velocity range %d", p.Genre, p.VelocityRange)
	}
	for _, role := range score.Roles() {
		if len(p.Ensembles[role]) == 0 {
			return fmt.Errorf("generate: profile %s has no instruments for role %s", p.Genre, role)
		}
	}
	for _, in := range p.MinEnsemble {
		if !theory.KnownInstrument(in) {
			return fmt.Errorf("generate: profile %s has unknown instrument %q", p.Genre, in)
		}
	}
	return nil
}

// defaultProfiles is the built-in per-genre configuration.
func defaultProfiles() map[score.Genre]*Profile {
	return map[score.Genre]*Profile{
		score.Classical: {
			Genre:         score.Classical,
			Progression:   []string{"I", "IV", "V", "I"},
			Emphasis:      []float64{1.0, 0.4, 0.7, 0.4},
			Motifs:        [][]int{{0, 1, 2}, {0, -1, 0}, {0, 2, 1}, {0, 1, -1, 0}},
			MotifChance:   0.35,
			VelocityBase:  72,
			VelocityRange: 24,
			Syncopation:   0.05,
			Ensembles: map[score.Role][]string{
				score.RoleMelody:  {"violin", "flute", "oboe"},
				score.RoleHarmony: {"viola", "strings"},
				score.RoleBass:    {"cello", "contrabass"},
				score.RoleRhythm:  {"harpsichord", "piano"},
				score.RolePad:     {"strings", "string ensemble"},
			},
			MinEnsemble: []string{"violin", "viola", "cello", "contrabass"},
		},
		score.Jazz: {
			Genre:         score.Jazz,
			Progression:   []string{"ii7", "V7", "Imaj7", "vi7"},
			Emphasis:      []float64{0.9, 0.5, 0.8, 0.6},
			Motifs:        [][]int{{0, 2, 4}, {0, -2, 1}, {0, 3, 2, 0}, {0, 1, 3}},
			MotifChance:   0.45,
			VelocityBase:  68,
			VelocityRange: 30,
			WalkingBass:   true,
			Syncopation:   0.4,
			Ensembles: map[score.Role][]string{
				score.RoleMelody:  {"tenor sax", "trumpet", "piano"},
				score.RoleHarmony: {"piano", "electric piano"},
				score.RoleBass:    {"acoustic bass", "double bass"},
				score.RoleRhythm:  {"drums"},
				score.RolePad:     {"vibraphone", "organ"},
			},
			MinEnsemble: []string{"piano", "acoustic bass", "drums"},
		},
		score.Pop: {
			Genre:         score.Pop,
			Progression:   []string{"I", "V", "vi", "IV"},
			Emphasis:      []float64{1.0, 0.5, 0.8, 0.5},
			Motifs:        [][]int{{0, 0, 1}, {0, 2, 0}, {0, -1, -2}},
			MotifChance:   0.4,
			VelocityBase:  76,
			VelocityRange: 22,
			Syncopation:   0.2,
			Ensembles: map[score.Role][]string{
				score.RoleMelody:  {"voice", "piano", "electric guitar"},
				score.RoleHarmony: {"piano", "acoustic guitar"},
				score.RoleBass:    {"electric bass", "synth bass"},
				score.RoleRhythm:  {"drums"},
				score.RolePad:     {"synth pad", "strings"},
			},
			MinEnsemble: []string{"piano", "electric bass", "drums"},
		},
		score.Rock: {
			Genre:         score.Rock,
			Progression:   []string{"I", "IV", "V", "IV"},
			Emphasis:      []float64{1.0, 0.6, 0.9, 0.6},
			Motifs:        [][]int{{0, 0, 2}, {0, -2, 0}, {0, 4, 2}},
			MotifChance:   0.3,
			VelocityBase:  84,
			VelocityRange: 26,
			Syncopation:   0.15,
			Ensembles: map[score.Role][]string{
				score.RoleMelody:  {"electric guitar", "voice"},
				score.RoleHarmony: {"distortion guitar", "electric guitar"},
				score.RoleBass:    {"electric bass"},
				score.RoleRhythm:  {"drums"},
				score.RolePad:     {"organ", "synth pad"},
			},
			MinEnsemble: []string{"electric guitar", "electric bass", "drums"},
		},
		score.Electronic: {
			Genre:         score.Electronic,
			Progression:   []string{"i", "VI", "III", "VII"},
			Emphasis:      []float64{1.0, 0.7, 0.9, 0.7},
			Motifs:        [][]int{{0, 0, 7}, {0, 5, 0}, {0, 3, 5, 3}},
			MotifChance:   0.5,
			VelocityBase:  80,
			VelocityRange: 20,
			Syncopation:   0.25,
			Ensembles: map[score.Role][]string{
				score.RoleMelody:  {"square lead", "saw lead"},
				score.RoleHarmony: {"synth pad", "saw lead"},
				score.RoleBass:    {"synth bass"},
				score.RoleRhythm:  {"drums"},
				score.RolePad:     {"synth pad", "warm pad"},
			},
			MinEnsemble: []string{"saw lead", "synth bass", "drums"},
		},
		score.Ambient: {
			Genre:         score.Ambient,
			Progression:   []string{"Imaj7", "IVmaj7", "vi7", "IVmaj7"},
			Emphasis:      []float64{0.8, 0.4, 0.6, 0.4},
			Motifs:        [][]int{{0, 2, 4, 2}, {0, 4, 7}, {0, -3, 0}},
			MotifChance:   0.25,
			VelocityBase:  56,
			VelocityRange: 18,
			Syncopation:   0.0,
			Ensembles: map[score.Role][]string{
				score.RoleMelody:  {"flute", "warm pad"},
				score.RoleHarmony: {"warm pad", "synth strings"},
				score.RoleBass:    {"synth bass", "contrabass"},
				score.RoleRhythm:  {"drums"},
				score.RolePad:     {"warm pad", "choir"},
			},
			MinEnsemble: []string{"warm pad", "synth bass"},
		},
	}
}

// Profiles returns the built-in profiles, validated. Every known genre must
// be covered; a gap is a programming error surfaced at startup.
func Profiles() (map[score.Genre]*Profile, error) {
	profiles := defaultProfiles()
	for _, g := range score.Genres() {
		p, ok := profiles[g]
		if !ok {
			return nil, fmt.Errorf("generate: no profile for genre %s", g)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

// LoadProfiles reads per-genre overrides from a YAML file and merges them
// over the built-in defaults. Missing genres keep their defaults.
func LoadProfiles(path string) (map[score.Genre]*Profile, error) {
	profiles, err := Profiles()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return profiles, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("generate: couldn't read profiles file: %w", err)
	}
	var overrides []*Profile
	if err := yaml.Unmarshal(b, &overrides); err != nil {
		return nil, fmt.Errorf("generate: couldn't parse profiles file: %w", err)
	}
	for _, o := range overrides {
		if err := o.Validate(); err != nil {
			return nil, err
		}
		profiles[o.Genre] = o
	}
	return profiles, nil
}

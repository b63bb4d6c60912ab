package score

// Genre selects the generation profile. The set is closed: anything else is
// rejected at parameter validation.
type Genre string

const (
	Classical  Genre = "classical"
	Jazz       Genre = "jazz"
	Pop        Genre = "pop"
	Rock       Genre = "rock"
	Electronic Genre = "electronic"
	Ambient    Genre = "ambient"
)

// Genres lists every supported genre in a stable order.
func Genres() []Genre {
	return []Genre{Classical, Jazz, Pop, Rock, Electronic, Ambient}
}

func (g Genre) Known() bool {
	for _, k := range Genres() {
		if g == k {
			return true
		}
	}
	return false
}

// Mood biases tempo feel, velocity and register.
type Mood string

const (
	Happy     Mood = "happy"
	Sad       Mood = "sad"
	Calm      Mood = "calm"
	Energetic Mood = "energetic"
	Dark      Mood = "dark"
	Uplifting Mood = "uplifting"
)

func Moods() []Mood {
	return []Mood{Happy, Sad, Calm, Energetic, Dark, Uplifting}
}

func (m Mood) Known() bool {
	for _, k := range Moods() {
		if m == k {
			return true
		}
	}
	return false
}

// Style is the articulation post-processing applied to generated voices.
type Style string

const (
	Normal   Style = "normal"
	Staccato Style = "staccato"
	Legato   Style = "legato"
	Arpeggio Style = "arpeggio"
)

func Styles() []Style {
	return []Style{Normal, Staccato, Legato, Arpeggio}
}

func (s Style) Known() bool {
	for _, k := range Styles() {
		if s == k {
			return true
		}
	}
	return false
}

// Role is the musical function a track plays in the ensemble.
type Role string

const (
	RoleMelody  Role = "melody"
	RoleHarmony Role = "harmony"
	RoleBass    Role = "bass"
	RoleRhythm  Role = "rhythm"
	RolePad     Role = "pad"
)

func Roles() []Role {
	return []Role{RoleMelody, RoleHarmony, RoleBass, RoleRhythm, RolePad}
}

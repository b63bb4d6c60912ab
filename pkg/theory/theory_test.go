package theory

import (
	"math"
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		root int
		mode Mode
		err  bool
	}{
		{"C", 0, Major, false},
		{"c minor", 0, Minor, false},
		{"F#", 6, Major, false},
		{"F#m", 6, Minor, false},
		{"Bb minor", 10, Minor, false},
		{"A major", 9, Major, false},
		{"H", 0, Major, true},
		{"", 0, Major, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if tt.err {
				if err == nil {
					t.Fatalf("ParseKey(%q) err = nil; want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKey(%q) err = %v; want nil", tt.in, err)
			}
			if got.Root != tt.root || got.Mode != tt.mode {
				t.Fatalf("ParseKey(%q) = %v; want root %d mode %s", tt.in, got, tt.root, tt.mode)
			}
		})
	}
}

func TestScaleDegrees(t *testing.T) {
	tests := []struct {
		scale Scale
		want  []int
	}{
		{Scale{Root: 0, Mode: Major}, []int{0, 2, 4, 5, 7, 9, 11}},
		{Scale{Root: 9, Mode: Minor}, []int{9, 11, 0, 2, 4, 5, 7}},
		{Scale{Root: 7, Mode: Mixolydian}, []int{7, 9, 11, 0, 2, 4, 5}},
	}
	for _, tt := range tests {
		got, err := tt.scale.Degrees()
		if err != nil {
			t.Fatalf("Degrees(%v) err = %v; want nil", tt.scale, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("Degrees(%v) = %v; want %v", tt.scale, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("Degrees(%v) = %v; want %v", tt.scale, got, tt.want)
			}
		}
	}
}

func TestNewChord(t *testing.T) {
	c, err := NewChord(60, MajorTriad)
	if err != nil {
		t.Fatalf("NewChord err = %v; want nil", err)
	}
	want := []int{60, 64, 67}
	for i, p := range want {
		if c.Notes[i] != p {
			t.Fatalf("NewChord notes = %v; want %v", c.Notes, want)
		}
	}
	if c.Root != 0 {
		t.Fatalf("NewChord root = %d; want 0", c.Root)
	}
	if !c.Valid() {
		t.Fatal("NewChord chord not valid; want valid")
	}
}

func TestChordValid(t *testing.T) {
	two := Chord{Root: 0, Type: MajorTriad, Notes: []int{60, 72}}
	if two.Valid() {
		t.Fatal("chord with two pitch classes reported valid")
	}
}

func TestParseRoman(t *testing.T) {
	tests := []struct {
		in     string
		degree int
		typ    ChordType
	}{
		{"I", 0, MajorTriad},
		{"ii", 1, MinorTriad},
		{"ii7", 1, Minor7},
		{"V7", 4, Dominant7},
		{"vi", 5, MinorTriad},
		{"Imaj7", 0, Major7},
		{"viio", 6, Diminished},
		{"IVsus2", 3, Sus2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRoman(tt.in)
			if err != nil {
				t.Fatalf("ParseRoman(%q) err = %v; want nil", tt.in, err)
			}
			if got.Degree != tt.degree || got.Type != tt.typ {
				t.Fatalf("ParseRoman(%q) = %+v; want degree %d type %s", tt.in, got, tt.degree, tt.typ)
			}
		})
	}
	if _, err := ParseRoman("viii"); err == nil {
		t.Fatal("ParseRoman(viii) err = nil; want error")
	}
}

func TestResolveRoman(t *testing.T) {
	key := Scale{Root: 0, Mode: Major}
	rn := RomanNumeral{Degree: 4, Type: Dominant7} // V7 in C -> G7
	c, err := rn.Resolve(key, 3)
	if err != nil {
		t.Fatalf("Resolve err = %v; want nil", err)
	}
	if c.Root != 7 {
		t.Fatalf("Resolve root = %d; want 7", c.Root)
	}
	want := []int{55, 59, 62, 65}
	for i, p := range want {
		if c.Notes[i] != p {
			t.Fatalf("Resolve notes = %v; want %v", c.Notes, want)
		}
	}
}

func TestFrequency(t *testing.T) {
	if got := Frequency(69); math.Abs(got-440) > 1e-9 {
		t.Fatalf("Frequency(69) = %f; want 440", got)
	}
	if got := Frequency(57); math.Abs(got-220) > 1e-9 {
		t.Fatalf("Frequency(57) = %f; want 220", got)
	}
}

func TestProgram(t *testing.T) {
	p, err := Program("violin")
	if err != nil {
		t.Fatalf("Program(violin) err = %v; want nil", err)
	}
	if p != 40 {
		t.Fatalf("Program(violin) = %d; want 40", p)
	}
	if _, err := Program("kazoo"); err == nil {
		t.Fatal("Program(kazoo) err = nil; want error")
	}
	if !IsPercussion("drums") {
		t.Fatal("IsPercussion(drums) = false; want true")
	}
	if IsPercussion("violin") {
		t.Fatal("IsPercussion(violin) = true; want false")
	}
}

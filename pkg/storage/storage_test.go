package storage

import (
	"context"
	"errors"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := New("sqlite", ":memory:", false)
	if err != nil {
		t.Fatalf("couldn't create store: %v", err)
	}
	if err := store.Start(ctx); err != nil {
		t.Fatalf("couldn't start store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("couldn't migrate store: %v", err)
	}
	return store
}

func TestCompositionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	c := &Composition{
		ID:            "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Genre:         "pop",
		Key:           "C",
		Mood:          "happy",
		Tempo:         120,
		TimeSignature: "4/4",
		Bars:          8,
		Seed:          42,
		MIDI:          []byte("MThd"),
		WAV:           []byte("RIFF"),
		State:         Done,
	}
	if err := store.SetComposition(ctx, c); err != nil {
		t.Fatalf("couldn't save composition: %v", err)
	}

	got, err := store.GetComposition(ctx, c.ID)
	if err != nil {
		t.Fatalf("couldn't get composition: %v", err)
	}
	if got.Genre != c.Genre || got.Seed != c.Seed || got.State != Done {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if string(got.MIDI) != "MThd" || string(got.WAV) != "RIFF" {
		t.Errorf("blobs didn't survive: %q %q", got.MIDI, got.WAV)
	}
}

func TestGetCompositionNotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.GetComposition(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListCompositions(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	for i, genre := range []string{"pop", "jazz", "pop"} {
		c := &Composition{
			ID:    string(rune('a' + i)),
			Genre: genre,
			State: Pending,
		}
		if err := store.SetComposition(ctx, c); err != nil {
			t.Fatalf("couldn't save composition: %v", err)
		}
	}

	all, err := store.ListCompositions(ctx, 1, 10, "id asc")
	if err != nil {
		t.Fatalf("couldn't list compositions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d compositions, want 3", len(all))
	}

	pop, err := store.ListCompositions(ctx, 1, 10, "", Where("genre = ?", "pop"))
	if err != nil {
		t.Fatalf("couldn't filter compositions: %v", err)
	}
	if len(pop) != 2 {
		t.Errorf("got %d pop compositions, want 2", len(pop))
	}
}

func TestDeleteComposition(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	c := &Composition{ID: "gone", Genre: "rock"}
	if err := store.SetComposition(ctx, c); err != nil {
		t.Fatalf("couldn't save composition: %v", err)
	}
	if err := store.DeleteComposition(ctx, "gone"); err != nil {
		t.Fatalf("couldn't delete composition: %v", err)
	}
	if _, err := store.GetComposition(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v after delete, want ErrNotFound", err)
	}
}

package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/compogen/compogen/pkg/storage"
	"github.com/go-chi/chi/v5"
)

func testRouter(t *testing.T) *chi.Mux {
	t.Helper()
	ctx := context.Background()
	store, err := storage.New("sqlite", ":memory:", false)
	if err != nil {
		t.Fatalf("couldn't create store: %v", err)
	}
	if err := store.Start(ctx); err != nil {
		t.Fatalf("couldn't start store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("couldn't migrate store: %v", err)
	}
	h := &handler{store: store}
	mux := chi.NewRouter()
	mux.Post("/api/compositions", h.create)
	mux.Get("/api/compositions", h.list)
	mux.Get("/api/compositions/{id}.mid", h.midi)
	mux.Get("/api/compositions/{id}.wav", h.wav)
	return mux
}

func TestCreateAndFetchComposition(t *testing.T) {
	mux := testRouter(t)

	body, err := json.Marshal(map[string]interface{}{
		"genre": "pop",
		"bars":  2,
		"seed":  7,
	})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/compositions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}
	var created createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("couldn't parse response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("response carries no id")
	}
	if created.Seed != 7 {
		t.Errorf("got seed %d, want 7", created.Seed)
	}

	// The serialized blobs should come back under their media types.
	req = httptest.NewRequest(http.MethodGet, "/api/compositions/"+created.ID+".mid", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d fetching midi", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/midi" {
		t.Errorf("got content type %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("MThd")) {
		t.Error("midi blob has no SMF header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/compositions/"+created.ID+".wav", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d fetching wav", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("RIFF")) {
		t.Error("wav blob has no RIFF header")
	}
}

func TestCreateCompositionBadInput(t *testing.T) {
	mux := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/compositions", bytes.NewReader([]byte(`{"tempo": 999}`)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d for out-of-range tempo, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/compositions", bytes.NewReader([]byte(`not json`)))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d for malformed body, want 400", rec.Code)
	}
}

func TestListCompositions(t *testing.T) {
	mux := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/compositions", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var items []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("couldn't parse list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("fresh store lists %d compositions", len(items))
	}
}

func TestFetchMissingComposition(t *testing.T) {
	mux := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/compositions/nope.mid", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}
}

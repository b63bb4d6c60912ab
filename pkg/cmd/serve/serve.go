package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/compogen/compogen"
	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
)

type Config struct {
	Debug    bool
	DBType   string
	DBConn   string
	Addr     string
	Profiles string
}

// Serve starts the composition HTTP service.
func Serve(ctx context.Context, cfg *Config) error {
	log.Println("serve: server started")
	defer log.Println("serve: server ended")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("serve: couldn't create orm store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("serve: couldn't start orm store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("serve: couldn't migrate orm store: %w", err)
	}

	h := &handler{store: store, profiles: cfg.Profiles, debug: cfg.Debug}

	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Post("/api/compositions", h.create)
	mux.Get("/api/compositions", h.list)
	mux.Get("/api/compositions/{id}.mid", h.midi)
	mux.Get("/api/compositions/{id}.wav", h.wav)

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("serve: couldn't shutdown server: %v\n", err)
		}
	}()
	log.Printf("serve: listening on %s\n", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: server error: %w", err)
	}
	return nil
}

type handler struct {
	store    *storage.Store
	profiles string
	debug    bool
}

type createResponse struct {
	ID       string   `json:"id"`
	Seed     int64    `json:"seed"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var cfg compogen.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	cfg.Profiles = h.profiles
	cfg.Debug = h.debug
	result, err := compogen.Compose(&cfg)
	if err != nil {
		var inputErr *score.InputError
		status := http.StatusInternalServerError
		if errors.As(err, &inputErr) {
			status = http.StatusBadRequest
		}
		httpError(w, status, err)
		return
	}
	id := ulid.Make().String()
	if err := h.store.SetComposition(r.Context(), &storage.Composition{
		ID:            id,
		Genre:         cfg.Genre,
		Key:           cfg.Key,
		Mood:          cfg.Mood,
		Style:         cfg.Style,
		Tempo:         cfg.Tempo,
		TimeSignature: cfg.TimeSignature,
		Complexity:    cfg.Complexity,
		Instruments:   cfg.Instruments,
		Bars:          cfg.Bars,
		Seed:          result.Seed,
		MIDI:          result.MIDI,
		WAV:           result.WAV,
		Warnings:      strings.Join(result.Warnings, "; "),
		State:         storage.Done,
	}); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createResponse{
		ID:       id,
		Seed:     result.Seed,
		Warnings: result.Warnings,
	})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	compositions, err := h.store.ListCompositions(r.Context(), 1, 100, "created_at desc")
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	type item struct {
		ID    string `json:"id"`
		Genre string `json:"genre"`
		Key   string `json:"key"`
		Tempo int    `json:"tempo"`
		Bars  int    `json:"bars"`
		Seed  int64  `json:"seed"`
	}
	items := make([]item, 0, len(compositions))
	for _, c := range compositions {
		items = append(items, item{
			ID:    c.ID,
			Genre: c.Genre,
			Key:   c.Key,
			Tempo: c.Tempo,
			Bars:  c.Bars,
			Seed:  c.Seed,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func (h *handler) midi(w http.ResponseWriter, r *http.Request) {
	h.blob(w, r, "audio/midi", func(c *storage.Composition) []byte { return c.MIDI })
}

func (h *handler) wav(w http.ResponseWriter, r *http.Request) {
	h.blob(w, r, "audio/wav", func(c *storage.Composition) []byte { return c.WAV })
}

func (h *handler) blob(w http.ResponseWriter, r *http.Request, contentType string, get func(*storage.Composition) []byte) {
	id := chi.URLParam(r, "id")
	c, err := h.store.GetComposition(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(get(c))
}

func httpError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classkit/planner/internal/curriculum"
	"github.com/classkit/planner/internal/events"
	"github.com/classkit/planner/internal/export"
	"github.com/classkit/planner/internal/importer"
	"github.com/classkit/planner/internal/platform/cache"
	"github.com/classkit/planner/internal/platform/config"
	"github.com/classkit/planner/internal/platform/database"
	"github.com/classkit/planner/internal/scratch"
	"github.com/classkit/planner/internal/share"
	"github.com/classkit/planner/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, cleanup, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.mux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "contexts", cfg.Contexts)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// contextServices holds one teaching context's wired services.
type contextServices struct {
	store      *curriculum.Store
	manager    *curriculum.Manager
	importer   *importer.Importer
	drafts     *curriculum.DraftSession
	duplicator *curriculum.Duplicator
}

// app is the wired server: one hierarchy per configured teaching context,
// all feeding a single change hub.
type app struct {
	contexts map[string]*contextServices
	first    string
	hub      *events.Hub
	db       *database.DB
	cache    *cache.Cache
	share    *share.Uploader
}

// newApp connects persistence, the catalog and the per-context services.
// Database and cache are optional: empty URLs degrade to in-memory stores.
func newApp(ctx context.Context, cfg *config.Config) (*app, func(), error) {
	a := &app{
		contexts: make(map[string]*contextServices),
		first:    cfg.Contexts[0],
		hub:      events.NewHub(),
	}
	cleanup := func() {
		if a.db != nil {
			a.db.Close()
		}
		if a.cache != nil {
			a.cache.Close()
		}
	}

	var persist curriculum.Persister
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		pg, err := storage.NewPostgres(db.Pool)
		if err != nil {
			return nil, cleanup, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, cleanup, err
		}
		persist = pg
	} else {
		slog.Info("no database configured, running in-memory")
		persist = storage.NewMemory()
	}

	var drafts curriculum.DraftStore = scratch.NewMemory()
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect cache: %w", err)
		}
		a.cache = c
		drafts, err = scratch.NewRedis(c.Client)
		if err != nil {
			return nil, cleanup, err
		}
	}

	if cfg.Share.BaseURL != "" {
		a.share = share.New(cfg.Share.BaseURL, nil, slog.Default())
	}

	catalog, err := curriculum.NewCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Warn("catalog unavailable, starting without category seed", "path", cfg.CatalogPath, "error", err)
		catalog = nil
	}

	for _, tc := range cfg.Contexts {
		store := curriculum.NewStore(tc)
		if catalog != nil {
			catalog.Seed(store)
		}
		snap, err := persist.LoadAll(ctx, tc)
		if err != nil {
			return nil, cleanup, fmt.Errorf("load context %q: %w", tc, err)
		}
		store.Load(snap)

		manager := curriculum.NewManager(curriculum.ManagerConfig{
			Store:   store,
			Persist: persist,
			Events:  a.hub,
		})
		a.contexts[tc] = &contextServices{
			store:      store,
			manager:    manager,
			importer:   importer.New(store, manager, slog.Default()),
			drafts:     curriculum.NewDraftSession(drafts, manager),
			duplicator: curriculum.NewDuplicator(store, persist, a.hub),
		}
	}

	return a, cleanup, nil
}

// mux builds the HTTP router.
func (a *app) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	mux.Handle("GET /ws", a.hub)
	mux.HandleFunc("GET /export/lesson/{n}", a.handleExportLesson)
	mux.HandleFunc("POST /import", a.handleImport)
	mux.HandleFunc("POST /share/lesson/{n}", a.handleShareLesson)
	mux.HandleFunc("POST /duplicate/lesson/{n}", a.handleDuplicateLesson)
	mux.HandleFunc("GET /draft", a.handleDraftGet)
	mux.HandleFunc("PUT /draft", a.handleDraftEdit)
	mux.HandleFunc("POST /draft/{action}", a.handleDraftAction)
	mux.HandleFunc("DELETE /draft", a.handleDraftDiscard)
	return mux
}

// services resolves the teaching context from the request's "context"
// query parameter, defaulting to the first configured one.
func (a *app) services(r *http.Request) (*contextServices, bool) {
	tc := r.URL.Query().Get("context")
	if tc == "" {
		tc = a.first
	}
	svc, ok := a.contexts[tc]
	return svc, ok
}

func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if a.db != nil {
		if err := a.db.HealthCheck(r.Context()); err != nil {
			slog.Warn("database not ready", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(r.Context()); err != nil {
			slog.Warn("cache not ready", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"cache unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// lessonDoc resolves a lesson and its display number for rendering. The
// number is term-scoped when the lesson sits in a half-term, library-scoped
// otherwise.
func lessonDoc(svc *contextServices, number string) (export.LessonDocument, error) {
	lesson, err := svc.store.Lesson(number)
	if err != nil {
		return export.LessonDocument{}, err
	}
	container := curriculum.LibraryContainer
	if id, held := svc.store.HalfTermOf(number); held {
		container = string(id)
	}
	display, err := svc.store.DisplayNumber(number, container)
	if err != nil {
		display = 0
	}
	return export.LessonDocument{Lesson: lesson, DisplayNumber: display}, nil
}

func (a *app) handleExportLesson(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.services(r)
	if !ok {
		http.Error(w, "unknown teaching context", http.StatusNotFound)
		return
	}
	number := r.PathValue("n")

	doc, err := lessonDoc(svc, number)
	if errors.Is(err, curriculum.ErrNotFound) {
		http.Error(w, "lesson not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=lesson-%s.xlsx", number))
	if err := export.WriteLesson(w, doc); err != nil {
		slog.Error("export failed", "lesson", number, "error", err)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleShareLesson renders the lesson and publishes it to the configured
// share service.
func (a *app) handleShareLesson(w http.ResponseWriter, r *http.Request) {
	if a.share == nil {
		http.Error(w, "sharing is not configured", http.StatusServiceUnavailable)
		return
	}
	svc, ok := a.services(r)
	if !ok {
		http.Error(w, "unknown teaching context", http.StatusNotFound)
		return
	}
	number := r.PathValue("n")

	doc, err := lessonDoc(svc, number)
	if errors.Is(err, curriculum.ErrNotFound) {
		http.Error(w, "lesson not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteLesson(&buf, doc); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	url, err := a.share.Upload(r.Context(), buf.Bytes(), xlsxContentType)
	if err != nil {
		slog.Error("share failed", "lesson", number, "error", err)
		http.Error(w, "share upload failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func (a *app) handleImport(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.services(r)
	if !ok {
		http.Error(w, "unknown teaching context", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}

	res, err := svc.importer.Import(r.Context(), body)
	switch {
	case errors.Is(err, curriculum.ErrInvariant):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, curriculum.ErrPersistence):
		// Stored locally; the durable write needs a retry.
		slog.Warn("import persisted partially", "error", err)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"imported": len(res.LessonNumbers),
		"assigned": res.Assigned,
		"lessons":  res.LessonNumbers,
	})
}

func (a *app) handleDuplicateLesson(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.services(r)
	if !ok {
		http.Error(w, "unknown teaching context", http.StatusNotFound)
		return
	}
	number := r.PathValue("n")

	copyNumber, err := svc.duplicator.Duplicate(r.Context(), number)
	switch {
	case errors.Is(err, curriculum.ErrNotFound):
		http.Error(w, "lesson not found", http.StatusNotFound)
		return
	case errors.Is(err, curriculum.ErrPersistence):
		// Copy exists locally; the durable write needs a retry.
		slog.Warn("duplicate persisted partially", "lesson", number, "error", err)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"number": copyNumber})
}

func writeDraftState(w http.ResponseWriter, s *curriculum.DraftSession) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"state": s.State().String(),
		"dirty": s.Dirty(),
		"draft": s.Draft(),
	})
}

func draftStatus(err error) int {
	switch {
	case errors.Is(err, curriculum.ErrInvariant):
		return http.StatusConflict
	case errors.Is(err, curriculum.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (a *app) handleDraftGet(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.services(r)
	if !ok {
		http.Error(w, "unknown teaching context", http.StatusNotFound)
		return
	}
	writeDraftState(w, svc.drafts)
}

func (a *app) handleDraftEdit(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.services(r)
	if !ok {
		http.Error(w, "unknown teaching context", http.StatusNotFound)
		return
	}
	var d curriculum.Draft
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&d); err != nil {
		http.Error(w, "invalid draft body", http.StatusBadRequest)
		return
	}
	if err := svc.drafts.Edit(r.Context(), d); err != nil {
		http.Error(w, err.Error(), draftStatus(err))
		return
	}
	writeDraftState(w, svc.drafts)
}

// handleDraftAction runs the lifecycle transitions: begin, hide, resume
// and save.
func (a *app) handleDraftAction(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.services(r)
	if !ok {
		http.Error(w, "unknown teaching context", http.StatusNotFound)
		return
	}
	var err error
	switch r.PathValue("action") {
	case "begin":
		err = svc.drafts.Begin(r.Context())
	case "hide":
		err = svc.drafts.Hide(r.Context())
	case "resume":
		err = svc.drafts.Resume(r.Context())
	case "save":
		var lesson curriculum.Lesson
		lesson, err = svc.drafts.Save(r.Context())
		if err == nil {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(lesson)
			return
		}
	default:
		http.Error(w, "unknown draft action", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), draftStatus(err))
		return
	}
	writeDraftState(w, svc.drafts)
}

func (a *app) handleDraftDiscard(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.services(r)
	if !ok {
		http.Error(w, "unknown teaching context", http.StatusNotFound)
		return
	}
	if err := svc.drafts.Discard(r.Context()); err != nil {
		http.Error(w, err.Error(), draftStatus(err))
		return
	}
	writeDraftState(w, svc.drafts)
}

// Package http serves the quiz over HTTP: a live websocket session, the
// question file and the student document download.
package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/singleflight"

	"quiz-studio/internal/app"
	"quiz-studio/internal/export"
)

// Deps are the collaborators the router needs. Metrics may be nil.
type Deps struct {
	Service *app.QuizService
	Static  *export.Static
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter wires the routes.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", NewWSHandler(d.Service, d.Logger).ServeWS)

	h := &fileHandler{service: d.Service, static: d.Static, logger: d.Logger}
	r.Group(func(fr chi.Router) {
		fr.Use(middleware.Timeout(30 * time.Second))
		fr.Get("/view", h.view)
		fr.Get("/questions.json", h.questions)
		fr.Post("/questions.json", h.importQuestions)
		fr.Get("/export.html", h.exportHTML)
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	return r
}

type fileHandler struct {
	service *app.QuizService
	static  *export.Static
	logger  *slog.Logger
	sf      singleflight.Group
}

func (h *fileHandler) view(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.service.View())
}

func (h *fileHandler) questions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, export.QuestionsFileName))
	if err := export.WriteQuestions(w, h.service.Questions()); err != nil {
		h.logger.Warn("write questions failed", "err", err)
	}
}

func (h *fileHandler) importQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := export.ReadQuestions(http.MaxBytesReader(w, r.Body, 64<<20))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, toErrorPayload(err))
		return
	}
	view, err := h.service.ImportQuestions(r.Context(), qs)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, toErrorPayload(err))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// exportHTML renders the student document. Concurrent downloads share one
// render.
func (h *fileHandler) exportHTML(w http.ResponseWriter, r *http.Request) {
	if h.static == nil {
		http.Error(w, "static export is not configured", http.StatusNotImplemented)
		return
	}
	doc, err, _ := h.sf.Do("export.html", func() (interface{}, error) {
		var buf bytes.Buffer
		if err := h.static.Render(r.Context(), &buf, h.service.State(), h.service.Config()); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		h.logger.Warn("static export failed", "err", err)
		respondJSON(w, http.StatusInternalServerError, toErrorPayload(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, export.StaticFileName))
	_, _ = w.Write(doc.([]byte))
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"weather-app/internal/models"
	"weather-app/internal/realtime"
	"weather-app/internal/session"
	"weather-app/internal/view"
)

const sessionCookie = "wa_session"

type Server struct {
	store        *session.Store
	hub          *realtime.Hub
	fetchTimeout time.Duration
	now          func() time.Time
}

func NewServer(store *session.Store, hub *realtime.Hub, fetchTimeout time.Duration) *Server {
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Server{store: store, hub: hub, fetchTimeout: fetchTimeout, now: time.Now}
}

// Publisher returns the session change hook that pushes fresh views to
// websocket subscribers.
func Publisher(hub *realtime.Hub) func(session.Snapshot) {
	return func(snap session.Snapshot) {
		ev, err := stateEvent(snap, time.Now())
		if err != nil {
			slog.Error("render session update failed", "session", snap.ID, "error", err)
			return
		}
		hub.Publish(snap.ID, ev)
	}
}

func stateEvent(snap session.Snapshot, now time.Time) (realtime.Event, error) {
	page := view.Build(snap, now)
	fragments, err := view.Fragments(page)
	if err != nil {
		return realtime.Event{}, err
	}
	return realtime.Event{Type: "state", Version: snap.Version, View: page, Fragments: fragments}, nil
}

// CORS allows cross-origin API calls from origins. Sessions are addressed by
// id in the path, so no credentials are shared cross-origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/", s.handleIndex)
	r.Get("/ws/sessions/{id}", s.handleWebSocket)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Put("/city", s.handleCity)
			r.Post("/search", s.handleSearch)
			r.Post("/select", s.handleSelect)
			r.Post("/unit", s.handleUnit)
			r.Post("/reset", s.handleReset)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg, "code": status})
}

type stateResponse struct {
	Session session.Snapshot `json:"session"`
	View    view.Page        `json:"view"`
}

func (s *Server) writeState(w http.ResponseWriter, status int, sess *session.Session) {
	snap := sess.Snapshot()
	writeJSON(w, status, stateResponse{Session: snap, View: view.Build(snap, s.now())})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// fetchContext outlives the request so a closed tab does not turn an
// in-flight fetch into an error banner.
func (s *Server) fetchContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.fetchTimeout)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var sess *session.Session
	if c, err := r.Cookie(sessionCookie); err == nil {
		sess, _ = s.store.Get(c.Value)
	}
	if sess == nil {
		sess = s.store.Create()
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sess.ID(), Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, view.Build(sess.Snapshot(), s.now())); err != nil {
		slog.Error("render page failed", "session", sess.ID(), "error", err)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create()
	s.writeState(w, http.StatusCreated, sess)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeState(w, http.StatusOK, sess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.store.Delete(id)
	s.hub.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

type cityRequest struct {
	City *string `json:"city"`
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req cityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.City == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"city\": string}")
		return
	}
	sess.Type(*req.City)
	s.writeState(w, http.StatusOK, sess)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.fetchContext(r)
	defer cancel()
	s.finishFetch(w, sess, sess.Submit(ctx))
}

type selectRequest struct {
	Index   *int    `json:"index"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := s.fetchContext(r)
	defer cancel()

	var err error
	switch {
	case req.Index != nil:
		err = sess.SelectIndex(ctx, *req.Index)
		if errors.Is(err, session.ErrNoSuchSuggestion) {
			writeError(w, http.StatusBadRequest, "no such suggestion")
			return
		}
	case strings.TrimSpace(req.Name) != "":
		err = sess.Select(ctx, models.CitySuggestion{Name: req.Name, Country: req.Country, State: req.State, Lat: req.Lat, Lon: req.Lon})
	default:
		writeError(w, http.StatusBadRequest, "provide an index or a suggestion")
		return
	}
	s.finishFetch(w, sess, err)
}

// finishFetch replies with the session state. Validation and provider errors
// are part of that state, so they are not HTTP errors.
func (s *Server) finishFetch(w http.ResponseWriter, sess *session.Session, err error) {
	switch {
	case err == nil, errors.Is(err, session.ErrEmptyQuery):
		s.writeState(w, http.StatusOK, sess)
	case errors.Is(err, session.ErrSuperseded):
		s.writeState(w, http.StatusConflict, sess)
	default:
		slog.Info("weather fetch failed", "session", sess.ID(), "error", err)
		s.writeState(w, http.StatusOK, sess)
	}
}

func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.ToggleUnit()
	s.writeState(w, http.StatusOK, sess)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Reset()
	s.writeState(w, http.StatusOK, sess)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	initial, err := stateEvent(sess.Snapshot(), s.now())
	if err != nil {
		slog.Error("render initial state failed", "session", sess.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "could not render state")
		return
	}
	s.hub.Serve(w, r, sess.ID(), &initial)
}

// Package session holds the per-page search state: the city input, its
// debounced suggestion lookups, and the weather fetches that fill the card.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"weather-app/internal/debounce"
	"weather-app/internal/derive"
	"weather-app/internal/models"
	"weather-app/internal/owm"
)

// EmptyQueryMessage is shown when the search form is submitted without a city.
const EmptyQueryMessage = "Please enter a valid city name"

// minQueryLen is the longest trimmed input, in characters, that does not
// trigger suggestions.
const minQueryLen = 3

var (
	ErrEmptyQuery       = errors.New("empty city query")
	ErrNoSuchSuggestion = errors.New("no such suggestion")
	// ErrSuperseded is returned when a newer fetch or a reset replaced this one
	// before its response arrived. The response was dropped.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Provider is the weather data source a session fetches from.
type Provider interface {
	Suggest(ctx context.Context, query string) ([]models.CitySuggestion, error)
	CurrentByName(ctx context.Context, city string) (models.WeatherSnapshot, error)
	CurrentByCoords(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)
}

type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseSearching   Phase = "searching"
	PhaseSuggestions Phase = "suggestions"
	PhaseWaiting     Phase = "waiting"
	PhaseDisplaying  Phase = "displaying"
	PhaseError       Phase = "error"
)

// Suggestions is the best-effort outcome of an autocomplete lookup. A failed
// lookup is an empty list with OK unset, never an error.
type Suggestions struct {
	List []models.CitySuggestion
	OK   bool
}

// Snapshot is a consistent copy of a session for rendering. Version grows
// with every snapshot taken, so a later snapshot never carries an older state.
type Snapshot struct {
	ID      string             `json:"id"`
	Version uint64             `json:"version"`
	State   models.SearchState `json:"state"`
	Phase   Phase              `json:"phase"`
}

type Options struct {
	Debounce  time.Duration
	Scheduler debounce.Scheduler
	// FetchTimeout bounds suggestion lookups, which run outside any request.
	FetchTimeout time.Duration
	// OnChange is called after every state change, outside the session lock.
	OnChange func(Snapshot)
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 10 * time.Second
	}
	return o
}

type Session struct {
	id        string
	provider  Provider
	opts      Options
	debouncer *debounce.Debouncer

	mu         sync.Mutex
	state      models.SearchState
	waiting    bool
	suggestSeq uint64
	weatherSeq uint64
	version    uint64
	lastSeen   time.Time
}

func New(id string, provider Provider, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		id:        id,
		provider:  provider,
		opts:      opts,
		debouncer: debounce.New(opts.Debounce, opts.Scheduler),
		state:     models.SearchState{Unit: models.Celsius},
		lastSeen:  time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

// Type records a keystroke in the city field.
func (s *Session) Type(text string) {
	s.mu.Lock()
	s.state.CityText = text
	s.suggestSeq++
	query := strings.TrimSpace(text)
	if utf8.RuneCountInString(query) > minQueryLen && s.state.Weather == nil {
		seq := s.suggestSeq
		s.debouncer.Trigger(func() { s.fetchSuggestions(seq, query) })
	} else {
		s.debouncer.Cancel()
		s.state.Suggestions = nil
	}
	s.mu.Unlock()
	s.changed()
}

// Submit searches for the typed city by name.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	city := strings.TrimSpace(s.state.CityText)
	if city == "" {
		s.state.ErrorMessage = EmptyQueryMessage
		s.mu.Unlock()
		s.changed()
		return ErrEmptyQuery
	}
	s.mu.Unlock()

	return s.fetchWeather(ctx, func(ctx context.Context) (models.WeatherSnapshot, error) {
		return s.provider.CurrentByName(ctx, city)
	}, "")
}

// Select fetches weather for a suggestion's coordinates and labels the result
// with the suggestion's full name rather than the provider's.
func (s *Session) Select(ctx context.Context, c models.CitySuggestion) error {
	return s.fetchWeather(ctx, func(ctx context.Context) (models.WeatherSnapshot, error) {
		return s.provider.CurrentByCoords(ctx, c.Lat, c.Lon)
	}, derive.DisplayName(c))
}

// SelectIndex selects one of the currently shown suggestions.
func (s *Session) SelectIndex(ctx context.Context, i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.state.Suggestions) {
		s.mu.Unlock()
		return ErrNoSuchSuggestion
	}
	c := s.state.Suggestions[i]
	s.mu.Unlock()
	return s.Select(ctx, c)
}

// ToggleUnit switches between Celsius and Fahrenheit without fetching.
func (s *Session) ToggleUnit() {
	s.mu.Lock()
	s.state.Unit = s.state.Unit.Toggle()
	s.mu.Unlock()
	s.changed()
}

// Reset starts a new search. The unit preference is kept; in-flight results are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	s.debouncer.Cancel()
	s.suggestSeq++
	s.weatherSeq++
	s.waiting = false
	s.state = models.SearchState{Unit: s.state.Unit}
	s.mu.Unlock()
	s.changed()
}

// Close cancels any pending suggestion lookup.
func (s *Session) Close() {
	s.debouncer.Cancel()
}

func (s *Session) State() models.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyState()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return Snapshot{ID: s.id, Version: s.version, State: s.copyState(), Phase: s.phase()}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// fetchSuggestions runs when the debounce timer fires.
func (s *Session) fetchSuggestions(seq uint64, query string) Suggestions {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.FetchTimeout)
	defer cancel()

	res := Suggestions{List: []models.CitySuggestion{}}
	list, err := s.provider.Suggest(ctx, query)
	if err != nil {
		slog.Debug("suggestion lookup failed", "session", s.id, "query", query, "error", owm.UserMessage(err))
	} else {
		res = Suggestions{List: list, OK: true}
	}

	s.mu.Lock()
	if seq != s.suggestSeq || s.state.Weather != nil || s.waiting {
		s.mu.Unlock()
		slog.Debug("dropping stale suggestions", "session", s.id, "query", query)
		return res
	}
	s.state.Suggestions = res.List
	s.mu.Unlock()
	s.changed()
	return res
}

func (s *Session) fetchWeather(ctx context.Context, fetch func(context.Context) (models.WeatherSnapshot, error), displayName string) error {
	s.mu.Lock()
	s.state.ErrorMessage = ""
	s.state.Weather = nil
	s.state.Suggestions = nil
	s.debouncer.Cancel()
	s.suggestSeq++
	s.weatherSeq++
	seq := s.weatherSeq
	s.waiting = true
	s.mu.Unlock()
	s.changed()

	snap, err := fetch(ctx)

	s.mu.Lock()
	if seq != s.weatherSeq {
		s.mu.Unlock()
		slog.Debug("dropping stale weather response", "session", s.id)
		return ErrSuperseded
	}
	s.waiting = false
	if err != nil {
		s.state.ErrorMessage = owm.UserMessage(err)
		s.mu.Unlock()
		s.changed()
		return err
	}
	s.state.Weather = &snap
	if displayName != "" {
		s.state.CityText = displayName
	} else {
		s.state.CityText = snap.Name
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *Session) phase() Phase {
	switch {
	case s.waiting:
		return PhaseWaiting
	case s.state.Weather != nil:
		return PhaseDisplaying
	case s.state.ErrorMessage != "":
		return PhaseError
	case len(s.state.Suggestions) > 0:
		return PhaseSuggestions
	case strings.TrimSpace(s.state.CityText) != "":
		return PhaseSearching
	default:
		return PhaseIdle
	}
}

func (s *Session) copyState() models.SearchState {
	st := s.state
	if s.state.Suggestions != nil {
		st.Suggestions = append([]models.CitySuggestion(nil), s.state.Suggestions...)
	}
	if s.state.Weather != nil {
		w := *s.state.Weather
		st.Weather = &w
	}
	return st
}

func (s *Session) changed() {
	if s.opts.OnChange == nil {
		return
	}
	s.opts.OnChange(s.Snapshot())
}

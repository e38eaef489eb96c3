package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pantrychef/internal/chefclient"
	"pantrychef/internal/pantry"
	"pantrychef/internal/recipe"
)

// Fetcher generates recipes for a query.
type Fetcher interface {
	GenerateRecipes(ctx context.Context, q recipe.Query) ([]recipe.Recipe, error)
}

// Recognizer finds ingredient names in a data-URL encoded image.
type Recognizer interface {
	RecognizeIngredients(ctx context.Context, dataURL string) ([]string, error)
}

// ErrRecognitionInFlight is returned when a photo is submitted while the
// previous one is still being recognized.
var ErrRecognitionInFlight = errors.New("a photo is already being recognized")

// Session is the state of one browser: the inputs on the home screen, the
// router and the results of the current query. All methods are safe for
// concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	pantry   pantry.Store
	prefs    pantry.Preferences
	servings pantry.Servings
	cuisine  string
	router   Router
	criteria recipe.Criteria

	// seq is the sequence number of the latest fetch issued. A completion
	// carrying any other number is stale and dropped.
	seq        uint64
	fetchedKey string
	loading    bool
	results    []recipe.Recipe
	fetchErr   string

	recognizing  bool
	recognizeErr string
	photoName    string

	lastSeen time.Time
}

// NewSession creates an empty session on the home screen.
func NewSession(id string) *Session {
	return &Session{
		ID:       id,
		servings: pantry.NewServings(pantry.DefaultServings),
		cuisine:  pantry.AnyCuisine,
		criteria: recipe.DefaultCriteria(),
		lastSeen: time.Now(),
	}
}

func (s *Session) AddIngredient(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pantry.Add(raw)
}

func (s *Session) RemoveIngredient(ingredient string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pantry.Remove(ingredient)
}

func (s *Session) TogglePreference(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Toggle(name)
}

// SetPreference turns the named dietary flag on or off.
func (s *Session) SetPreference(name string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Set(name, on)
}

func (s *Session) IncrementServings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servings.Increment()
}

func (s *Session) DecrementServings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servings.Decrement()
}

func (s *Session) SetCuisine(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cuisine = pantry.ParseCuisine(name)
}

// BeginRecognition marks a photo as in flight. Only one photo may be in
// flight at a time.
func (s *Session) BeginRecognition(photoName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recognizing {
		return ErrRecognitionInFlight
	}
	s.recognizing = true
	s.recognizeErr = ""
	s.photoName = photoName
	return nil
}

// FinishRecognition records the outcome of the in-flight photo. On success
// the names are merged into the ingredients and the photo selection is
// cleared; on failure the message is kept for display.
func (s *Session) FinishRecognition(names []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recognizing = false
	if err != nil {
		s.recognizeErr = userMessage(err, "Failed to recognize ingredients.")
		return
	}
	s.pantry.AddMany(names)
	s.photoName = ""
	s.recognizeErr = ""
}

// Submit freezes the current inputs into a query and moves to the recipes
// screen with fresh filter criteria.
func (s *Session) Submit() (recipe.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := pantry.Build(&s.pantry, s.prefs, s.servings, s.cuisine)
	if err != nil {
		return recipe.Query{}, err
	}
	if err := s.router.Submit(q); err != nil {
		return recipe.Query{}, err
	}
	s.criteria = recipe.DefaultCriteria()
	return q, nil
}

// Back returns to the home screen. The query and its results are dropped and
// any fetch still in flight will be ignored when it completes. The
// ingredients are kept for a refined search.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.router.Back() {
		return
	}
	s.seq++
	s.fetchedKey = ""
	s.loading = false
	s.results = nil
	s.fetchErr = ""
}

// StartFetch returns the work that fetches recipes for the current query, or
// nil when there is no query or its results are already present or pending.
// The returned func may be run on any goroutine; its result is applied only
// if no newer fetch has been started by then.
func (s *Session) StartFetch(ctx context.Context, f Fetcher, logger *slog.Logger) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.router.Query()
	if !ok || q.Key() == s.fetchedKey {
		return nil
	}

	s.seq++
	seq := s.seq
	s.fetchedKey = q.Key()
	s.loading = true
	s.results = nil
	s.fetchErr = ""

	return func() {
		recipes, err := f.GenerateRecipes(ctx, q)
		if !s.completeFetch(seq, recipes, err) {
			logger.InfoContext(ctx, "discarding stale recipe response", slog.Uint64("seq", seq))
			return
		}
		if err != nil {
			logger.WarnContext(ctx, "recipe fetch failed", slog.Any("error", err))
		}
	}
}

func (s *Session) completeFetch(seq uint64, recipes []recipe.Recipe, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.loading = false
	if err != nil {
		s.results = nil
		s.fetchErr = userMessage(err, "Failed to fetch recipes.")
		return true
	}
	s.results = recipes
	s.fetchErr = ""
	return true
}

// SetCriteria replaces the filter criteria. Unknown difficulties are
// ignored and the time limit is clamped.
func (s *Session) SetCriteria(difficulties []string, maxCookingTime int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[recipe.Difficulty]bool, len(difficulties))
	c := recipe.DefaultCriteria().WithMaxCookingTime(maxCookingTime)
	for _, name := range difficulties {
		if d, ok := recipe.ParseDifficulty(name); ok && !seen[d] {
			seen[d] = true
			c = c.Toggle(d)
		}
	}
	s.criteria = c
}

// Select opens the detail overlay for recipe id of the current batch.
func (s *Session) Select(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.router.Screen() != ScreenRecipes {
		return ErrNotOnRecipes
	}
	if _, ok := findRecipe(s.results, id); !ok {
		return ErrUnknownRecipe
	}
	return s.router.Select(id)
}

// CloseDetail hides the detail overlay.
func (s *Session) CloseDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router.Close()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func findRecipe(recipes []recipe.Recipe, id int) (recipe.Recipe, bool) {
	for _, r := range recipes {
		if r.ID == id {
			return r, true
		}
	}
	return recipe.Recipe{}, false
}

func userMessage(err error, fallback string) string {
	var re *chefclient.RecognitionError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	var fe *chefclient.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

// Sessions keeps the live sessions in memory, keyed by id. Sessions idle for
// longer than the TTL are dropped.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessions creates an empty session registry. A ttl of zero keeps
// sessions forever.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session with id, creating a new one when id is unknown or
// expired. The second result reports whether a new session was created.
func (m *Sessions) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	if s, ok := m.sessions[id]; ok {
		s.touch(now)
		return s, false
	}

	s := NewSession(uuid.New().String())
	s.lastSeen = now
	m.sessions[s.ID] = s
	return s, true
}

// Len returns the number of live sessions.
func (m *Sessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Sessions) sweep(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			delete(m.sessions, id)
		}
	}
}

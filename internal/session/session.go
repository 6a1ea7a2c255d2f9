// Package session owns logged-in users' wardrobes between requests. A
// Session is created at login and discarded at logout or after it has been
// idle for longer than the manager's TTL.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/recommend"
	"github.com/erazemk/omara/internal/similar"
	"github.com/erazemk/omara/internal/wardrobe"
	"github.com/erazemk/omara/internal/weather"
)

// ErrNoSession is returned for unknown, logged-out or expired sessions.
var ErrNoSession = errors.New("session not found or expired")

var errNoWeatherSource = errors.New("no weather source configured")

// Defaults used when a Config field is left zero.
const (
	DefaultTTL           = 24 * time.Hour
	DefaultWeatherMaxAge = 30 * time.Minute
)

// TemperatureSource looks up the current temperature. *weather.Client
// implements it.
type TemperatureSource interface {
	CurrentTemperature(ctx context.Context, lat, lon float64) weather.Reading
}

// Config configures a Manager.
type Config struct {
	Repository  wardrobe.Repository
	Weather     TemperatureSource
	Latitude    float64
	Longitude   float64
	Recommender *recommend.Recommender
	TTL         time.Duration

	// WeatherMaxAge is how long a successful reading is reused by a session.
	WeatherMaxAge time.Duration
}

// Manager creates and tracks sessions.
type Manager struct {
	repo          wardrobe.Repository
	weather       TemperatureSource
	lat, lon      float64
	rec           *recommend.Recommender
	ttl           time.Duration
	weatherMaxAge time.Duration
	now           func() time.Time

	loginMu  sync.Mutex
	mu       sync.Mutex
	sessions map[string]*Session
	users    map[string]*userWardrobe
}

// userWardrobe is the in-memory wardrobe shared by all of one user's
// sessions. mu serialises every operation on it. refs and busy are guarded
// by Manager.mu; the entry is dropped only when both reach zero.
type userWardrobe struct {
	mu    sync.Mutex
	store *wardrobe.Store
	refs  int
	busy  int
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxAge := cfg.WeatherMaxAge
	if maxAge <= 0 {
		maxAge = DefaultWeatherMaxAge
	}
	rec := cfg.Recommender
	if rec == nil {
		rec = recommend.NewDefault()
	}

	return &Manager{
		repo:          cfg.Repository,
		weather:       cfg.Weather,
		lat:           cfg.Latitude,
		lon:           cfg.Longitude,
		rec:           rec,
		ttl:           ttl,
		weatherMaxAge: maxAge,
		now:           time.Now,
		sessions:      make(map[string]*Session),
		users:         make(map[string]*userWardrobe),
	}
}

// Login opens a session for name. A user seen for the first time gets the
// default wardrobe, which is saved before Login returns.
func (m *Manager) Login(ctx context.Context, name string) (*Session, error) {
	name, err := model.NormalizeUserName(name)
	if err != nil {
		return nil, err
	}

	// Logins are serialised so a first-time user is seeded exactly once.
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	m.mu.Lock()
	uw, ok := m.users[name]
	m.mu.Unlock()

	if !ok {
		store, err := m.loadOrSeed(ctx, name)
		if err != nil {
			return nil, err
		}
		uw = &userWardrobe{store: store}
		m.mu.Lock()
		m.users[name] = uw
		m.mu.Unlock()
	}

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		User:      name,
		CreatedAt: now,
		mgr:       m,
		wardrobe:  uw,
		lastSeen:  now,
	}

	m.mu.Lock()
	uw.refs++
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Info("user logged in", "user", name, "session", s.ID)
	return s, nil
}

func (m *Manager) loadOrSeed(ctx context.Context, name string) (*wardrobe.Store, error) {
	store, found, err := m.repo.LoadUserStore(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading wardrobe for %s: %w", name, err)
	}
	if found {
		return store, nil
	}

	store = wardrobe.NewStore(wardrobe.Defaults()...)
	if err := m.repo.SaveUserStore(ctx, name, store); err != nil {
		return nil, fmt.Errorf("seeding wardrobe for %s: %w", name, err)
	}
	slog.Info("created wardrobe", "user", name, "items", store.Len())
	return store, nil
}

// Get returns a live session and marks it as used. Expired sessions are
// swept on the way.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for sid, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.ttl {
			slog.Info("session expired", "user", s.User, "session", sid)
			m.removeLocked(sid)
		}
	}

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	s.lastSeen = now
	return s, nil
}

// Logout discards a session.
func (m *Manager) Logout(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNoSession
	}
	m.removeLocked(id)
	slog.Info("user logged out", "user", s.User, "session", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) removeLocked(id string) {
	s := m.sessions[id]
	delete(m.sessions, id)
	s.wardrobe.refs--
	m.dropIdleLocked(s.User, s.wardrobe)
}

// dropIdleLocked forgets a user's wardrobe once no session holds it and no
// save on it is in flight. A login in between reuses the live copy instead
// of reading one the pending save is about to replace.
func (m *Manager) dropIdleLocked(name string, uw *userWardrobe) {
	if uw.refs <= 0 && uw.busy <= 0 && m.users[name] == uw {
		delete(m.users, name)
	}
}

func (m *Manager) acquire(uw *userWardrobe) {
	m.mu.Lock()
	uw.busy++
	m.mu.Unlock()
}

func (m *Manager) release(name string, uw *userWardrobe) {
	m.mu.Lock()
	uw.busy--
	m.dropIdleLocked(name, uw)
	m.mu.Unlock()
}

// Session is one logged-in user's handle on their wardrobe.
type Session struct {
	ID        string
	User      string
	CreatedAt time.Time

	mgr      *Manager
	wardrobe *userWardrobe
	lastSeen time.Time // guarded by mgr.mu

	weatherMu sync.Mutex
	reading   *weather.Reading
	readAt    time.Time
}

// Recommendation is an outfit together with the temperature it was chosen
// for.
type Recommendation struct {
	Outfit  recommend.Outfit
	Reading weather.Reading
}

// mutate applies fn to a copy of the wardrobe and saves it. The in-memory
// wardrobe only changes once the save succeeds.
func (s *Session) mutate(ctx context.Context, fn func(*wardrobe.Store) (model.Item, error)) (model.Item, error) {
	s.mgr.acquire(s.wardrobe)
	defer s.mgr.release(s.User, s.wardrobe)

	s.wardrobe.mu.Lock()
	defer s.wardrobe.mu.Unlock()

	next := s.wardrobe.store.Clone()
	item, err := fn(next)
	if err != nil {
		return model.Item{}, err
	}

	if err := s.mgr.repo.SaveUserStore(ctx, s.User, next); err != nil {
		slog.Error("failed to save wardrobe", "user", s.User, "error", err)
		return model.Item{}, fmt.Errorf("saving wardrobe: %w", err)
	}
	s.wardrobe.store = next
	return item, nil
}

// AddItem validates and appends a new item. Any ID on item is replaced.
func (s *Session) AddItem(ctx context.Context, item model.Item) (model.Item, error) {
	item.Normalize()
	if err := model.ValidateItem(item); err != nil {
		return model.Item{}, err
	}
	item.ID = ""

	added, err := s.mutate(ctx, func(st *wardrobe.Store) (model.Item, error) {
		return st.Add(item), nil
	})
	if err != nil {
		return model.Item{}, err
	}
	slog.Info("item added", "user", s.User, "item", added.ID, "name", added.Name)
	return added, nil
}

// UpdateItem applies a partial update to an item.
func (s *Session) UpdateItem(ctx context.Context, id string, fields wardrobe.ItemFields) (model.Item, error) {
	return s.mutate(ctx, func(st *wardrobe.Store) (model.Item, error) {
		return st.Update(id, fields)
	})
}

// RemoveItem deletes an item and returns it, so the caller can release its
// image.
func (s *Session) RemoveItem(ctx context.Context, id string) (model.Item, error) {
	removed, err := s.mutate(ctx, func(st *wardrobe.Store) (model.Item, error) {
		return st.Remove(id)
	})
	if err != nil {
		return model.Item{}, err
	}
	slog.Info("item removed", "user", s.User, "item", removed.ID, "name", removed.Name)
	return removed, nil
}

// SetItemImage points an item at a stored image and returns the updated
// item with the path it replaced.
func (s *Session) SetItemImage(ctx context.Context, id, imagePath string) (model.Item, string, error) {
	var previous string
	item, err := s.mutate(ctx, func(st *wardrobe.Store) (model.Item, error) {
		current, err := st.Get(id)
		if err != nil {
			return model.Item{}, err
		}
		previous = current.ImagePath
		return st.Update(id, wardrobe.ItemFields{ImagePath: &imagePath})
	})
	if err != nil {
		return model.Item{}, "", err
	}
	return item, previous, nil
}

// Items returns the wardrobe in insertion order, restricted to category
// when it is not empty.
func (s *Session) Items(category string) []model.Item {
	s.wardrobe.mu.Lock()
	defer s.wardrobe.mu.Unlock()

	if category == "" {
		return s.wardrobe.store.All()
	}
	return s.wardrobe.store.ByCategory(category)
}

// Item returns one item.
func (s *Session) Item(id string) (model.Item, error) {
	s.wardrobe.mu.Lock()
	defer s.wardrobe.mu.Unlock()
	return s.wardrobe.store.Get(id)
}

// FindSimilar returns the items resembling a shopping query.
func (s *Session) FindSimilar(query string) []model.Item {
	return similar.Find(query, s.Items(""))
}

// Weather returns the current temperature. A successful reading is reused
// for the manager's WeatherMaxAge; fallback readings are not kept.
func (s *Session) Weather(ctx context.Context) weather.Reading {
	s.weatherMu.Lock()
	defer s.weatherMu.Unlock()

	now := s.mgr.now()
	if s.reading != nil && now.Sub(s.readAt) < s.mgr.weatherMaxAge {
		return *s.reading
	}

	if s.mgr.weather == nil {
		return weather.Reading{Celsius: weather.DefaultFallback, Fallback: true, Err: errNoWeatherSource}
	}

	r := s.mgr.weather.CurrentTemperature(ctx, s.mgr.lat, s.mgr.lon)
	if !r.Fallback {
		s.reading = &r
		s.readAt = now
	}
	return r
}

// Recommend suggests an outfit for the current weather, or for override
// when it is set. The reading is returned even when no outfit is possible.
func (s *Session) Recommend(ctx context.Context, override *float64) (Recommendation, error) {
	var reading weather.Reading
	if override != nil {
		reading = weather.Reading{Celsius: *override}
	} else {
		reading = s.Weather(ctx)
	}

	outfit, err := s.mgr.rec.Recommend(s.Items(""), reading.Celsius)
	if err != nil {
		return Recommendation{Reading: reading}, err
	}
	return Recommendation{Outfit: outfit, Reading: reading}, nil
}

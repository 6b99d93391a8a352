package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PetoAdam/homenavi/weather-app/internal/models"
	"github.com/PetoAdam/homenavi/weather-app/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

type Forecaster interface {
	Forecast(ctx context.Context, cityID string) (models.WeatherData, error)
}

type PhotoFinder interface {
	CityPhoto(ctx context.Context, cityName string) (string, error)
}

// Session owns the application state and runs city selections against the
// forecast and photo providers.
type Session struct {
	mu     sync.Mutex
	state  State
	cancel context.CancelFunc

	weather  Forecaster
	photos   PhotoFinder
	obs      *observability.Instruments
	logger   *slog.Logger
	onChange func(State)
}

type Option func(*Session)

// WithFavorites seeds the favorites list, keeping the first city for each id.
func WithFavorites(cities []models.City) Option {
	return func(s *Session) {
		for _, c := range cities {
			if c.ID == "" {
				continue
			}
			s.state = s.state.WithFavorite(c)
		}
	}
}

func WithInstruments(in *observability.Instruments) Option {
	return func(s *Session) { s.obs = in }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithOnChange registers fn to be called after every applied transition.
// Calls may come from different goroutines; fn should read Snapshot for the
// most recent state rather than rely on call order.
func WithOnChange(fn func(State)) Option {
	return func(s *Session) { s.onChange = fn }
}

func NewSession(weather Forecaster, photos PhotoFinder, opts ...Option) *Session {
	s := &Session{weather: weather, photos: photos, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Select makes c the current city, adds it to favorites and loads its
// forecast and photo concurrently. It returns once both providers settled.
// A selection superseded by a later one is cancelled and its result dropped.
func (s *Session) Select(ctx context.Context, c models.City) State {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = s.state.Begin(c)
	seq := s.state.Seq
	begun := s.state.clone()
	s.mu.Unlock()
	defer cancel()

	s.notify(begun)

	ctx, span := s.obs.Start(ctx, "select",
		attribute.String("city.id", c.ID),
		attribute.String("city.name", c.Name),
		attribute.Int64("selection.seq", int64(seq)),
	)
	defer span.End()

	res := s.fetch(ctx, seq, c)

	s.mu.Lock()
	next, applied := s.state.Apply(res)
	if applied {
		s.state = next
		s.cancel = nil
	}
	out := s.state.clone()
	s.mu.Unlock()

	span.SetAttributes(attribute.Bool("selection.applied", applied))
	if !applied {
		s.obs.CountSelection("stale")
		s.logger.Debug("discarding stale selection", "city", c.Name, "seq", seq, "latest", out.Seq)
		return out
	}
	s.obs.CountSelection("applied")
	s.notify(out)
	return out
}

// Refresh reloads the current city. It reports false when no city is selected.
func (s *Session) Refresh(ctx context.Context) (State, bool) {
	cur := s.Snapshot()
	if cur.City == nil {
		return cur, false
	}
	return s.Select(ctx, *cur.City), true
}

// SelectFavorite selects the favorite at index i.
func (s *Session) SelectFavorite(ctx context.Context, i int) (State, error) {
	cur := s.Snapshot()
	if i < 0 || i >= len(cur.Favorites) {
		return cur, fmt.Errorf("favorite %d out of range (have %d)", i, len(cur.Favorites))
	}
	return s.Select(ctx, cur.Favorites[i]), nil
}

func (s *Session) fetch(ctx context.Context, seq uint64, c models.City) Result {
	res := Result{Seq: seq, City: c}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		wd, err := s.weather.Forecast(ctx, c.ID)
		if err != nil {
			s.logger.Error("error fetching weather", "city", c.Name, "id", c.ID, "error", err)
			res.WeatherErr = err
			return
		}
		res.Weather = &wd
		s.logger.Info("got weather data", "city", c.Name, "temperature", wd.Temperature)
	}()
	go func() {
		defer wg.Done()
		u, err := s.photos.CityPhoto(ctx, c.Name)
		if err != nil {
			s.logger.Error("error fetching city image", "city", c.Name, "error", err)
			res.PhotoErr = err
			return
		}
		res.ImageURL = u
		s.logger.Info("got city image", "city", c.Name, "url", u)
	}()
	wg.Wait()
	return res
}

func (s *Session) notify(st State) {
	if s.onChange != nil {
		s.onChange(st)
	}
}

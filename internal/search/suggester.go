package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PetoAdam/homenavi/weather-app/internal/models"
	"github.com/PetoAdam/homenavi/weather-app/internal/observability"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultMinQuery = 3
)

type Searcher interface {
	SearchLocations(ctx context.Context, query string) ([]models.City, error)
}

// Suggester backs the add-city search box: every keystroke goes through Type,
// and the directory is queried only for the value left standing after the
// debounce period.
type Suggester struct {
	mu          sync.Mutex
	query       string
	version     uint64
	suggestions []models.City
	loading     bool
	cancel      context.CancelFunc

	ctx      context.Context
	searcher Searcher
	debounce *Debouncer
	minQuery int
	obs      *observability.Instruments
	logger   *slog.Logger
	onChange func()
}

type Option func(*Suggester)

func WithDebounce(d time.Duration) Option {
	return func(s *Suggester) { s.debounce = NewDebouncer(d) }
}

func WithMinQuery(n int) Option {
	return func(s *Suggester) {
		if n > 0 {
			s.minQuery = n
		}
	}
}

func WithInstruments(in *observability.Instruments) Option {
	return func(s *Suggester) { s.obs = in }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Suggester) { s.logger = l }
}

// WithOnChange registers fn to run whenever suggestions or loading change.
func WithOnChange(fn func()) Option {
	return func(s *Suggester) { s.onChange = fn }
}

// NewSuggester creates a suggester whose requests live under ctx.
func NewSuggester(ctx context.Context, searcher Searcher, opts ...Option) *Suggester {
	s := &Suggester{
		ctx:      ctx,
		searcher: searcher,
		debounce: NewDebouncer(DefaultDebounce),
		minQuery: DefaultMinQuery,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Type records the current contents of the search box.
func (s *Suggester) Type(query string) {
	s.mu.Lock()
	s.query = query
	s.version++
	v := s.version
	s.mu.Unlock()

	s.debounce.Trigger(func() { s.fire(v, query) })
}

func (s *Suggester) fire(v uint64, query string) {
	s.mu.Lock()
	if v != s.version {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < s.minQuery {
		s.suggestions = nil
		s.loading = false
		s.mu.Unlock()
		s.obs.CountSuggestion("cleared")
		s.notify()
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.loading = true
	s.mu.Unlock()
	s.notify()

	s.obs.CountSuggestion("request")
	cities, err := s.searcher.SearchLocations(ctx, q)
	cancel()

	s.mu.Lock()
	if v != s.version {
		s.mu.Unlock()
		s.obs.CountSuggestion("stale")
		return
	}
	s.cancel = nil
	s.loading = false
	if err != nil {
		s.logger.Error("error fetching city suggestions", "query", q, "error", err)
		s.suggestions = nil
	} else {
		s.suggestions = cities
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Suggester) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Suggester) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Suggester) Suggestions() []models.City {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.suggestions)
}

func (s *Suggester) Pick(i int) (models.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.suggestions) {
		return models.City{}, fmt.Errorf("suggestion %d out of range (have %d)", i, len(s.suggestions))
	}
	return s.suggestions[i], nil
}

// Reset clears the search box, as when the add-city screen is left.
func (s *Suggester) Reset() {
	s.debounce.Stop()
	s.mu.Lock()
	s.version++
	s.query = ""
	s.suggestions = nil
	s.loading = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

func (s *Suggester) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

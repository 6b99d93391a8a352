package app

import (
	"slices"

	"github.com/PetoAdam/homenavi/weather-app/internal/models"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	default:
		return "idle"
	}
}

// State is the whole application state. Transitions return a new State and
// never modify the receiver; WeatherData values are treated as immutable once
// stored.
type State struct {
	Status    Status
	Seq       uint64
	City      *models.City
	Favorites []models.City

	Weather    *models.WeatherData
	WeatherFor string // id of the city Weather belongs to
	WeatherErr error

	ImageURL string
	ImageFor string // id of the city ImageURL belongs to
	ImageSeq uint64 // selection that delivered ImageURL, lets the view fade in new images
	PhotoErr error
}

// Result is what one selection produced once both providers settled.
type Result struct {
	Seq        uint64
	City       models.City
	Weather    *models.WeatherData
	WeatherErr error
	ImageURL   string
	PhotoErr   error
}

func (s State) clone() State {
	s.Favorites = slices.Clone(s.Favorites)
	if s.City != nil {
		c := *s.City
		s.City = &c
	}
	return s
}

func (s State) IsFavorite(id string) bool {
	return slices.ContainsFunc(s.Favorites, func(c models.City) bool { return c.ID == id })
}

// WithFavorite appends c unless a favorite with the same id already exists.
func (s State) WithFavorite(c models.City) State {
	s = s.clone()
	if !s.IsFavorite(c.ID) {
		s.Favorites = append(s.Favorites, c)
	}
	return s
}

// Begin starts a selection of c. Previously loaded data stays in place until
// the new result is applied.
func (s State) Begin(c models.City) State {
	s = s.WithFavorite(c)
	s.City = &c
	s.Status = StatusLoading
	s.Seq++
	return s
}

// Apply folds r into the state. It reports false and leaves the state alone
// when r belongs to a selection that has since been superseded.
//
// A failed fetch keeps last-known-good data for the same city but drops data
// that belongs to a different city, so a ready state never mixes cities.
func (s State) Apply(r Result) (State, bool) {
	if r.Seq != s.Seq {
		return s, false
	}
	s = s.clone()
	s.Status = StatusReady

	if r.WeatherErr == nil && r.Weather != nil {
		s.Weather = r.Weather
		s.WeatherFor = r.City.ID
		s.WeatherErr = nil
	} else {
		s.WeatherErr = r.WeatherErr
		if s.WeatherFor != r.City.ID {
			s.Weather = nil
			s.WeatherFor = ""
		}
	}

	if r.PhotoErr == nil && r.ImageURL != "" {
		s.ImageURL = r.ImageURL
		s.ImageFor = r.City.ID
		s.ImageSeq = r.Seq
		s.PhotoErr = nil
	} else {
		s.PhotoErr = r.PhotoErr
		if s.ImageFor != r.City.ID {
			s.ImageURL = ""
			s.ImageFor = ""
		}
	}
	return s, true
}

// WeatherLoaded distinguishes "not loaded yet" from "load failed".
func (s State) WeatherLoaded() bool { return s.Weather != nil }

func (s State) WeatherFailed() bool { return s.WeatherErr != nil }

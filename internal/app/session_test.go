package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PetoAdam/homenavi/weather-app/internal/models"
	"github.com/PetoAdam/homenavi/weather-app/internal/unsplash"
)

type fakeForecaster struct {
	mu    sync.Mutex
	data  map[string]models.WeatherData
	err   error
	calls []string
	// gate, when set, blocks Forecast for the given city id until closed.
	gate map[string]chan struct{}
}

func (f *fakeForecaster) Forecast(ctx context.Context, id string) (models.WeatherData, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	gate := f.gate[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return models.WeatherData{}, f.err
	}
	return f.data[id], nil
}

type fakePhotos struct {
	urls map[string]string
	err  error
	gate map[string]chan struct{}
}

func (f *fakePhotos) CityPhoto(ctx context.Context, name string) (string, error) {
	if g := f.gate[name]; g != nil {
		<-g
	}
	if f.err != nil {
		return "", f.err
	}
	u, ok := f.urls[name]
	if !ok {
		return "", unsplash.ErrNoPhoto
	}
	return u, nil
}

func berlinWeather() models.WeatherData {
	return models.WeatherData{Temperature: 5, MaxTemp: 8, MinTemp: 2, Icon: "partlycloudy_day", Description: "partlycloudy day"}
}

func TestSelectIsIdempotentForFavorites(t *testing.T) {
	fc := &fakeForecaster{data: map[string]models.WeatherData{berlin.ID: berlinWeather()}}
	ph := &fakePhotos{urls: map[string]string{"Berlin": "https://img/berlin.jpg"}}
	s := NewSession(fc, ph, WithFavorites([]models.City{oslo}))

	ctx := context.Background()
	s.Select(ctx, berlin)
	st := s.Select(ctx, berlin)

	if len(st.Favorites) != 2 || st.Favorites[0] != oslo || st.Favorites[1] != berlin {
		t.Fatalf("expected [oslo berlin], got %+v", st.Favorites)
	}
	if st.Status != StatusReady || st.Weather.Temperature != 5 || st.ImageURL != "https://img/berlin.jpg" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSelectWithoutPhotoKeepsEverythingElse(t *testing.T) {
	fc := &fakeForecaster{data: map[string]models.WeatherData{berlin.ID: berlinWeather()}}
	ph := &fakePhotos{}
	s := NewSession(fc, ph)

	st := s.Select(context.Background(), berlin)
	if st.ImageURL != "" {
		t.Fatalf("expected no image, got %q", st.ImageURL)
	}
	if !errors.Is(st.PhotoErr, unsplash.ErrNoPhoto) {
		t.Fatalf("expected photo error to be recorded, got %v", st.PhotoErr)
	}
	if !st.WeatherLoaded() || st.WeatherFailed() || len(st.Favorites) != 1 {
		t.Fatalf("weather or favorites affected by photo failure: %+v", st)
	}
}

func TestSelectWeatherFailureSurfacesError(t *testing.T) {
	fc := &fakeForecaster{err: errors.New("connection refused")}
	ph := &fakePhotos{urls: map[string]string{"Berlin": "https://img/berlin.jpg"}}
	s := NewSession(fc, ph)

	st := s.Select(context.Background(), berlin)
	if st.Status != StatusReady {
		t.Fatalf("expected ready after settle, got %v", st.Status)
	}
	if st.WeatherLoaded() || !st.WeatherFailed() {
		t.Fatalf("expected failed, not loaded, got %+v", st)
	}
	if st.ImageURL == "" {
		t.Fatal("photo success must not be blocked by weather failure")
	}
}

func TestSelectRunsProvidersConcurrently(t *testing.T) {
	// Each provider waits for the other to start; sequential calls would hang.
	weatherStarted := make(chan struct{})
	photoStarted := make(chan struct{})
	s := NewSession(
		forecasterFunc(func(ctx context.Context, id string) (models.WeatherData, error) {
			close(weatherStarted)
			select {
			case <-photoStarted:
			case <-time.After(2 * time.Second):
				return models.WeatherData{}, errors.New("photo never started")
			}
			return berlinWeather(), nil
		}),
		photoFunc(func(ctx context.Context, name string) (string, error) {
			close(photoStarted)
			select {
			case <-weatherStarted:
			case <-time.After(2 * time.Second):
				return "", errors.New("weather never started")
			}
			return "https://img/berlin.jpg", nil
		}),
	)

	st := s.Select(context.Background(), berlin)
	if st.WeatherErr != nil || st.PhotoErr != nil {
		t.Fatalf("expected concurrent fetches, got weather=%v photo=%v", st.WeatherErr, st.PhotoErr)
	}
}

func TestRapidSelectionsEndOnLatestCity(t *testing.T) {
	releaseA := make(chan struct{})
	fc := &fakeForecaster{
		data: map[string]models.WeatherData{
			berlin.ID: berlinWeather(),
			oslo.ID:   {Temperature: -3, Icon: "snow"},
		},
		gate: map[string]chan struct{}{berlin.ID: releaseA},
	}
	ph := &fakePhotos{
		urls: map[string]string{"Berlin": "https://img/berlin.jpg", "Oslo": "https://img/oslo.jpg"},
		gate: map[string]chan struct{}{"Berlin": releaseA},
	}
	s := NewSession(fc, ph)
	ctx := context.Background()

	doneA := make(chan State)
	go func() { doneA <- s.Select(ctx, berlin) }()

	waitFor(t, func() bool { return s.Snapshot().Seq == 1 })

	stB := s.Select(ctx, oslo)
	if stB.City.ID != oslo.ID || stB.Weather.Temperature != -3 || stB.ImageURL != "https://img/oslo.jpg" {
		t.Fatalf("unexpected state after B: %+v", stB)
	}

	close(releaseA)
	<-doneA

	final := s.Snapshot()
	if final.City.ID != oslo.ID || final.WeatherFor != oslo.ID || final.ImageFor != oslo.ID {
		t.Fatalf("stale selection leaked into final state: %+v", final)
	}
	if final.Weather.Temperature != -3 || final.ImageURL != "https://img/oslo.jpg" {
		t.Fatalf("expected oslo data, got %+v", final)
	}
	if len(final.Favorites) != 2 || final.Favorites[0] != berlin {
		t.Fatalf("expected both cities in favorites in selection order, got %+v", final.Favorites)
	}
}

func TestRefreshAndSelectFavorite(t *testing.T) {
	fc := &fakeForecaster{data: map[string]models.WeatherData{berlin.ID: berlinWeather(), oslo.ID: {Temperature: 1}}}
	ph := &fakePhotos{}
	var mu sync.Mutex
	changes := 0
	s := NewSession(fc, ph,
		WithFavorites([]models.City{berlin, oslo, {ID: "", Name: "ignored"}}),
		WithOnChange(func(State) {
			mu.Lock()
			changes++
			mu.Unlock()
		}),
	)
	ctx := context.Background()

	if _, ok := s.Refresh(ctx); ok {
		t.Fatal("refresh without a city should be a no-op")
	}
	if _, err := s.SelectFavorite(ctx, 2); err == nil {
		t.Fatal("expected out of range error")
	}

	st, err := s.SelectFavorite(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if st.City.ID != oslo.ID || len(st.Favorites) != 2 {
		t.Fatalf("unexpected state %+v", st)
	}

	st, ok := s.Refresh(ctx)
	if !ok || st.City.ID != oslo.ID || st.Seq != 2 {
		t.Fatalf("unexpected refresh state ok=%v %+v", ok, st)
	}
	if len(fc.calls) != 2 || fc.calls[1] != oslo.ID {
		t.Fatalf("unexpected forecast calls %v", fc.calls)
	}

	mu.Lock()
	defer mu.Unlock()
	if changes != 4 {
		t.Fatalf("expected 4 change notifications (begin+apply twice), got %d", changes)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewSession(&fakeForecaster{}, &fakePhotos{}, WithFavorites([]models.City{berlin}))
	snap := s.Snapshot()
	snap.Favorites[0].Name = "changed"
	if s.Snapshot().Favorites[0].Name != "Berlin" {
		t.Fatal("snapshot shares favorites with the session")
	}
}

type forecasterFunc func(ctx context.Context, id string) (models.WeatherData, error)

func (f forecasterFunc) Forecast(ctx context.Context, id string) (models.WeatherData, error) {
	return f(ctx, id)
}

type photoFunc func(ctx context.Context, name string) (string, error)

func (f photoFunc) CityPhoto(ctx context.Context, name string) (string, error) { return f(ctx, name) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

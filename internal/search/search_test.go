package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PetoAdam/homenavi/weather-app/internal/models"
)

const testWait = 40 * time.Millisecond

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]models.City
	err     error
	block   chan struct{}
}

func (f *fakeSearcher) SearchLocations(ctx context.Context, q string) ([]models.City, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[q], nil
}

func (f *fakeSearcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func eventually(t *testing.T, cond func() bool) {
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

func TestDebouncerRunsOnlyLastTrigger(t *testing.T) {
	d := NewDebouncer(testWait)
	var mu sync.Mutex
	var got []int
	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
		time.Sleep(testWait / 4)
	}
	time.Sleep(3 * testWait)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected only the last trigger to run, got %v", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(testWait)
	var ran atomic.Bool
	d.Trigger(func() { ran.Store(true) })
	if !d.Stop() {
		t.Fatal("expected a pending call to be stopped")
	}
	if d.Stop() {
		t.Fatal("second stop should report nothing pending")
	}
	time.Sleep(3 * testWait)
	if ran.Load() {
		t.Fatal("stopped call must not run")
	}
}

func TestSuggesterRapidTypingIssuesOneRequest(t *testing.T) {
	berlin := models.City{ID: "2-2950159", Name: "Berlin", Country: "Germany"}
	fs := &fakeSearcher{results: map[string][]models.City{"Berlin": {berlin}}}
	s := NewSuggester(context.Background(), fs, WithDebounce(testWait))

	for _, q := range []string{"B", "Be", "Ber", "Berl", "Berli", "Berlin"} {
		s.Type(q)
	}
	eventually(t, func() bool { return len(s.Suggestions()) == 1 })
	time.Sleep(2 * testWait)

	if calls := fs.calls(); len(calls) != 1 || calls[0] != "Berlin" {
		t.Fatalf("expected exactly one request for Berlin, got %v", calls)
	}
	if s.Query() != "Berlin" || s.Loading() {
		t.Fatalf("unexpected query/loading %q/%v", s.Query(), s.Loading())
	}
	got, err := s.Pick(0)
	if err != nil || got != berlin {
		t.Fatalf("unexpected pick %+v %v", got, err)
	}
	if _, err := s.Pick(1); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestSuggesterShortQueryClearsWithoutRequest(t *testing.T) {
	fs := &fakeSearcher{results: map[string][]models.City{"Oslo": {{ID: "1-72837", Name: "Oslo"}}}}
	changed := make(chan struct{}, 16)
	s := NewSuggester(context.Background(), fs, WithDebounce(testWait), WithOnChange(func() { changed <- struct{}{} }))

	s.Type("Oslo")
	eventually(t, func() bool { return len(s.Suggestions()) == 1 })

	s.Type("Os")
	eventually(t, func() bool { return len(s.Suggestions()) == 0 })
	time.Sleep(2 * testWait)

	if calls := fs.calls(); len(calls) != 1 {
		t.Fatalf("expected only the Oslo request, got %v", calls)
	}
	if len(changed) == 0 {
		t.Fatal("expected change notifications")
	}
}

func TestSuggesterErrorYieldsEmptyList(t *testing.T) {
	fs := &fakeSearcher{err: errors.New("network down")}
	s := NewSuggester(context.Background(), fs, WithDebounce(testWait))

	s.Type("Berlin")
	eventually(t, func() bool { return len(fs.calls()) == 1 && !s.Loading() })
	if got := s.Suggestions(); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %+v", got)
	}
}

func TestSuggesterDropsResponseForOldQuery(t *testing.T) {
	fs := &fakeSearcher{
		results: map[string][]models.City{
			"Berlin": {{ID: "b", Name: "Berlin"}},
			"Bergen": {{ID: "g", Name: "Bergen"}},
		},
		block: make(chan struct{}),
	}
	s := NewSuggester(context.Background(), fs, WithDebounce(testWait))

	s.Type("Berlin")
	eventually(t, func() bool { return s.Loading() })

	fs.mu.Lock()
	fs.block = nil
	fs.mu.Unlock()

	s.Type("Bergen")
	eventually(t, func() bool {
		got := s.Suggestions()
		return len(got) == 1 && got[0].ID == "g"
	})
	if s.Loading() {
		t.Fatal("expected loading to be cleared")
	}
}

func TestSuggesterMinQueryOptionAndReset(t *testing.T) {
	fs := &fakeSearcher{results: map[string][]models.City{"Rome": {{ID: "r", Name: "Rome"}}}}
	s := NewSuggester(context.Background(), fs, WithDebounce(testWait), WithMinQuery(5))

	s.Type("Rome")
	time.Sleep(3 * testWait)
	if len(fs.calls()) != 0 {
		t.Fatalf("expected no request under min query, got %v", fs.calls())
	}

	s.Type("Paris")
	s.Reset()
	time.Sleep(3 * testWait)
	if len(fs.calls()) != 0 || s.Query() != "" {
		t.Fatalf("reset should cancel the pending search, calls=%v query=%q", fs.calls(), s.Query())
	}
}

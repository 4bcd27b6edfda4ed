// Package placestest provides an in-memory places.Provider for tests.
package placestest

import (
	"context"
	"sync"

	"github.com/mymichlin/discovery/internal/places"
)

// Fake records every call and answers from canned results. Text and Nearby
// are consumed in order; when exhausted the last entry is repeated.
type Fake struct {
	mu sync.Mutex

	Text    [][]places.Place
	Nearby  [][]places.Place
	Details map[string]*places.Place
	Review  map[string][]places.Review
	Photos  map[string][]byte
	// Suggestions are keyed by the first included primary type of the query.
	Suggestions map[string][]places.Suggestion
	// SuggestErr fails autocomplete queries keyed like Suggestions.
	SuggestErr map[string]error
	Err        error

	TextCalls   []places.TextQuery
	NearbyCalls []places.NearbyQuery
	DetailCalls []string
	PhotoCalls  []string
	AutoCalls   []places.AutocompleteQuery
}

var (
	_ places.Provider     = (*Fake)(nil)
	_ places.PhotoFetcher = (*Fake)(nil)
)

func next(batches [][]places.Place, n int) []places.Place {
	if len(batches) == 0 {
		return nil
	}
	if n >= len(batches) {
		n = len(batches) - 1
	}
	return batches[n]
}

func (f *Fake) SearchByText(_ context.Context, q places.TextQuery) ([]places.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TextCalls = append(f.TextCalls, q)
	if f.Err != nil {
		return nil, f.Err
	}
	return next(f.Text, len(f.TextCalls)-1), nil
}

func (f *Fake) SearchNearby(_ context.Context, q places.NearbyQuery) ([]places.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.NearbyCalls = append(f.NearbyCalls, q)
	if f.Err != nil {
		return nil, f.Err
	}
	return next(f.Nearby, len(f.NearbyCalls)-1), nil
}

func (f *Fake) PlaceDetails(_ context.Context, id string) (*places.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DetailCalls = append(f.DetailCalls, id)
	if f.Err != nil {
		return nil, f.Err
	}
	if p, ok := f.Details[id]; ok {
		return p, nil
	}
	return nil, &places.Error{Op: "details", StatusCode: 404, Body: "not found"}
}

func (f *Fake) Reviews(_ context.Context, id string) ([]places.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Review[id], nil
}

func (f *Fake) Autocomplete(_ context.Context, q places.AutocompleteQuery) ([]places.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AutoCalls = append(f.AutoCalls, q)
	if f.Err != nil {
		return nil, f.Err
	}
	var key string
	if len(q.IncludedPrimaryTypes) > 0 {
		key = q.IncludedPrimaryTypes[0]
	}
	if err := f.SuggestErr[key]; err != nil {
		return nil, err
	}
	return f.Suggestions[key], nil
}

func (f *Fake) Photo(_ context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PhotoCalls = append(f.PhotoCalls, ref)
	if img, ok := f.Photos[ref]; ok {
		return img, nil
	}
	return nil, &places.Error{Op: "photo", StatusCode: 404}
}

// Calls returns the total number of search calls made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.TextCalls) + len(f.NearbyCalls)
}

// SetErr changes the error returned by every call.
func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// Place builds a minimal place.
func Place(id string, rating float64, count int, types ...string) places.Place {
	r := rating
	return places.Place{ID: id, DisplayName: id, Rating: &r, RatingCount: count, Types: types}
}

// Package places defines the search provider contract and a Google Places
// (New) REST adapter.
package places

import (
	"context"
	"time"

	"github.com/mymichlin/discovery/internal/model"
)

// PriceLevel is the provider's price enum.
type PriceLevel string

const (
	PriceUnspecified   PriceLevel = "PRICE_LEVEL_UNSPECIFIED"
	PriceFree          PriceLevel = "PRICE_LEVEL_FREE"
	PriceInexpensive   PriceLevel = "PRICE_LEVEL_INEXPENSIVE"
	PriceModerate      PriceLevel = "PRICE_LEVEL_MODERATE"
	PriceExpensive     PriceLevel = "PRICE_LEVEL_EXPENSIVE"
	PriceVeryExpensive PriceLevel = "PRICE_LEVEL_VERY_EXPENSIVE"
)

// Tier maps the enum onto 1-5; unknown levels are 0.
func (p PriceLevel) Tier() int {
	switch p {
	case PriceFree:
		return 1
	case PriceInexpensive:
		return 2
	case PriceModerate:
		return 3
	case PriceExpensive:
		return 4
	case PriceVeryExpensive:
		return 5
	}
	return 0
}

// Place is a raw provider result.
type Place struct {
	ID          string
	DisplayName string
	Address     string
	Phone       string
	Website     string
	PriceLevel  PriceLevel
	Rating      *float64
	RatingCount int
	Types       []string
	Location    model.Coordinate
	OpenNow     bool
	PhotoRef    string
	Photo       []byte
}

// Review is a raw provider review.
type Review struct {
	Name         string // provider resource name, stable across fetches
	Author       string
	Rating       float64
	Text         string
	PublishTime  time.Time
	RelativeTime string
}

// Circle is a search area.
type Circle struct {
	Center       model.Coordinate
	RadiusMeters float64
}

// TextQuery is a free-text search biased towards an area.
type TextQuery struct {
	Text         string
	IncludedType string
	MaxResults   int
	MinRating    float64
	Bias         Circle
}

// NearbyQuery is a search restricted to an area.
type NearbyQuery struct {
	IncludedTypes        []string
	IncludedPrimaryTypes []string
	MaxResults           int
	Restriction          Circle
}

// Rect is a latitude/longitude box, Low being the south-west corner.
type Rect struct {
	Low  model.Coordinate
	High model.Coordinate
}

// RectAround returns the box extending delta degrees from c on every side.
func RectAround(c model.Coordinate, delta float64) Rect {
	return Rect{
		Low:  model.Coordinate{Lat: c.Lat - delta, Lng: c.Lng - delta},
		High: model.Coordinate{Lat: c.Lat + delta, Lng: c.Lng + delta},
	}
}

// AutocompleteQuery asks for place predictions matching partial input.
type AutocompleteQuery struct {
	Input                string
	IncludedPrimaryTypes []string
	Bias                 Rect
	// Origin is used for the predictions' straight-line distance.
	Origin model.Coordinate
}

// Suggestion is a place prediction.
type Suggestion struct {
	PlaceID        string   `json:"placeId"`
	Text           string   `json:"text"`
	MainText       string   `json:"mainText"`
	SecondaryText  string   `json:"secondaryText,omitempty"`
	Types          []string `json:"types,omitempty"`
	DistanceMeters int      `json:"distanceMeters,omitempty"`
}

// Provider is the external places search service.
type Provider interface {
	SearchByText(ctx context.Context, q TextQuery) ([]Place, error)
	SearchNearby(ctx context.Context, q NearbyQuery) ([]Place, error)
	PlaceDetails(ctx context.Context, id string) (*Place, error)
	Reviews(ctx context.Context, id string) ([]Review, error)
	Autocomplete(ctx context.Context, q AutocompleteQuery) ([]Suggestion, error)
}

// PhotoFetcher downloads the image behind a Place.PhotoRef.
type PhotoFetcher interface {
	Photo(ctx context.Context, ref string) ([]byte, error)
}

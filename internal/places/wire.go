package places

import (
	"time"

	"github.com/mymichlin/discovery/internal/model"
)

// Google Places API (New) wire types. Only the fields in the field masks below are decoded.

const (
	placeFields  = "id,displayName,formattedAddress,internationalPhoneNumber,websiteUri,priceLevel,rating,userRatingCount,types,location,currentOpeningHours.openNow,photos"
	searchFields = "places.id,places.displayName,places.formattedAddress,places.internationalPhoneNumber,places.websiteUri,places.priceLevel,places.rating,places.userRatingCount,places.types,places.location,places.currentOpeningHours.openNow,places.photos"
	reviewFields = "reviews"
)

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type area struct {
	Circle circle `json:"circle"`
}

func toArea(c Circle) *area {
	return &area{Circle: circle{
		Center: latLng{Latitude: c.Center.Lat, Longitude: c.Center.Lng},
		Radius: c.RadiusMeters,
	}}
}

type searchTextRequest struct {
	TextQuery      string  `json:"textQuery"`
	IncludedType   string  `json:"includedType,omitempty"`
	MaxResultCount int     `json:"maxResultCount,omitempty"`
	MinRating      float64 `json:"minRating,omitempty"`
	LocationBias   *area   `json:"locationBias,omitempty"`
}

type searchNearbyRequest struct {
	IncludedTypes        []string `json:"includedTypes,omitempty"`
	IncludedPrimaryTypes []string `json:"includedPrimaryTypes,omitempty"`
	MaxResultCount       int      `json:"maxResultCount,omitempty"`
	LocationRestriction  *area    `json:"locationRestriction"`
}

type rectangle struct {
	Low  latLng `json:"low"`
	High latLng `json:"high"`
}

type rectArea struct {
	Rectangle rectangle `json:"rectangle"`
}

type autocompleteRequest struct {
	Input                string    `json:"input"`
	IncludedPrimaryTypes []string  `json:"includedPrimaryTypes,omitempty"`
	LocationBias         *rectArea `json:"locationBias,omitempty"`
	Origin               *latLng   `json:"origin,omitempty"`
}

type placePrediction struct {
	PlaceID          string        `json:"placeId"`
	Text             localizedText `json:"text"`
	StructuredFormat struct {
		MainText      localizedText `json:"mainText"`
		SecondaryText localizedText `json:"secondaryText"`
	} `json:"structuredFormat"`
	Types          []string `json:"types"`
	DistanceMeters int      `json:"distanceMeters"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *placePrediction `json:"placePrediction"`
	} `json:"suggestions"`
}

func (p placePrediction) toSuggestion() Suggestion {
	return Suggestion{
		PlaceID:        p.PlaceID,
		Text:           p.Text.Text,
		MainText:       p.StructuredFormat.MainText.Text,
		SecondaryText:  p.StructuredFormat.SecondaryText.Text,
		Types:          p.Types,
		DistanceMeters: p.DistanceMeters,
	}
}

type localizedText struct {
	Text string `json:"text"`
}

type wirePlace struct {
	ID                       string        `json:"id"`
	DisplayName              localizedText `json:"displayName"`
	FormattedAddress         string        `json:"formattedAddress"`
	InternationalPhoneNumber string        `json:"internationalPhoneNumber"`
	WebsiteURI               string        `json:"websiteUri"`
	PriceLevel               PriceLevel    `json:"priceLevel"`
	Rating                   *float64      `json:"rating"`
	UserRatingCount          int           `json:"userRatingCount"`
	Types                    []string      `json:"types"`
	Location                 latLng        `json:"location"`
	CurrentOpeningHours      *struct {
		OpenNow bool `json:"openNow"`
	} `json:"currentOpeningHours"`
	Photos []struct {
		Name string `json:"name"`
	} `json:"photos"`
	Reviews []wireReview `json:"reviews"`
}

type wireReview struct {
	Name                           string        `json:"name"`
	Rating                         float64       `json:"rating"`
	Text                           localizedText `json:"text"`
	PublishTime                    time.Time     `json:"publishTime"`
	RelativePublishTimeDescription string        `json:"relativePublishTimeDescription"`
	AuthorAttribution              struct {
		DisplayName string `json:"displayName"`
	} `json:"authorAttribution"`
}

type searchResponse struct {
	Places []wirePlace `json:"places"`
}

func (w wirePlace) toPlace() Place {
	p := Place{
		ID:          w.ID,
		DisplayName: w.DisplayName.Text,
		Address:     w.FormattedAddress,
		Phone:       w.InternationalPhoneNumber,
		Website:     w.WebsiteURI,
		PriceLevel:  w.PriceLevel,
		Rating:      w.Rating,
		RatingCount: w.UserRatingCount,
		Types:       w.Types,
		Location:    model.Coordinate{Lat: w.Location.Latitude, Lng: w.Location.Longitude},
	}
	if w.CurrentOpeningHours != nil {
		p.OpenNow = w.CurrentOpeningHours.OpenNow
	}
	if len(w.Photos) > 0 {
		p.PhotoRef = w.Photos[0].Name
	}
	return p
}

func (w wireReview) toReview() Review {
	return Review{
		Name:         w.Name,
		Author:       w.AuthorAttribution.DisplayName,
		Rating:       w.Rating,
		Text:         w.Text.Text,
		PublishTime:  w.PublishTime,
		RelativeTime: w.RelativePublishTimeDescription,
	}
}

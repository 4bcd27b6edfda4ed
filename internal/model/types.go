package model

import "time"

// User is the single local profile. At most one exists per store.
type User struct {
	Name              string     `json:"name"`
	City              string     `json:"city"`
	Country           string     `json:"country"`
	PreferredCuisines []string   `json:"preferredCuisines"`
	PriceTier         int        `json:"priceTier"`
	Home              Coordinate `json:"home"`
	ProfileImage      []byte     `json:"profileImage,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Restaurant mirrors a provider place, keyed by the provider's place identifier.
// Favourite and Image are user-local: they are never taken from the provider
// after the first insert.
type Restaurant struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Phone       string     `json:"phone,omitempty"`
	Website     string     `json:"website,omitempty"`
	PriceTier   int        `json:"priceTier"`
	Rating      float64    `json:"rating"`
	RatingCount int        `json:"ratingCount"`
	Cuisine     string     `json:"cuisine"`
	Location    Coordinate `json:"location"`
	OpenNow     bool       `json:"openNow"`
	Favourite   bool       `json:"favourite"`
	Image       []byte     `json:"image,omitempty"`
	PhotoRef    string     `json:"photoRef,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Review is an immutable rating of a restaurant, either imported from the
// provider (AuthorLocal == false) or written by the local user.
type Review struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurantId"`
	AuthorLocal  bool      `json:"authorLocal"`
	Comment      *string   `json:"comment,omitempty"`
	Rating       float64   `json:"rating"`
	PublishedAt  time.Time `json:"publishedAt"`
	RelativeTime *string   `json:"relativeTime,omitempty"`
	ExternalRef  *string   `json:"externalRef,omitempty"`
}

// ChatMessage is one line of the assistant conversation.
type ChatMessage struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	FromUser bool      `json:"fromUser"`
	SentAt   time.Time `json:"sentAt"`
}

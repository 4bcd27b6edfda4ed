package model

import (
	"fmt"
	"strings"
)

// NormalizeCuisine turns a typed tag into a provider place type:
// "Italian Restaurant" becomes "italian_restaurant".
func NormalizeCuisine(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), "_")
}

// NormalizeCuisines normalizes tags and drops blanks and repeats, keeping
// first occurrence order.
func NormalizeCuisines(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = NormalizeCuisine(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// cuisineTypes are the food place types the provider accepts as
// includedPrimaryTypes.
var cuisineTypes = map[string]struct{}{
	"afghani_restaurant": {}, "african_restaurant": {}, "american_restaurant": {},
	"asian_restaurant": {}, "bagel_shop": {}, "bakery": {}, "bar": {}, "bar_and_grill": {},
	"barbecue_restaurant": {}, "brazilian_restaurant": {}, "breakfast_restaurant": {},
	"brunch_restaurant": {}, "buffet_restaurant": {}, "cafe": {}, "cafeteria": {},
	"chinese_restaurant": {}, "coffee_shop": {}, "deli": {}, "dessert_restaurant": {},
	"dessert_shop": {}, "diner": {}, "fast_food_restaurant": {}, "fine_dining_restaurant": {},
	"french_restaurant": {}, "greek_restaurant": {}, "hamburger_restaurant": {},
	"ice_cream_shop": {}, "indian_restaurant": {}, "indonesian_restaurant": {},
	"italian_restaurant": {}, "japanese_restaurant": {}, "juice_shop": {},
	"korean_restaurant": {}, "lebanese_restaurant": {}, "mediterranean_restaurant": {},
	"mexican_restaurant": {}, "middle_eastern_restaurant": {}, "pizza_restaurant": {},
	"pub": {}, "ramen_restaurant": {}, "sandwich_shop": {}, "seafood_restaurant": {},
	"spanish_restaurant": {}, "steak_house": {}, "sushi_restaurant": {},
	"thai_restaurant": {}, "turkish_restaurant": {}, "vegan_restaurant": {},
	"vegetarian_restaurant": {}, "vietnamese_restaurant": {}, "wine_bar": {},
}

// IsCuisineType reports whether tag, once normalized, is a provider food type.
func IsCuisineType(tag string) bool {
	_, ok := cuisineTypes[NormalizeCuisine(tag)]
	return ok
}

// CuisineTypes filters tags down to normalized provider food types.
func CuisineTypes(tags []string) []string {
	var out []string
	for _, t := range NormalizeCuisines(tags) {
		if _, ok := cuisineTypes[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// WithCuisineToggled returns a copy of the preference list with the
// normalized tag added (appended) or removed. The receiver is not modified.
func (u User) WithCuisineToggled(tag string) []string {
	tag = NormalizeCuisine(tag)
	out := make([]string, 0, len(u.PreferredCuisines)+1)
	found := false
	for _, t := range u.PreferredCuisines {
		if NormalizeCuisine(t) == tag {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found && tag != "" {
		out = append(out, tag)
	}
	return out
}

// Validate checks the ranges of the user profile.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if u.PriceTier < 0 || u.PriceTier > 5 {
		return fmt.Errorf("%w: price tier must be 0-5, got %d", ErrValidation, u.PriceTier)
	}
	return u.Home.Validate()
}

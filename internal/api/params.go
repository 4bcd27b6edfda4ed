package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mymichlin/discovery/internal/model"
)

const maxBodyBytes = 8 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", model.ErrValidation, err)
	}
	return nil
}

func floatParam(r *http.Request, name string) (float64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be a number", model.ErrValidation, name)
	}
	return v, true, nil
}

// coordinateParam reads lat and lng. Both or neither must be present.
func coordinateParam(r *http.Request) (model.Coordinate, bool, error) {
	lat, hasLat, err := floatParam(r, "lat")
	if err != nil {
		return model.Coordinate{}, false, err
	}
	lng, hasLng, err := floatParam(r, "lng")
	if err != nil {
		return model.Coordinate{}, false, err
	}
	if hasLat != hasLng {
		return model.Coordinate{}, false, fmt.Errorf("%w: lat and lng go together", model.ErrValidation)
	}
	if !hasLat {
		return model.Coordinate{}, false, nil
	}
	c := model.Coordinate{Lat: lat, Lng: lng}
	return c, true, c.Validate()
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", model.ErrValidation, name)
	}
	return v, nil
}

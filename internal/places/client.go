package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_places_requests_total",
		Help: "Places API calls by operation and outcome.",
	}, []string{"op", "outcome"})
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_places_retries_total",
		Help: "Places API retries after a transient failure.",
	}, []string{"op"})
)

// ClientConfig configures the Places API client.
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	MaxAttempts    int
	Timeout        time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PhotoMaxPx     int
}

// Client calls the Google Places API (New) over REST.
type Client struct {
	http *resty.Client
	cfg  ClientConfig
	log  zerolog.Logger
}

var (
	_ Provider     = (*Client)(nil)
	_ PhotoFetcher = (*Client)(nil)
)

// NewClient creates a Client. Zero config fields take defaults.
func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://places.googleapis.com"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.PhotoMaxPx <= 0 {
		cfg.PhotoMaxPx = 1600
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Goog-Api-Key", cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &Client{http: c, cfg: cfg, log: log}
}

// SearchByText runs POST /v1/places:searchText.
func (c *Client) SearchByText(ctx context.Context, q TextQuery) ([]Place, error) {
	body := searchTextRequest{
		TextQuery:      q.Text,
		IncludedType:   q.IncludedType,
		MaxResultCount: q.MaxResults,
		MinRating:      q.MinRating,
	}
	if q.Bias.RadiusMeters > 0 {
		body.LocationBias = toArea(q.Bias)
	}
	var out searchResponse
	if err := c.do(ctx, "searchText", func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("X-Goog-FieldMask", searchFields).SetBody(&body).Post("/v1/places:searchText")
	}, &out); err != nil {
		return nil, err
	}
	return toPlaces(out.Places), nil
}

// SearchNearby runs POST /v1/places:searchNearby.
func (c *Client) SearchNearby(ctx context.Context, q NearbyQuery) ([]Place, error) {
	body := searchNearbyRequest{
		IncludedTypes:        q.IncludedTypes,
		IncludedPrimaryTypes: q.IncludedPrimaryTypes,
		MaxResultCount:       q.MaxResults,
		LocationRestriction:  toArea(q.Restriction),
	}
	var out searchResponse
	if err := c.do(ctx, "searchNearby", func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("X-Goog-FieldMask", searchFields).SetBody(&body).Post("/v1/places:searchNearby")
	}, &out); err != nil {
		return nil, err
	}
	return toPlaces(out.Places), nil
}

// PlaceDetails runs GET /v1/places/{id}.
func (c *Client) PlaceDetails(ctx context.Context, id string) (*Place, error) {
	var out wirePlace
	if err := c.do(ctx, "details", func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("X-Goog-FieldMask", placeFields).Get("/v1/places/" + url.PathEscape(id))
	}, &out); err != nil {
		return nil, err
	}
	p := out.toPlace()
	return &p, nil
}

// Reviews fetches the provider reviews of a place.
func (c *Client) Reviews(ctx context.Context, id string) ([]Review, error) {
	var out wirePlace
	if err := c.do(ctx, "reviews", func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("X-Goog-FieldMask", reviewFields).Get("/v1/places/" + url.PathEscape(id))
	}, &out); err != nil {
		return nil, err
	}
	res := make([]Review, 0, len(out.Reviews))
	for _, w := range out.Reviews {
		res = append(res, w.toReview())
	}
	return res, nil
}

// Autocomplete runs POST /v1/places:autocomplete. Query predictions are
// dropped; only place predictions are returned.
func (c *Client) Autocomplete(ctx context.Context, q AutocompleteQuery) ([]Suggestion, error) {
	body := autocompleteRequest{
		Input:                q.Input,
		IncludedPrimaryTypes: q.IncludedPrimaryTypes,
		Origin:               &latLng{Latitude: q.Origin.Lat, Longitude: q.Origin.Lng},
	}
	if q.Bias != (Rect{}) {
		body.LocationBias = &rectArea{Rectangle: rectangle{
			Low:  latLng{Latitude: q.Bias.Low.Lat, Longitude: q.Bias.Low.Lng},
			High: latLng{Latitude: q.Bias.High.Lat, Longitude: q.Bias.High.Lng},
		}}
	}
	var out autocompleteResponse
	if err := c.do(ctx, "autocomplete", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(&body).Post("/v1/places:autocomplete")
	}, &out); err != nil {
		return nil, err
	}
	res := make([]Suggestion, 0, len(out.Suggestions))
	for _, s := range out.Suggestions {
		if s.PlacePrediction == nil {
			continue
		}
		res = append(res, s.PlacePrediction.toSuggestion())
	}
	return res, nil
}

// Photo downloads the media behind a photo resource name
// (places/{id}/photos/{ref}).
func (c *Client) Photo(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty photo reference")
	}
	var img []byte
	err := c.retry(ctx, "photo", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("maxWidthPx", fmt.Sprint(c.cfg.PhotoMaxPx)).
			SetQueryParam("maxHeightPx", fmt.Sprint(c.cfg.PhotoMaxPx)).
			Get("/v1/" + ref + "/media")
		if err != nil {
			return networkError("photo", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return httpError("photo", resp.StatusCode(), resp.String())
		}
		img = resp.Body()
		return nil
	})
	return img, err
}

func toPlaces(ws []wirePlace) []Place {
	out := make([]Place, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toPlace())
	}
	return out
}

// do sends a JSON request built by send, retrying transient failures, and
// decodes the 200 response into out.
func (c *Client) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error), out any) error {
	return c.retry(ctx, op, func() error {
		resp, err := send(c.http.R().SetContext(ctx))
		if err != nil {
			return networkError(op, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return httpError(op, resp.StatusCode(), resp.String())
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return &Error{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	})
}

func (c *Client) retry(ctx context.Context, op string, call func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.InitialBackoff
	exp.Multiplier = 2
	exp.MaxInterval = c.cfg.MaxBackoff
	exp.Reset()

	var err error
	for attempt := 1; ; attempt++ {
		err = call()
		if err == nil {
			requestsTotal.WithLabelValues(op, "ok").Inc()
			return nil
		}
		pe, ok := err.(*Error)
		if !ok || !pe.Retryable || attempt >= c.cfg.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			break
		}
		retriesTotal.WithLabelValues(op).Inc()
		wait := exp.NextBackOff()
		c.log.Warn().Str("op", op).Int("attempt", attempt).Dur("wait", wait).Err(err).Msg("places call failed, retrying")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			requestsTotal.WithLabelValues(op, "error").Inc()
			return ctx.Err()
		}
	}
	requestsTotal.WithLabelValues(op, "error").Inc()
	return err
}

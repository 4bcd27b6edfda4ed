// Package genai wraps the generative model used by the chat assistant.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("generative model not configured")

// Unconfigured is used when no API key is available.
var Unconfigured Model = ModelFunc(func(context.Context, string) (string, error) {
	return "", ErrNotConfigured
})

// Model generates a reply for a prompt.
type Model interface {
	GenerateReply(ctx context.Context, prompt string) (string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

func (f ModelFunc) GenerateReply(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Gemini calls the Gemini generateContent REST endpoint.
type Gemini struct {
	client *resty.Client
	model  string
}

// NewGemini creates a Gemini client for the given model, e.g. gemini-2.5-flash.
func NewGemini(baseURL, apiKey, model string, timeout time.Duration) *Gemini {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", apiKey).
		SetTimeout(timeout)
	return &Gemini{client: c, model: model}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateReply returns the concatenated text of the first candidate.
// An empty string means the model produced no text. Failed calls return *Error.
func (g *Gemini) GenerateReply(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("empty prompt")
	}
	reqBody := generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post("/v1beta/models/" + url.PathEscape(g.model) + ":generateContent")
	if err != nil {
		return "", &Error{Retryable: true, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", statusError(resp.StatusCode(), resp.String())
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return "", &Error{StatusCode: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(gr.Candidates) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

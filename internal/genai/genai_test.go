package genai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGemini_GenerateReply(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Try "},{"text":"Chin Chin."}]}}]}`)
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "k", "gemini-2.5-flash", 0)
	reply, err := g.GenerateReply(context.Background(), "thai tonight?")
	require.NoError(t, err)
	assert.Equal(t, "Try Chin Chin.", reply)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "thai tonight?", got.Contents[0].Parts[0].Text)
}

func TestGemini_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "bad", "m", 0)
	_, err := g.GenerateReply(context.Background(), "hi")
	assert.ErrorContains(t, err, "401")
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusUnauthorized, ge.StatusCode)
	assert.False(t, ge.Retryable)

	_, err = g.GenerateReply(context.Background(), " ")
	assert.Error(t, err)
}

func TestGemini_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	reply, err := NewGemini(srv.URL, "k", "m", 0).GenerateReply(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestGemini_UpstreamErrorsAreTyped(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, status)
		}))

		_, err := NewGemini(srv.URL, "k", "m", 0).GenerateReply(context.Background(), "hi")
		var ge *Error
		require.ErrorAs(t, err, &ge, "status %d", status)
		assert.Equal(t, status, ge.StatusCode)
		assert.True(t, ge.Retryable)
		assert.Contains(t, ge.Body, "RESOURCE_EXHAUSTED")
		srv.Close()
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()
	_, err := NewGemini(srv.URL, "k", "m", 0).GenerateReply(context.Background(), "hi")
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.False(t, ge.Retryable)
}

func TestGemini_NetworkErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewGemini(url, "k", "m", 0).GenerateReply(context.Background(), "hi")
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Zero(t, ge.StatusCode)
	assert.True(t, ge.Retryable)
	assert.Error(t, ge.Unwrap())
}

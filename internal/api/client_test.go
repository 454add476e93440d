package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zacy-Sokach/chatbox/internal/utils"
)

func TestAskSendsJSONRequest(t *testing.T) {
	var (
		gotMethod, gotPath, gotType, gotRequestID string
		gotBody                                   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"answer":"Mission statement text"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	resp, err := client.Ask(context.Background(), ChatRequest{Message: "What is the mission?"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/chat", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, map[string]any{"message": "What is the mission?"}, gotBody)
	assert.Equal(t, "Mission statement text", resp.Answer)
	assert.Nil(t, resp.Citations)
}

func TestAskSendsTopKWhenSet(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"answer":"ok"}`)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Ask(context.Background(), ChatRequest{Message: "q", TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, float64(2), gotBody["top_k"])
}

func TestAskMissingAnswerIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"other":1}`)
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Ask(context.Background(), ChatRequest{Message: "q"})
	require.NoError(t, err)
	assert.Equal(t, "", resp.Answer)
}

func TestAskDecodesCitations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"answer":"a","citations":[{"rank":1,"source":"mission.txt","chunk_id":0,"score":0.42,"excerpt":"Our mission"}]}`)
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Ask(context.Background(), ChatRequest{Message: "q"})
	require.NoError(t, err)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, Citation{Rank: 1, Source: "mission.txt", ChunkID: 0, Score: 0.42, Excerpt: "Our mission"}, resp.Citations[0])
}

func TestAskNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "server exploded")
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Ask(context.Background(), ChatRequest{Message: "q"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, "HTTP 500: server exploded", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "server exploded", apiErr.Body)
}

func TestAskMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>not json</html>")
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Ask(context.Background(), ChatRequest{Message: "q"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode response: "), err.Error())

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestAskConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Ask(context.Background(), ChatRequest{Message: "q"})
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())
}

func TestAskDoesNotRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Ask(context.Background(), ChatRequest{Message: "q"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestHealthThroughRetryingDoer(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"ok":true,"service":"AI Academy API"}`)
	}))
	defer server.Close()

	cfg := utils.ProbeRetryConfig(2)
	cfg.InitialDelay = 0
	client := NewClient(server.URL, WithDoer(utils.NewRetryableHTTPClient(server.Client(), cfg)))

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.OK)
	assert.Equal(t, "AI Academy API", health.Service)
	assert.Equal(t, 2, calls)
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("  ").BaseURL())
	assert.Equal(t, "http://example.test", NewClient("http://example.test///").BaseURL())
}

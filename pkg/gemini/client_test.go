package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries int) *Client {
	return NewClient(Config{
		APIKey:         "test-key",
		BaseURL:        url,
		Timeout:        5 * time.Second,
		MaxRetries:     retries,
		RetryBaseDelay: time.Millisecond,
	}, logger.NewNopLogger())
}

func TestGenerateContent(t *testing.T) {
	var got GenerateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "hello "}, {"text": "world"}]},
				"groundingMetadata": {"groundingChunks": [{"web": {"uri": "https://a.example", "title": "A"}}]}
			}]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	res, err := client.GenerateContent(context.Background(), "gemini-2.5-flash", &GenerateContentRequest{
		Contents: []*Content{TextContent(RoleUser, "hi")},
		Tools:    []*Tool{{GoogleSearch: &GoogleSearch{}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello world", res.Text())
	require.Len(t, res.GroundingChunks(), 1)
	assert.Equal(t, "https://a.example", res.GroundingChunks()[0].Web.URI)
	assert.Nil(t, res.InlineData())

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "hi", got.Contents[0].Parts[0].Text)
	require.Len(t, got.Tools, 1)
	assert.NotNil(t, got.Tools[0].GoogleSearch)
}

func TestGenerateContentRetriesThrottling(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	res, err := newTestClient(server.URL, 3).GenerateContent(context.Background(), "m", &GenerateContentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerateContentErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":{"message":"bad"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).GenerateContent(context.Background(), "m", &GenerateContentRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindRemoteService))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors are not retried")
}

func TestGenerateContentWithoutKey(t *testing.T) {
	client := NewClient(Config{}, logger.NewNopLogger())
	_, err := client.GenerateContent(context.Background(), "m", &GenerateContentRequest{})
	assert.True(t, apperr.IsKind(err, apperr.KindRemoteService))
}

func TestBackoff(t *testing.T) {
	c := newTestClient("http://unused", 5)
	c.cfg.RetryBaseDelay = time.Second

	assert.Equal(t, time.Second, c.backoff(1, nil))
	assert.Equal(t, 2*time.Second, c.backoff(2, nil))
	assert.Equal(t, 4*time.Second, c.backoff(3, nil))
	assert.Equal(t, defaultRetryMaxDelay, c.backoff(10, nil))
	assert.Equal(t, 7*time.Second, c.backoff(1, &APIError{StatusCode: 429, RetryAfter: 7 * time.Second}))
}

func TestInlineData(t *testing.T) {
	res := &GenerateContentResponse{Candidates: []*Candidate{{
		Content: &Content{Parts: []*Part{{Text: "x"}, {InlineData: &Blob{MimeType: "audio/L16", Data: "AAA="}}}},
	}}}
	require.NotNil(t, res.InlineData())
	assert.Equal(t, "AAA=", res.InlineData().Data)

	var empty *GenerateContentResponse
	assert.Nil(t, empty.InlineData())
	assert.Empty(t, empty.Text())
}

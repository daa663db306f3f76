package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speaker-negotiator/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(config.RemoteSentiment{
		BaseURL:          url,
		APIKey:           "key",
		Timeout:          time.Second,
		MaxFailures:      2,
		OpenTimeout:      time.Minute,
		HalfOpenRequests: 1,
	})
}

func TestPolarity_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sentiment", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req polarityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "great deal", req.Text)
		_, _ = w.Write([]byte(`{"sentiment_score":0.65,"sentiment_label":"positive","confidence":0.9}`))
	}))
	defer srv.Close()

	score, err := newTestClient(srv.URL).Polarity(context.Background(), "great deal")
	require.NoError(t, err)
	assert.Equal(t, 0.65, score)
}

func TestPolarity_MissingScoreIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sentiment_label":"neutral"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Polarity(context.Background(), "x")
	assert.Error(t, err)
}

func TestPolarity_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 2; i++ {
		_, err := c.Polarity(context.Background(), "x")
		assert.Error(t, err)
	}
	_, err := c.Polarity(context.Background(), "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

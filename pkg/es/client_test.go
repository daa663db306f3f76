package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speaker-negotiator/internal/config"
	"speaker-negotiator/internal/model"
)

// fakeES 模拟 Elasticsearch：索引不存在，接受创建、写入和检索请求。
func fakeES(t *testing.T, requests *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*requests = append(*requests, r.Method+" "+r.URL.Path+" "+string(body))
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = w.Write([]byte(`{"hits":{"hits":[{"_score":1.5,"_source":{"event_id":"e1","message":"too expensive","rule":"negative_floor"}}]}}`))
		default:
			_, _ = w.Write([]byte(`{"acknowledged":true,"result":"created"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTurnIndex_CreatesIndexAndIndexesTurn(t *testing.T) {
	var requests []string
	srv := fakeES(t, &requests)

	idx, err := NewTurnIndex(config.ElasticsearchConfig{Addresses: srv.URL, IndexName: "turns"})
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.True(t, strings.HasPrefix(requests[0], "HEAD /turns"))
	assert.True(t, strings.HasPrefix(requests[1], "PUT /turns"))
	assert.Contains(t, requests[1], `"session_id"`)

	err = idx.IndexTurn(context.Background(), model.TurnDocument{EventID: "e1", Message: "hello"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(requests[2], "PUT /turns/_doc/e1"))
}

func TestTurnIndex_SearchTurns(t *testing.T) {
	var requests []string
	srv := fakeES(t, &requests)
	idx, err := NewTurnIndex(config.ElasticsearchConfig{Addresses: srv.URL, IndexName: "turns"})
	require.NoError(t, err)

	results, err := idx.SearchTurns(context.Background(), "expensive", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].EventID)
	assert.Equal(t, "negative_floor", results[0].Rule)
	assert.Equal(t, 1.5, results[0].Hit)

	last := requests[len(requests)-1]
	raw := last[strings.Index(last, "{"):]
	var query map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &query))
	assert.EqualValues(t, 5, query["size"])
}

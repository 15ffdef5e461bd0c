package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

// fakeElasticsearch answers like a single-node cluster.
type fakeElasticsearch struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (f *fakeElasticsearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
	status, response := f.status, f.response
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(response))
}

func (f *fakeElasticsearch) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestIndex(t *testing.T, fake *fakeElasticsearch) *Index {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewIndex(client, "applicants", logger.NewTestLogger(t))
}

func TestIndex_Put(t *testing.T) {
	fake := &fakeElasticsearch{status: http.StatusCreated, response: `{"result":"created"}`}
	idx := newTestIndex(t, fake)

	doc := DocumentFrom(models.Applicant{
		ID:          12,
		NamaLengkap: "Siti Aminah",
		NIK:         "3171234567890002",
		CreatedAt:   time.Date(2024, 3, 9, 1, 0, 0, 0, time.UTC),
	})
	require.NoError(t, idx.Put(context.Background(), doc))

	req := fake.last()
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/applicants/_doc/12", req.path)

	var stored Document
	require.NoError(t, json.Unmarshal([]byte(req.body), &stored))
	assert.Equal(t, "Siti Aminah", stored.NamaLengkap)
	assert.Equal(t, "new", stored.Status)
}

func TestIndex_PutError(t *testing.T) {
	fake := &fakeElasticsearch{status: http.StatusBadRequest, response: `{"error":"mapper_parsing_exception"}`}
	idx := newTestIndex(t, fake)

	err := idx.Put(context.Background(), Document{ID: 1})
	assert.Error(t, err)
}

func TestIndex_Search(t *testing.T) {
	fake := &fakeElasticsearch{response: `{
		"took": 3,
		"hits": {
			"total": {"value": 1},
			"hits": [{"_score": 2.5, "_source": {"id": 12, "nama_lengkap": "Siti Aminah", "status": "process"}}]
		}
	}`}
	idx := newTestIndex(t, fake)

	res, err := idx.Search(context.Background(), "siti", 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, int64(12), res.Hits[0].ID)
	assert.Equal(t, 2.5, res.Hits[0].Score)

	req := fake.last()
	assert.Equal(t, "/applicants/_search", req.path)
	assert.True(t, strings.Contains(req.body, `"multi_match"`))
}

func TestIndex_SearchMissingIndex(t *testing.T) {
	fake := &fakeElasticsearch{status: http.StatusNotFound, response: `{"error":{"type":"index_not_found_exception"}}`}
	idx := newTestIndex(t, fake)

	res, err := idx.Search(context.Background(), "budi", 0, 10)

	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestIndex_RemoveIgnoresMissing(t *testing.T) {
	fake := &fakeElasticsearch{status: http.StatusNotFound, response: `{"result":"not_found"}`}
	idx := newTestIndex(t, fake)

	assert.NoError(t, idx.Remove(context.Background(), 3, 4))
	assert.Equal(t, http.MethodDelete, fake.last().method)
}

func TestBuildQuery(t *testing.T) {
	all := BuildQuery("  ")
	assert.Contains(t, all["query"], "match_all")

	q := BuildQuery("budi")
	mm := q["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "budi", mm["query"])
	assert.Contains(t, mm["fields"], "nama_lengkap^3")
}

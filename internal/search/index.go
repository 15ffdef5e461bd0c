// Package search keeps a full-text copy of applicants in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const maxPageSize = 100

// searchFields are matched by free-text search, boosted by relevance.
var searchFields = []string{"nama_lengkap^3", "nik^2", "penempatan", "posisi_dilamar", "kota"}

// Document is the indexed projection of an applicant.
type Document struct {
	ID                 int64     `json:"id"`
	NamaLengkap        string    `json:"nama_lengkap"`
	NIK                string    `json:"nik"`
	NoHP               string    `json:"no_hp"`
	PosisiDilamar      string    `json:"posisi_dilamar"`
	Penempatan         string    `json:"penempatan"`
	PendidikanTerakhir string    `json:"pendidikan_terakhir"`
	JenisKelamin       string    `json:"jenis_kelamin"`
	Kota               string    `json:"kota"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// DocumentFrom projects an applicant row.
func DocumentFrom(a models.Applicant) Document {
	return Document{
		ID:                 a.ID,
		NamaLengkap:        a.NamaLengkap,
		NIK:                a.NIK,
		NoHP:               a.NoHP,
		PosisiDilamar:      a.PosisiDilamar,
		Penempatan:         a.Penempatan,
		PendidikanTerakhir: a.PendidikanTerakhir,
		JenisKelamin:       a.JenisKelamin,
		Kota:               a.Kota,
		Status:             a.Status.String(),
		CreatedAt:          a.CreatedAt,
	}
}

type Hit struct {
	Document
	Score float64 `json:"score"`
}

type Result struct {
	Total int64 `json:"total"`
	Took  int   `json:"took"`
	Hits  []Hit `json:"hits"`
}

// Index reads and writes the applicants index.
type Index struct {
	client *elasticsearch.Client
	name   string
	logger logger.Logger
}

func NewIndex(client *elasticsearch.Client, name string, log logger.Logger) *Index {
	return &Index{
		client: client,
		name:   name,
		logger: log.WithFields(map[string]interface{}{"component": "search", "index": name}),
	}
}

// Put indexes doc under its applicant id, replacing any previous version.
func (x *Index) Put(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewIndexingFailedError(strconv.FormatInt(doc.ID, 10), err)
	}

	req := esapi.IndexRequest{
		Index:      x.name,
		DocumentID: strconv.FormatInt(doc.ID, 10),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewIndexingFailedError(strconv.FormatInt(doc.ID, 10), fmt.Errorf("status %s", res.Status()))
	}
	return nil
}

// Remove deletes the documents of ids. Missing documents are ignored.
func (x *Index) Remove(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		req := esapi.DeleteRequest{Index: x.name, DocumentID: strconv.FormatInt(id, 10)}
		res, err := req.Do(ctx, x.client)
		if err != nil {
			return errors.NewElasticsearchConnectionFailedError(err)
		}
		res.Body.Close()
		if res.IsError() && res.StatusCode != http.StatusNotFound {
			return errors.NewIndexingFailedError(strconv.FormatInt(id, 10), fmt.Errorf("delete status %s", res.Status()))
		}
	}
	return nil
}

// BuildQuery returns the search body for free text q. An empty q matches
// everything, newest first.
func BuildQuery(q string) map[string]interface{} {
	q = strings.TrimSpace(q)
	if q == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort":  []interface{}{map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}}},
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q,
				"fields":    searchFields,
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
	}
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64  `json:"_score"`
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a free-text query and returns one page of hits.
func (x *Index) Search(ctx context.Context, q string, from, size int) (*Result, error) {
	if from < 0 {
		from = 0
	}
	if size <= 0 || size > maxPageSize {
		size = 20
	}

	body, err := json.Marshal(BuildQuery(q))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("applicants", err)
	}

	req := esapi.SearchRequest{
		Index: []string{x.name},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return &Result{Hits: []Hit{}}, nil
		}
		return nil, errors.NewSearchQueryFailedError("applicants", fmt.Errorf("status %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError("applicants", fmt.Errorf("decode response: %w", err))
	}

	out := &Result{Total: parsed.Hits.Total.Value, Took: parsed.Took, Hits: make([]Hit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		out.Hits = append(out.Hits, Hit{Document: h.Source, Score: h.Score})
	}

	x.logger.Debug("search executed", map[string]interface{}{
		"query": q,
		"total": out.Total,
		"took":  out.Took,
	})
	return out, nil
}

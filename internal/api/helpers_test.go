package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"recruitment-portal/internal/common/auth"
	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/dashboard"
	"recruitment-portal/internal/intake"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/search"
	"recruitment-portal/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	adminToken    = "admin-token"
	operatorToken = "operator-token"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
)

// ==========================
// Fakes
// ==========================

type fakeAuth struct{}

func (fakeAuth) ValidateToken(_ context.Context, token string) (*auth.TokenInfo, error) {
	switch token {
	case adminToken:
		return &auth.TokenInfo{Active: true, Username: "rina", RealmAccess: auth.RealmAccess{Roles: []string{"recruitment-admin"}}}, nil
	case operatorToken:
		return &auth.TokenInfo{Active: true, Username: "andi", RealmAccess: auth.RealmAccess{Roles: []string{"viewer"}}}, nil
	}
	return nil, errors.NewAuthenticationError("token is expired, revoked or malformed")
}

func (fakeAuth) Login(_ context.Context, username, password string) (*auth.TokenResponse, error) {
	if username == "rina" && password == "rahasia" {
		return &auth.TokenResponse{AccessToken: adminToken, RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 300}, nil
	}
	return nil, errors.NewAuthenticationError("invalid username or password")
}

func (fakeAuth) Logout(context.Context, string) error { return nil }

// fakeApplicants backs both the dashboard reader and the repository.
type fakeApplicants struct {
	mu      sync.Mutex
	byID    map[int64]models.Applicant
	bulkErr error
}

func newFakeApplicants(as ...models.Applicant) *fakeApplicants {
	f := &fakeApplicants{byID: map[int64]models.Applicant{}}
	for _, a := range as {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeApplicants) sorted() []models.Applicant {
	out := make([]models.Applicant, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeApplicants) List(_ context.Context, q dashboard.ListQuery) ([]models.Applicant, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Applicant
	for _, a := range f.sorted() {
		if q.Filter.Matches(a.Status) {
			matched = append(matched, a)
		}
	}
	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []models.Applicant{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], total, nil
}

func (f *fakeApplicants) Count(_ context.Context, filter *dashboard.StatusFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.byID {
		if filter == nil || filter.Matches(a.Status) {
			n++
		}
	}
	return n, nil
}

func (f *fakeApplicants) MetricsRows(context.Context) ([]models.MetricsRow, error) {
	return []models.MetricsRow{}, nil
}

func (f *fakeApplicants) Get(_ context.Context, id int64) (*models.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, errors.NewResourceNotFoundError("applicant", "missing")
	}
	return &a, nil
}

func (f *fakeApplicants) GetMany(_ context.Context, ids []int64) ([]models.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Applicant{}
	for _, id := range ids {
		if a, ok := f.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplicants) update(id int64, fn func(a *models.Applicant)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return errors.NewResourceNotFoundError("applicant", "missing")
	}
	fn(&a)
	f.byID[id] = a
	return nil
}

func (f *fakeApplicants) UpdateStatus(_ context.Context, id int64, status models.Status) error {
	return f.update(id, func(a *models.Applicant) { a.Status = status })
}

func (f *fakeApplicants) UpdateNotes(_ context.Context, id int64, notes string) error {
	return f.update(id, func(a *models.Applicant) { a.Catatan = notes })
}

func (f *fakeApplicants) UpdateFields(_ context.Context, id int64, edit models.ApplicantEdit) error {
	return f.update(id, func(a *models.Applicant) {
		if edit.NamaLengkap != nil {
			a.NamaLengkap = *edit.NamaLengkap
		}
		if edit.NoHP != nil {
			a.NoHP = *edit.NoHP
		}
	})
}

func (f *fakeApplicants) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return errors.NewResourceNotFoundError("applicant", "missing")
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeApplicants) BulkUpdateStatus(_ context.Context, ids []int64, status models.Status) (int64, error) {
	if f.bulkErr != nil {
		return 0, f.bulkErr
	}
	for _, id := range ids {
		_ = f.update(id, func(a *models.Applicant) { a.Status = status })
	}
	return int64(len(ids)), nil
}

func (f *fakeApplicants) BulkDelete(_ context.Context, ids []int64) (int64, error) {
	if f.bulkErr != nil {
		return 0, f.bulkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.byID, id)
	}
	return int64(len(ids)), nil
}

type fakeMaster struct {
	data    models.MasterData
	deleted store.DeletionPlan
}

func (f *fakeMaster) Load(context.Context) (models.MasterData, error) { return f.data, nil }

func (f *fakeMaster) CreateClient(_ context.Context, name string) (*models.JobClient, error) {
	return &models.JobClient{ID: 10, Name: name, IsActive: true}, nil
}

func (f *fakeMaster) CreatePosition(_ context.Context, clientID int64, name string) (*models.JobPosition, error) {
	return &models.JobPosition{ID: 20, ClientID: clientID, Name: name, IsActive: true}, nil
}

func (f *fakeMaster) CreatePlacement(_ context.Context, positionID int64, location, phone string) (*models.JobPlacement, error) {
	return &models.JobPlacement{ID: 30, PositionID: positionID, Location: location, RecruiterPhone: phone, IsActive: true}, nil
}

func (f *fakeMaster) RenameClient(context.Context, int64, string) error             { return nil }
func (f *fakeMaster) RenamePosition(context.Context, int64, string) error           { return nil }
func (f *fakeMaster) UpdatePlacement(context.Context, int64, string, string) error  { return nil }
func (f *fakeMaster) SetActive(context.Context, store.MasterKind, int64, bool) error { return nil }

func (f *fakeMaster) DeleteClient(_ context.Context, id int64) (store.DeletionPlan, error) {
	return store.PlanClientDeletion(f.data, id), nil
}

func (f *fakeMaster) DeletePosition(_ context.Context, id int64) (store.DeletionPlan, error) {
	return store.PlanPositionDeletion(f.data, id), nil
}

func (f *fakeMaster) DeletePlacement(_ context.Context, id int64) (store.DeletionPlan, error) {
	return store.DeletionPlan{PlacementIDs: []int64{id}}, nil
}

type notice struct {
	Table string
	Op    string
	IDs   []int64
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (f *fakeNotifier) Notify(_ context.Context, table, op string, ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{table, op, ids})
}

type fakeSearch struct {
	mu      sync.Mutex
	put     []int64
	removed []int64
}

func (f *fakeSearch) Search(_ context.Context, q string, from, size int) (*search.Result, error) {
	return &search.Result{Total: 1, Hits: []search.Hit{{Document: search.Document{ID: 1, NamaLengkap: q}}}}, nil
}

func (f *fakeSearch) Put(_ context.Context, doc search.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put = append(f.put, doc.ID)
	return nil
}

func (f *fakeSearch) Remove(_ context.Context, ids ...int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, ids...)
	return nil
}

type fakeUploads struct{}

func (fakeUploads) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return key, nil
}

type fakeWriter struct{ inserted *models.Applicant }

func (f *fakeWriter) Insert(_ context.Context, a *models.Applicant) (int64, error) {
	f.inserted = a
	return 42, nil
}

// ==========================
// Test Helper Functions
// ==========================

type testEnv struct {
	router     *gin.Engine
	applicants *fakeApplicants
	master     *fakeMaster
	notifier   *fakeNotifier
	search     *fakeSearch
	writer     *fakeWriter
}

func createTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Version = "test"
	cfg.Auth.Keycloak.AdminRole = "recruitment-admin"
	cfg.Intake.MaxFileBytes = 1024 * 1024
	cfg.Intake.AllowedTypes = []string{"application/pdf", "image/png", "image/jpeg"}
	cfg.Dashboard.PageSize = 2
	return cfg
}

func createTestApplicant(id int64, status models.Status) models.Applicant {
	return models.Applicant{
		ID:            id,
		NamaLengkap:   "Budi Santoso",
		NIK:           "3171234567890001",
		NoHP:          "081234567890",
		PosisiDilamar: "SALES OFFICER",
		Penempatan:    "ADIRA - Bekasi",
		Status:        status,
		CreatedAt:     time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
	}
}

func masterFixture() models.MasterData {
	return models.MasterData{
		Clients: []models.JobClient{
			{ID: 1, Name: "ADIRA", IsActive: true},
			{ID: 2, Name: "BAF", IsActive: false},
		},
		Positions: []models.JobPosition{
			{ID: 11, ClientID: 1, Name: "SALES OFFICER", IsActive: true},
			{ID: 12, ClientID: 1, Name: "KOLEKTOR", IsActive: true},
			{ID: 21, ClientID: 2, Name: "REMEDIAL", IsActive: true},
		},
		Placements: []models.JobPlacement{
			{ID: 101, PositionID: 11, Location: "Bekasi", IsActive: true},
			{ID: 102, PositionID: 12, Location: "Bogor", IsActive: false},
			{ID: 103, PositionID: 12, Location: "Depok", IsActive: true},
			{ID: 201, PositionID: 21, Location: "Depok", IsActive: true},
		},
	}
}

func newTestEnv(t *testing.T, as ...models.Applicant) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewTestLogger(t)
	env := &testEnv{
		applicants: newFakeApplicants(as...),
		master:     &fakeMaster{data: masterFixture()},
		notifier:   &fakeNotifier{},
		search:     &fakeSearch{},
		writer:     &fakeWriter{},
	}
	cfg := createTestConfig()
	pipeline := intake.NewPipeline(fakeUploads{}, env.writer, log)
	svc := dashboard.NewService(env.applicants, nil, nil, cfg.Dashboard.PageSize, log)

	srv := NewServer(Deps{
		Config:     cfg,
		Auth:       fakeAuth{},
		Intake:     pipeline,
		Applicants: env.applicants,
		Master:     env.master,
		Dashboard:  svc,
		Search:     env.search,
		Notifier:   env.notifier,
		Location:   time.UTC,
		Logger:     log,
	})
	srv.now = func() time.Time { return time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC) }
	env.router = srv.Router()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

type errorBody struct {
	Error struct {
		Code     string                 `json:"code"`
		Message  string                 `json:"message"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"error"`
}

// multipartApplication builds a form submission; files maps field to
// (name, data).
func multipartApplication(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+" upload.bin")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) submit(t *testing.T, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelineFixture() *fakeReader {
	return &fakeReader{
		applicants: []models.Applicant{
			{ID: 1, Status: models.StatusNone, CVPath: "cv/1_a.pdf"},
			{ID: 2, Status: models.StatusNew},
			{ID: 3, Status: models.StatusProcess},
			{ID: 4, Status: models.StatusInterview},
			{ID: 5, Status: models.StatusHired},
			{ID: 6, Status: models.StatusRejected},
		},
		rows: []models.MetricsRow{
			{PosisiDilamar: "SALES", JenisKelamin: models.GenderMale, PendidikanTerakhir: "S1"},
			{PosisiDilamar: "SALES", JenisKelamin: models.GenderFemale, PendidikanTerakhir: "D3"},
		},
	}
}

func TestService_Counters(t *testing.T) {
	svc := NewService(pipelineFixture(), nil, nil, 20, logger.NewTestLogger(t))

	c, err := svc.Counters(context.Background())

	require.NoError(t, err)
	assert.Equal(t, PipelineCounters{Total: 6, New: 2, Process: 2, Hired: 1, Rejected: 1}, c)
}

func TestService_CountersError(t *testing.T) {
	reader := pipelineFixture()
	reader.countErr = errDatabaseDown
	svc := NewService(reader, nil, nil, 20, logger.NewTestLogger(t))

	_, err := svc.Counters(context.Background())
	assert.ErrorIs(t, err, errDatabaseDown)
}

func TestService_View(t *testing.T) {
	svc := NewService(pipelineFixture(), nil, stubURLs{}, 1, logger.NewTestLogger(t))

	state := NewViewState()
	state.Selected = []int64{2}
	v := svc.View(context.Background(), state)

	require.Len(t, v.Rows, 1)
	assert.False(t, v.Stale)
	assert.Equal(t, int64(2), v.Total)
	assert.Equal(t, 2, v.TotalPages)
	assert.Equal(t, int64(1), v.Rows[0].ID)
	assert.Equal(t, RowDefault, v.Rows[0].RowClass)
	assert.Equal(t, "https://cdn.example.com/cv/1_a.pdf", v.Rows[0].CVURL)
	assert.Equal(t, "#", v.Rows[0].KTPURL)

	state.Page = 2
	v = svc.View(context.Background(), state)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, RowSelected, v.Rows[0].RowClass)
}

func TestService_ViewStaleOnError(t *testing.T) {
	reader := pipelineFixture()
	reader.listErr = errDatabaseDown
	svc := NewService(reader, nil, nil, 20, logger.NewTestLogger(t))

	v := svc.View(context.Background(), NewViewState())

	assert.True(t, v.Stale)
	assert.Empty(t, v.Rows)
	assert.Equal(t, int64(0), v.Total)
}

func TestService_StatsUsesCache(t *testing.T) {
	reader := pipelineFixture()
	cache, _ := newTestCache(t, time.Minute)
	svc := NewService(reader, cache, nil, 20, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), first.Counters.Total)
	assert.Equal(t, []PositionCount{{Name: "SALES", Count: 2}}, first.Charts.TopPositions)
	assert.Len(t, first.Charts.Trend, 7)

	second, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Counters, second.Counters)
	assert.Equal(t, 1, reader.metricsCalls())

	svc.InvalidateStats(ctx)
	_, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reader.metricsCalls())
}

func TestService_StatsComputedBeforeInvalidationNotCached(t *testing.T) {
	reader := pipelineFixture()
	cache, _ := newTestCache(t, time.Minute)
	svc := NewService(reader, cache, nil, 20, logger.NewTestLogger(t))
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	reader.afterTotal = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	done := make(chan *Stats, 1)
	go func() {
		st, err := svc.Stats(ctx)
		assert.NoError(t, err)
		done <- st
	}()

	<-entered
	reader.add(models.Applicant{ID: 7, Status: models.StatusNone})
	svc.InvalidateStats(ctx)
	close(release)

	stale := <-done
	require.NotNil(t, stale)
	assert.Equal(t, int64(6), stale.Counters.Total)

	current, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), current.Counters.Total)
}

func TestService_RefreshStatsBypassesCache(t *testing.T) {
	reader := pipelineFixture()
	cache, _ := newTestCache(t, time.Minute)
	svc := NewService(reader, cache, nil, 20, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := svc.Stats(ctx)
	require.NoError(t, err)
	reader.add(models.Applicant{ID: 7, Status: models.StatusNone})

	refreshed, err := svc.RefreshStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), refreshed.Counters.Total)

	cached, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cached.Counters.Total)
	assert.Equal(t, 2, reader.metricsCalls())
}

func TestService_WithLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	svc := NewService(pipelineFixture(), nil, nil, 20, logger.NewTestLogger(t)).WithLocation(loc)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	today := time.Now().In(loc).Format("2006-01-02")
	assert.Equal(t, today, stats.Charts.Trend[6].Date)
}

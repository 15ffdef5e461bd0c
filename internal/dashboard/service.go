package dashboard

import (
	"context"
	"time"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/metrics"
	"recruitment-portal/internal/models"

	"golang.org/x/sync/errgroup"
)

// ApplicantReader is the read side of the applicant store.
type ApplicantReader interface {
	List(ctx context.Context, q ListQuery) ([]models.Applicant, int64, error)
	Count(ctx context.Context, f *StatusFilter) (int64, error)
	MetricsRows(ctx context.Context) ([]models.MetricsRow, error)
}

// URLResolver turns stored document paths into links.
type URLResolver interface {
	PublicURL(path string) string
}

// Row is one applicant as displayed in a list.
type Row struct {
	models.Applicant
	RowClass RowClass `json:"row_class"`
	CVURL    string   `json:"cv_url"`
	KTPURL   string   `json:"ktp_url"`
}

// View is one rendered page of a tab.
type View struct {
	State      ViewState `json:"state"`
	Rows       []Row     `json:"rows"`
	Total      int64     `json:"total"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Stale      bool      `json:"stale"`
}

type Service struct {
	reader   ApplicantReader
	cache    *StatsCache
	urls     URLResolver
	logger   logger.Logger
	pageSize int
	now      func() time.Time
}

// NewService wires the dashboard. cache may be nil.
func NewService(reader ApplicantReader, cache *StatsCache, urls URLResolver, pageSize int, log logger.Logger) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		reader:   reader,
		cache:    cache,
		urls:     urls,
		logger:   log.WithFields(map[string]interface{}{"component": "dashboard"}),
		pageSize: pageSize,
		now:      time.Now,
	}
}

// WithLocation makes day boundaries of the trend chart follow loc.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.now = func() time.Time { return time.Now().In(loc) }
	}
	return s
}

// PageSize is the configured number of rows per page.
func (s *Service) PageSize() int {
	return s.pageSize
}

// View loads the page described by state. A failed query is logged and
// yields an empty page marked stale.
func (s *Service) View(ctx context.Context, state ViewState) *View {
	if state.Page < 1 {
		state.Page = 1
	}
	if state.Selected == nil {
		state.Selected = []int64{}
	}
	v := &View{State: state, Rows: []Row{}, PageSize: s.pageSize}

	items, total, err := s.reader.List(ctx, state.Query(s.pageSize))
	if err != nil {
		s.logger.Error("applicant list query failed", map[string]interface{}{
			"tab":   string(state.Tab),
			"page":  state.Page,
			"error": err.Error(),
		})
		v.Stale = true
		return v
	}

	v.Total = total
	v.TotalPages = int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
	for _, a := range items {
		v.Rows = append(v.Rows, s.RowOf(a, state.IsSelected(a.ID)))
	}
	return v
}

// RowOf decorates a with its row class and document links.
func (s *Service) RowOf(a models.Applicant, selected bool) Row {
	r := Row{Applicant: a, RowClass: Classify(a.Status, selected)}
	if s.urls != nil {
		r.CVURL = s.urls.PublicURL(a.CVPath)
		r.KTPURL = s.urls.PublicURL(a.KTPPath)
	}
	return r
}

// Counters runs the five pipeline count queries in parallel.
func (s *Service) Counters(ctx context.Context) (PipelineCounters, error) {
	var c PipelineCounters
	talent := TabTalentPool.Filter()
	process := TabProcess.Filter()
	hired := TabHired.Filter()
	rejected := TabRejected.Filter()

	targets := []struct {
		dst    *int64
		filter *StatusFilter
	}{
		{&c.Total, nil},
		{&c.New, &talent},
		{&c.Process, &process},
		{&c.Hired, &hired},
		{&c.Rejected, &rejected},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			n, err := s.reader.Count(gctx, t.filter)
			if err != nil {
				return err
			}
			*t.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PipelineCounters{}, err
	}
	return c, nil
}

// Stats returns counters and charts, served from cache when possible.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.logger.Warn("stats cache read failed", map[string]interface{}{"error": err.Error()})
		case ok:
			metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	return s.computeStats(ctx)
}

// RefreshStats recomputes stats without consulting the cache and stores
// the result for later readers.
func (s *Service) RefreshStats(ctx context.Context) (*Stats, error) {
	return s.computeStats(ctx)
}

func (s *Service) computeStats(ctx context.Context) (*Stats, error) {
	var gen int64
	cacheable := s.cache != nil
	if cacheable {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.logger.Warn("stats cache generation read failed", map[string]interface{}{"error": err.Error()})
			cacheable = false
		}
	}

	var (
		counters PipelineCounters
		rows     []models.MetricsRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counters, err = s.Counters(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.reader.MetricsRows(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	stats := &Stats{
		Counters:    counters,
		Charts:      Aggregate(rows, now),
		GeneratedAt: now.UTC(),
	}

	if cacheable {
		stored, err := s.cache.SetIfGeneration(ctx, stats, gen)
		switch {
		case err != nil:
			s.logger.Warn("stats cache write failed", map[string]interface{}{"error": err.Error()})
		case !stored:
			s.logger.Debug("stats superseded by invalidation, not cached", map[string]interface{}{"generation": gen})
		}
	}
	return stats, nil
}

// InvalidateStats drops the cached stats and discards results of
// computations already in flight.
func (s *Service) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}

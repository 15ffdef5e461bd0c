package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"recruitment-portal/internal/models"
)

const (
	timeout = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// fakeReader serves applicants from memory.
type fakeReader struct {
	mu         sync.Mutex
	applicants []models.Applicant
	rows       []models.MetricsRow
	listErr    error
	countErr   error
	listCalls  int
	metricsHit int

	// afterTotal runs after the unfiltered count is taken, outside the lock.
	afterTotal func()
}

func (f *fakeReader) add(a models.Applicant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applicants = append(f.applicants, a)
}

func (f *fakeReader) List(_ context.Context, q ListQuery) ([]models.Applicant, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var matched []models.Applicant
	for _, a := range f.applicants {
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

func (f *fakeReader) Count(_ context.Context, filter *StatusFilter) (int64, error) {
	if filter == nil {
		f.mu.Lock()
		n, err := int64(len(f.applicants)), f.countErr
		hook := f.afterTotal
		f.mu.Unlock()
		if err != nil {
			return 0, err
		}
		if hook != nil {
			hook()
		}
		return n, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, a := range f.applicants {
		if filter.Matches(a.Status) {
			n++
		}
	}
	return n, nil
}

func (f *fakeReader) MetricsRows(context.Context) ([]models.MetricsRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metricsHit++
	return f.rows, nil
}

func (f *fakeReader) metricsCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metricsHit
}

type stubURLs struct{}

func (stubURLs) PublicURL(path string) string {
	if path == "" {
		return "#"
	}
	return "https://cdn.example.com/" + path
}

var errDatabaseDown = errors.New("database down")

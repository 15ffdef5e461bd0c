// Package dashboard holds the admin console rules: which rows each tab
// shows, how the view state moves on user actions, chart aggregation and
// row classification.
package dashboard

import (
	"fmt"

	"recruitment-portal/internal/models"
)

// Tab is one of the pipeline views of the console.
type Tab string

const (
	TabTalentPool Tab = "talent_pool"
	TabProcess    Tab = "process"
	TabRejected   Tab = "rejected"
	TabHired      Tab = "hired"
)

// ParseTab defaults an empty value to the talent pool.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(s); t {
	case "":
		return TabTalentPool, nil
	case TabTalentPool, TabProcess, TabRejected, TabHired:
		return t, nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// StatusFilter selects rows by status. IncludeNull adds rows whose status
// was never set.
type StatusFilter struct {
	Statuses    []string
	IncludeNull bool
}

// Filter returns the status predicate of the tab.
func (t Tab) Filter() StatusFilter {
	switch t {
	case TabProcess:
		return StatusFilter{Statuses: []string{string(models.StatusProcess), string(models.StatusInterview)}}
	case TabRejected:
		return StatusFilter{Statuses: []string{string(models.StatusRejected)}}
	case TabHired:
		return StatusFilter{Statuses: []string{string(models.StatusHired)}}
	default:
		return StatusFilter{Statuses: []string{string(models.StatusNew)}, IncludeNull: true}
	}
}

// Matches evaluates the filter against a stored status.
func (f StatusFilter) Matches(s models.Status) bool {
	if s == models.StatusNone {
		return f.IncludeNull
	}
	for _, want := range f.Statuses {
		if string(s) == want {
			return true
		}
	}
	return false
}

package dashboard

import "sort"

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 20

// ViewState is everything the applicant list depends on.
type ViewState struct {
	Tab       Tab     `json:"tab"`
	Search    string  `json:"search"`
	Client    string  `json:"client"`
	Education string  `json:"education"`
	SortAsc   bool    `json:"sort_asc"`
	Page      int     `json:"page"`
	Selected  []int64 `json:"selected"`
}

// NewViewState is the state of a freshly opened console.
func NewViewState() ViewState {
	return ViewState{Tab: TabTalentPool, Page: 1, Selected: []int64{}}
}

// ActionType names a user action on the console.
type ActionType string

const (
	ActionSetTab         ActionType = "set_tab"
	ActionSetSearch      ActionType = "set_search"
	ActionSetClient      ActionType = "set_client"
	ActionSetEducation   ActionType = "set_education"
	ActionToggleSort     ActionType = "toggle_sort"
	ActionSetPage        ActionType = "set_page"
	ActionToggleSelect   ActionType = "toggle_select"
	ActionSelectAll      ActionType = "select_all"
	ActionClearSelection ActionType = "clear_selection"
	ActionBulkStatusDone ActionType = "bulk_status_done"
	ActionBulkDeleteDone ActionType = "bulk_delete_done"
	ActionResetFilters   ActionType = "reset_filters"
)

// Action is one user interaction. Only the fields its Type needs are read.
type Action struct {
	Type  ActionType `json:"type"`
	Tab   Tab        `json:"tab,omitempty"`
	Value string     `json:"value,omitempty"`
	Page  int        `json:"page,omitempty"`
	ID    int64      `json:"id,omitempty"`
	IDs   []int64    `json:"ids,omitempty"`
}

// Reduce returns the state after a. Tab and filter changes go back to page
// one; tab and page changes drop the selection; sorting keeps both.
func Reduce(s ViewState, a Action) ViewState {
	next := s
	next.Selected = append([]int64{}, s.Selected...)
	if next.Page < 1 {
		next.Page = 1
	}

	switch a.Type {
	case ActionSetTab:
		if a.Tab == s.Tab {
			return next
		}
		next.Tab = a.Tab
		next.Page = 1
		next.Selected = []int64{}
	case ActionSetSearch:
		next.Search = a.Value
		next.Page = 1
	case ActionSetClient:
		next.Client = a.Value
		next.Page = 1
	case ActionSetEducation:
		next.Education = a.Value
		next.Page = 1
	case ActionResetFilters:
		next.Search, next.Client, next.Education = "", "", ""
		next.Page = 1
	case ActionToggleSort:
		next.SortAsc = !s.SortAsc
	case ActionSetPage:
		if a.Page < 1 || a.Page == next.Page {
			return next
		}
		next.Page = a.Page
		next.Selected = []int64{}
	case ActionToggleSelect:
		next.Selected = toggle(next.Selected, a.ID)
	case ActionSelectAll:
		next.Selected = uniqueSorted(a.IDs)
	case ActionClearSelection, ActionBulkStatusDone, ActionBulkDeleteDone:
		next.Selected = []int64{}
	}
	return next
}

// IsSelected reports whether id is in the selection.
func (s ViewState) IsSelected(id int64) bool {
	for _, v := range s.Selected {
		if v == id {
			return true
		}
	}
	return false
}

func toggle(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return append(ids, id)
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ListQuery is the database query a view state resolves to.
type ListQuery struct {
	Filter    StatusFilter
	Search    string
	Client    string
	Education string
	SortAsc   bool
	Limit     int
	Offset    int
}

// Query resolves the state into a list query with the given page size.
func (s ViewState) Query(pageSize int) ListQuery {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := s.Page
	if page < 1 {
		page = 1
	}
	return ListQuery{
		Filter:    s.Tab.Filter(),
		Search:    s.Search,
		Client:    s.Client,
		Education: s.Education,
		SortAsc:   s.SortAsc,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}
}

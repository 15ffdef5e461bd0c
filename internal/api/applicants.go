package api

import (
	"context"
	"net/http"
	"strconv"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/realtime"
	"recruitment-portal/internal/dashboard"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/search"

	"github.com/gin-gonic/gin"
)

// viewStateFromQuery reads ?tab=&search=&client=&education=&sort=&page=.
func viewStateFromQuery(c *gin.Context) (dashboard.ViewState, error) {
	state := dashboard.NewViewState()
	tab, err := dashboard.ParseTab(c.Query("tab"))
	if err != nil {
		return state, errors.NewInvalidRequestError(err.Error())
	}
	state.Tab = tab
	state.Search = c.Query("search")
	state.Client = c.Query("client")
	state.Education = c.Query("education")
	state.SortAsc = c.Query("sort") == "asc"
	if p := c.Query("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			return state, errors.NewInvalidRequestError("page must be a positive integer")
		}
		state.Page = page
	}
	return state, nil
}

func (s *Server) listApplicants(c *gin.Context) {
	state, err := viewStateFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	s.deps.Observability.RecordViewRefresh(c.Request.Context(), "request")
	c.JSON(http.StatusOK, s.deps.Dashboard.View(c.Request.Context(), state))
}

type viewRequest struct {
	State  dashboard.ViewState `json:"state"`
	Action *dashboard.Action   `json:"action"`
}

// reduceView applies one console action to the posted state and returns the
// resulting page.
func (s *Server) reduceView(c *gin.Context) {
	var req viewRequest
	if !bindJSON(c, &req) {
		return
	}
	state := req.State
	if state.Tab == "" {
		state.Tab = dashboard.TabTalentPool
	}
	if _, err := dashboard.ParseTab(string(state.Tab)); err != nil {
		writeError(c, errors.NewInvalidRequestError(err.Error()))
		return
	}
	if req.Action != nil {
		if req.Action.Type == dashboard.ActionSetTab {
			if _, err := dashboard.ParseTab(string(req.Action.Tab)); err != nil {
				writeError(c, errors.NewInvalidRequestError(err.Error()))
				return
			}
		}
		state = dashboard.Reduce(state, *req.Action)
	}
	s.deps.Observability.RecordViewRefresh(c.Request.Context(), "request")
	c.JSON(http.StatusOK, s.deps.Dashboard.View(c.Request.Context(), state))
}

func (s *Server) getApplicant(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	a, err := s.deps.Applicants.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.deps.Dashboard.RowOf(*a, false))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateStatus changes one applicant immediately, without confirmation.
func (s *Server) updateStatus(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		writeError(c, errors.NewInvalidStatusError(req.Status))
		return
	}
	if err := s.deps.Applicants.UpdateStatus(c.Request.Context(), id, status); err != nil {
		writeError(c, err)
		return
	}
	s.applicantsChanged(c, realtime.OpUpdate, id)
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status, "row_class": dashboard.Classify(status, false)})
}

type notesRequest struct {
	Catatan string `json:"catatan"`
}

func (s *Server) updateNotes(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req notesRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.deps.Applicants.UpdateNotes(c.Request.Context(), id, req.Catatan); err != nil {
		writeError(c, err)
		return
	}
	s.applicantsChanged(c, realtime.OpUpdate, id)
	c.JSON(http.StatusOK, gin.H{"id": id, "catatan": req.Catatan})
}

func (s *Server) editApplicant(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var edit models.ApplicantEdit
	if !bindJSON(c, &edit) {
		return
	}
	if err := s.deps.Applicants.UpdateFields(c.Request.Context(), id, edit); err != nil {
		writeError(c, err)
		return
	}
	s.applicantsChanged(c, realtime.OpUpdate, id)
	a, err := s.deps.Applicants.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// deleteApplicant requires ?confirm=true.
func (s *Server) deleteApplicant(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if c.Query("confirm") != "true" {
		writeError(c, errors.NewConfirmationRequiredError("delete applicant"))
		return
	}
	if err := s.deps.Applicants.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	s.applicantsChanged(c, realtime.OpDelete, id)
	c.JSON(http.StatusOK, gin.H{"deleted": 1})
}

// bulkRequest carries the selection of the console. State, when sent, is
// returned with its selection cleared.
type bulkRequest struct {
	IDs     []int64              `json:"ids"`
	Status  string               `json:"status"`
	Confirm bool                 `json:"confirm"`
	State   *dashboard.ViewState `json:"state"`
}

type bulkResponse struct {
	Affected int64                `json:"affected"`
	State    *dashboard.ViewState `json:"state,omitempty"`
}

func (s *Server) bulkStatus(c *gin.Context) {
	var req bulkRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		writeError(c, errors.NewInvalidStatusError(req.Status))
		return
	}
	if !req.Confirm {
		writeError(c, errors.NewConfirmationRequiredError("bulk status change"))
		return
	}
	n, err := s.deps.Applicants.BulkUpdateStatus(c.Request.Context(), req.IDs, status)
	if err != nil {
		writeError(c, err)
		return
	}
	s.applicantsChanged(c, realtime.OpUpdate, req.IDs...)
	c.JSON(http.StatusOK, bulkResponse{Affected: n, State: afterBulk(req.State, dashboard.ActionBulkStatusDone)})
}

func (s *Server) bulkDelete(c *gin.Context) {
	var req bulkRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Confirm {
		writeError(c, errors.NewConfirmationRequiredError("bulk delete"))
		return
	}
	n, err := s.deps.Applicants.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}
	s.applicantsChanged(c, realtime.OpDelete, req.IDs...)
	c.JSON(http.StatusOK, bulkResponse{Affected: n, State: afterBulk(req.State, dashboard.ActionBulkDeleteDone)})
}

func afterBulk(state *dashboard.ViewState, done dashboard.ActionType) *dashboard.ViewState {
	if state == nil {
		return nil
	}
	next := dashboard.Reduce(*state, dashboard.Action{Type: done})
	return &next
}

// applicantsChanged publishes the change and brings the search index in
// line. Index failures are logged only; the SQL table stays authoritative.
func (s *Server) applicantsChanged(c *gin.Context, op string, ids ...int64) {
	s.notify(c, realtime.TableApplicants, op, ids...)
	if s.deps.Search == nil || len(ids) == 0 {
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	if op == realtime.OpDelete {
		if err := s.deps.Search.Remove(ctx, ids...); err != nil {
			s.logger.Warn("search index removal failed", map[string]interface{}{"ids": ids, "error": err.Error()})
		}
		return
	}
	as, err := s.deps.Applicants.GetMany(ctx, ids)
	if err != nil {
		s.logger.Warn("search reindex load failed", map[string]interface{}{"ids": ids, "error": err.Error()})
		return
	}
	for _, a := range as {
		if err := s.deps.Search.Put(ctx, search.DocumentFrom(a)); err != nil {
			s.logger.Warn("search reindex failed", map[string]interface{}{"id": a.ID, "error": err.Error()})
		}
	}
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.deps.Dashboard.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("stats query failed", map[string]interface{}{"error": err.Error()})
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) searchApplicants(c *gin.Context) {
	if s.deps.Search == nil {
		writeError(c, errors.NewResourceNotFoundError("search", "search index is disabled"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size := s.deps.Dashboard.PageSize()
	res, err := s.deps.Search.Search(c.Request.Context(), c.Query("q"), (page-1)*size, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

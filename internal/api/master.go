package api

import (
	"net/http"
	"strings"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/realtime"
	"recruitment-portal/internal/store"

	"github.com/gin-gonic/gin"
)

// masterRequest covers the writable fields of all three kinds.
type masterRequest struct {
	ClientID       int64  `json:"client_id"`
	PositionID     int64  `json:"position_id"`
	Name           string `json:"name"`
	Location       string `json:"location"`
	RecruiterPhone string `json:"recruiter_phone"`
}

func (r masterRequest) validate(kind store.MasterKind) error {
	switch kind {
	case store.KindClient:
		if strings.TrimSpace(r.Name) == "" {
			return errors.NewInvalidRequestError("name is required")
		}
	case store.KindPosition:
		if strings.TrimSpace(r.Name) == "" {
			return errors.NewInvalidRequestError("name is required")
		}
	case store.KindPlacement:
		if strings.TrimSpace(r.Location) == "" {
			return errors.NewInvalidRequestError("location is required")
		}
	}
	return nil
}

// masterData returns every row, inactive ones included.
func (s *Server) masterData(c *gin.Context) {
	m, err := s.deps.Master.Load(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) createMaster(c *gin.Context) {
	kind, err := store.ParseMasterKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req masterRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.validate(kind); err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		created interface{}
		id      int64
	)
	switch kind {
	case store.KindClient:
		cl, e := s.deps.Master.CreateClient(ctx, strings.TrimSpace(req.Name))
		if e == nil {
			created, id = cl, cl.ID
		}
		err = e
	case store.KindPosition:
		if req.ClientID <= 0 {
			writeError(c, errors.NewInvalidRequestError("client_id is required"))
			return
		}
		p, e := s.deps.Master.CreatePosition(ctx, req.ClientID, strings.TrimSpace(req.Name))
		if e == nil {
			created, id = p, p.ID
		}
		err = e
	case store.KindPlacement:
		if req.PositionID <= 0 {
			writeError(c, errors.NewInvalidRequestError("position_id is required"))
			return
		}
		pl, e := s.deps.Master.CreatePlacement(ctx, req.PositionID, strings.TrimSpace(req.Location), strings.TrimSpace(req.RecruiterPhone))
		if e == nil {
			created, id = pl, pl.ID
		}
		err = e
	}
	if err != nil {
		writeError(c, err)
		return
	}
	s.notify(c, string(kind), realtime.OpInsert, id)
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateMaster(c *gin.Context) {
	kind, err := store.ParseMasterKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req masterRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.validate(kind); err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	switch kind {
	case store.KindClient:
		err = s.deps.Master.RenameClient(ctx, id, strings.TrimSpace(req.Name))
	case store.KindPosition:
		err = s.deps.Master.RenamePosition(ctx, id, strings.TrimSpace(req.Name))
	case store.KindPlacement:
		err = s.deps.Master.UpdatePlacement(ctx, id, strings.TrimSpace(req.Location), strings.TrimSpace(req.RecruiterPhone))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	s.notify(c, string(kind), realtime.OpUpdate, id)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (s *Server) setMasterActive(c *gin.Context) {
	kind, err := store.ParseMasterKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req activeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.deps.Master.SetActive(c.Request.Context(), kind, id, *req.IsActive); err != nil {
		writeError(c, err)
		return
	}
	s.notify(c, string(kind), realtime.OpUpdate, id)
	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": *req.IsActive})
}

// deleteMaster requires ?confirm=true and returns the rows removed by the
// cascade.
func (s *Server) deleteMaster(c *gin.Context) {
	kind, err := store.ParseMasterKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if c.Query("confirm") != "true" {
		writeError(c, errors.NewConfirmationRequiredError("delete "+string(kind)))
		return
	}

	ctx := c.Request.Context()
	var plan store.DeletionPlan
	switch kind {
	case store.KindClient:
		plan, err = s.deps.Master.DeleteClient(ctx, id)
	case store.KindPosition:
		plan, err = s.deps.Master.DeletePosition(ctx, id)
	case store.KindPlacement:
		plan, err = s.deps.Master.DeletePlacement(ctx, id)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if len(plan.PlacementIDs) > 0 {
		s.notify(c, string(store.KindPlacement), realtime.OpDelete, plan.PlacementIDs...)
	}
	if len(plan.PositionIDs) > 0 {
		s.notify(c, string(store.KindPosition), realtime.OpDelete, plan.PositionIDs...)
	}
	if len(plan.ClientIDs) > 0 {
		s.notify(c, string(store.KindClient), realtime.OpDelete, plan.ClientIDs...)
	}
	c.JSON(http.StatusOK, plan)
}

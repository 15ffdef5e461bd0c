package api

import (
	"strconv"

	"recruitment-portal/internal/common/errors"

	"github.com/gin-gonic/gin"
)

// writeError renders err as {"error": StandardError} with the status its
// code maps to.
func writeError(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	c.JSON(errors.HTTPStatus(stdErr.Code), gin.H{"error": stdErr})
}

func abortWithError(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequestError("id must be a positive integer")
	}
	return id, nil
}

// bindJSON decodes the body, reporting malformed input as INVALID_REQUEST.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, errors.NewInvalidRequestError(err.Error()))
		return false
	}
	return true
}

func (s *Server) notify(c *gin.Context, table, op string, ids ...int64) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(c.Request.Context(), table, op, ids...)
	}
}

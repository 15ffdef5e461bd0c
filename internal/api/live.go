package api

import (
	"io"
	"net/http"
	"time"

	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/errors"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// live streams refreshed views of the queried tab as server-sent events.
// Event names are the update kinds ("view", "master").
func (s *Server) live(c *gin.Context) {
	if s.deps.Changes == nil {
		writeError(c, errors.NewResourceNotFoundError("live", "realtime feed is disabled"))
		return
	}
	state, err := viewStateFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	debounce := config.GetDuration(s.deps.Config.Dashboard.RefreshDebounce)
	updates, err := s.deps.Dashboard.Watch(ctx, s.deps.Changes, state, debounce)
	if err != nil {
		writeError(c, errors.NewExternalServiceError("redis", err))
		return
	}

	// The stream outlives the server write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	s.logger.Info("live console connected", map[string]interface{}{
		"tab":      string(state.Tab),
		"operator": c.GetString(ctxOperator),
	})

	c.Stream(func(w io.Writer) bool {
		u, ok := <-updates
		if !ok {
			return false
		}
		s.deps.Observability.RecordViewRefresh(ctx, "realtime")
		c.Render(-1, sse.Event{Event: u.Kind, Data: u})
		return true
	})
}

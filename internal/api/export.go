package api

import (
	"bytes"
	"fmt"
	"net/http"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/export"
	"recruitment-portal/internal/messaging"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportRequest struct {
	IDs    []int64 `json:"ids" binding:"required"`
	Format string  `json:"format"`
	export.Input
}

// exportApplicants renders the selection as clipboard lines (format "tsv",
// the default) or as an XLSX download.
func (s *Server) exportApplicants(c *gin.Context) {
	var req exportRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(c, errors.NewInvalidRequestError("no applicants selected"))
		return
	}
	as, err := s.deps.Applicants.GetMany(c.Request.Context(), req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}

	today := s.now()
	switch req.Format {
	case "", "tsv":
		c.String(http.StatusOK, export.Rows(as, req.Input, today))
	case "xlsx":
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, as, req.Input, today); err != nil {
			writeError(c, errors.NewInternalError(err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pelamar-%s.xlsx"`, today.Format("20060102")))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	default:
		writeError(c, errors.NewInvalidRequestError(fmt.Sprintf("unknown export format %q", req.Format)))
	}
}

func (s *Server) messageTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, messaging.Templates())
}

type messageRequest struct {
	Template string `json:"template"`
	Text     string `json:"text"`
}

type messageResponse struct {
	Template string `json:"template,omitempty"`
	Text     string `json:"text"`
	Link     string `json:"link"`
}

// composeMessage seeds the draft from a template when no text is sent and
// returns the WhatsApp link for the final text. Nothing is delivered.
func (s *Server) composeMessage(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req messageRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := s.deps.Applicants.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	text := req.Text
	if text == "" {
		text, err = messaging.Draft(messaging.TemplateID(req.Template), a.NamaLengkap, a.PosisiDilamar)
		if err != nil {
			writeError(c, errors.NewInvalidRequestError(err.Error()))
			return
		}
	}
	link, err := messaging.WhatsAppLink(a.NoHP, text)
	if err != nil {
		writeError(c, errors.NewInvalidRequestError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, messageResponse{Template: req.Template, Text: text, Link: link})
}

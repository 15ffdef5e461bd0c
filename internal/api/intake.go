package api

import (
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/intake"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the room left for text fields beyond the two files.
const multipartOverhead = 1 << 20

// submitApplication accepts the multipart application form. Text fields use
// the snake_case column names; files are sent as "cv" and "ktp".
func (s *Server) submitApplication(c *gin.Context) {
	cfg := s.deps.Config.Intake
	maxBytes := cfg.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = intake.DefaultMaxFileBytes
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*(maxBytes+1)+multipartOverhead)
	if err := c.Request.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(c, errors.NewFileTooLargeError("documents", maxBytes))
			return
		}
		writeError(c, errors.NewInvalidRequestError("multipart form expected: "+err.Error()))
		return
	}

	form := intake.NewForm(maxBytes, cfg.AllowedTypes)
	form.Fill(c.Request.MultipartForm.Value)

	for _, field := range []string{intake.FieldCV, intake.FieldKTP} {
		fh, err := c.FormFile(field)
		if err != nil {
			continue
		}
		doc, err := readDocument(fh, maxBytes)
		if err != nil {
			writeError(c, errors.NewInvalidRequestError(err.Error()))
			return
		}
		if err := form.SelectFile(field, doc); err != nil {
			writeError(c, errors.NewInvalidRequestError(err.Error()))
			return
		}
	}

	result, err := s.deps.Intake.Submit(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// readDocument reads at most maxBytes+1 bytes so the gate can tell an
// oversized file apart without buffering all of it.
func readDocument(fh *multipart.FileHeader, maxBytes int64) (*intake.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	return &intake.Document{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// publicOptions lists the active clients, positions and placements offered
// on the form.
func (s *Server) publicOptions(c *gin.Context) {
	m, err := s.deps.Master.Load(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m.PublicOptions())
}

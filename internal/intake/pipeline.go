package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/metrics"
	"recruitment-portal/internal/common/realtime"
	"recruitment-portal/internal/common/storage"
	"recruitment-portal/internal/common/validation"
	"recruitment-portal/internal/models"
)

// DocumentUploader stores an uploaded file and returns its stored path.
type DocumentUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ApplicantWriter persists a new applicant and returns its id.
type ApplicantWriter interface {
	Insert(ctx context.Context, a *models.Applicant) (int64, error)
}

// ChangeNotifier announces table changes to live consoles.
type ChangeNotifier interface {
	Notify(ctx context.Context, table, op string, ids ...int64)
}

// ProcessStarter starts the follow-up workflow of a new applicant.
type ProcessStarter interface {
	StartApplicantProcess(ctx context.Context, ev models.NewApplicantEvent) error
}

// Result describes a stored application.
type Result struct {
	ID        int64     `json:"id"`
	CVPath    string    `json:"cv_path"`
	KTPPath   string    `json:"ktp_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Pipeline turns a filled-in form into a stored applicant.
type Pipeline struct {
	uploads  DocumentUploader
	writer   ApplicantWriter
	notifier ChangeNotifier
	starter  ProcessStarter
	schema   *validation.Validator
	logger   logger.Logger
	now      func() time.Time
}

func NewPipeline(uploads DocumentUploader, writer ApplicantWriter, log logger.Logger) *Pipeline {
	return &Pipeline{
		uploads: uploads,
		writer:  writer,
		logger:  log.WithFields(map[string]interface{}{"component": "intake"}),
		now:     time.Now,
	}
}

// WithNotifier publishes an applicants change after each insert.
func (p *Pipeline) WithNotifier(n ChangeNotifier) *Pipeline {
	p.notifier = n
	return p
}

// WithProcessStarter starts a workflow instance after each insert.
func (p *Pipeline) WithProcessStarter(s ProcessStarter) *Pipeline {
	p.starter = s
	return p
}

// WithSchema checks the mapped record against v before anything is stored.
func (p *Pipeline) WithSchema(v *validation.Validator) *Pipeline {
	p.schema = v
	return p
}

// Submit validates f, uploads its CV then its KTP, and inserts the record.
// Nothing is inserted when an upload fails. Files already uploaded when a
// later step fails are left in the bucket.
func (p *Pipeline) Submit(ctx context.Context, f *Form) (*Result, error) {
	if errs, first := Validate(f); len(errs) > 0 {
		metrics.ApplicationsSubmitted.WithLabelValues("invalid").Inc()
		return nil, errors.NewFormValidationError(first, errs)
	}

	submittedAt := p.now()
	rec := Record(f, submittedAt)

	if p.schema != nil {
		res, err := p.schema.Validate(rec)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		if !res.Valid {
			metrics.ApplicationsSubmitted.WithLabelValues("invalid").Inc()
			return nil, errors.NewSchemaValidationError(strings.Join(res.GetErrorMessages(), "; "))
		}
	}

	cvPath, err := p.upload(ctx, storage.PrefixCV, f.CV.Current(), submittedAt)
	if err != nil {
		return nil, err
	}
	ktpPath, err := p.upload(ctx, storage.PrefixKTP, f.KTP.Current(), submittedAt)
	if err != nil {
		return nil, err
	}
	rec.CVPath = cvPath
	rec.KTPPath = ktpPath

	id, err := p.writer.Insert(ctx, rec)
	if err != nil {
		metrics.ApplicationsSubmitted.WithLabelValues("insert_failed").Inc()
		p.logger.Error("applicant insert failed", map[string]interface{}{
			"cv_path":  cvPath,
			"ktp_path": ktpPath,
			"error":    err.Error(),
		})
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	metrics.ApplicationsSubmitted.WithLabelValues("success").Inc()

	p.logger.Info("application stored", map[string]interface{}{
		"applicant_id":   id,
		"posisi_dilamar": rec.PosisiDilamar,
		"penempatan":     rec.Penempatan,
	})

	p.afterInsert(ctx, id, rec)

	return &Result{ID: id, CVPath: cvPath, KTPPath: ktpPath, CreatedAt: submittedAt}, nil
}

func (p *Pipeline) upload(ctx context.Context, prefix string, doc *Document, at time.Time) (string, error) {
	key := ObjectName(prefix, doc.Name, at)
	path, err := p.uploads.Upload(ctx, key, doc.Data, doc.ContentType)
	if err != nil {
		metrics.DocumentUploads.WithLabelValues(prefix, "error").Inc()
		metrics.ApplicationsSubmitted.WithLabelValues("upload_failed").Inc()
		p.logger.Error("document upload failed", map[string]interface{}{
			"kind":  prefix,
			"key":   key,
			"error": err.Error(),
		})
		return "", errors.NewDocumentUploadFailedError(prefix, err)
	}
	metrics.DocumentUploads.WithLabelValues(prefix, "success").Inc()
	return path, nil
}

// afterInsert runs the follow-ups whose failure must not fail the submission.
func (p *Pipeline) afterInsert(ctx context.Context, id int64, rec *models.Applicant) {
	if p.notifier != nil {
		p.notifier.Notify(ctx, realtime.TableApplicants, realtime.OpInsert, id)
	}
	if p.starter == nil {
		return
	}
	ev := models.NewApplicantEvent{
		ApplicantID:   id,
		NamaLengkap:   rec.NamaLengkap,
		NoHP:          rec.NoHP,
		PosisiDilamar: rec.PosisiDilamar,
		Penempatan:    rec.Penempatan,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := p.starter.StartApplicantProcess(ctx, ev); err != nil {
		p.logger.Warn("applicant process not started", map[string]interface{}{
			"applicant_id": id,
			"error":        err.Error(),
		})
	}
}

// Record maps the form to the row that will be inserted.
func Record(f *Form, submittedAt time.Time) *models.Applicant {
	rec := f.Applicant
	rec.ID = 0
	rec.Umur = f.Umur()
	if !rec.HasPengalamanKerja {
		rec.HasPengalamanLeasing = false
	}
	rec.Status = models.StatusNone
	rec.Catatan = ""
	rec.CreatedAt = submittedAt
	rec.UpdatedAt = nil
	return &rec
}

// ObjectName builds "<prefix>/<unix millis>_<name>" where every character of
// name outside [A-Za-z0-9.] becomes '_'.
func ObjectName(prefix, name string, at time.Time) string {
	return fmt.Sprintf("%s/%d_%s", prefix, at.UnixMilli(), SanitizeFileName(name))
}

// SanitizeFileName replaces every rune outside [A-Za-z0-9.] with '_'.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

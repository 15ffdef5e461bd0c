// internal/workers/applicant/index-applicant/handler.go
package indexapplicant

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/metrics"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/search"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "index-applicant"
)

type ApplicantGetter interface {
	Get(ctx context.Context, id int64) (*models.Applicant, error)
}

type DocumentIndexer interface {
	Put(ctx context.Context, doc search.Document) error
}

type Handler struct {
	config     *Config
	applicants ApplicantGetter
	index      DocumentIndexer
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, applicants ApplicantGetter, index DocumentIndexer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		applicants: applicants,
		index:      index,
		errHandler: errors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicantID <= 0 {
		return nil, errors.NewInvalidRequestError("applicantId is required")
	}

	a, err := h.applicants.Get(ctx, input.ApplicantID)
	if err != nil {
		return nil, err
	}

	doc := search.DocumentFrom(*a)
	if err := h.index.Put(ctx, doc); err != nil {
		return nil, err
	}

	h.logger.Debug("applicant indexed", map[string]interface{}{"applicantId": a.ID})
	return &Output{
		Indexed:    true,
		DocumentID: strconv.FormatInt(a.ID, 10),
		IndexedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}

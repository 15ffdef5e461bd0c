// internal/workers/applicant/notify-recruiter/handler.go
package notifyrecruiter

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html"
	"time"

	awsc "recruitment-portal/internal/common/aws"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/metrics"
	"recruitment-portal/internal/messaging"
	"recruitment-portal/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-recruiter"
)

var (
	ErrInvalidInput           = stderrors.New("INVALID_INPUT")
	ErrNotificationSendFailed = stderrors.New("NOTIFICATION_SEND_FAILED")
)

// RecruiterLookup resolves the recruiter phone of a placement label.
type RecruiterLookup interface {
	RecruiterForPlacement(ctx context.Context, position, penempatan string) (string, error)
}

// TelegramSender is satisfied by *tgbotapi.BotAPI.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handler struct {
	config     *Config
	recruiters RecruiterLookup
	sesClient  awsc.SESService
	snsClient  awsc.SNSService
	telegram   TelegramSender
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler wires the channels. sesClient, snsClient and telegram may be
// nil when the matching channel is disabled.
func NewHandler(config *Config, recruiters RecruiterLookup, sesClient awsc.SESService, snsClient awsc.SNSService, telegram TelegramSender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		recruiters: recruiters,
		sesClient:  sesClient,
		snsClient:  snsClient,
		telegram:   telegram,
		errHandler: errors.NewErrorHandler(l),
		logger:     l,
		now:        time.Now,
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

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicantID == 0 || input.NamaLengkap == "" {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("%v: applicantId and namaLengkap are required", ErrInvalidInput))
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Channels:       make(map[string]string, 3),
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	phone, err := h.recruiters.RecruiterForPlacement(ctx, input.PosisiDilamar, input.Penempatan)
	switch {
	case err == nil:
		output.RecruiterPhone = phone
	case errors.AsStandardError(err).Code == errors.ErrCodeResourceNotFound:
		h.logger.Warn("no recruiter for placement", map[string]interface{}{
			"applicantId": input.ApplicantID,
			"penempatan":  input.Penempatan,
		})
	default:
		return nil, err
	}

	body := MessageBody(input)
	var lastErr error

	output.Channels[models.ChannelSMS] = h.deliver(models.ChannelSMS, h.config.SMSEnabled && phone != "", &lastErr, func() error {
		_, err := h.snsClient.Publish(ctx, awsc.TransactionalSMS("+"+messaging.NormalizePhone(phone), h.config.SMSSenderID, body))
		return err
	})
	output.Channels[models.ChannelEmail] = h.deliver(models.ChannelEmail, h.config.EmailEnabled, &lastErr, func() error {
		_, err := h.sesClient.SendEmail(ctx, awsc.PlainEmail(h.config.FromEmail, h.config.HRInbox, MessageSubject(input), body))
		return err
	})
	output.Channels[models.ChannelTelegram] = h.deliver(models.ChannelTelegram, h.config.TelegramEnabled, &lastErr, func() error {
		_, err := h.telegram.Send(TelegramMessage(h.config.TelegramChatID, input))
		return err
	})

	output.Status = overallStatus(output.Channels)
	if output.Status == models.NotificationFailed {
		return nil, errors.NewNotificationSendFailedError("all", fmt.Errorf("%w: %v", ErrNotificationSendFailed, lastErr))
	}
	return output, nil
}

// deliver runs send when enabled and reports the channel status.
func (h *Handler) deliver(channel string, enabled bool, lastErr *error, send func() error) string {
	if !enabled {
		return models.NotificationDisabled
	}
	if err := send(); err != nil {
		h.logger.Error("notification send failed", map[string]interface{}{
			"channel": channel,
			"error":   err.Error(),
		})
		*lastErr = err
		return models.NotificationFailed
	}
	return models.NotificationSent
}

// overallStatus is sent when any channel delivered, failed when every
// attempted channel failed and disabled when nothing was attempted.
func overallStatus(channels map[string]string) string {
	attempted := false
	for _, s := range channels {
		switch s {
		case models.NotificationSent:
			return models.NotificationSent
		case models.NotificationFailed:
			attempted = true
		}
	}
	if attempted {
		return models.NotificationFailed
	}
	return models.NotificationDisabled
}

func MessageSubject(input *Input) string {
	return fmt.Sprintf("Pelamar baru: %s - %s", input.NamaLengkap, input.PosisiDilamar)
}

func MessageBody(input *Input) string {
	return fmt.Sprintf("Pelamar baru %s (%s) melamar %s di %s.",
		input.NamaLengkap, input.NoHP, input.PosisiDilamar, input.Penempatan)
}

// TelegramMessage renders the chat notification with a button opening a
// WhatsApp chat with the applicant.
func TelegramMessage(chatID int64, input *Input) tgbotapi.MessageConfig {
	text := fmt.Sprintf("<b>Pelamar baru</b>\n%s\n%s\n%s",
		html.EscapeString(input.NamaLengkap),
		html.EscapeString(input.PosisiDilamar),
		html.EscapeString(input.Penempatan),
	)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if link, err := messaging.WhatsAppLink(input.NoHP, ""); err == nil {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Chat WhatsApp", link)),
		)
	}
	return msg
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}

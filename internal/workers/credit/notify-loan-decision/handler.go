// internal/workers/credit/notify-loan-decision/handler.go
package notifyloandecision

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"agri-credit-workers/internal/common/camunda"
	"agri-credit-workers/internal/common/errors"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/common/validation"
	"agri-credit-workers/internal/repository"
	"agri-credit-workers/internal/workers/credit/shared"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"
)

const (
	TaskType = "notify-loan-decision"
)

// Define interfaces for mocking
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config       *Config
	repo         repository.LoanRepository
	email        EmailSender
	sms          SMSSender
	limiter      *rate.Limiter
	schema       *validation.Schema
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, repo repository.LoanRepository, email EmailSender, sms SMSSender, schema *validation.Schema, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		repo:         repo,
		email:        email,
		sms:          sms,
		limiter:      rate.NewLimiter(rate.Limit(config.SMSRate), config.SMSBurst),
		schema:       schema,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", camunda.JobFields(job))

	var input Input
	if err := shared.DecodeInput(job, h.schema, &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	return camunda.CompleteJob(ctx, client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	template, exists := h.config.Templates[strings.ToLower(input.Status)]
	if !exists {
		return nil, errors.NewTemplateNotFoundError(input.Status)
	}

	if !h.config.EmailEnabled && !h.config.SMSEnabled {
		return output, nil
	}

	contact, err := h.repo.FetchFarmerContact(ctx, input.FarmerID)
	if err != nil {
		if stderrors.Is(err, repository.ErrFarmerNotFound) {
			h.logger.Warn("recipient not found", map[string]interface{}{
				"farmerId": input.FarmerID,
			})
			return output, nil
		}
		return nil, errors.NewQueryExecutionFailedError("farmer_contact", err)
	}

	data := map[string]interface{}{
		"farmerName":    contact.Name,
		"applicationId": input.ApplicationID,
		"status":        input.Status,
		"notes":         input.Notes,
	}
	subject := renderTemplate(template.Subject, data)
	body := strings.TrimSpace(renderTemplate(template.Body, data))

	attempted := 0
	var lastErr error

	if h.config.EmailEnabled && h.email != nil && validation.ValidateEmail(contact.Email) {
		attempted++
		if err := h.sendEmail(ctx, contact.Email, subject, body); err != nil {
			lastErr = err
		} else {
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if h.config.SMSEnabled && h.sms != nil && validation.ValidatePhone(contact.Phone) {
		attempted++
		if err := h.sendSMS(ctx, contact.Phone, body); err != nil {
			lastErr = err
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	switch {
	case attempted == 0:
		output.Status = StatusDisabled
	case len(output.Channels) > 0:
		output.Status = StatusSent
	default:
		return nil, errors.NewNotificationSendFailedError("loan_decision_"+strings.ToLower(input.Status), lastErr)
	}

	h.logger.Info("decision notification processed", map[string]interface{}{
		"applicationId":  input.ApplicationID,
		"notificationId": output.NotificationID,
		"status":         output.Status,
		"channels":       output.Channels,
	})
	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	messageID, err := h.email.SendEmail(ctx, to, subject, body)
	if err != nil {
		h.logger.Error("email send failed", map[string]interface{}{
			"error": err,
			"email": to,
		})
		return err
	}
	h.logger.Debug("email sent", map[string]interface{}{"messageId": messageID})
	return nil
}

// sendSMS waits for the shared SMS token bucket before publishing.
func (h *Handler) sendSMS(ctx context.Context, phone, message string) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sms rate limit: %w", err)
	}
	messageID, err := h.sms.SendSMS(ctx, phone, message)
	if err != nil {
		h.logger.Error("SMS send failed", map[string]interface{}{
			"error": err,
			"phone": phone,
		})
		return err
	}
	h.logger.Debug("sms sent", map[string]interface{}{"messageId": messageID})
	return nil
}

// renderTemplate makes a single pass over tmpl, replacing each {{key}} with its
// value from data and dropping unknown placeholders. Substituted values are
// written verbatim and never scanned again.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end == -1 {
			break
		}
		b.WriteString(rest[:start])
		key := strings.TrimSpace(rest[start+2 : start+2+end])
		if v, ok := data[key]; ok && v != nil {
			b.WriteString(cast.ToString(v))
		}
		rest = rest[start+2+end+2:]
	}
	b.WriteString(rest)
	return b.String()
}

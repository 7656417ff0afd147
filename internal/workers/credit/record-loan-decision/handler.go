// internal/workers/credit/record-loan-decision/handler.go
package recordloandecision

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"strings"
	"time"

	"agri-credit-workers/internal/common/camunda"
	"agri-credit-workers/internal/common/errors"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/common/metrics"
	"agri-credit-workers/internal/common/validation"
	"agri-credit-workers/internal/models"
	"agri-credit-workers/internal/repository"
	"agri-credit-workers/internal/workers/credit/shared"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-loan-decision"
)

// EventPublisher announces committed decisions.
type EventPublisher interface {
	NewDecisionEvent(app models.LoanApplication) models.DecisionEvent
	Publish(ctx context.Context, evt models.DecisionEvent) error
}

type Handler struct {
	config       *Config
	repo         repository.LoanRepository
	publisher    EventPublisher
	schema       *validation.Schema
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler builds the decision recorder. publisher may be nil, in which case
// no event is emitted.
func NewHandler(config *Config, repo repository.LoanRepository, publisher EventPublisher, schema *validation.Schema, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		repo:         repo,
		publisher:    publisher,
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
	if input.ApplicationID == "" || input.OfficerID == "" {
		return nil, errors.NewInputValidationFailedError("applicationId and officerId are required")
	}
	status, ok := models.DecisionAction(strings.ToLower(strings.TrimSpace(input.Action))).Status()
	if !ok {
		return nil, errors.NewInvalidDecisionActionError(input.Action)
	}

	app, err := h.repo.CommitDecision(ctx, input.ApplicationID, status, strings.TrimSpace(input.Notes), input.OfficerID)
	if err != nil {
		return nil, h.mapCommitError(input.ApplicationID, err)
	}

	metrics.CreditDecisions.WithLabelValues(string(app.Status)).Inc()
	h.logger.Info("loan decision recorded", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
		"decidedBy":     app.DecidedBy,
	})

	output := &Output{
		ApplicationID: app.ID,
		FarmerID:      app.FarmerID,
		Status:        string(app.Status),
		DecisionNotes: app.DecisionNotes,
		DecidedBy:     app.DecidedBy,
	}
	if app.DecidedAt != nil {
		output.DecidedAt = app.DecidedAt.UTC().Format(time.RFC3339)
	}

	h.publish(ctx, app, output)
	return output, nil
}

// publish emits the decision event. The decision is already durable, so a
// failed publish is logged and reported in the output rather than failing the job.
func (h *Handler) publish(ctx context.Context, app models.LoanApplication, output *Output) {
	if h.publisher == nil {
		return
	}
	evt := h.publisher.NewDecisionEvent(app)
	output.EventID = evt.EventID

	ctx, cancel := context.WithTimeout(ctx, h.config.PublishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, evt); err != nil {
		pubErr := errors.NewEventPublishFailedError(h.config.Topic, err)
		h.logger.Warn("failed to publish decision event", map[string]interface{}{
			"applicationId": app.ID,
			"eventId":       evt.EventID,
			"code":          string(pubErr.Code),
			"error":         pubErr.Details,
		})
		return
	}
	output.EventPublished = true
}

func (h *Handler) mapCommitError(applicationID string, err error) error {
	var decided *repository.AlreadyDecidedError
	switch {
	case stderrors.As(err, &decided):
		return errors.NewDecisionAlreadyRecordedError(applicationID, string(decided.Status))
	case stderrors.Is(err, repository.ErrDecisionAlreadyRecorded):
		return errors.NewDecisionAlreadyRecordedError(applicationID, "")
	case stderrors.Is(err, repository.ErrApplicationNotFound):
		return errors.NewApplicationNotFoundError(applicationID)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewQueryTimeoutError("commit_decision")
	case isConnectionError(err):
		return errors.NewDatabaseConnectionFailedError(err)
	default:
		return errors.NewDecisionCommitFailedError(err)
	}
}

func isConnectionError(err error) bool {
	var netErr net.Error
	return stderrors.Is(err, driver.ErrBadConn) ||
		stderrors.Is(err, sql.ErrConnDone) ||
		stderrors.As(err, &netErr)
}

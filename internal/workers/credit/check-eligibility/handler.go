// internal/workers/credit/check-eligibility/handler.go
package checkeligibility

import (
	"context"
	"time"

	"agri-credit-workers/internal/common/camunda"
	"agri-credit-workers/internal/common/errors"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/common/metrics"
	"agri-credit-workers/internal/common/validation"
	"agri-credit-workers/internal/credit"
	"agri-credit-workers/internal/workers/credit/shared"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-eligibility"
)

// Handler runs the self-assessment profile. It does no I/O besides the job itself.
type Handler struct {
	config       *Config
	profile      credit.SelfAssessment
	schema       *validation.Schema
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, profile credit.SelfAssessment, schema *validation.Schema, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		profile:      profile,
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
	raw := make(map[string]interface{}, len(input.Applicant)+3)
	for k, v := range input.Applicant {
		raw[k] = v
	}
	if input.RequestedAmount != nil {
		raw["requestedAmount"] = input.RequestedAmount
	}
	if input.Purpose != "" {
		raw["purpose"] = input.Purpose
	}
	if _, ok := raw["farmerId"]; !ok && input.ApplicantID != "" {
		raw["farmerId"] = input.ApplicantID
	}

	in, err := credit.Normalize(raw)
	if err != nil {
		return nil, errors.NewMalformedScoringInputError(err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTimeoutError(TaskType, err)
	}

	result := credit.Assess(h.profile, in)

	verdict := "not_eligible"
	if result.Eligible {
		verdict = "eligible"
	}
	metrics.ObserveAssessment(string(result.Profile), string(result.RiskTier), verdict, result.Score)

	h.logger.Info("self-assessment completed", map[string]interface{}{
		"applicantId": input.ApplicantID,
		"score":       result.Score,
		"riskLevel":   result.RiskTier,
		"eligible":    result.Eligible,
	})

	return &Output{
		ApplicantID:      input.ApplicantID,
		AssessmentOutput: shared.NewAssessmentOutput(result),
		AssessedAt:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

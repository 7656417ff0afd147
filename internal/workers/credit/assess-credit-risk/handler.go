// internal/workers/credit/assess-credit-risk/handler.go
package assesscreditrisk

import (
	"context"
	stderrors "errors"
	"time"

	"agri-credit-workers/internal/common/camunda"
	"agri-credit-workers/internal/common/errors"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/common/metrics"
	"agri-credit-workers/internal/common/validation"
	"agri-credit-workers/internal/credit"
	"agri-credit-workers/internal/models"
	"agri-credit-workers/internal/repository"
	"agri-credit-workers/internal/search"
	"agri-credit-workers/internal/workers/credit/shared"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"
)

const (
	TaskType = "assess-credit-risk"
)

type Handler struct {
	config       *Config
	repo         repository.LoanRepository
	indexer      search.Indexer
	profile      credit.Underwriting
	schema       *validation.Schema
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

// NewHandler builds the underwriting worker. indexer may be nil when assessment
// indexing is disabled.
func NewHandler(
	config *Config,
	repo repository.LoanRepository,
	indexer search.Indexer,
	profile credit.Underwriting,
	schema *validation.Schema,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		repo:         repo,
		indexer:      indexer,
		profile:      profile,
		schema:       schema,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		now:          time.Now,
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
	if input.ApplicationID == "" {
		return nil, errors.NewInputValidationFailedError("applicationId is required")
	}

	app, profile, payments, err := h.fetch(ctx, input)
	if err != nil {
		return nil, h.standardize(err)
	}

	in := credit.FromRecords(profile, app.Request(), payments)
	result := credit.Assess(h.profile, in)
	assessedAt := h.now()

	metrics.ObserveAssessment(string(result.Profile), string(result.RiskTier), string(result.Recommendation), result.Score)
	h.logger.Info("underwriting assessment completed", map[string]interface{}{
		"applicationId":  app.ID,
		"farmerId":       app.FarmerID,
		"score":          result.Score,
		"riskLevel":      result.RiskTier,
		"recommendation": result.Recommendation,
		"payments":       len(payments),
	})

	h.index(ctx, search.NewAssessmentDocument(app.ID, app.FarmerID, result, assessedAt))

	return &Output{
		ApplicationID:    app.ID,
		FarmerID:         app.FarmerID,
		AssessmentOutput: shared.NewAssessmentOutput(result),
		AssessedAt:       assessedAt.UTC().Format(time.RFC3339),
	}, nil
}

// fetch loads every record the assessment needs. Nothing is scored unless all
// fetches succeed.
func (h *Handler) fetch(ctx context.Context, input *Input) (models.LoanApplication, models.ApplicantProfile, []models.PaymentRecord, error) {
	var (
		app      models.LoanApplication
		profile  models.ApplicantProfile
		payments []models.PaymentRecord
	)

	ctx, cancel := context.WithTimeout(ctx, h.config.FetchTimeout)
	defer cancel()

	farmerID := input.FarmerID
	if farmerID == "" {
		var err error
		if app, err = h.fetchApplication(ctx, input.ApplicationID); err != nil {
			return app, profile, nil, err
		}
		farmerID = app.FarmerID
	}

	g, gctx := errgroup.WithContext(ctx)
	if input.FarmerID != "" {
		g.Go(func() error {
			var err error
			app, err = h.fetchApplication(gctx, input.ApplicationID)
			return err
		})
	}
	g.Go(func() error {
		var err error
		profile, err = h.repo.FetchApplicantProfile(gctx, farmerID)
		if stderrors.Is(err, repository.ErrFarmerNotFound) {
			return errors.NewFarmerNotFoundError(farmerID)
		}
		return credit.Unavailable(SourceApplicantProfile, err)
	})
	g.Go(func() error {
		var err error
		payments, err = h.repo.FetchPaymentHistory(gctx, farmerID)
		return credit.Unavailable(SourcePaymentHistory, err)
	})
	if err := g.Wait(); err != nil {
		return app, profile, nil, err
	}

	if app.FarmerID != farmerID {
		return app, profile, nil, errors.NewBusinessRuleError(
			"Application belongs to another farmer",
			"application "+app.ID+" belongs to "+app.FarmerID+", not "+farmerID,
		)
	}
	return app, profile, payments, nil
}

func (h *Handler) fetchApplication(ctx context.Context, applicationID string) (models.LoanApplication, error) {
	app, err := h.repo.FetchLoanApplication(ctx, applicationID)
	if stderrors.Is(err, repository.ErrApplicationNotFound) {
		return app, errors.NewApplicationNotFoundError(applicationID)
	}
	return app, credit.Unavailable(SourceLoanApplication, err)
}

// standardize maps fetch failures onto job error codes and counts unavailable
// assessments by source.
func (h *Handler) standardize(err error) error {
	var unavailable *credit.AssessmentUnavailableError
	if stderrors.As(err, &unavailable) {
		metrics.CreditAssessmentUnavailable.WithLabelValues(unavailable.Source).Inc()
		h.logger.Warn("assessment unavailable", map[string]interface{}{
			"source": unavailable.Source,
			"error":  unavailable.Err.Error(),
		})
		return errors.NewAssessmentUnavailableError(unavailable.Source, unavailable.Err)
	}
	return err
}

func (h *Handler) index(ctx context.Context, doc search.AssessmentDocument) {
	if h.indexer == nil || !h.config.IndexingEnabled {
		return
	}
	if err := h.indexer.IndexAssessment(ctx, doc); err != nil {
		h.logger.Warn("failed to index assessment", map[string]interface{}{
			"applicationId": doc.ApplicationID,
			"error":         errors.NewIndexingFailedError(h.config.AssessmentIndex, err).Error(),
		})
	}
}

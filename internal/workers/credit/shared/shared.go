// Package shared holds the job input and output plumbing common to the credit workers.
package shared

import (
	"encoding/json"
	"fmt"

	"agri-credit-workers/internal/common/errors"
	"agri-credit-workers/internal/common/validation"
	"agri-credit-workers/internal/credit"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/shopspring/decimal"
)

// Factor is one line of the per-factor breakdown shown on review screens.
type Factor struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Delta     int     `json:"delta"`
	Favorable bool    `json:"favorable"`
}

// AssessmentOutput is the process variable set written by the assessment workers.
type AssessmentOutput struct {
	Profile           string            `json:"profile"`
	Score             int               `json:"score"`
	ScoreRange        credit.ScoreRange `json:"scoreRange"`
	RiskLevel         string            `json:"riskLevel"`
	Eligible          *bool             `json:"eligible,omitempty"`
	Recommendation    string            `json:"recommendation,omitempty"`
	MaxLoanAmount     float64           `json:"maxLoanAmount"`
	RecommendedAmount float64           `json:"recommendedAmount"`
	TermMonths        int               `json:"termMonths"`
	InterestRate      float64           `json:"interestRate"`
	Reasons           []string          `json:"reasons"`
	Recommendations   []string          `json:"recommendations"`
	Factors           []Factor          `json:"factors"`
}

// NewAssessmentOutput flattens a ScoreResult into process variables. Only the
// self-assessment profile reports eligibility and only underwriting a verdict.
func NewAssessmentOutput(r credit.ScoreResult) AssessmentOutput {
	out := AssessmentOutput{
		Profile:           string(r.Profile),
		Score:             r.Score,
		ScoreRange:        r.Range,
		RiskLevel:         string(r.RiskTier),
		MaxLoanAmount:     Money(r.MaxLoanAmount),
		RecommendedAmount: Money(r.RecommendedAmount),
		TermMonths:        r.TermMonths,
		InterestRate:      r.InterestRate,
		Reasons:           nonNil(r.Reasons),
		Recommendations:   nonNil(r.Recommendations),
		Factors:           make([]Factor, 0, len(r.Contributions)),
	}
	switch r.Profile {
	case credit.ProfileSelfAssessment:
		eligible := r.Eligible
		out.Eligible = &eligible
	case credit.ProfileUnderwriting:
		out.Recommendation = string(r.Recommendation)
	}
	for _, c := range r.Contributions {
		out.Factors = append(out.Factors, Factor{
			Name:      c.Factor,
			Value:     c.Value,
			Delta:     c.Delta,
			Favorable: c.Favorable,
		})
	}
	return out
}

// Money converts an ETB amount to a process variable with two decimals.
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// DecodeInput checks the job variables against schema, when one is registered,
// and decodes them into dst.
func DecodeInput(job entities.Job, schema *validation.Schema, dst interface{}) error {
	if schema != nil {
		var vars map[string]interface{}
		if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
			return errors.NewInputValidationFailedError(fmt.Sprintf("parse variables: %v", err))
		}
		result, err := schema.Validate(vars)
		if err != nil {
			return errors.NewInputValidationFailedError(err.Error())
		}
		if !result.Valid {
			return errors.NewInputValidationFailedError(result.Error().Error())
		}
	}
	if err := json.Unmarshal([]byte(job.Variables), dst); err != nil {
		return errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package credit

import (
	"math"

	"agri-credit-workers/internal/models"
)

// ScoringInput is the canonical, fully defaulted input to an assessment.
// Build it with Normalize or FromRecords; the zero value scores as worst case.
type ScoringInput struct {
	Applicant models.ApplicantProfile
	Loan      models.LoanRequest
	// Payments are ordered by date, oldest first.
	Payments []models.PaymentRecord
}

// BurdenRatio is existing monthly obligations divided by monthly income. Without
// income the ratio is undefined and reported as +Inf so it lands in the worst tier.
func (in ScoringInput) BurdenRatio() float64 {
	if in.Applicant.MonthlyIncome <= 0 {
		return math.Inf(1)
	}
	return in.Applicant.ExistingMonthlyObligations / in.Applicant.MonthlyIncome
}

// CompletionRatio is the share of known payments that completed. An empty
// history yields 0: no evidence of repayment is treated as risk.
func (in ScoringInput) CompletionRatio() float64 {
	if len(in.Payments) == 0 {
		return 0
	}
	completed := 0
	for _, p := range in.Payments {
		if p.Status == models.PaymentCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(in.Payments))
}

// StoredCreditScore returns the institution's stored score, 0 when unknown.
func (in ScoringInput) StoredCreditScore() float64 {
	if in.Applicant.StoredCreditScore == nil {
		return 0
	}
	return *in.Applicant.StoredCreditScore
}

// highRiskPurposes are loan purposes that add risk in underwriting.
var highRiskPurposes = map[string]bool{
	"business_expansion": true,
	"debt_consolidation": true,
}

func (in ScoringInput) HighRiskPurpose() bool {
	return highRiskPurposes[in.Loan.Purpose]
}

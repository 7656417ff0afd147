package credit

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-credit-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func selfInput(income, farm, years float64, collateral bool, obligations float64) ScoringInput {
	return FromRecords(models.ApplicantProfile{
		MonthlyIncome:              income,
		FarmSizeHectares:           farm,
		YearsFarming:               years,
		HasCollateral:              collateral,
		ExistingMonthlyObligations: obligations,
	}, models.LoanRequest{}, nil)
}

func payments(completed, total int) []models.PaymentRecord {
	out := make([]models.PaymentRecord, 0, total)
	for i := 0; i < total; i++ {
		status := models.PaymentFailed
		if i < completed {
			status = models.PaymentCompleted
		}
		out = append(out, models.PaymentRecord{Amount: 1000, Status: status})
	}
	return out
}

func underwritingInput(requested, stored float64, verification models.VerificationStatus, purpose string, history []models.PaymentRecord) ScoringInput {
	return FromRecords(models.ApplicantProfile{
		MonthlyIncome:     6000,
		StoredCreditScore: &stored,
		Verification:      verification,
	}, models.LoanRequest{RequestedAmount: requested, Purpose: purpose}, history)
}

func amountEqual(t *testing.T, expected float64, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromFloat(expected).Equal(actual), "expected %v, got %s", expected, actual)
}

// ==========================
// Scenarios
// ==========================

func TestAssess_SelfAssessmentScenario(t *testing.T) {
	result := Assess(NewSelfAssessment(), selfInput(6000, 2, 6, true, 0))

	assert.Equal(t, ProfileSelfAssessment, result.Profile)
	assert.Equal(t, ScoreRange{Min: 300, Max: 850}, result.Range)
	assert.Equal(t, 790, result.Score)
	assert.True(t, result.Eligible)
	assert.Equal(t, RiskLow, result.RiskTier)
	assert.Equal(t, 8.0, result.InterestRate)
	assert.Empty(t, result.Recommendation)

	amountEqual(t, 255960, result.MaxLoanAmount)
	amountEqual(t, 153576, result.RecommendedAmount)
	assert.Equal(t, 36, result.TermMonths)

	assert.Len(t, result.Reasons, 5)
	assert.Empty(t, result.Recommendations)
}

func TestAssess_UnderwritingScenario(t *testing.T) {
	in := underwritingInput(60000, 750, models.VerificationVerified, "seeds", payments(19, 20))
	result := Assess(NewUnderwriting(), in)

	assert.Equal(t, ProfileUnderwriting, result.Profile)
	assert.Equal(t, ScoreRange{Min: 100, Max: 900}, result.Range)
	assert.Equal(t, 150, result.Score)
	assert.Equal(t, RiskLow, result.RiskTier)
	assert.Equal(t, VerdictApprove, result.Recommendation)
	assert.False(t, result.Eligible)

	amountEqual(t, 63750, result.MaxLoanAmount)
	amountEqual(t, 60000, result.RecommendedAmount)
	assert.Equal(t, 24, result.TermMonths)
	assert.Equal(t, 12.0, result.InterestRate)

	assert.Equal(t, []string{
		"Consistent history of completed payments",
		"Farmer profile verified by a field data collector",
		"Strong stored credit score",
	}, result.Reasons)
	assert.Equal(t, []string{
		"Consider a smaller loan amount or a staged disbursement plan",
	}, result.Recommendations)
}

// ==========================
// Eligibility Gate
// ==========================

func TestAssess_EligibilityRequiresScoreAndIncome(t *testing.T) {
	tests := []struct {
		name     string
		input    ScoringInput
		eligible bool
	}{
		{
			name:     "high score but income below minimum",
			input:    selfInput(500, 10, 20, true, 0),
			eligible: false,
		},
		{
			name:     "income above minimum but low score",
			input:    selfInput(5000, 0, 0, false, 2500),
			eligible: false,
		},
		{
			name:     "both clear",
			input:    selfInput(3000, 1, 2, false, 0),
			eligible: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Assess(NewSelfAssessment(), tt.input)
			assert.Equal(t, tt.eligible, result.Eligible, "score %d", result.Score)
		})
	}
}

func TestSelfAssessment_DecideGate(t *testing.T) {
	tests := []struct {
		score    int
		income   float64
		eligible bool
	}{
		{score: 500, income: 500, eligible: false},
		{score: 400, income: 5000, eligible: false},
		{score: 449, income: 1000, eligible: false},
		{score: 450, income: 999.99, eligible: false},
		{score: 450, income: 1000, eligible: true},
		{score: 850, income: 8000, eligible: true},
	}

	p := NewSelfAssessment()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("score=%d,income=%v", tt.score, tt.income), func(t *testing.T) {
			in := selfInput(tt.income, 0, 0, false, 0)
			r := ScoreResult{Profile: ProfileSelfAssessment, Score: tt.score}

			p.decide(in, &r)

			assert.Equal(t, tt.eligible, r.Eligible)
		})
	}
}

func TestAssess_IncomeThresholdDiscontinuity(t *testing.T) {
	below := Assess(NewSelfAssessment(), selfInput(999, 2, 6, true, 0))
	at := Assess(NewSelfAssessment(), selfInput(1000, 2, 6, true, 0))

	assert.Equal(t, 100, at.Score-below.Score)
	assert.False(t, below.Eligible)
	assert.True(t, at.Eligible)
}

func TestAssess_UnderwritingApproveNeedsIncome(t *testing.T) {
	in := underwritingInput(60000, 750, models.VerificationVerified, "seeds", payments(19, 20))
	in.Applicant.MonthlyIncome = 0

	result := Assess(NewUnderwriting(), in)

	assert.Equal(t, 150, result.Score)
	assert.Equal(t, VerdictReview, result.Recommendation)
}

func TestAssess_UnderwritingVerdicts(t *testing.T) {
	tests := []struct {
		name    string
		input   ScoringInput
		score   int
		tier    RiskTier
		verdict Verdict
		rate    float64
	}{
		{
			name:    "neutral record approved",
			input:   underwritingInput(20000, 400, models.VerificationPending, "seeds", payments(6, 10)),
			score:   350,
			tier:    RiskLow,
			verdict: VerdictApprove,
			rate:    12,
		},
		{
			name:    "weak record rejected",
			input:   underwritingInput(150000, 0, models.VerificationRejected, "debt consolidation", nil),
			score:   900,
			tier:    RiskHigh,
			verdict: VerdictReject,
			rate:    22,
		},
		{
			name:    "middle of the range",
			input:   underwritingInput(60000, 400, models.VerificationPending, "business-expansion", payments(1, 2)),
			score:   450,
			tier:    RiskMedium,
			verdict: VerdictReview,
			rate:    12,
		},
		{
			name:    "upper medium",
			input:   underwritingInput(60000, 200, models.VerificationPending, "seeds", payments(3, 4)),
			score:   500,
			tier:    RiskMedium,
			verdict: VerdictReview,
			rate:    12,
		},
		{
			name:    "second rate step",
			input:   underwritingInput(20000, 200, models.VerificationPending, "seeds", payments(1, 4)),
			score:   650,
			tier:    RiskHigh,
			verdict: VerdictReview,
			rate:    17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Assess(NewUnderwriting(), tt.input)
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.tier, result.RiskTier)
			assert.Equal(t, tt.verdict, result.Recommendation)
			assert.Equal(t, tt.rate, result.InterestRate)
		})
	}
}

// ==========================
// Properties
// ==========================

func TestAssess_MonotonicInIncome(t *testing.T) {
	p := NewSelfAssessment()
	prev := Assess(p, selfInput(0, 1, 3, false, 500))
	for income := 250.0; income <= 12000; income += 250 {
		cur := Assess(p, selfInput(income, 1, 3, false, 500))
		assert.GreaterOrEqual(t, cur.Score, prev.Score, "income %v", income)
		assert.True(t, cur.MaxLoanAmount.GreaterThanOrEqual(prev.MaxLoanAmount), "income %v", income)
		prev = cur
	}
}

func TestAssess_ScoreStaysInRange(t *testing.T) {
	best := Assess(NewSelfAssessment(), selfInput(20000, 10, 30, true, 0))
	worst := Assess(NewSelfAssessment(), ScoringInput{})
	assert.Equal(t, 850, best.Score)
	assert.Equal(t, 300, worst.Score)

	risky := Assess(NewUnderwriting(), underwritingInput(200000, 0, models.VerificationRejected, "debt_consolidation", nil))
	safe := Assess(NewUnderwriting(), underwritingInput(5000, 800, models.VerificationVerified, "seeds", payments(10, 10)))
	assert.Equal(t, 900, risky.Score)
	assert.Equal(t, 100, safe.Score)
}

func TestAssess_AmountsBoundedByCeiling(t *testing.T) {
	result := Assess(NewSelfAssessment(), selfInput(50000, 10, 30, true, 0))
	amountEqual(t, PlatformCeiling, result.MaxLoanAmount)
	assert.True(t, result.RecommendedAmount.LessThanOrEqual(result.MaxLoanAmount))

	in := selfInput(6000, 2, 6, true, 0)
	in.Loan.RequestedAmount = 1000000
	result = Assess(NewSelfAssessment(), in)
	amountEqual(t, 204768, result.RecommendedAmount)

	profiles := DefaultProfiles().WithCeiling(100000)
	result = Assess(profiles.SelfAssessment, selfInput(6000, 2, 6, true, 0))
	amountEqual(t, 100000, result.MaxLoanAmount)
}

func TestAssess_ZeroIncomeUsesMinimumLoan(t *testing.T) {
	result := Assess(NewSelfAssessment(), selfInput(0, 2, 6, true, 0))

	assert.False(t, result.Eligible)
	amountEqual(t, 5000, result.MaxLoanAmount)
	amountEqual(t, 3000, result.RecommendedAmount)
	assert.Equal(t, 12, result.TermMonths)

	var burden Contribution
	for _, c := range result.Contributions {
		if c.Factor == "existing_loan_burden" {
			burden = c
		}
	}
	assert.Equal(t, -80, burden.Delta)
	assert.Equal(t, -1.0, burden.Value)
}

func TestAssess_UnknownStoredScore(t *testing.T) {
	in := FromRecords(models.ApplicantProfile{MonthlyIncome: 6000}, models.LoanRequest{RequestedAmount: 5000}, payments(10, 10))
	result := Assess(NewUnderwriting(), in)

	assert.Equal(t, 350, result.Score)
	assert.True(t, result.MaxLoanAmount.IsZero())
	assert.True(t, result.RecommendedAmount.IsZero())
}

func TestAssess_Deterministic(t *testing.T) {
	in := underwritingInput(60000, 750, models.VerificationVerified, "seeds", payments(19, 20))
	first := Assess(NewUnderwriting(), in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Assess(NewUnderwriting(), in))
	}
}

func TestAssess_NarrationMatchesContributions(t *testing.T) {
	inputs := []ScoringInput{
		selfInput(6000, 2, 6, true, 0),
		selfInput(0, 0, 0, false, 100),
		selfInput(4000, 0.7, 1, false, 1000),
	}
	for _, in := range inputs {
		result := Assess(NewSelfAssessment(), in)
		favorable, unfavorable := 0, 0
		for _, c := range result.Contributions {
			switch {
			case c.Delta > 0:
				favorable++
			case c.Delta < 0:
				unfavorable++
			}
		}
		assert.Len(t, result.Reasons, favorable)
		assert.Len(t, result.Recommendations, unfavorable)
		assert.NotNil(t, result.Reasons)
		assert.NotNil(t, result.Recommendations)
	}
}

func TestAssess_PointerProfiles(t *testing.T) {
	p := NewSelfAssessment()
	result := Assess(&p, selfInput(6000, 2, 6, true, 0))
	assert.Equal(t, 790, result.Score)
	assert.Equal(t, RiskLow, result.RiskTier)
}

// ==========================
// Profiles
// ==========================

func TestProfiles_Validate(t *testing.T) {
	require.NoError(t, DefaultProfiles().Validate())

	broken := NewUnderwriting()
	broken.Tiers.Tiers[1].Threshold = 300
	assert.Error(t, broken.Validate())

	silent := NewSelfAssessment()
	silent.Factors[3].Recommendation = ""
	err := silent.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collateral")
}

func TestSelectProfile(t *testing.T) {
	assert.Equal(t, ProfileUnderwriting, SelectProfile(true).Kind())
	assert.Equal(t, ProfileSelfAssessment, SelectProfile(false).Kind())
}

func TestProfiles_WithCeilingIgnoresInvalidValues(t *testing.T) {
	defaults := DefaultProfiles()
	assert.Equal(t, PlatformCeiling, defaults.WithCeiling(500000).Underwriting.Ceiling)
	assert.Equal(t, PlatformCeiling, defaults.WithCeiling(0).SelfAssessment.Ceiling)

	low := defaults.WithCeiling(4000)
	assert.Equal(t, 4000.0, low.SelfAssessment.MinLoan)
	assert.NoError(t, low.Validate())
}

package credit

import "github.com/shopspring/decimal"

type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictReject  Verdict = "reject"
	VerdictReview  Verdict = "review"
)

type ScoreRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r ScoreRange) Clamp(score int) int {
	if score < r.Min {
		return r.Min
	}
	if score > r.Max {
		return r.Max
	}
	return score
}

// ScoreResult is the outcome of one assessment. It is built fresh on every call
// and never modified afterwards; slices are owned by the result.
//
// Eligible is only meaningful for the self-assessment profile and Recommendation
// only for underwriting. Scores from the two profiles live on different ranges
// and must not be compared with each other.
type ScoreResult struct {
	Profile           ProfileKind
	Score             int
	Range             ScoreRange
	RiskTier          RiskTier
	Eligible          bool
	Recommendation    Verdict
	MaxLoanAmount     decimal.Decimal
	RecommendedAmount decimal.Decimal
	TermMonths        int
	InterestRate      float64
	Reasons           []string
	Recommendations   []string
	Contributions     []Contribution
}

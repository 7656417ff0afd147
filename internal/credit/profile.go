package credit

import (
	"errors"
	"fmt"

	"agri-credit-workers/internal/models"
)

type ProfileKind string

const (
	ProfileSelfAssessment ProfileKind = "self-assessment"
	ProfileUnderwriting   ProfileKind = "underwriting"
)

// PlatformCeiling is the hard upper bound on any loan amount, in ETB.
const PlatformCeiling = 300000.0

// Profile is a closed set of scoring profiles: SelfAssessment or Underwriting.
// Each variant carries its own weight table, score range and decision tables;
// Assess dispatches on the concrete type.
type Profile interface {
	Kind() ProfileKind
	Range() ScoreRange
	Validate() error

	weights() Weights
	// favorable reports whether a factor delta helps the applicant.
	favorable(delta int) bool
}

// Weights is the additive part of a profile: a base score, the factor set and
// the range the final score is clamped to.
type Weights struct {
	Base    int
	Bounds  ScoreRange
	Factors []Factor
}

func (w Weights) validate(favorable func(int) bool) error {
	if w.Bounds.Min >= w.Bounds.Max {
		return fmt.Errorf("invalid score range [%d, %d]", w.Bounds.Min, w.Bounds.Max)
	}
	if len(w.Factors) == 0 {
		return errors.New("profile has no factors")
	}
	seen := make(map[string]bool, len(w.Factors))
	for _, f := range w.Factors {
		if seen[f.Name] {
			return fmt.Errorf("duplicate factor %s", f.Name)
		}
		seen[f.Name] = true
		if err := f.validate(favorable); err != nil {
			return err
		}
	}
	return nil
}

// RiskGrade pairs a risk tier with the annual interest rate offered at that tier.
type RiskGrade struct {
	Tier RiskTier
	Rate float64
}

// termTable suggests a repayment period from the loan amount.
var termTable = TierTable[int]{
	Tiers: []Tier[int]{
		{Op: Above, Threshold: 100000, Value: 36},
		{Op: Above, Threshold: 50000, Value: 24},
	},
	Fallback: 12,
}

// ==========================
// Self-assessment
// ==========================

// SelfAssessment scores self-reported data before an application exists.
// Higher scores are better.
type SelfAssessment struct {
	Weights
	Grades TierTable[RiskGrade]
	Terms  TierTable[int]

	MinEligibleScore int
	MinIncome        float64

	IncomeMultiple       float64
	ScoreDivisor         float64
	MinScoreMultiplier   float64
	MaxScoreMultiplier   float64
	CollateralMultiplier float64
	UnsecuredMultiplier  float64
	MinLoan              float64
	Ceiling              float64
	DefaultShare         float64
	MaxShare             float64
}

func (SelfAssessment) Kind() ProfileKind { return ProfileSelfAssessment }
func (p SelfAssessment) Range() ScoreRange { return p.Bounds }
func (p SelfAssessment) weights() Weights { return p.Weights }
func (SelfAssessment) favorable(delta int) bool { return delta > 0 }

func (p SelfAssessment) Validate() error {
	if err := p.Weights.validate(p.favorable); err != nil {
		return fmt.Errorf("%s: %w", p.Kind(), err)
	}
	if err := p.Grades.Validate(); err != nil {
		return fmt.Errorf("%s grades: %w", p.Kind(), err)
	}
	if err := p.Terms.Validate(); err != nil {
		return fmt.Errorf("%s terms: %w", p.Kind(), err)
	}
	if p.Ceiling <= 0 || p.Ceiling > PlatformCeiling || p.MinLoan > p.Ceiling {
		return fmt.Errorf("%s: loan bounds [%v, %v] outside platform ceiling %v", p.Kind(), p.MinLoan, p.Ceiling, PlatformCeiling)
	}
	if p.MaxShare <= 0 || p.MaxShare > 1 {
		return fmt.Errorf("%s: max share %v must be in (0, 1]", p.Kind(), p.MaxShare)
	}
	return nil
}

func NewSelfAssessment() SelfAssessment {
	return SelfAssessment{
		Weights: Weights{
			Base:   300,
			Bounds: ScoreRange{Min: 300, Max: 850},
			Factors: []Factor{
				{
					Name:    "monthly_income",
					Measure: func(in ScoringInput) float64 { return in.Applicant.MonthlyIncome },
					Table: TierTable[int]{
						Tiers: []Tier[int]{
							{Op: AtLeast, Threshold: 8000, Value: 200},
							{Op: AtLeast, Threshold: 5000, Value: 150},
							{Op: AtLeast, Threshold: 3000, Value: 100},
							{Op: AtLeast, Threshold: 1000, Value: 50},
						},
						Fallback: -50,
					},
					Reason:         "Monthly income is sufficient to support loan repayments",
					Recommendation: "Increase or document monthly income of at least 1,000 ETB",
				},
				{
					Name:    "farm_size",
					Measure: func(in ScoringInput) float64 { return in.Applicant.FarmSizeHectares },
					Table: TierTable[int]{
						Tiers: []Tier[int]{
							{Op: AtLeast, Threshold: 5, Value: 120},
							{Op: AtLeast, Threshold: 2, Value: 100},
							{Op: AtLeast, Threshold: 1, Value: 70},
							{Op: AtLeast, Threshold: 0.5, Value: 50},
						},
						Fallback: -30,
					},
					Reason:         "Farm size supports productive capacity",
					Recommendation: "Register additional farmland or join a cooperative to reach at least 0.5 hectares",
				},
				{
					Name:    "farming_experience",
					Measure: func(in ScoringInput) float64 { return in.Applicant.YearsFarming },
					Table: TierTable[int]{
						Tiers: []Tier[int]{
							{Op: AtLeast, Threshold: 10, Value: 120},
							{Op: AtLeast, Threshold: 5, Value: 100},
							{Op: AtLeast, Threshold: 2, Value: 60},
							{Op: AtLeast, Threshold: 1, Value: 30},
						},
						Fallback: -50,
					},
					Reason:         "Farming experience demonstrates an established track record",
					Recommendation: "Build at least one full season of farming history before applying",
				},
				{
					Name:    "collateral",
					Measure: func(in ScoringInput) float64 { return boolMeasure(in.Applicant.HasCollateral) },
					Table: TierTable[int]{
						Tiers:    []Tier[int]{{Op: AtLeast, Threshold: 1, Value: 80}},
						Fallback: -20,
					},
					Reason:         "Collateral is available to secure the loan",
					Recommendation: "Pledge collateral such as a land-use certificate, livestock or equipment",
				},
				{
					Name:    "existing_loan_burden",
					Measure: func(in ScoringInput) float64 { return in.BurdenRatio() },
					Table: TierTable[int]{
						Tiers: []Tier[int]{
							{Op: AtMost, Threshold: 0, Value: 60},
							{Op: AtMost, Threshold: 0.2, Value: 40},
							{Op: AtMost, Threshold: 0.4, Value: 20},
						},
						Fallback: -80,
					},
					Reason:         "Existing loan repayments are low relative to income",
					Recommendation: "Reduce existing loan repayments below 40% of monthly income",
				},
			},
		},
		Grades: TierTable[RiskGrade]{
			Tiers: []Tier[RiskGrade]{
				{Op: AtLeast, Threshold: 700, Value: RiskGrade{Tier: RiskLow, Rate: 8}},
				{Op: AtLeast, Threshold: 550, Value: RiskGrade{Tier: RiskMedium, Rate: 12}},
				{Op: AtLeast, Threshold: 450, Value: RiskGrade{Tier: RiskMedium, Rate: 15}},
			},
			Fallback: RiskGrade{Tier: RiskHigh, Rate: 18},
		},
		Terms:                termTable,
		MinEligibleScore:     450,
		MinIncome:            1000,
		IncomeMultiple:       18,
		ScoreDivisor:         400,
		MinScoreMultiplier:   0.3,
		MaxScoreMultiplier:   2.5,
		CollateralMultiplier: 1.2,
		UnsecuredMultiplier:  0.8,
		MinLoan:              5000,
		Ceiling:              PlatformCeiling,
		DefaultShare:         0.6,
		MaxShare:             0.8,
	}
}

// ==========================
// Underwriting
// ==========================

// Underwriting scores stored application, farmer and payment records during
// institutional review. The score measures risk: lower is better.
type Underwriting struct {
	Weights
	Tiers    TierTable[RiskTier]
	Verdicts TierTable[Verdict]
	Rates    TierTable[float64]
	Terms    TierTable[int]

	// MinIncome gates approval; an approve verdict below it is downgraded to review.
	MinIncome float64
	BaseLoan  float64
	Ceiling   float64
}

func (Underwriting) Kind() ProfileKind { return ProfileUnderwriting }
func (p Underwriting) Range() ScoreRange { return p.Bounds }
func (p Underwriting) weights() Weights { return p.Weights }
func (Underwriting) favorable(delta int) bool { return delta < 0 }

func (p Underwriting) Validate() error {
	if err := p.Weights.validate(p.favorable); err != nil {
		return fmt.Errorf("%s: %w", p.Kind(), err)
	}
	tables := []struct {
		name string
		err  error
	}{
		{"tiers", p.Tiers.Validate()},
		{"verdicts", p.Verdicts.Validate()},
		{"rates", p.Rates.Validate()},
		{"terms", p.Terms.Validate()},
	}
	for _, t := range tables {
		if t.err != nil {
			return fmt.Errorf("%s %s: %w", p.Kind(), t.name, t.err)
		}
	}
	if p.Ceiling <= 0 || p.Ceiling > PlatformCeiling {
		return fmt.Errorf("%s: ceiling %v outside platform ceiling %v", p.Kind(), p.Ceiling, PlatformCeiling)
	}
	return nil
}

func verificationRank(v models.VerificationStatus) float64 {
	switch v {
	case models.VerificationVerified:
		return 1
	case models.VerificationRejected:
		return -1
	default:
		return 0
	}
}

func NewUnderwriting() Underwriting {
	return Underwriting{
		Weights: Weights{
			Base:   300,
			Bounds: ScoreRange{Min: 100, Max: 900},
			Factors: []Factor{
				{
					Name:    "requested_amount",
					Measure: func(in ScoringInput) float64 { return in.Loan.RequestedAmount },
					Table: TierTable[int]{
						Tiers: []Tier[int]{
							{Op: Above, Threshold: 100000, Value: 200},
							{Op: Above, Threshold: 50000, Value: 100},
							{Op: Above, Threshold: 10000, Value: 50},
						},
					},
					Recommendation: "Consider a smaller loan amount or a staged disbursement plan",
				},
				{
					Name:    "payment_history",
					Measure: func(in ScoringInput) float64 { return in.CompletionRatio() },
					Table: TierTable[int]{
						Tiers: []Tier[int]{
							{Op: AtLeast, Threshold: 0.9, Value: -100},
							{Op: AtLeast, Threshold: 0.7, Value: -50},
							{Op: AtLeast, Threshold: 0.5, Value: 0},
						},
						Fallback: 150,
					},
					Reason:         "Consistent history of completed payments",
					Recommendation: "Settle pending and failed payments to build a repayment record",
				},
				{
					Name:    "verification_status",
					Measure: func(in ScoringInput) float64 { return verificationRank(in.Applicant.Verification) },
					Table: TierTable[int]{
						Tiers: []Tier[int]{
							{Op: AtLeast, Threshold: 1, Value: -50},
							{Op: AtLeast, Threshold: 0, Value: 0},
						},
						Fallback: 200,
					},
					Reason:         "Farmer profile verified by a field data collector",
					Recommendation: "Resolve the rejected verification with a field data collector",
				},
				{
					Name:    "credit_score",
					Measure: func(in ScoringInput) float64 { return in.StoredCreditScore() },
					Table: TierTable[int]{
						Tiers: []Tier[int]{
							{Op: AtLeast, Threshold: 700, Value: -100},
							{Op: AtLeast, Threshold: 500, Value: -50},
							{Op: AtLeast, Threshold: 300, Value: 0},
						},
						Fallback: 150,
					},
					Reason:         "Strong stored credit score",
					Recommendation: "Improve the stored credit score through timely repayments",
				},
				{
					Name:    "loan_purpose",
					Measure: func(in ScoringInput) float64 { return boolMeasure(in.HighRiskPurpose()) },
					Table: TierTable[int]{
						Tiers: []Tier[int]{{Op: AtLeast, Threshold: 1, Value: 50}},
					},
					Recommendation: "Provide a business plan supporting the high-risk loan purpose",
				},
			},
		},
		Tiers: TierTable[RiskTier]{
			Tiers: []Tier[RiskTier]{
				{Op: Below, Threshold: 400, Value: RiskLow},
				{Op: Below, Threshold: 600, Value: RiskMedium},
			},
			Fallback: RiskHigh,
		},
		Verdicts: TierTable[Verdict]{
			Tiers: []Tier[Verdict]{
				{Op: Below, Threshold: 400, Value: VerdictApprove},
				{Op: Above, Threshold: 700, Value: VerdictReject},
			},
			Fallback: VerdictReview,
		},
		Rates: TierTable[float64]{
			Tiers: []Tier[float64]{
				{Op: Above, Threshold: 700, Value: 22},
				{Op: Above, Threshold: 600, Value: 17},
			},
			Fallback: 12,
		},
		Terms:     termTable,
		MinIncome: 1000,
		BaseLoan:  10000,
		Ceiling:   PlatformCeiling,
	}
}

// ==========================
// Selection
// ==========================

// Profiles holds one calibrated instance of each profile.
type Profiles struct {
	SelfAssessment SelfAssessment
	Underwriting   Underwriting
}

func DefaultProfiles() Profiles {
	return Profiles{
		SelfAssessment: NewSelfAssessment(),
		Underwriting:   NewUnderwriting(),
	}
}

// Select picks the profile matching the inputs a caller has: stored application
// records mean underwriting, anything else is a self-assessment.
func (p Profiles) Select(hasApplication bool) Profile {
	if hasApplication {
		return p.Underwriting
	}
	return p.SelfAssessment
}

// SelectProfile picks from the default calibration; see Profiles.Select.
func SelectProfile(hasApplication bool) Profile {
	return DefaultProfiles().Select(hasApplication)
}

// WithCeiling lowers both profiles' loan ceiling. Values above the platform
// ceiling, or non-positive values, leave the profiles unchanged.
func (p Profiles) WithCeiling(ceiling float64) Profiles {
	if ceiling <= 0 || ceiling > PlatformCeiling {
		return p
	}
	p.SelfAssessment.Ceiling = ceiling
	if p.SelfAssessment.MinLoan > ceiling {
		p.SelfAssessment.MinLoan = ceiling
	}
	p.Underwriting.Ceiling = ceiling
	return p
}

func (p Profiles) Validate() error {
	return errors.Join(p.SelfAssessment.Validate(), p.Underwriting.Validate())
}

package credit

// Assess scores the input under the given profile and derives the tier,
// eligibility or verdict, loan sizing, terms and narration. It is pure: the same
// profile and input always produce the same result.
func Assess(p Profile, in ScoringInput) ScoreResult {
	score, contributions := Calculate(p, in)
	reasons, recommendations := Narrate(p, contributions)

	result := ScoreResult{
		Profile:         p.Kind(),
		Score:           score,
		Range:           p.Range(),
		Reasons:         reasons,
		Recommendations: recommendations,
		Contributions:   contributions,
	}

	switch prof := p.(type) {
	case SelfAssessment:
		prof.decide(in, &result)
	case *SelfAssessment:
		prof.decide(in, &result)
	case Underwriting:
		prof.decide(in, &result)
	case *Underwriting:
		prof.decide(in, &result)
	}
	return result
}

func (p SelfAssessment) decide(in ScoringInput, r *ScoreResult) {
	grade := p.Grades.Lookup(float64(r.Score))
	r.RiskTier = grade.Tier
	r.InterestRate = grade.Rate
	r.Eligible = r.Score >= p.MinEligibleScore && in.Applicant.MonthlyIncome >= p.MinIncome

	r.MaxLoanAmount = p.MaxLoan(in, r.Score)
	r.RecommendedAmount = p.Recommend(in.Loan.RequestedAmount, r.MaxLoanAmount)
	r.TermMonths = p.Terms.Lookup(r.RecommendedAmount.InexactFloat64())
}

func (p Underwriting) decide(in ScoringInput, r *ScoreResult) {
	r.RiskTier = p.Tiers.Lookup(float64(r.Score))
	r.Recommendation = p.Verdicts.Lookup(float64(r.Score))
	if r.Recommendation == VerdictApprove && in.Applicant.MonthlyIncome < p.MinIncome {
		r.Recommendation = VerdictReview
	}
	r.InterestRate = p.Rates.Lookup(float64(r.Score))

	r.MaxLoanAmount = p.MaxLoan(in, r.Score)
	r.RecommendedAmount = p.Suggest(in.Loan.RequestedAmount, r.MaxLoanAmount)
	r.TermMonths = p.Terms.Lookup(r.RecommendedAmount.InexactFloat64())
}

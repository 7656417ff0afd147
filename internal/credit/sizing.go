package credit

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// clampMoney floors an amount at zero before applying [lo, hi].
func clampMoney(amount, lo, hi decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if amount.LessThan(lo) {
		amount = lo
	}
	if amount.GreaterThan(hi) {
		amount = hi
	}
	return amount
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func ceilingOf(c float64) decimal.Decimal {
	if !(c > 0) || c > PlatformCeiling {
		c = PlatformCeiling
	}
	return decimal.NewFromFloat(c)
}

// MaxLoan is monthly income × IncomeMultiple × score multiplier × collateral
// multiplier, held within [MinLoan, Ceiling]. Without income the minimum tier
// applies directly.
func (p SelfAssessment) MaxLoan(in ScoringInput, score int) decimal.Decimal {
	ceiling := ceilingOf(p.Ceiling)
	floor := decimal.Min(decimal.NewFromFloat(math.Max(p.MinLoan, 0)), ceiling)
	if in.Applicant.MonthlyIncome <= 0 {
		return floor
	}

	scoreMultiplier := p.MinScoreMultiplier
	if p.ScoreDivisor > 0 {
		scoreMultiplier = clampFloat(float64(score)/p.ScoreDivisor, p.MinScoreMultiplier, p.MaxScoreMultiplier)
	}
	collateralMultiplier := p.UnsecuredMultiplier
	if in.Applicant.HasCollateral {
		collateralMultiplier = p.CollateralMultiplier
	}

	amount := decimal.NewFromFloat(in.Applicant.MonthlyIncome).
		Mul(decimal.NewFromFloat(p.IncomeMultiple)).
		Mul(decimal.NewFromFloat(scoreMultiplier)).
		Mul(decimal.NewFromFloat(collateralMultiplier)).
		Round(2)
	return clampMoney(amount, floor, ceiling)
}

// Recommend offers the requested amount, or DefaultShare of the maximum when
// nothing was requested, capped at MaxShare of the maximum.
func (p SelfAssessment) Recommend(requested float64, maxLoan decimal.Decimal) decimal.Decimal {
	limit := maxLoan.Mul(decimal.NewFromFloat(p.MaxShare))
	amount := maxLoan.Mul(decimal.NewFromFloat(p.DefaultShare))
	if requested > 0 {
		amount = decimal.NewFromFloat(requested)
	}
	return clampMoney(decimal.Min(amount, limit), decimal.Zero, maxLoan).Truncate(2)
}

// MaxLoan is BaseLoan × (stored credit score / 100) × (1 − score/1000), rounded
// to whole birr. An unknown stored score yields zero.
func (p Underwriting) MaxLoan(in ScoringInput, score int) decimal.Decimal {
	headroom := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(score)).Div(decimal.NewFromInt(1000)))
	amount := decimal.NewFromFloat(p.BaseLoan).
		Mul(decimal.NewFromFloat(in.StoredCreditScore())).
		Div(hundred).
		Mul(headroom).
		Round(0)
	return clampMoney(amount, decimal.Zero, ceilingOf(p.Ceiling))
}

// Suggest offers the requested amount up to the maximum.
func (p Underwriting) Suggest(requested float64, maxLoan decimal.Decimal) decimal.Decimal {
	return clampMoney(decimal.Min(decimal.NewFromFloat(requested), maxLoan), decimal.Zero, maxLoan)
}

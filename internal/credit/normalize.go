package credit

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"agri-credit-workers/internal/common/validation"
	"agri-credit-workers/internal/models"
)

// rawSchema only checks JSON types. Absent fields are fine; a number given as an
// object or an unparseable numeric string is not.
var rawSchema = validation.MustCompileJSON(`{
  "type": "object",
  "definitions": {
    "amount": {
      "type": ["number", "string", "null"],
      "pattern": "^\\s*(-?[0-9][0-9,]*(\\.[0-9]+)?)?\\s*$"
    },
    "text": {"type": ["string", "null"]},
    "flag": {"type": ["boolean", "string", "number", "null"]},
    "payment": {
      "type": "object",
      "properties": {
        "id": {"type": ["string", "number", "null"]},
        "amount": {"$ref": "#/definitions/amount"},
        "status": {"$ref": "#/definitions/text"},
        "date": {"$ref": "#/definitions/text"}
      }
    }
  },
  "properties": {
    "farmerId": {"type": ["string", "number", "null"]},
    "monthlyIncome": {"$ref": "#/definitions/amount"},
    "farmSize": {"$ref": "#/definitions/amount"},
    "yearsFarming": {"$ref": "#/definitions/amount"},
    "hasCollateral": {"$ref": "#/definitions/flag"},
    "existingLoans": {"$ref": "#/definitions/amount"},
    "primaryCrop": {"$ref": "#/definitions/text"},
    "region": {"$ref": "#/definitions/text"},
    "creditScore": {"$ref": "#/definitions/amount"},
    "verificationStatus": {"$ref": "#/definitions/text"},
    "requestedAmount": {"$ref": "#/definitions/amount"},
    "loanAmount": {"$ref": "#/definitions/amount"},
    "purpose": {"$ref": "#/definitions/text"},
    "loanPurpose": {"$ref": "#/definitions/text"},
    "payments": {
      "type": ["array", "null"],
      "items": {"$ref": "#/definitions/payment"}
    }
  }
}`)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Normalize turns raw, possibly partial attributes into a ScoringInput. Missing
// numbers become 0, negative amounts clamp to 0, unknown enums take their
// neutral value. Only values of the wrong JSON type are rejected, with
// ErrMalformedInput.
func Normalize(raw map[string]interface{}) (ScoringInput, error) {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	result, err := rawSchema.Validate(raw)
	if err != nil {
		return ScoringInput{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if !result.Valid {
		return ScoringInput{}, fmt.Errorf("%w: %v", ErrMalformedInput, result.Error())
	}

	applicant := models.ApplicantProfile{
		FarmerID:                   text(raw["farmerId"]),
		MonthlyIncome:              amount(raw["monthlyIncome"]),
		FarmSizeHectares:           amount(raw["farmSize"]),
		YearsFarming:               amount(raw["yearsFarming"]),
		HasCollateral:              flag(raw["hasCollateral"]),
		ExistingMonthlyObligations: amount(raw["existingLoans"]),
		PrimaryCrop:                text(raw["primaryCrop"]),
		Region:                     text(raw["region"]),
		Verification:               models.ParseVerificationStatus(text(raw["verificationStatus"])),
	}
	if v, ok := raw["creditScore"]; ok && v != nil && text(v) != "" {
		score := amount(v)
		applicant.StoredCreditScore = &score
	}

	loan := models.LoanRequest{
		RequestedAmount: amount(firstPresent(raw, "requestedAmount", "loanAmount")),
		Purpose:         models.NormalizePurpose(text(firstPresent(raw, "purpose", "loanPurpose"))),
	}

	var payments []models.PaymentRecord
	if items, ok := raw["payments"].([]interface{}); ok {
		payments = make([]models.PaymentRecord, 0, len(items))
		for _, item := range items {
			m, _ := item.(map[string]interface{})
			payments = append(payments, models.PaymentRecord{
				ID:     text(m["id"]),
				Amount: amount(m["amount"]),
				Status: models.ParsePaymentStatus(text(m["status"])),
				Date:   date(text(m["date"])),
			})
		}
	}

	return FromRecords(applicant, loan, payments), nil
}

// FromRecords builds a ScoringInput from stored records. Amounts are clamped
// and payments ordered by date, oldest first; the caller's slice is not modified.
func FromRecords(applicant models.ApplicantProfile, loan models.LoanRequest, payments []models.PaymentRecord) ScoringInput {
	applicant.MonthlyIncome = nonNegative(applicant.MonthlyIncome)
	applicant.FarmSizeHectares = nonNegative(applicant.FarmSizeHectares)
	applicant.YearsFarming = nonNegative(applicant.YearsFarming)
	applicant.ExistingMonthlyObligations = nonNegative(applicant.ExistingMonthlyObligations)
	if applicant.StoredCreditScore != nil {
		score := nonNegative(*applicant.StoredCreditScore)
		applicant.StoredCreditScore = &score
	}
	if applicant.Verification == "" {
		applicant.Verification = models.VerificationPending
	}
	loan.RequestedAmount = nonNegative(loan.RequestedAmount)
	loan.Purpose = models.NormalizePurpose(loan.Purpose)

	ordered := make([]models.PaymentRecord, len(payments))
	copy(ordered, payments)
	for i := range ordered {
		ordered[i].Amount = nonNegative(ordered[i].Amount)
		if ordered[i].Status == "" {
			ordered[i].Status = models.PaymentPending
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	return ScoringInput{Applicant: applicant, Loan: loan, Payments: ordered}
}

func firstPresent(raw map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func amount(v interface{}) float64 {
	if s, ok := v.(string); ok {
		v = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if v == "" {
			return 0
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return nonNegative(f)
}

func flag(v interface{}) bool {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y":
			return true
		case "no", "n", "":
			return false
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

func text(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

func date(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// internal/models/farmer.go
package models

type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "verified"
	VerificationPending  VerificationStatus = "pending"
	VerificationRejected VerificationStatus = "rejected"
)

// ParseVerificationStatus maps free text to a known status. Unknown values are
// reported as pending, which carries no bonus or penalty.
func ParseVerificationStatus(s string) VerificationStatus {
	switch VerificationStatus(normalizeEnum(s)) {
	case VerificationVerified:
		return VerificationVerified
	case VerificationRejected:
		return VerificationRejected
	default:
		return VerificationPending
	}
}

// ApplicantProfile holds the financial and agricultural attributes of a farmer.
// All money is ETB per month.
type ApplicantProfile struct {
	FarmerID                   string             `json:"farmerId,omitempty"`
	MonthlyIncome              float64            `json:"monthlyIncome"`
	FarmSizeHectares           float64            `json:"farmSize"`
	YearsFarming               float64            `json:"yearsFarming"`
	HasCollateral              bool               `json:"hasCollateral"`
	ExistingMonthlyObligations float64            `json:"existingLoans"`
	PrimaryCrop                string             `json:"primaryCrop,omitempty"`
	Region                     string             `json:"region,omitempty"`
	StoredCreditScore          *float64           `json:"creditScore,omitempty"`
	Verification               VerificationStatus `json:"verificationStatus"`
}

// FarmerContact is used to notify a farmer about a decision.
type FarmerContact struct {
	FarmerID string `json:"farmerId"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

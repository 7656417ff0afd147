// internal/workers/credit/assess-credit-risk/models.go
package assesscreditrisk

import "agri-credit-workers/internal/workers/credit/shared"

// Input identifies the application to underwrite. FarmerID is optional; when
// present the application is fetched alongside the farmer's records.
type Input struct {
	ApplicationID string `json:"applicationId"`
	FarmerID      string `json:"farmerId,omitempty"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	FarmerID      string `json:"farmerId"`
	shared.AssessmentOutput
	AssessedAt string `json:"assessedAt"`
}

// Data sources named in ASSESSMENT_UNAVAILABLE errors.
const (
	SourceLoanApplication  = "loan_application"
	SourceApplicantProfile = "applicant_profile"
	SourcePaymentHistory   = "payment_history"
)

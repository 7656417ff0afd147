// internal/workers/credit/check-eligibility/models.go
package checkeligibility

import "agri-credit-workers/internal/workers/credit/shared"

// Input carries a prospective applicant's self-reported attributes. Applicant is
// loosely typed: numbers may arrive as strings and fields may be missing.
type Input struct {
	ApplicantID     string                 `json:"applicantId"`
	Applicant       map[string]interface{} `json:"applicant"`
	RequestedAmount interface{}            `json:"requestedAmount,omitempty"`
	Purpose         string                 `json:"purpose,omitempty"`
}

type Output struct {
	ApplicantID string `json:"applicantId"`
	shared.AssessmentOutput
	AssessedAt string `json:"assessedAt"`
}

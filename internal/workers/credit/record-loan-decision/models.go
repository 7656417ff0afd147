// internal/workers/credit/record-loan-decision/models.go
package recordloandecision

// Input is an officer's decision on an application under review.
type Input struct {
	ApplicationID string `json:"applicationId"`
	Action        string `json:"action"` // "approve" or "reject"
	Notes         string `json:"notes,omitempty"`
	OfficerID     string `json:"officerId"`
}

// Output is the application as stored after the decision.
type Output struct {
	ApplicationID  string `json:"applicationId"`
	FarmerID       string `json:"farmerId"`
	Status         string `json:"status"`
	DecisionNotes  string `json:"decisionNotes"`
	DecidedBy      string `json:"decidedBy"`
	DecidedAt      string `json:"decidedAt,omitempty"`
	EventID        string `json:"eventId,omitempty"`
	EventPublished bool   `json:"eventPublished"`
}

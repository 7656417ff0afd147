// internal/models/application.go
package models

import "time"

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
)

// DecisionAction is an officer's action on an application under review.
type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
)

// Status maps an action to the application status it produces.
func (a DecisionAction) Status() (ApplicationStatus, bool) {
	switch a {
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	default:
		return "", false
	}
}

// LoanRequest is the part of an application the scoring engine consumes.
type LoanRequest struct {
	RequestedAmount float64 `json:"requestedAmount"`
	Purpose         string  `json:"purpose"`
}

// LoanApplication is the durable record a decision is written onto.
type LoanApplication struct {
	ID              string            `json:"id"`
	FarmerID        string            `json:"farmerId"`
	RequestedAmount float64           `json:"requestedAmount"`
	Purpose         string            `json:"purpose"`
	Status          ApplicationStatus `json:"status"`
	DecisionNotes   string            `json:"decisionNotes,omitempty"`
	DecidedBy       string            `json:"decidedBy,omitempty"`
	DecidedAt       *time.Time        `json:"decidedAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func (a LoanApplication) Request() LoanRequest {
	return LoanRequest{RequestedAmount: a.RequestedAmount, Purpose: a.Purpose}
}

// Decidable reports whether an officer may still approve or reject the application.
// A decision is written at most once.
func (a LoanApplication) Decidable() bool {
	return a.Status == StatusPending || a.Status == StatusUnderReview
}

// NormalizePurpose folds case and separators so "Debt Consolidation" and
// "debt-consolidation" compare equal.
func NormalizePurpose(s string) string {
	return normalizeEnum(s)
}

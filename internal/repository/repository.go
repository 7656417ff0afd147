// Package repository loads the stored records an underwriting assessment needs
// and writes officer decisions back onto loan applications.
package repository

import (
	"context"
	"errors"
	"fmt"

	"agri-credit-workers/internal/models"
)

var (
	ErrApplicationNotFound     = errors.New("APPLICATION_NOT_FOUND")
	ErrFarmerNotFound          = errors.New("FARMER_NOT_FOUND")
	ErrDecisionAlreadyRecorded = errors.New("DECISION_ALREADY_RECORDED")
)

// AlreadyDecidedError carries the status an application was decided with
// before a conflicting decision arrived.
type AlreadyDecidedError struct {
	ApplicationID string
	Status        models.ApplicationStatus
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("%s: application %s is %s", ErrDecisionAlreadyRecorded, e.ApplicationID, e.Status)
}

func (e *AlreadyDecidedError) Unwrap() error { return ErrDecisionAlreadyRecorded }

// LoanRepository is the persistence boundary of the credit workers. Fetches
// never fabricate data: a failed or empty lookup is reported as an error.
type LoanRepository interface {
	FetchApplicantProfile(ctx context.Context, farmerID string) (models.ApplicantProfile, error)
	// FetchPaymentHistory returns the farmer's payments, oldest first.
	FetchPaymentHistory(ctx context.Context, farmerID string) ([]models.PaymentRecord, error)
	FetchLoanApplication(ctx context.Context, applicationID string) (models.LoanApplication, error)
	FetchFarmerContact(ctx context.Context, farmerID string) (models.FarmerContact, error)

	// CommitDecision moves a pending or under-review application to status and
	// stores the officer's notes, atomically with an audit entry. Replaying the
	// same decision by the same officer returns the stored application.
	CommitDecision(ctx context.Context, applicationID string, status models.ApplicationStatus, notes, officerID string) (models.LoanApplication, error)
}

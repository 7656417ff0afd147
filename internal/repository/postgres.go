package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agri-credit-workers/internal/common/database"
	"agri-credit-workers/internal/models"
)

const applicationColumns = `id, farmer_id, requested_amount, purpose, status,
	COALESCE(decision_notes, ''), COALESCE(decided_by, ''), decided_at, created_at, updated_at`

// PostgresLoanRepository reads farmers, payments and loan applications from PostgreSQL.
type PostgresLoanRepository struct {
	db *sql.DB
}

func NewPostgresLoanRepository(db *sql.DB) *PostgresLoanRepository {
	return &PostgresLoanRepository{db: db}
}

func (r *PostgresLoanRepository) FetchApplicantProfile(ctx context.Context, farmerID string) (models.ApplicantProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT monthly_income, farm_size_hectares, years_farming, has_collateral,
			existing_monthly_obligations, COALESCE(primary_crop, ''), COALESCE(region, ''),
			credit_score, COALESCE(verification_status, '')
		FROM farmers
		WHERE id = $1`, farmerID)

	var (
		p            models.ApplicantProfile
		creditScore  sql.NullFloat64
		verification string
	)
	err := row.Scan(
		&p.MonthlyIncome,
		&p.FarmSizeHectares,
		&p.YearsFarming,
		&p.HasCollateral,
		&p.ExistingMonthlyObligations,
		&p.PrimaryCrop,
		&p.Region,
		&creditScore,
		&verification,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ApplicantProfile{}, fmt.Errorf("%w: %s", ErrFarmerNotFound, farmerID)
		}
		return models.ApplicantProfile{}, fmt.Errorf("query applicant profile: %w", err)
	}

	p.FarmerID = farmerID
	p.Verification = models.ParseVerificationStatus(verification)
	if creditScore.Valid {
		score := creditScore.Float64
		p.StoredCreditScore = &score
	}
	return p, nil
}

func (r *PostgresLoanRepository) FetchPaymentHistory(ctx context.Context, farmerID string) ([]models.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, status, paid_at
		FROM payments
		WHERE farmer_id = $1
		ORDER BY paid_at ASC, id ASC`, farmerID)
	if err != nil {
		return nil, fmt.Errorf("query payment history: %w", err)
	}
	defer rows.Close()

	payments := []models.PaymentRecord{}
	for rows.Next() {
		var (
			p      models.PaymentRecord
			status string
			paidAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Amount, &status, &paidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Status = models.ParsePaymentStatus(status)
		if paidAt.Valid {
			p.Date = paidAt.Time.UTC()
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

func (r *PostgresLoanRepository) FetchLoanApplication(ctx context.Context, applicationID string) (models.LoanApplication, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE id = $1`, applicationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LoanApplication{}, fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
		}
		return models.LoanApplication{}, fmt.Errorf("query loan application: %w", err)
	}
	return app, nil
}

func (r *PostgresLoanRepository) FetchFarmerContact(ctx context.Context, farmerID string) (models.FarmerContact, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT full_name, COALESCE(email, ''), COALESCE(phone, '')
		FROM farmers
		WHERE id = $1`, farmerID)

	c := models.FarmerContact{FarmerID: farmerID}
	if err := row.Scan(&c.Name, &c.Email, &c.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FarmerContact{}, fmt.Errorf("%w: %s", ErrFarmerNotFound, farmerID)
		}
		return models.FarmerContact{}, fmt.Errorf("query farmer contact: %w", err)
	}
	return c, nil
}

func (r *PostgresLoanRepository) CommitDecision(ctx context.Context, applicationID string, status models.ApplicationStatus, notes, officerID string) (models.LoanApplication, error) {
	var app models.LoanApplication

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := scanApplication(tx.QueryRowContext(ctx,
			`SELECT `+applicationColumns+` FROM loan_applications WHERE id = $1 FOR UPDATE`, applicationID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
			}
			return fmt.Errorf("lock loan application: %w", err)
		}

		if !current.Decidable() {
			if current.Status == status && current.DecidedBy == officerID {
				app = current
				return nil
			}
			return &AlreadyDecidedError{ApplicationID: applicationID, Status: current.Status}
		}

		app, err = scanApplication(tx.QueryRowContext(ctx, `
			UPDATE loan_applications
			SET status = $2, decision_notes = $3, decided_by = $4, decided_at = NOW(), updated_at = NOW()
			WHERE id = $1
			RETURNING `+applicationColumns,
			applicationID, string(status), notes, officerID))
		if err != nil {
			return fmt.Errorf("update loan application: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"previousStatus": current.Status,
			"status":         status,
			"decidedBy":      officerID,
			"notes":          notes,
		})
		_, err = tx.ExecContext(ctx, `
			INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			"LOAN_DECISION_RECORDED", "loan_application", applicationID, details, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.LoanApplication{}, err
	}
	return app, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (models.LoanApplication, error) {
	var (
		app       models.LoanApplication
		status    string
		decidedAt sql.NullTime
	)
	err := row.Scan(
		&app.ID,
		&app.FarmerID,
		&app.RequestedAmount,
		&app.Purpose,
		&status,
		&app.DecisionNotes,
		&app.DecidedBy,
		&decidedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return models.LoanApplication{}, err
	}
	app.Status = models.ApplicationStatus(status)
	if decidedAt.Valid {
		t := decidedAt.Time.UTC()
		app.DecidedAt = &t
	}
	return app, nil
}

// internal/workers/credit/record-loan-decision/handler_test.go
package recordloandecision

import (
	"context"
	"database/sql"
	stderrors "errors"
	"net"
	"syscall"
	"testing"
	"time"

	"agri-credit-workers/internal/common/errors"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/events"
	"agri-credit-workers/internal/models"
	"agri-credit-workers/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t        *testing.T
	warnings []map[string]interface{}
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
	tl.warnings = append(tl.warnings, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

// kafkaWriter records what the decision publisher writes.
type kafkaWriter struct {
	messages []kafkago.Message
	err      error
}

func (w *kafkaWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *kafkaWriter) Close() error { return nil }

var applicationColumns = []string{
	"id", "farmer_id", "requested_amount", "purpose", "status",
	"decision_notes", "decided_by", "decided_at", "created_at", "updated_at",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func applicationRow(status models.ApplicationStatus, notes, decidedBy string, decidedAt interface{}) *sqlmock.Rows {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(applicationColumns).
		AddRow("app-1", "farmer-1", 60000.0, "seeds", string(status), notes, decidedBy, decidedAt, created, created)
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, PublishTimeout: time.Second, Topic: "loan.decision.recorded"}
}

func newTestHandler(t *testing.T, db *sql.DB, w *kafkaWriter) *Handler {
	return newTestHandlerWithLogger(t, db, w, &testLogger{t: t})
}

func newTestHandlerWithLogger(t *testing.T, db *sql.DB, w *kafkaWriter, log *testLogger) *Handler {
	var publisher EventPublisher
	if w != nil {
		publisher = events.NewDecisionPublisher(w, "loan.decision.recorded", &testLogger{t: t})
	}
	return NewHandler(createTestConfig(), repository.NewPostgresLoanRepository(db), publisher, nil, log)
}

func expectCommit(mock sqlmock.Sqlmock, from, to models.ApplicationStatus, notes string) {
	decidedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("app-1").
		WillReturnRows(applicationRow(from, "", "", nil))
	mock.ExpectQuery("UPDATE loan_applications").
		WithArgs("app-1", string(to), notes, "officer-7").
		WillReturnRows(applicationRow(to, notes, "officer-7", decidedAt))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

// ==========================
// Tests
// ==========================

func TestExecute_ApproveCommitsAndPublishes(t *testing.T) {
	db, mock := setupMockDB(t)
	w := &kafkaWriter{}
	h := newTestHandler(t, db, w)
	expectCommit(mock, models.StatusUnderReview, models.StatusApproved, "income verified on site")

	output, err := h.Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		Action:        "Approve",
		Notes:         "  income verified on site ",
		OfficerID:     "officer-7",
	})

	require.NoError(t, err)
	assert.Equal(t, "approved", output.Status)
	assert.Equal(t, "income verified on site", output.DecisionNotes)
	assert.Equal(t, "officer-7", output.DecidedBy)
	assert.Equal(t, "2026-03-02T10:00:00Z", output.DecidedAt)
	assert.True(t, output.EventPublished)
	assert.NotEmpty(t, output.EventID)
	require.Len(t, w.messages, 1)
	assert.Equal(t, "app-1", string(w.messages[0].Key))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RejectFromPending(t *testing.T) {
	db, mock := setupMockDB(t)
	h := newTestHandler(t, db, nil)
	expectCommit(mock, models.StatusPending, models.StatusRejected, "")

	output, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "reject", OfficerID: "officer-7"})

	require.NoError(t, err)
	assert.Equal(t, "rejected", output.Status)
	assert.False(t, output.EventPublished)
	assert.Empty(t, output.EventID)
}

func TestExecute_SecondDecisionIsRejected(t *testing.T) {
	db, mock := setupMockDB(t)
	w := &kafkaWriter{}
	h := newTestHandler(t, db, w)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("app-1").
		WillReturnRows(applicationRow(models.StatusApproved, "ok", "officer-7", time.Now()))
	mock.ExpectRollback()

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "reject", OfficerID: "officer-9"})

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeDecisionAlreadyRecorded, stdErr.Code)
	assert.Contains(t, stdErr.Details, "approved")
	assert.False(t, stdErr.Retryable)
	assert.Empty(t, w.messages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_InvalidAction(t *testing.T) {
	db, mock := setupMockDB(t)
	h := newTestHandler(t, db, nil)

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "defer", OfficerID: "officer-7"})

	assert.Equal(t, errors.ErrCodeInvalidDecisionAction, errors.Normalize(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing is written for an invalid action")
}

func TestExecute_MissingOfficer(t *testing.T) {
	db, _ := setupMockDB(t)
	h := newTestHandler(t, db, nil)

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "approve"})

	assert.Equal(t, errors.ErrCodeInputValidationFailed, errors.Normalize(err).Code)
}

func TestExecute_UnknownApplication(t *testing.T) {
	db, mock := setupMockDB(t)
	h := newTestHandler(t, db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("app-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "approve", OfficerID: "officer-7"})

	assert.Equal(t, errors.ErrCodeApplicationNotFound, errors.Normalize(err).Code)
}

func TestExecute_CommitFailureIsRetryable(t *testing.T) {
	db, mock := setupMockDB(t)
	h := newTestHandler(t, db, nil)

	mock.ExpectBegin().WillReturnError(stderrors.New("connection reset by peer"))

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "approve", OfficerID: "officer-7"})

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeDecisionCommitFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_ConnectionLossIsRetryable(t *testing.T) {
	db, mock := setupMockDB(t)
	h := newTestHandler(t, db, nil)

	mock.ExpectBegin().WillReturnError(&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET})

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "approve", OfficerID: "officer-7"})

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeDatabaseConnectionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_PublishFailureKeepsDecision(t *testing.T) {
	db, mock := setupMockDB(t)
	w := &kafkaWriter{err: stderrors.New("leader not available")}
	log := &testLogger{t: t}
	h := newTestHandlerWithLogger(t, db, w, log)
	expectCommit(mock, models.StatusPending, models.StatusApproved, "")

	output, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "approve", OfficerID: "officer-7"})

	require.NoError(t, err)
	assert.Equal(t, "approved", output.Status)
	assert.False(t, output.EventPublished)
	assert.NotEmpty(t, output.EventID)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, log.warnings, 1)
	assert.Equal(t, string(errors.ErrCodeEventPublishFailed), log.warnings[0]["code"])
	assert.Contains(t, log.warnings[0]["error"], "loan.decision.recorded")
}

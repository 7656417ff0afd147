package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	verification     models.VerificationStatus
	profileCalls     int
	contactCalls     int
	applicationCalls int
	commitCalls      int
	app              models.LoanApplication
	commitErr        error
}

func (f *fakeRepo) FetchApplicantProfile(ctx context.Context, farmerID string) (models.ApplicantProfile, error) {
	f.profileCalls++
	score := 640.0
	return models.ApplicantProfile{FarmerID: farmerID, MonthlyIncome: 5000, StoredCreditScore: &score, Verification: f.verification}, nil
}

func (f *fakeRepo) FetchPaymentHistory(ctx context.Context, farmerID string) ([]models.PaymentRecord, error) {
	return []models.PaymentRecord{}, nil
}

func (f *fakeRepo) FetchLoanApplication(ctx context.Context, applicationID string) (models.LoanApplication, error) {
	f.applicationCalls++
	return f.app, nil
}

func (f *fakeRepo) FetchFarmerContact(ctx context.Context, farmerID string) (models.FarmerContact, error) {
	f.contactCalls++
	if farmerID == "ghost" {
		return models.FarmerContact{}, ErrFarmerNotFound
	}
	return models.FarmerContact{FarmerID: farmerID, Name: "Abebe"}, nil
}

func (f *fakeRepo) CommitDecision(ctx context.Context, applicationID string, status models.ApplicationStatus, notes, officerID string) (models.LoanApplication, error) {
	f.commitCalls++
	if f.commitErr != nil {
		return models.LoanApplication{}, f.commitErr
	}
	f.app.Status = status
	f.app.DecidedBy = officerID
	return f.app, nil
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedRepository_ContactServedFromCache(t *testing.T) {
	mr, rdb := setupRedis(t)
	inner := &fakeRepo{}
	repo := NewCachedLoanRepository(inner, rdb, time.Minute, logger.NewNoOpLogger())
	ctx := context.Background()

	first, err := repo.FetchFarmerContact(ctx, "farmer-1")
	require.NoError(t, err)
	second, err := repo.FetchFarmerContact(ctx, "farmer-1")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.contactCalls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("credit:contact:farmer-1"))
	assert.Equal(t, time.Minute, mr.TTL("credit:contact:farmer-1"))
}

func TestCachedRepository_ProfileAlwaysReadFromStore(t *testing.T) {
	mr, rdb := setupRedis(t)
	inner := &fakeRepo{verification: models.VerificationVerified}
	repo := NewCachedLoanRepository(inner, rdb, time.Minute, logger.NewNoOpLogger())
	ctx := context.Background()

	first, err := repo.FetchApplicantProfile(ctx, "farmer-1")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, first.Verification)

	inner.verification = models.VerificationRejected
	second, err := repo.FetchApplicantProfile(ctx, "farmer-1")
	require.NoError(t, err)

	assert.Equal(t, models.VerificationRejected, second.Verification)
	assert.Equal(t, 2, inner.profileCalls)
	assert.Empty(t, mr.Keys())
}

func TestCachedRepository_ApplicationAlwaysReadFromStore(t *testing.T) {
	mr, rdb := setupRedis(t)
	inner := &fakeRepo{app: models.LoanApplication{ID: "app-1", Status: models.StatusUnderReview, RequestedAmount: 60000}}
	repo := NewCachedLoanRepository(inner, rdb, time.Minute, logger.NewNoOpLogger())
	ctx := context.Background()

	_, err := repo.FetchLoanApplication(ctx, "app-1")
	require.NoError(t, err)

	inner.app.RequestedAmount = 40000
	app, err := repo.FetchLoanApplication(ctx, "app-1")
	require.NoError(t, err)

	assert.Equal(t, 40000.0, app.RequestedAmount)
	assert.Equal(t, 2, inner.applicationCalls)
	assert.Empty(t, mr.Keys())
}

func TestCachedRepository_ErrorsAreNotCached(t *testing.T) {
	mr, rdb := setupRedis(t)
	inner := &fakeRepo{}
	repo := NewCachedLoanRepository(inner, rdb, time.Minute, logger.NewNoOpLogger())

	_, err := repo.FetchFarmerContact(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFarmerNotFound)
	_, err = repo.FetchFarmerContact(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFarmerNotFound)

	assert.Equal(t, 2, inner.contactCalls)
	assert.False(t, mr.Exists("credit:contact:ghost"))
}

func TestCachedRepository_CommitPassesThrough(t *testing.T) {
	_, rdb := setupRedis(t)
	inner := &fakeRepo{commitErr: ErrDecisionAlreadyRecorded}
	repo := NewCachedLoanRepository(inner, rdb, time.Minute, logger.NewNoOpLogger())

	_, err := repo.CommitDecision(context.Background(), "app-1", models.StatusApproved, "", "officer-7")

	assert.ErrorIs(t, err, ErrDecisionAlreadyRecorded)
	assert.Equal(t, 1, inner.commitCalls)
}

func TestCachedRepository_RedisDownFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &fakeRepo{}
	repo := NewCachedLoanRepository(inner, rdb, time.Minute, logger.NewNoOpLogger())

	mock.ExpectGet("credit:contact:farmer-1").SetErr(errors.New("connection refused"))

	c, err := repo.FetchFarmerContact(context.Background(), "farmer-1")

	require.NoError(t, err)
	assert.Equal(t, "Abebe", c.Name)
	assert.Equal(t, 1, inner.contactCalls)
}

func TestCachedRepository_CacheWriteFailureKeepsContact(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &fakeRepo{}
	repo := NewCachedLoanRepository(inner, rdb, time.Minute, logger.NewNoOpLogger())

	raw, err := json.Marshal(models.FarmerContact{FarmerID: "farmer-1", Name: "Abebe"})
	require.NoError(t, err)
	mock.ExpectGet("credit:contact:farmer-1").RedisNil()
	mock.ExpectSet("credit:contact:farmer-1", raw, time.Minute).SetErr(errors.New("connection refused"))

	c, err := repo.FetchFarmerContact(context.Background(), "farmer-1")

	require.NoError(t, err)
	assert.Equal(t, "Abebe", c.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepository_PaymentsReadThrough(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewCachedLoanRepository(&fakeRepo{}, rdb, time.Minute, logger.NewNoOpLogger())

	payments, err := repo.FetchPaymentHistory(context.Background(), "farmer-1")

	require.NoError(t, err)
	assert.Empty(t, payments)
}

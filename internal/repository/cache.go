package repository

import (
	"context"
	"time"

	"agri-credit-workers/internal/common/database"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const contactKeyPrefix = "credit:contact:"

// CachedLoanRepository serves farmer contacts from Redis before falling back
// to the wrapped repository. Everything a score is computed from (profile,
// payments, application) and every write is passed straight through, so an
// assessment always sees the current store. Redis failures degrade to a miss.
type CachedLoanRepository struct {
	LoanRepository
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedLoanRepository(inner LoanRepository, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedLoanRepository {
	return &CachedLoanRepository{
		LoanRepository: inner,
		rdb:            rdb,
		ttl:            ttl,
		logger:         log,
	}
}

func (c *CachedLoanRepository) FetchFarmerContact(ctx context.Context, farmerID string) (models.FarmerContact, error) {
	var contact models.FarmerContact
	if c.lookup(ctx, contactKeyPrefix+farmerID, &contact) {
		return contact, nil
	}
	contact, err := c.LoanRepository.FetchFarmerContact(ctx, farmerID)
	if err != nil {
		return contact, err
	}
	c.store(ctx, contactKeyPrefix+farmerID, contact)
	return contact, nil
}

func (c *CachedLoanRepository) lookup(ctx context.Context, key string, dst interface{}) bool {
	found, err := database.GetJSON(ctx, c.rdb, key, dst)
	if err != nil {
		c.logger.Warn("cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return found
}

func (c *CachedLoanRepository) store(ctx context.Context, key string, value interface{}) {
	if err := database.SetJSON(ctx, c.rdb, key, value, c.ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

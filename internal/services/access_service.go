package services

import (
	"context"
	"log"
	"time"

	"signalgate/internal/caching"
	"signalgate/internal/repositories"
)

const expiryCacheTTL = 5 * time.Minute

// AccessService is the access evaluator: given a subscriber, is access
// currently valid and until when. Pure reads over the ledger; the Redis
// cache only shortcuts the lookup and is invalidated by every writer.
type AccessService interface {
	IsActive(ctx context.Context, subscriberID int64, now time.Time) (bool, error)
	Status(ctx context.Context, subscriberID int64, now time.Time) (*AccessStatus, error)
}

// AccessStatus reports the current access window for display.
type AccessStatus struct {
	Active bool      `json:"active"`
	Paid   bool      `json:"paid"`
	Expiry time.Time `json:"expiry,omitempty"`
}

type accessService struct {
	paymentRepo repositories.PaymentRepository
	cache       caching.CacheService
}

func NewAccessService(paymentRepo repositories.PaymentRepository, cache caching.CacheService) AccessService {
	return &accessService{paymentRepo: paymentRepo, cache: cache}
}

// IsActive is true iff the subscriber's most recent payment has an expiry
// strictly after now. A sentinel expiry and "never paid" both answer false.
func (s *accessService) IsActive(ctx context.Context, subscriberID int64, now time.Time) (bool, error) {
	status, err := s.Status(ctx, subscriberID, now)
	if err != nil {
		return false, err
	}
	return status.Active, nil
}

func (s *accessService) Status(ctx context.Context, subscriberID int64, now time.Time) (*AccessStatus, error) {
	expiry, found, err := s.latestExpiry(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &AccessStatus{}, nil
	}
	return &AccessStatus{
		Active: now.Before(expiry),
		Paid:   true,
		Expiry: expiry,
	}, nil
}

func (s *accessService) latestExpiry(ctx context.Context, subscriberID int64) (time.Time, bool, error) {
	if expiry, hit, err := s.cache.GetLatestExpiry(ctx, subscriberID); err != nil {
		log.Printf("WARN: expiry cache read failed for %d: %v", subscriberID, err)
	} else if hit {
		return expiry, true, nil
	}

	expiry, found, err := s.paymentRepo.LatestExpiry(ctx, subscriberID)
	if err != nil {
		return time.Time{}, false, err
	}
	if found {
		if err := s.cache.SetLatestExpiry(ctx, subscriberID, expiry, expiryCacheTTL); err != nil {
			log.Printf("WARN: expiry cache write failed for %d: %v", subscriberID, err)
		}
	}
	return expiry, found, nil
}

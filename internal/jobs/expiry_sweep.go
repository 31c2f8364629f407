package jobs

import (
	"context"
	"log"
	"time"

	"signalgate/internal/caching"
	"signalgate/internal/repositories"
	"signalgate/internal/services"
)

// ExpirySweeper finds subscribers whose latest access window just lapsed,
// prompts each to renew exactly once, and zeroes the expiry so the next
// sweep skips them. Sweep-and-mark is enough here: an hour of notification
// delay costs nothing in this domain.
type ExpirySweeper struct {
	paymentRepo repositories.PaymentRepository
	notifier    services.Notifier
	cache       caching.CacheService

	now func() time.Time
}

func NewExpirySweeper(paymentRepo repositories.PaymentRepository, notifier services.Notifier, cache caching.CacheService) *ExpirySweeper {
	return &ExpirySweeper{
		paymentRepo: paymentRepo,
		notifier:    notifier,
		cache:       cache,
		now:         time.Now,
	}
}

// Sweep runs one pass. A failed prompt leaves the row unmarked so the next
// sweep retries; the mark only happens after the message went out.
func (s *ExpirySweeper) Sweep(ctx context.Context) error {
	expired, err := s.paymentRepo.ListNewlyExpired(ctx, s.now().UTC())
	if err != nil {
		return err
	}

	for _, record := range expired {
		if record.SubscriberID == nil {
			continue
		}
		subscriberID := *record.SubscriberID

		if err := s.notifier.RenewalPrompt(ctx, subscriberID); err != nil {
			log.Printf("WARN: renewal prompt for %d failed, will retry next sweep: %v", subscriberID, err)
			continue
		}

		if err := s.paymentRepo.MarkExpiryProcessed(ctx, subscriberID); err != nil {
			log.Printf("ERROR: marking expiry processed for %d: %v", subscriberID, err)
			continue
		}
		if err := s.cache.InvalidateSubscriber(ctx, subscriberID); err != nil {
			log.Printf("WARN: cache invalidation failed for %d: %v", subscriberID, err)
		}
	}

	return nil
}

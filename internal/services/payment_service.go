package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"signalgate/internal/caching"
	"signalgate/internal/models"
	"signalgate/internal/repositories"

	"github.com/google/uuid"
)

// ChargeEvent is a validated charge.success webhook, decoded once at the
// HTTP boundary. SubscriberID is nil when the provider metadata was missing
// or malformed.
type ChargeEvent struct {
	Reference    string
	Amount       int64
	Currency     string
	SubscriberID *int64
	Username     *string
}

// PaymentService turns confirmed charges into ledger state and owns manual
// revocation. It does not talk to the messaging transport; callers notify
// through the Notifier after the ledger write succeeded.
type PaymentService interface {
	// HandleChargeSuccess records the payment and returns the stored record.
	// The bool reports whether the paid amount matched the configured price;
	// a mismatch is recorded for audit with the sentinel expiry and grants
	// no access.
	HandleChargeSuccess(ctx context.Context, event *ChargeEvent) (*models.PaymentRecord, bool, error)
	Revoke(ctx context.Context, subscriberID int64) error
	ListRecent(ctx context.Context, limit int) ([]*models.PaymentRecord, error)
	VerifyToken(ctx context.Context, token string) (*models.PaymentRecord, error)
	DeepLink(token string) string
}

type paymentService struct {
	paymentRepo repositories.PaymentRepository
	cache       caching.CacheService

	priceSubunits int64
	currency      string
	duration      time.Duration
	botUsername   string

	now func() time.Time
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	cache caching.CacheService,
	priceSubunits int64,
	currency string,
	duration time.Duration,
	botUsername string,
) PaymentService {
	return &paymentService{
		paymentRepo:   paymentRepo,
		cache:         cache,
		priceSubunits: priceSubunits,
		currency:      currency,
		duration:      duration,
		botUsername:   botUsername,
		now:           time.Now,
	}
}

func (s *paymentService) HandleChargeSuccess(ctx context.Context, event *ChargeEvent) (*models.PaymentRecord, bool, error) {
	paidAt := s.now().UTC()

	priceOK := event.Amount == s.priceSubunits && strings.EqualFold(event.Currency, s.currency)
	expiry := paidAt.Add(s.duration)
	if !priceOK {
		// Keep the row for audit, grant nothing.
		expiry = models.SentinelExpiry
		log.Printf("WARN: charge %s paid %d %s, expected %d %s",
			event.Reference, event.Amount, event.Currency, s.priceSubunits, s.currency)
	}

	record := &models.PaymentRecord{
		SubscriberID: event.SubscriberID,
		Username:     event.Username,
		Amount:       event.Amount,
		Currency:     event.Currency,
		Reference:    event.Reference,
		PaidAt:       paidAt,
		Expiry:       expiry,
		Token:        uuid.NewString(),
	}

	if err := s.paymentRepo.RecordPayment(ctx, record); err != nil {
		return nil, priceOK, fmt.Errorf("record payment %s: %w", event.Reference, err)
	}

	if event.SubscriberID != nil {
		if err := s.cache.InvalidateSubscriber(ctx, *event.SubscriberID); err != nil {
			log.Printf("WARN: cache invalidation failed for %d: %v", *event.SubscriberID, err)
		}
	}

	return record, priceOK, nil
}

func (s *paymentService) Revoke(ctx context.Context, subscriberID int64) error {
	if err := s.paymentRepo.ForceExpire(ctx, subscriberID); err != nil {
		return fmt.Errorf("revoke %d: %w", subscriberID, err)
	}
	if err := s.cache.InvalidateSubscriber(ctx, subscriberID); err != nil {
		log.Printf("WARN: cache invalidation failed for %d: %v", subscriberID, err)
	}
	return nil
}

func (s *paymentService) ListRecent(ctx context.Context, limit int) ([]*models.PaymentRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.paymentRepo.ListRecent(ctx, limit)
}

func (s *paymentService) VerifyToken(ctx context.Context, token string) (*models.PaymentRecord, error) {
	return s.paymentRepo.GetByToken(ctx, token)
}

// DeepLink builds the t.me link a subscriber taps after paying; the token
// arrives back as the /start payload.
func (s *paymentService) DeepLink(token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, url.QueryEscape(token))
}

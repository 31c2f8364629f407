package repositories

import (
	"context"
	"errors"
	"time"

	"signalgate/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the slice of pgxpool.Pool the repositories need. pgxmock's
// pool interface satisfies it too, which is what the tests substitute.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PaymentRepository is the subscription ledger: durable payment events and
// the access windows derived from them.
type PaymentRepository interface {
	RecordPayment(ctx context.Context, payment *models.PaymentRecord) error
	LatestExpiry(ctx context.Context, subscriberID int64) (time.Time, bool, error)
	ForceExpire(ctx context.Context, subscriberID int64) error
	ListRecent(ctx context.Context, limit int) ([]*models.PaymentRecord, error)
	ListNewlyExpired(ctx context.Context, now time.Time) ([]*models.PaymentRecord, error)
	MarkExpiryProcessed(ctx context.Context, subscriberID int64) error
	GetByToken(ctx context.Context, token string) (*models.PaymentRecord, error)
}

type paymentRepo struct {
	db Database
}

func NewPaymentRepo(db Database) PaymentRepository {
	return &paymentRepo{db: db}
}

// RecordPayment inserts one confirmed payment. A duplicate reference is a
// retried webhook delivery, not an error: ON CONFLICT DO NOTHING keeps the
// insert idempotent.
func (r *paymentRepo) RecordPayment(ctx context.Context, payment *models.PaymentRecord) error {
	query := `
		INSERT INTO payments (subscriber_id, username, amount, currency, reference, paid_at, expiry, token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (reference) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		payment.SubscriberID, payment.Username, payment.Amount, payment.Currency,
		payment.Reference, payment.PaidAt, payment.Expiry, payment.Token)
	return err
}

// LatestExpiry returns the expiry of the most recently paid record for the
// subscriber. The second return is false when the subscriber never paid.
func (r *paymentRepo) LatestExpiry(ctx context.Context, subscriberID int64) (time.Time, bool, error) {
	query := `
		SELECT expiry FROM payments
		WHERE subscriber_id = $1
		ORDER BY paid_at DESC
		LIMIT 1
	`
	var expiry time.Time
	err := r.db.QueryRow(ctx, query, subscriberID).Scan(&expiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return expiry, true, nil
}

// ForceExpire sets every record of the subscriber to the sentinel expiry.
// Used for manual revocation; rows stay behind for audit.
func (r *paymentRepo) ForceExpire(ctx context.Context, subscriberID int64) error {
	query := `UPDATE payments SET expiry = $2 WHERE subscriber_id = $1`
	_, err := r.db.Exec(ctx, query, subscriberID, models.SentinelExpiry)
	return err
}

func (r *paymentRepo) ListRecent(ctx context.Context, limit int) ([]*models.PaymentRecord, error) {
	query := `
		SELECT id, subscriber_id, username, amount, currency, reference, paid_at, expiry, token, created_at
		FROM payments
		ORDER BY paid_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

// ListNewlyExpired returns, per subscriber, the latest record when it has
// expired and has not been processed yet. Only the most recent record per
// subscriber counts; an old expired row behind a renewal must not trigger a
// prompt.
func (r *paymentRepo) ListNewlyExpired(ctx context.Context, now time.Time) ([]*models.PaymentRecord, error) {
	query := `
		SELECT id, subscriber_id, username, amount, currency, reference, paid_at, expiry, token, created_at
		FROM (
			SELECT DISTINCT ON (subscriber_id) id, subscriber_id, username, amount, currency, reference, paid_at, expiry, token, created_at
			FROM payments
			WHERE subscriber_id IS NOT NULL
			ORDER BY subscriber_id, paid_at DESC
		) latest
		WHERE latest.expiry <= $1 AND latest.expiry > $2
	`
	rows, err := r.db.Query(ctx, query, now, models.SentinelExpiry)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

// MarkExpiryProcessed zeroes the subscriber's expiries after the renewal
// prompt went out, so the next sweep skips them.
func (r *paymentRepo) MarkExpiryProcessed(ctx context.Context, subscriberID int64) error {
	query := `UPDATE payments SET expiry = $2 WHERE subscriber_id = $1`
	_, err := r.db.Exec(ctx, query, subscriberID, models.SentinelExpiry)
	return err
}

// GetByToken looks up a payment by its deep-link verification token.
func (r *paymentRepo) GetByToken(ctx context.Context, token string) (*models.PaymentRecord, error) {
	query := `
		SELECT id, subscriber_id, username, amount, currency, reference, paid_at, expiry, token, created_at
		FROM payments
		WHERE token = $1
	`
	payment := &models.PaymentRecord{}
	err := r.db.QueryRow(ctx, query, token).Scan(
		&payment.ID, &payment.SubscriberID, &payment.Username, &payment.Amount,
		&payment.Currency, &payment.Reference, &payment.PaidAt, &payment.Expiry,
		&payment.Token, &payment.CreatedAt)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func scanPayments(rows pgx.Rows) ([]*models.PaymentRecord, error) {
	var payments []*models.PaymentRecord
	for rows.Next() {
		payment := &models.PaymentRecord{}
		if err := rows.Scan(
			&payment.ID, &payment.SubscriberID, &payment.Username, &payment.Amount,
			&payment.Currency, &payment.Reference, &payment.PaidAt, &payment.Expiry,
			&payment.Token, &payment.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

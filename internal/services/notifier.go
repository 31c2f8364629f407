package services

import "context"

// Notifier delivers outbound messages to subscribers and the admin. The bot
// front end implements it; services and jobs stay transport-agnostic.
// Delivery failures never roll back ledger state.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, subscriberID int64, deepLink string) error
	RenewalPrompt(ctx context.Context, subscriberID int64) error
	AdminAlert(ctx context.Context, text string) error
}

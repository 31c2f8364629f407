package models

import (
	"time"
)

// SentinelExpiry marks a record whose access has been revoked or whose
// expiry was already processed by the renewal sweep. Distinguishable from
// "never paid" only by the presence of the row.
var SentinelExpiry = time.Unix(0, 0).UTC()

// PaymentRecord is one row per confirmed provider payment. Rows are never
// deleted; older rows for the same subscriber are kept for audit and do not
// affect access decisions.
type PaymentRecord struct {
	ID           int64      `json:"id" db:"id"`
	SubscriberID *int64     `json:"subscriber_id" db:"subscriber_id"`
	Username     *string    `json:"username" db:"username"`
	Amount       int64      `json:"amount" db:"amount"`
	Currency     string     `json:"currency" db:"currency"`
	Reference    string     `json:"reference" db:"reference"`
	PaidAt       time.Time  `json:"paid_at" db:"paid_at"`
	Expiry       time.Time  `json:"expiry" db:"expiry"`
	Token        string     `json:"token" db:"token"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Revoked reports whether the record carries the sentinel expiry.
func (p *PaymentRecord) Revoked() bool {
	return !p.Expiry.After(SentinelExpiry)
}

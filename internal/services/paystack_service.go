package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrProviderUnavailable signals a transport or HTTP failure talking to the
// payment provider. Callers surface it to the user as "try again later".
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// PaystackService handles all Paystack API interactions: creating checkout
// sessions and authenticating inbound webhook deliveries.
type PaystackService interface {
	InitializeTransaction(ctx context.Context, subscriberID int64, amountSubunits int64, currency string) (string, error)
	VerifySignature(body []byte, signature string) bool
}

type paystackService struct {
	secretKey   string
	baseURL     string
	callbackURL string
	http        *http.Client
}

type initializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	CallbackURL string         `json:"callback_url"`
	Metadata    map[string]any `json:"metadata"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// NewPaystackService creates a new Paystack service instance. callbackURL is
// where the provider redirects the browser after checkout.
func NewPaystackService(secretKey, baseURL, callbackURL string) PaystackService {
	return &paystackService{
		secretKey:   secretKey,
		baseURL:     baseURL,
		callbackURL: callbackURL,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

// InitializeTransaction creates a checkout session and returns the
// authorization URL the subscriber must open. The subscriber id travels in
// the metadata so the webhook can route the confirmation back.
func (s *paystackService) InitializeTransaction(ctx context.Context, subscriberID int64, amountSubunits int64, currency string) (string, error) {
	payload := initializeRequest{
		Email:       fmt.Sprintf("%d@example.com", subscriberID),
		Amount:      amountSubunits,
		Currency:    currency,
		CallbackURL: s.callbackURL,
		Metadata:    map[string]any{"subscriber_id": subscriberID},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/transaction/initialize", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("build initialize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: initialize returned %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var init initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&init); err != nil {
		return "", fmt.Errorf("%w: decode initialize response: %v", ErrProviderUnavailable, err)
	}
	if init.Data.AuthorizationURL == "" {
		return "", fmt.Errorf("%w: initialize response missing authorization URL", ErrProviderUnavailable)
	}

	return init.Data.AuthorizationURL, nil
}

// VerifySignature checks the x-paystack-signature header: HMAC-SHA512 over
// the exact raw body with the secret key, hex encoded. An absent header is a
// rejection. The comparison is constant-time.
func (s *paystackService) VerifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(s.secretKey))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(signature))
}

package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"signalgate/internal/caching"
	"signalgate/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	signatureHeader  = "x-paystack-signature"
	webhookRateLimit = 60 // deliveries per source IP per minute
)

// WebhookHandlers receives Paystack callbacks. The HMAC signature is the
// sole authentication: nothing in the body is trusted before it passes.
type WebhookHandlers struct {
	paymentService  services.PaymentService
	paystackService services.PaystackService
	notifier        services.Notifier
	cache           caching.CacheService
}

func NewWebhookHandlers(
	paymentService services.PaymentService,
	paystackService services.PaystackService,
	notifier services.Notifier,
	cache caching.CacheService,
) *WebhookHandlers {
	return &WebhookHandlers{
		paymentService:  paymentService,
		paystackService: paystackService,
		notifier:        notifier,
		cache:           cache,
	}
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Metadata  struct {
			SubscriberID any    `json:"subscriber_id"`
			Username     string `json:"username"`
		} `json:"metadata"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// PaystackWebhook handles POST /paystack/webhook.
func (h *WebhookHandlers) PaystackWebhook(c echo.Context) error {
	if limited, err := h.cache.IsRateLimited(c.Request().Context(), "webhook:"+c.RealIP(), webhookRateLimit, time.Minute); err != nil {
		log.Printf("WARN: webhook rate limit check: %v", err)
	} else if limited {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	if !h.paystackService.VerifySignature(body, c.Request().Header.Get(signatureHeader)) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid signature")
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}

	// Every event other than a successful charge is acknowledged and
	// ignored.
	if payload.Event != "charge.success" {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	event := &services.ChargeEvent{
		Reference: payload.Data.Reference,
		Amount:    payload.Data.Amount,
		Currency:  payload.Data.Currency,
	}
	if id, ok := parseSubscriberID(payload.Data.Metadata.SubscriberID); ok {
		event.SubscriberID = &id
	}
	if username := pickUsername(payload.Data.Customer.Email, payload.Data.Metadata.Username); username != "" {
		event.Username = &username
	}

	ctx := c.Request().Context()
	record, priceOK, err := h.paymentService.HandleChargeSuccess(ctx, event)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record payment")
	}

	if !priceOK {
		if err := h.notifier.AdminAlert(ctx, "⚠️ Charge "+record.Reference+" paid an unexpected amount; access withheld."); err != nil {
			log.Printf("WARN: admin alert failed: %v", err)
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	// No destination without a subscriber id; the payment stays recorded
	// for audit either way.
	if event.SubscriberID != nil {
		deepLink := h.paymentService.DeepLink(record.Token)
		if err := h.notifier.PaymentConfirmed(ctx, *event.SubscriberID, deepLink); err != nil {
			log.Printf("WARN: confirmation for %d failed: %v", *event.SubscriberID, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// parseSubscriberID copes with the loosely typed metadata value: providers
// echo it back as a string or a JSON number depending on how the checkout
// was created.
func parseSubscriberID(v any) (int64, bool) {
	switch id := v.(type) {
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		return int64(id), true
	case json.Number:
		n, err := id.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func pickUsername(email, metadataUsername string) string {
	if email != "" {
		return email
	}
	return metadataUsername
}

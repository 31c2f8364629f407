package handlers

import (
	"net/http"
	"strconv"

	"signalgate/internal/services"

	"github.com/labstack/echo/v4"
)

// AdminHandlers is the JWT-protected REST surface mirroring the bot's admin
// commands, for operators who prefer curl over Telegram.
type AdminHandlers struct {
	paymentService services.PaymentService
}

func NewAdminHandlers(paymentService services.PaymentService) *AdminHandlers {
	return &AdminHandlers{paymentService: paymentService}
}

// ListPayments handles GET /v1/admin/payments?limit=N.
func (h *AdminHandlers) ListPayments(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}

	payments, err := h.paymentService.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list payments")
	}
	return c.JSON(http.StatusOK, payments)
}

// RevokeSubscriber handles POST /v1/admin/subscribers/:id/revoke.
func (h *AdminHandlers) RevokeSubscriber(c echo.Context) error {
	subscriberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid subscriber id")
	}

	if err := h.paymentService.Revoke(c.Request().Context(), subscriberID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to revoke")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":        "revoked",
		"subscriber_id": subscriberID,
	})
}

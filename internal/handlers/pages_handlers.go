package handlers

import (
	"log"
	"net/http"

	"signalgate/internal/services"

	"github.com/labstack/echo/v4"
)

const paymentSuccessHTML = `<html><body><h2>Payment completed — return to Telegram.</h2></body></html>`

const renewHTML = `<html><body><h2>Open Telegram and send /pay to your signal bot to renew.</h2></body></html>`

// PageHandlers serves the small public pages: the landing string, the
// post-checkout page, the renewal pointer, and the banner asset.
type PageHandlers struct {
	bannerService services.BannerService
}

func NewPageHandlers(bannerService services.BannerService) *PageHandlers {
	return &PageHandlers{bannerService: bannerService}
}

// Home handles GET /.
func (h *PageHandlers) Home(c echo.Context) error {
	return c.String(http.StatusOK, "PRO Signals payment gate is running")
}

// PaymentSuccess handles GET /payment-success, the provider's browser
// redirect target after checkout.
func (h *PageHandlers) PaymentSuccess(c echo.Context) error {
	return c.HTML(http.StatusOK, paymentSuccessHTML)
}

// Renew handles GET /renew, linked from the renewal prompt keyboard.
func (h *PageHandlers) Renew(c echo.Context) error {
	return c.HTML(http.StatusOK, renewHTML)
}

// Banner handles GET /banner.png.
func (h *PageHandlers) Banner(c echo.Context) error {
	banner, err := h.bannerService.Fetch(c.Request().Context())
	if err != nil {
		log.Printf("WARN: banner fetch failed: %v", err)
		return echo.NewHTTPError(http.StatusNotFound, "Banner not available")
	}
	return c.Blob(http.StatusOK, "image/png", banner)
}

package v1

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/loopcart/loopcart/internal/config"
	"github.com/loopcart/loopcart/internal/service"
)

// CheckoutHandler receives the gateway's hosted-checkout callback.
type CheckoutHandler struct {
	service service.SubscriptionService
	cfg     *config.Configuration
}

// NewCheckoutHandler creates a new checkout callback handler.
func NewCheckoutHandler(service service.SubscriptionService, cfg *config.Configuration) *CheckoutHandler {
	return &CheckoutHandler{service: service, cfg: cfg}
}

// Callback handles POST /v1/checkout/callback. The gateway posts the checkout
// token here with the customer's browser in tow, so the response is always a
// redirect to the storefront result page, never an API error.
func (h *CheckoutHandler) Callback(c *gin.Context) {
	token := c.PostForm("token")
	if token == "" {
		token = c.Query("token")
	}
	subscriptionID := c.Query("subscription_id")

	redirect := h.service.HandleCheckoutCallback(c.Request.Context(), subscriptionID, token)
	c.Redirect(http.StatusFound, h.resultURL(redirect.Status, redirect.Message))
}

func (h *CheckoutHandler) resultURL(status, message string) string {
	base := h.cfg.Shopify.ResultPageURL
	if base == "" {
		base = "/"
	}
	q := url.Values{}
	q.Set("status", status)
	if message != "" {
		q.Set("message", message)
	}
	sep := "?"
	if u, err := url.Parse(base); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return base + sep + q.Encode()
}

package v1

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/integration/iyzico/webhook"
	"github.com/loopcart/loopcart/internal/logger"
)

// WebhookHandler receives gateway webhook notifications. It always answers
// 200: the gateway's redelivery machinery cannot fix a processing bug here,
// and idempotent ledger writes make redelivery harmless anyway.
type WebhookHandler struct {
	gateway iyzico.Client
	events  *webhook.Handler
	logger  *logger.Logger
}

// NewWebhookHandler creates a new gateway webhook handler.
func NewWebhookHandler(gateway iyzico.Client, events *webhook.Handler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, events: events, logger: log}
}

// HandleIyzico handles POST /v1/webhooks/iyzico.
func (h *WebhookHandler) HandleIyzico(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Errorw("failed to read webhook body", "error", err)
		c.JSON(http.StatusOK, webhook.Ack{Received: true, Skipped: true})
		return
	}

	if signature := c.GetHeader("X-Iyz-Signature-V3"); signature != "" {
		if err := h.gateway.VerifyWebhookSignature(body, signature); err != nil {
			h.logger.Warnw("webhook signature verification failed", "error", err)
			c.JSON(http.StatusOK, webhook.Ack{Received: true, Skipped: true})
			return
		}
	}

	var event webhook.Event
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warnw("unparseable webhook payload", "error", err)
		c.JSON(http.StatusOK, webhook.Ack{Received: true, Skipped: true})
		return
	}

	ack := h.events.HandleEvent(c.Request.Context(), &event)
	c.JSON(http.StatusOK, ack)
}

package webhook

import (
	"context"

	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/logger"
	"github.com/loopcart/loopcart/internal/service"
	"github.com/loopcart/loopcart/internal/types"
)

// Ack is the webhook acknowledgement body. The endpoint always acknowledges;
// Skipped marks events that were received but could not be attached to a
// subscription.
type Ack struct {
	Received bool `json:"received"`
	Skipped  bool `json:"skipped,omitempty"`
}

// Handler processes inbound gateway webhook events. It never returns an
// error: webhook processing failures are logged and acknowledged so the
// gateway does not retry forever against a bug on our side.
type Handler struct {
	resolver      *Resolver
	subscriptions service.SubscriptionService
	logger        *logger.Logger
}

// NewHandler creates a new webhook event handler.
func NewHandler(resolver *Resolver, subscriptions service.SubscriptionService, log *logger.Logger) *Handler {
	return &Handler{
		resolver:      resolver,
		subscriptions: subscriptions,
		logger:        log,
	}
}

// HandleEvent dispatches one gateway event.
func (h *Handler) HandleEvent(ctx context.Context, event *Event) (ack *Ack) {
	ack = &Ack{Received: true}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("panic while handling webhook event",
				"event_type", event.EventType,
				"panic", r)
		}
	}()

	h.logger.Infow("webhook event received",
		"event_type", event.EventType,
		"reference_code", event.ReferenceCode,
		"gateway_ref", event.GatewayRef())

	switch event.EventType {
	case EventCheckoutFormAuth, EventSubscriptionOrderSuccess,
		EventSubscriptionOrderFailure, EventSubscriptionCancel:
	default:
		h.logger.Infow("ignoring unhandled webhook event type",
			"event_type", event.EventType)
		return ack
	}

	sub, matchedBy, err := h.resolver.Resolve(ctx, event)
	if err != nil {
		h.logger.Errorw("webhook event resolution failed",
			"event_type", event.EventType,
			"error", err)
		return ack
	}
	if sub == nil {
		ack.Skipped = true
		h.logger.Warnw("webhook event does not match any subscription, skipping",
			"event_type", event.EventType,
			"reference_code", event.ReferenceCode,
			"conversation_id", event.ConversationID)
		return ack
	}

	var applyErr error
	switch event.EventType {
	case EventCheckoutFormAuth:
		// An auth notification can carry a failed attempt too; only a clean
		// payload activates the subscription.
		if event.IsFailure() {
			applyErr = h.subscriptions.ApplyCheckoutFailure(ctx, sub, checkoutOutcomeFromEvent(event))
		} else {
			applyErr = h.subscriptions.ApplyCheckoutSuccess(ctx, sub, checkoutOutcomeFromEvent(event))
		}

	case EventSubscriptionOrderSuccess:
		_, delivery := iyzico.SplitConversationID(firstNonEmpty(event.Payload.ConversationID, event.ConversationID))
		applyErr = h.subscriptions.ApplyRenewalSuccess(ctx, sub, attemptFromEvent(event, types.PaymentStatusSuccess), delivery)

	case EventSubscriptionOrderFailure:
		applyErr = h.subscriptions.ApplyRenewalFailure(ctx, sub, attemptFromEvent(event, types.PaymentStatusFailed))

	case EventSubscriptionCancel:
		applyErr = h.subscriptions.ApplyGatewayCancel(ctx, sub)
	}

	if applyErr != nil {
		h.logger.Errorw("webhook event processing failed",
			"event_type", event.EventType,
			"subscription_id", sub.ID,
			"matched_by", matchedBy,
			"error", applyErr)
		return ack
	}

	h.logger.Infow("webhook event processed",
		"event_type", event.EventType,
		"subscription_id", sub.ID,
		"matched_by", matchedBy)
	return ack
}

func attemptFromEvent(event *Event, status types.PaymentStatus) payment.Attempt {
	return payment.Attempt{
		Status:               status,
		Amount:               event.Payload.PaidPrice,
		Currency:             event.Payload.Currency,
		GatewayPaymentID:     event.GatewayPaymentID(),
		GatewayTransactionID: event.Payload.PaymentTransactionID,
		ErrorMessage:         event.Payload.ErrorMessage,
	}
}

func checkoutOutcomeFromEvent(event *Event) *service.CheckoutOutcome {
	_, delivery := iyzico.SplitConversationID(firstNonEmpty(event.Payload.ConversationID, event.ConversationID))
	return &service.CheckoutOutcome{
		PaidAmount:           event.Payload.PaidPrice,
		Currency:             event.Payload.Currency,
		GatewayPaymentID:     event.GatewayPaymentID(),
		GatewayTransactionID: event.Payload.PaymentTransactionID,
		GatewayRef:           event.GatewayRef(),
		ErrorMessage:         event.Payload.ErrorMessage,
		Delivery:             delivery,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package webhook

import (
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/shopspring/decimal"
)

// Gateway event types the handler acts on. Anything else is acknowledged and
// ignored.
const (
	EventCheckoutFormAuth         = "CHECKOUT_FORM_AUTH"
	EventSubscriptionOrderSuccess = "SUBSCRIPTION_ORDER_SUCCESS"
	EventSubscriptionOrderFailure = "SUBSCRIPTION_ORDER_FAILURE"
	EventSubscriptionCancel       = "SUBSCRIPTION_CANCEL"
)

// Event is an inbound gateway webhook notification. The gateway nests most
// fields under payload but top-level duplicates appear in older event shapes,
// so both are kept and scanned in order.
type Event struct {
	EventType                 string       `json:"iyziEventType"`
	EventTime                 int64        `json:"iyziEventTime"`
	ReferenceCode             string       `json:"iyziReferenceCode"`
	ConversationID            string       `json:"conversationId"`
	SubscriptionReferenceCode string       `json:"subscriptionReferenceCode"`
	PaymentID                 string       `json:"paymentId"`
	Payload                   EventPayload `json:"payload"`
}

// EventPayload is the nested event body.
type EventPayload struct {
	Status                    string          `json:"status"`
	ConversationID            string          `json:"conversationId"`
	ReferenceCode             string          `json:"referenceCode"`
	SubscriptionReferenceCode string          `json:"subscriptionReferenceCode"`
	PaymentID                 string          `json:"paymentId"`
	PaymentTransactionID      string          `json:"paymentTransactionId"`
	PaidPrice                 decimal.Decimal `json:"paidPrice"`
	Currency                  string          `json:"currency"`
	ErrorCode                 string          `json:"errorCode"`
	ErrorMessage              string          `json:"errorMessage"`
}

// IsFailure reports whether the event describes a failed attempt: an explicit
// failure status or any error field set.
func (e *Event) IsFailure() bool {
	return e.Payload.Status == iyzico.StatusFailure ||
		e.Payload.ErrorCode != "" ||
		e.Payload.ErrorMessage != ""
}

// GatewayRef returns the gateway subscription reference code carried by the
// event, preferring the nested payload.
func (e *Event) GatewayRef() string {
	if e.Payload.SubscriptionReferenceCode != "" {
		return e.Payload.SubscriptionReferenceCode
	}
	return e.SubscriptionReferenceCode
}

// CorrelationCandidates returns every field that might carry a local
// subscription id, in resolution order: nested payload fields first, then the
// top-level duplicates.
func (e *Event) CorrelationCandidates() []string {
	return []string{
		e.Payload.ConversationID,
		e.Payload.ReferenceCode,
		e.Payload.SubscriptionReferenceCode,
		e.ConversationID,
		e.ReferenceCode,
		e.SubscriptionReferenceCode,
	}
}

// GatewayPaymentID returns the payment id, preferring the nested payload.
func (e *Event) GatewayPaymentID() string {
	if e.Payload.PaymentID != "" {
		return e.Payload.PaymentID
	}
	return e.PaymentID
}

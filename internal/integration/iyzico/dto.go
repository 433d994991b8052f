package iyzico

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Gateway response statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Documented gateway error codes that mean a cancel request hit a
// subscription the gateway already considers cancelled. Treated as success
// locally so cancellation stays idempotent.
const (
	ErrCodeSubscriptionAlreadyCancelled = "200702"
)

// APIError is a structured gateway failure carrying the gateway's error code
// and message. Callers inspect it with errors.As to branch on specific codes.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("iyzico error %s: %s", e.Code, e.Message)
}

// CheckoutResult is the final outcome of a checkout form, retrieved
// synchronously with the callback token.
type CheckoutResult struct {
	Status                    string          `json:"status"`
	ConversationID            string          `json:"conversationId"`
	PaymentID                 string          `json:"paymentId"`
	PaymentTransactionID      string          `json:"paymentTransactionId"`
	SubscriptionReferenceCode string          `json:"subscriptionReferenceCode"`
	CardUserKey               string          `json:"cardUserKey"`
	CardToken                 string          `json:"cardToken"`
	PaidPrice                 decimal.Decimal `json:"paidPrice"`
	Currency                  string          `json:"currency"`
	ErrorCode                 string          `json:"errorCode"`
	ErrorMessage              string          `json:"errorMessage"`
}

// IsSuccess reports whether the checkout completed with a captured payment.
func (r *CheckoutResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

type retrieveCheckoutRequest struct {
	Token          string `json:"token"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ChargeSavedCardRequest charges a stored card token; used by the renewal
// sweep for subscriptions not owned by the gateway's native recurring flow.
type ChargeSavedCardRequest struct {
	ConversationID string          `json:"conversationId"`
	CardUserKey    string          `json:"cardUserKey"`
	CardToken      string          `json:"cardToken"`
	Price          decimal.Decimal `json:"price"`
	PaidPrice      decimal.Decimal `json:"paidPrice"`
	Currency       string          `json:"currency"`
	Description    string          `json:"description,omitempty"`
}

// ChargeResult is the outcome of a saved-card charge.
type ChargeResult struct {
	Status               string          `json:"status"`
	PaymentID            string          `json:"paymentId"`
	PaymentTransactionID string          `json:"paymentTransactionId"`
	PaidPrice            decimal.Decimal `json:"paidPrice"`
	Currency             string          `json:"currency"`
	ErrorCode            string          `json:"errorCode"`
	ErrorMessage         string          `json:"errorMessage"`
}

// IsSuccess reports whether the charge was captured.
func (r *ChargeResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

type cancelSubscriptionRequest struct {
	SubscriptionReferenceCode string `json:"subscriptionReferenceCode"`
}

type gatewayEnvelope struct {
	Status       string `json:"status"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

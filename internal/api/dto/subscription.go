package dto

import (
	"time"

	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/plan"
	"github.com/loopcart/loopcart/internal/domain/subscription"
)

// CreateSubscriptionRequest starts a new subscription in its pending state.
// Payment details never pass through this API; the customer completes them on
// the gateway's hosted checkout form.
type CreateSubscriptionRequest struct {
	PlanID        string `json:"plan_id" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	CustomerName  string `json:"customer_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`

	// Optional delivery details to carry through the gateway round-trip.
	DeliveryDate string `json:"delivery_date"`
	DeliveryNote string `json:"delivery_note"`
	Source       string `json:"source"`
}

// CancelSubscriptionRequest cancels a subscription. Email, when present, must
// match the subscription's customer.
type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id" binding:"required"`
	Email          string `json:"email"`
}

// UpdateFrequencyRequest changes the billing cadence of a locally billed
// subscription. Frequency uses the compact "<count>_<unit>" form, for example
// "2_week" or "1_month".
type UpdateFrequencyRequest struct {
	SubscriptionID string `json:"subscription_id" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Frequency      string `json:"frequency" binding:"required"`
}

// UpdateFrequencyResponse confirms the new cadence.
type UpdateFrequencyResponse struct {
	Success         bool       `json:"success"`
	NewFrequency    string     `json:"new_frequency"`
	NextPaymentDate *time.Time `json:"next_payment_date,omitempty"`
}

// PaymentSummary is one grouped ledger entry in a subscription's history.
type PaymentSummary struct {
	ID           string     `json:"id"`
	Amount       string     `json:"amount"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	OrderName    *string    `json:"order_name,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SubscriptionResponse is the API view of a subscription with its plan and
// recent payment history. ConversationID is only set on creation; the
// storefront passes it to the gateway when initializing the hosted checkout
// so delivery details survive the round-trip.
type SubscriptionResponse struct {
	*subscription.Subscription
	Plan           *PlanResponse    `json:"plan,omitempty"`
	Payments       []PaymentSummary `json:"payments,omitempty"`
	ConversationID string           `json:"conversation_id,omitempty"`
}

// NewSubscriptionResponse wraps a domain subscription for the API.
func NewSubscriptionResponse(sub *subscription.Subscription, pl *plan.Plan, payments []*payment.Payment) *SubscriptionResponse {
	resp := &SubscriptionResponse{Subscription: sub}
	if pl != nil {
		resp.Plan = NewPlanResponse(pl)
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, PaymentSummary{
			ID:           p.ID,
			Amount:       p.Amount.String(),
			Currency:     p.Currency,
			Status:       string(p.Status),
			OrderName:    p.OrderName,
			ErrorMessage: p.ErrorMessage,
			CreatedAt:    p.CreatedAt,
		})
	}
	return resp
}

// CheckoutRedirect tells the callback handler where to send the customer's
// browser after the gateway posts the checkout result.
type CheckoutRedirect struct {
	Status  string
	Message string
}

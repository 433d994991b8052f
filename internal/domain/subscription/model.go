package subscription

import (
	"strings"
	"time"

	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
)

// Subscription is a customer's recurring commitment to a plan.
type Subscription struct {
	ID string `json:"id" gorm:"primaryKey;type:varchar(50)"`

	// Customer contact fields. Email is the case-insensitive identity key and
	// is stored lowercased.
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	IP            string `json:"ip"`

	PlanID string                   `json:"plan_id"`
	Status types.SubscriptionStatus `json:"status"`

	// GatewayRef is the gateway-issued subscription reference code. Nil until
	// the first successful checkout; stable once set, and the primary key for
	// correlating inbound gateway events.
	GatewayRef *string `json:"gateway_ref,omitempty"`

	// Saved payment-method tokens for the legacy charge-saved-card renewal
	// flow. Gateway-native subscriptions are charged by the gateway itself.
	CardUserKey *string `json:"-"`
	CardToken   *string `json:"-"`

	StartDate          *time.Time `json:"start_date,omitempty"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	NextPaymentDate    *time.Time `json:"next_payment_date,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	// LastOrderID points at the most recent storefront order created for this
	// subscription.
	LastOrderID *string `json:"last_order_id,omitempty"`

	// Version is the optimistic concurrency token; every update must carry the
	// version it read and bumps it by one.
	Version int `json:"version"`

	types.BaseModel
}

// TableName implements the gorm naming interface.
func (Subscription) TableName() string {
	return string(types.TableNameSubscriptions)
}

// Validate validates the subscription.
func (s *Subscription) Validate() error {
	if s.CustomerEmail == "" {
		return ierr.NewError("customer email is required").
			WithHint("Customer email is required").
			Mark(ierr.ErrValidation)
	}
	if s.PlanID == "" {
		return ierr.NewError("plan id is required").
			WithHint("Subscription must reference a plan").
			Mark(ierr.ErrValidation)
	}
	return s.Status.Validate()
}

// NormalizeEmail lowercases the customer email identity key.
func (s *Subscription) NormalizeEmail() {
	s.CustomerEmail = strings.ToLower(strings.TrimSpace(s.CustomerEmail))
}

// IsGatewayNative reports whether the gateway owns this subscription's
// cadence via its native subscription mechanism. Frequency changes are not
// allowed for these; customers must start a new subscription instead.
func (s *Subscription) IsGatewayNative() bool {
	return s.GatewayRef != nil && *s.GatewayRef != ""
}

// HasSavedCard reports whether the legacy saved-card renewal flow can charge
// this subscription.
func (s *Subscription) HasSavedCard() bool {
	return s.CardUserKey != nil && *s.CardUserKey != "" &&
		s.CardToken != nil && *s.CardToken != ""
}

// TransitionTo moves the subscription to the target status after checking the
// transition guard.
func (s *Subscription) TransitionTo(target types.SubscriptionStatus) error {
	if !s.Status.CanTransition(target) {
		return ierr.NewErrorf("illegal status transition %s -> %s", s.Status, target).
			WithHint("Subscription state does not allow this operation").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": s.ID,
				"from":            s.Status,
				"to":              target,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	s.Status = target
	return nil
}

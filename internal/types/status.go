package types

import (
	ierr "github.com/loopcart/loopcart/internal/errors"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending       SubscriptionStatus = "PENDING"
	SubscriptionStatusActive        SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPaymentFailed SubscriptionStatus = "PAYMENT_FAILED"
	SubscriptionStatusCancelled     SubscriptionStatus = "CANCELLED"
	SubscriptionStatusExpired       SubscriptionStatus = "EXPIRED"
)

// subscriptionTransitions lists the allowed target states per current state.
// CANCELLED and EXPIRED are terminal: no reactivation path exists.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusPending: {
		SubscriptionStatusActive,
		SubscriptionStatusPaymentFailed,
		SubscriptionStatusCancelled,
		SubscriptionStatusExpired,
	},
	SubscriptionStatusActive: {
		SubscriptionStatusActive, // renewal
		SubscriptionStatusPaymentFailed,
		SubscriptionStatusCancelled,
		SubscriptionStatusExpired,
	},
	SubscriptionStatusPaymentFailed: {
		SubscriptionStatusActive, // recovery on a later successful renewal
		SubscriptionStatusPaymentFailed,
		SubscriptionStatusCancelled,
		SubscriptionStatusExpired,
	},
	SubscriptionStatusCancelled: {},
	SubscriptionStatusExpired:   {},
}

// CanTransition reports whether moving from s to target is a legal transition.
func (s SubscriptionStatus) CanTransition(target SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s SubscriptionStatus) IsTerminal() bool {
	return len(subscriptionTransitions[s]) == 0
}

func (s SubscriptionStatus) Validate() error {
	switch s {
	case SubscriptionStatusPending, SubscriptionStatusActive,
		SubscriptionStatusPaymentFailed, SubscriptionStatusCancelled,
		SubscriptionStatusExpired:
		return nil
	}
	return ierr.NewErrorf("invalid subscription status: %s", s).
		Mark(ierr.ErrValidation)
}

// PaymentStatus is the outcome of a single charge attempt.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) Validate() error {
	switch s {
	case PaymentStatusSuccess, PaymentStatusFailed:
		return nil
	}
	return ierr.NewErrorf("invalid payment status: %s", s).
		Mark(ierr.ErrValidation)
}

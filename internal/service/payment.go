package service

import (
	"context"
	"time"

	"github.com/loopcart/loopcart/internal/domain/payment"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
)

// LedgerOutcome describes what a RecordAttempt call did.
type LedgerOutcome string

const (
	// LedgerInserted means a new payment row was written.
	LedgerInserted LedgerOutcome = "inserted"
	// LedgerUpgraded means an existing FAILED row for the same charge was
	// promoted to SUCCESS.
	LedgerUpgraded LedgerOutcome = "upgraded"
	// LedgerDuplicate means the notification repeated an already-successful
	// charge; no state beyond the ledger row itself should change.
	LedgerDuplicate LedgerOutcome = "duplicate"
)

// PaymentService is the idempotent payment ledger writer plus the read-side
// grouping used for history listings.
type PaymentService interface {
	// RecordAttempt records a charge attempt against a subscription,
	// de-duplicating repeated gateway notifications for the same charge.
	RecordAttempt(ctx context.Context, subscriptionID string, attempt payment.Attempt) (*payment.Payment, LedgerOutcome, error)

	// ListGrouped returns the display view of a subscription's payment
	// history: one representative row per charge, newest first, at most limit.
	ListGrouped(ctx context.Context, subscriptionID string, limit int) ([]*payment.Payment, error)
}

type paymentService struct {
	ServiceParams
}

// NewPaymentService creates a new payment service.
func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{ServiceParams: params}
}

// RecordAttempt de-duplicates by gateway payment id first, transaction id
// second. A SUCCESS notification matching an existing row updates that row in
// place (clearing any earlier failure, merging the transaction id) instead of
// inserting a duplicate; everything else inserts. This covers gateways that
// send a FAILURE-then-SUCCESS pair for one logical charge, and plain retries.
func (s *paymentService) RecordAttempt(ctx context.Context, subscriptionID string, attempt payment.Attempt) (*payment.Payment, LedgerOutcome, error) {
	if err := attempt.Status.Validate(); err != nil {
		return nil, "", err
	}
	if subscriptionID == "" {
		return nil, "", ierr.NewError("subscription id is required").
			Mark(ierr.ErrValidation)
	}

	existing, err := s.PaymentRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, "", err
	}

	if match := findByGatewayIdentity(existing, attempt); match != nil && attempt.Status == types.PaymentStatusSuccess {
		wasFailed := match.Status == types.PaymentStatusFailed

		match.Status = types.PaymentStatusSuccess
		match.ErrorMessage = nil
		if attempt.GatewayTransactionID != "" {
			tid := attempt.GatewayTransactionID
			match.IyzicoPaymentTransactionID = &tid
		}
		if match.Amount.IsZero() && attempt.Amount.IsPositive() {
			match.Amount = attempt.Amount
		}

		if err := s.PaymentRepo.Update(ctx, match); err != nil {
			return nil, "", err
		}

		outcome := LedgerDuplicate
		if wasFailed {
			outcome = LedgerUpgraded
		}
		s.Logger.Infow("reconciled repeated payment notification",
			"subscription_id", subscriptionID,
			"payment_id", match.ID,
			"gateway_payment_id", attempt.GatewayPaymentID,
			"outcome", outcome)
		return match, outcome, nil
	}

	now := time.Now().UTC()
	row := &payment.Payment{
		ID:             types.GenerateUUID(),
		SubscriptionID: subscriptionID,
		Amount:         attempt.Amount,
		Currency:       attempt.Currency,
		Status:         attempt.Status,
		BaseModel:      types.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if attempt.GatewayPaymentID != "" {
		pid := attempt.GatewayPaymentID
		row.IyzicoPaymentID = &pid
	}
	if attempt.GatewayTransactionID != "" {
		tid := attempt.GatewayTransactionID
		row.IyzicoPaymentTransactionID = &tid
	}
	if attempt.ErrorMessage != "" {
		msg := attempt.ErrorMessage
		row.ErrorMessage = &msg
	}

	if err := s.PaymentRepo.Create(ctx, row); err != nil {
		return nil, "", err
	}

	s.Logger.Infow("recorded payment attempt",
		"subscription_id", subscriptionID,
		"payment_id", row.ID,
		"status", row.Status,
		"gateway_payment_id", attempt.GatewayPaymentID)
	return row, LedgerInserted, nil
}

func (s *paymentService) ListGrouped(ctx context.Context, subscriptionID string, limit int) ([]*payment.Payment, error) {
	rows, err := s.PaymentRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return payment.GroupLatest(rows, limit), nil
}

// findByGatewayIdentity matches an incoming attempt to an existing row by the
// gateway payment id, falling back to the transaction id when the attempt has
// no payment id. Attempts with neither can never match: those always insert.
func findByGatewayIdentity(rows []*payment.Payment, attempt payment.Attempt) *payment.Payment {
	if attempt.GatewayPaymentID != "" {
		for _, r := range rows {
			if r.IyzicoPaymentID != nil && *r.IyzicoPaymentID == attempt.GatewayPaymentID {
				return r
			}
		}
		return nil
	}
	if attempt.GatewayTransactionID != "" {
		for _, r := range rows {
			if r.IyzicoPaymentTransactionID != nil && *r.IyzicoPaymentTransactionID == attempt.GatewayTransactionID {
				return r
			}
		}
	}
	return nil
}

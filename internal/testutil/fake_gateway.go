package testutil

import (
	"context"

	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
)

// FakeGateway implements iyzico.Client with overridable behavior per call.
// Unset functions return benign defaults.
type FakeGateway struct {
	RetrieveCheckoutResultFn func(ctx context.Context, token, conversationID string) (*iyzico.CheckoutResult, error)
	ChargeWithSavedCardFn    func(ctx context.Context, req *iyzico.ChargeSavedCardRequest) (*iyzico.ChargeResult, error)
	CancelSubscriptionFn     func(ctx context.Context, subscriptionRef string) error

	// Call counters for assertions.
	ChargeCalls []*iyzico.ChargeSavedCardRequest
	CancelCalls []string
}

// NewFakeGateway creates a fake gateway whose calls succeed by default.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) RetrieveCheckoutResult(ctx context.Context, token, conversationID string) (*iyzico.CheckoutResult, error) {
	if f.RetrieveCheckoutResultFn != nil {
		return f.RetrieveCheckoutResultFn(ctx, token, conversationID)
	}
	return &iyzico.CheckoutResult{Status: iyzico.StatusSuccess}, nil
}

func (f *FakeGateway) ChargeWithSavedCard(ctx context.Context, req *iyzico.ChargeSavedCardRequest) (*iyzico.ChargeResult, error) {
	f.ChargeCalls = append(f.ChargeCalls, req)
	if f.ChargeWithSavedCardFn != nil {
		return f.ChargeWithSavedCardFn(ctx, req)
	}
	return &iyzico.ChargeResult{
		Status:    iyzico.StatusSuccess,
		PaidPrice: req.PaidPrice,
		Currency:  req.Currency,
	}, nil
}

func (f *FakeGateway) CancelSubscription(ctx context.Context, subscriptionRef string) error {
	f.CancelCalls = append(f.CancelCalls, subscriptionRef)
	if f.CancelSubscriptionFn != nil {
		return f.CancelSubscriptionFn(ctx, subscriptionRef)
	}
	return nil
}

func (f *FakeGateway) VerifyWebhookSignature(payload []byte, signature string) error {
	return nil
}

// GatewayError builds the wrapped APIError shape the real client returns for
// non-success gateway envelopes.
func GatewayError(code, message string) error {
	return ierr.WithError(&iyzico.APIError{Code: code, Message: message}).
		WithHint("Gateway refused the request").
		Mark(ierr.ErrGateway)
}

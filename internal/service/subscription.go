package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/loopcart/loopcart/internal/api/dto"
	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CheckoutOutcome is the normalized result of a checkout, whether it arrived
// via the synchronous callback or a gateway webhook.
type CheckoutOutcome struct {
	PaidAmount           decimal.Decimal
	Currency             string
	GatewayPaymentID     string
	GatewayTransactionID string
	GatewayRef           string
	CardUserKey          string
	CardToken            string
	ErrorMessage         string
	Delivery             iyzico.DeliveryMetadata
}

// SubscriptionService owns the subscription lifecycle: creation, checkout and
// renewal reconciliation, cancellation and frequency changes.
type SubscriptionService interface {
	Create(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	Get(ctx context.Context, id string) (*dto.SubscriptionResponse, error)

	// HandleCheckoutCallback reconciles a hosted-checkout result delivered to
	// the browser-facing callback. It never fails the caller; the return value
	// only steers the redirect.
	HandleCheckoutCallback(ctx context.Context, subscriptionID, token string) *dto.CheckoutRedirect

	// ApplyCheckoutSuccess commits a successful initial checkout: ledger write
	// first, then activation, token capture and period dates, then the
	// best-effort storefront order.
	ApplyCheckoutSuccess(ctx context.Context, sub *subscription.Subscription, outcome *CheckoutOutcome) error

	// ApplyCheckoutFailure records the failed attempt and parks the
	// subscription in PAYMENT_FAILED.
	ApplyCheckoutFailure(ctx context.Context, sub *subscription.Subscription, outcome *CheckoutOutcome) error

	// ApplyRenewalSuccess commits a successful renewal charge. A duplicate
	// notification for an already-recorded charge leaves dates untouched.
	ApplyRenewalSuccess(ctx context.Context, sub *subscription.Subscription, attempt payment.Attempt, delivery iyzico.DeliveryMetadata) error

	// ApplyRenewalFailure records the failed charge and parks the subscription
	// in PAYMENT_FAILED. A later successful charge recovers it to ACTIVE.
	ApplyRenewalFailure(ctx context.Context, sub *subscription.Subscription, attempt payment.Attempt) error

	// ApplyGatewayCancel handles a gateway-initiated cancellation event.
	ApplyGatewayCancel(ctx context.Context, sub *subscription.Subscription) error

	// Cancel cancels a subscription on behalf of the customer, gateway first
	// for gateway-native subscriptions, idempotently.
	Cancel(ctx context.Context, req *dto.CancelSubscriptionRequest) error

	// UpdateFrequency changes the billing cadence of a locally billed ACTIVE
	// subscription.
	UpdateFrequency(ctx context.Context, req *dto.UpdateFrequencyRequest) (*dto.UpdateFrequencyResponse, error)
}

type subscriptionService struct {
	ServiceParams
	payments PaymentService
	orders   OrderService
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		payments:      NewPaymentService(params),
		orders:        NewOrderService(params),
	}
}

func (s *subscriptionService) Create(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	pl, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !pl.Active {
		return nil, ierr.NewError("plan is not active").
			WithHint("This plan is no longer available").
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:            types.GenerateUUID(),
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		PlanID:        pl.ID,
		Status:        types.SubscriptionStatusPending,
		Version:       1,
		BaseModel:     types.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	sub.NormalizeEmail()
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"plan_id", pl.ID,
		"status", sub.Status)

	resp := dto.NewSubscriptionResponse(sub, pl, nil)
	resp.ConversationID = iyzico.BuildConversationID(sub.ID, &iyzico.DeliveryMetadata{
		DeliveryDate: req.DeliveryDate,
		DeliveryNote: req.DeliveryNote,
		Source:       req.Source,
	})
	return resp, nil
}

func (s *subscriptionService) Get(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pl, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		s.Logger.Warnw("subscription references a missing plan",
			"subscription_id", sub.ID,
			"plan_id", sub.PlanID)
		pl = nil
	}

	// Opportunistic repair of missed order side effects on the read path.
	if pl != nil {
		s.orders.BackfillOrders(ctx, sub, pl)
	}

	history, err := s.payments.ListGrouped(ctx, sub.ID, 10)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub, pl, history), nil
}

func (s *subscriptionService) HandleCheckoutCallback(ctx context.Context, subscriptionID, token string) *dto.CheckoutRedirect {
	result, err := s.Gateway.RetrieveCheckoutResult(ctx, token, "")
	if err != nil {
		s.Logger.Errorw("checkout result retrieval failed", "error", err)
		return &dto.CheckoutRedirect{Status: "failure", Message: "Unable to verify payment result"}
	}

	conversationRef, delivery := iyzico.SplitConversationID(result.ConversationID)
	if subscriptionID == "" {
		subscriptionID = conversationRef
	}

	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		s.Logger.Errorw("checkout callback for unknown subscription",
			"subscription_id", subscriptionID,
			"conversation_id", result.ConversationID,
			"error", err)
		return &dto.CheckoutRedirect{Status: "failure", Message: "Subscription not found"}
	}

	outcome := &CheckoutOutcome{
		PaidAmount:           result.PaidPrice,
		Currency:             result.Currency,
		GatewayPaymentID:     result.PaymentID,
		GatewayTransactionID: result.PaymentTransactionID,
		GatewayRef:           result.SubscriptionReferenceCode,
		CardUserKey:          result.CardUserKey,
		CardToken:            result.CardToken,
		ErrorMessage:         result.ErrorMessage,
		Delivery:             delivery,
	}

	if result.IsSuccess() {
		if err := s.ApplyCheckoutSuccess(ctx, sub, outcome); err != nil {
			s.Logger.Errorw("failed to commit checkout success",
				"subscription_id", sub.ID,
				"error", err)
			return &dto.CheckoutRedirect{Status: "failure", Message: "Payment received but could not be processed"}
		}
		return &dto.CheckoutRedirect{Status: "success", Message: "Payment received"}
	}

	if err := s.ApplyCheckoutFailure(ctx, sub, outcome); err != nil {
		s.Logger.Errorw("failed to record checkout failure",
			"subscription_id", sub.ID,
			"error", err)
	}
	msg := result.ErrorMessage
	if msg == "" {
		msg = "Payment failed"
	}
	return &dto.CheckoutRedirect{Status: "failure", Message: msg}
}

func (s *subscriptionService) ApplyCheckoutSuccess(ctx context.Context, sub *subscription.Subscription, outcome *CheckoutOutcome) error {
	pl, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return err
	}

	amount := outcome.PaidAmount
	if amount.IsZero() {
		amount = pl.Price
	}
	currency := outcome.Currency
	if currency == "" {
		currency = pl.Currency
	}

	// Ledger first. The payment row must exist before the status commit so a
	// crash in between leaves an auditable record rather than an activated
	// subscription with no payment.
	pmt, ledger, err := s.payments.RecordAttempt(ctx, sub.ID, payment.Attempt{
		Status:               types.PaymentStatusSuccess,
		Amount:               amount,
		Currency:             currency,
		GatewayPaymentID:     outcome.GatewayPaymentID,
		GatewayTransactionID: outcome.GatewayTransactionID,
	})
	if err != nil {
		return err
	}
	if ledger == LedgerDuplicate {
		s.Logger.Infow("duplicate checkout notification, state unchanged",
			"subscription_id", sub.ID,
			"gateway_payment_id", outcome.GatewayPaymentID)
		return nil
	}

	if err := sub.TransitionTo(types.SubscriptionStatusActive); err != nil {
		return err
	}

	if outcome.GatewayRef != "" && !sub.IsGatewayNative() {
		ref := outcome.GatewayRef
		sub.GatewayRef = &ref
	}
	if outcome.CardUserKey != "" {
		key := outcome.CardUserKey
		sub.CardUserKey = &key
	}
	if outcome.CardToken != "" {
		tok := outcome.CardToken
		sub.CardToken = &tok
	}

	now := time.Now().UTC()
	if sub.StartDate == nil {
		sub.StartDate = &now
	}
	next := types.NextBillingDate(now, pl.Interval, pl.IntervalCount)
	sub.CurrentPeriodStart = &now
	sub.CurrentPeriodEnd = &next
	sub.NextPaymentDate = &next

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.Logger.Infow("subscription activated",
		"subscription_id", sub.ID,
		"next_payment_date", next,
		"ledger_outcome", ledger)

	s.orders.CreateSubscriptionOrder(ctx, sub, pl, pmt, outcome.Delivery, false)
	return nil
}

func (s *subscriptionService) ApplyCheckoutFailure(ctx context.Context, sub *subscription.Subscription, outcome *CheckoutOutcome) error {
	_, _, err := s.payments.RecordAttempt(ctx, sub.ID, payment.Attempt{
		Status:               types.PaymentStatusFailed,
		Amount:               outcome.PaidAmount,
		Currency:             outcome.Currency,
		GatewayPaymentID:     outcome.GatewayPaymentID,
		GatewayTransactionID: outcome.GatewayTransactionID,
		ErrorMessage:         outcome.ErrorMessage,
	})
	if err != nil {
		return err
	}

	if err := sub.TransitionTo(types.SubscriptionStatusPaymentFailed); err != nil {
		return err
	}
	return s.SubRepo.Update(ctx, sub)
}

func (s *subscriptionService) ApplyRenewalSuccess(ctx context.Context, sub *subscription.Subscription, attempt payment.Attempt, delivery iyzico.DeliveryMetadata) error {
	pl, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return err
	}

	attempt.Status = types.PaymentStatusSuccess
	if attempt.Amount.IsZero() {
		attempt.Amount = pl.Price
	}
	if attempt.Currency == "" {
		attempt.Currency = pl.Currency
	}

	pmt, ledger, err := s.payments.RecordAttempt(ctx, sub.ID, attempt)
	if err != nil {
		return err
	}
	if ledger == LedgerDuplicate {
		s.Logger.Infow("duplicate renewal notification, dates unchanged",
			"subscription_id", sub.ID,
			"gateway_payment_id", attempt.GatewayPaymentID)
		return nil
	}

	// A success after failures recovers the subscription.
	if err := sub.TransitionTo(types.SubscriptionStatusActive); err != nil {
		return err
	}

	now := time.Now().UTC()
	next := types.NextBillingDate(now, pl.Interval, pl.IntervalCount)
	sub.CurrentPeriodStart = &now
	sub.CurrentPeriodEnd = &next
	sub.NextPaymentDate = &next

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.Logger.Infow("subscription renewed",
		"subscription_id", sub.ID,
		"next_payment_date", next,
		"ledger_outcome", ledger)

	s.orders.CreateSubscriptionOrder(ctx, sub, pl, pmt, delivery, true)
	return nil
}

func (s *subscriptionService) ApplyRenewalFailure(ctx context.Context, sub *subscription.Subscription, attempt payment.Attempt) error {
	attempt.Status = types.PaymentStatusFailed
	if _, _, err := s.payments.RecordAttempt(ctx, sub.ID, attempt); err != nil {
		return err
	}

	if sub.Status != types.SubscriptionStatusPaymentFailed {
		if err := sub.TransitionTo(types.SubscriptionStatusPaymentFailed); err != nil {
			return err
		}
	}
	return s.SubRepo.Update(ctx, sub)
}

func (s *subscriptionService) ApplyGatewayCancel(ctx context.Context, sub *subscription.Subscription) error {
	if sub.Status == types.SubscriptionStatusCancelled {
		return nil
	}
	if err := sub.TransitionTo(types.SubscriptionStatusCancelled); err != nil {
		return err
	}
	now := time.Now().UTC()
	sub.CancelledAt = &now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}
	s.Logger.Infow("subscription cancelled by gateway", "subscription_id", sub.ID)
	return nil
}

func (s *subscriptionService) Cancel(ctx context.Context, req *dto.CancelSubscriptionRequest) error {
	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return err
	}

	if req.Email != "" && !strings.EqualFold(strings.TrimSpace(req.Email), sub.CustomerEmail) {
		// Masked as not-found so the endpoint does not confirm which
		// subscription ids exist for other customers.
		return ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}

	if sub.Status == types.SubscriptionStatusCancelled {
		return nil
	}

	if sub.IsGatewayNative() {
		if err := s.Gateway.CancelSubscription(ctx, *sub.GatewayRef); err != nil {
			if !isAlreadyCancelled(err) {
				return err
			}
			s.Logger.Infow("gateway already considered the subscription cancelled",
				"subscription_id", sub.ID)
		}
	}

	if err := sub.TransitionTo(types.SubscriptionStatusCancelled); err != nil {
		return err
	}
	now := time.Now().UTC()
	sub.CancelledAt = &now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.Logger.Infow("subscription cancelled", "subscription_id", sub.ID)
	return nil
}

func (s *subscriptionService) UpdateFrequency(ctx context.Context, req *dto.UpdateFrequencyRequest) (*dto.UpdateFrequencyResponse, error) {
	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(req.Email), sub.CustomerEmail) {
		return nil, ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}

	if sub.Status != types.SubscriptionStatusActive {
		return nil, ierr.NewError("subscription is not active").
			WithHint("Billing frequency can only be changed on an active subscription").
			Mark(ierr.ErrInvalidOperation)
	}
	if sub.IsGatewayNative() {
		return nil, ierr.NewError("subscription billing is managed by the payment gateway").
			WithHint("Start a new subscription to change billing frequency").
			Mark(ierr.ErrInvalidOperation)
	}

	interval, count, err := types.ParseFrequencyToken(req.Frequency)
	if err != nil {
		return nil, err
	}

	pl, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	pl.Interval = interval
	pl.IntervalCount = count
	if err := s.PlanRepo.Update(ctx, pl); err != nil {
		return nil, err
	}

	// The new cadence takes effect immediately, measured from now rather than
	// from the old anchor, matching what the customer was told on the form.
	now := time.Now().UTC()
	next := types.NextBillingDate(now, interval, count)
	sub.NextPaymentDate = &next
	sub.CurrentPeriodEnd = &next
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("updated billing frequency",
		"subscription_id", sub.ID,
		"frequency", req.Frequency,
		"next_payment_date", next)

	return &dto.UpdateFrequencyResponse{
		Success:         true,
		NewFrequency:    req.Frequency,
		NextPaymentDate: &next,
	}, nil
}

// isAlreadyCancelled reports whether a gateway cancel failure actually means
// the subscription is already cancelled there. The documented error code is
// checked first; legacy gateway responses carry no stable code, so a
// normalized message match is the fallback.
func isAlreadyCancelled(err error) bool {
	var apiErr *iyzico.APIError
	if !ierr.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == iyzico.ErrCodeSubscriptionAlreadyCancelled {
		return true
	}
	msg := foldForMatch(apiErr.Message)
	return strings.Contains(msg, "already") && strings.Contains(msg, "cancel")
}

// foldForMatch lowercases and strips combining marks so Turkish-localized
// gateway messages compare against ASCII keywords.
func foldForMatch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

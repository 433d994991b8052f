package service

import (
	"context"
	"strconv"

	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/plan"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/integration/shopify"
)

const (
	orderTagBase    = "loopcart-subscription"
	orderTagInitial = "subscription-initial"
	orderTagRenewal = "subscription-renewal"
)

// OrderService creates storefront fulfillment orders as a side effect of
// successful payments. Order creation is strictly best-effort: a storefront
// failure never rolls back or blocks a payment or a status transition.
type OrderService interface {
	// CreateSubscriptionOrder creates a paid order for one successful payment
	// and back-links it onto the payment and subscription. Returns the
	// storefront order id, or nil when no order was created.
	CreateSubscriptionOrder(ctx context.Context, sub *subscription.Subscription, pl *plan.Plan, pmt *payment.Payment, delivery iyzico.DeliveryMetadata, renewal bool) *string

	// BackfillOrders retries order creation for successful payments that have
	// no storefront order yet. Returns how many were attempted and how many
	// still failed.
	BackfillOrders(ctx context.Context, sub *subscription.Subscription, pl *plan.Plan) (attempted int, failed int)
}

type orderService struct {
	ServiceParams
}

// NewOrderService creates a new order side-effect coordinator.
func NewOrderService(params ServiceParams) OrderService {
	return &orderService{ServiceParams: params}
}

func (s *orderService) CreateSubscriptionOrder(ctx context.Context, sub *subscription.Subscription, pl *plan.Plan, pmt *payment.Payment, delivery iyzico.DeliveryMetadata, renewal bool) *string {
	if pl == nil || !pl.HasVariant() {
		s.Logger.Debugw("plan has no storefront variant, skipping order creation",
			"subscription_id", sub.ID)
		return nil
	}

	variantID, err := strconv.ParseInt(*pl.ShopifyVariantID, 10, 64)
	if err != nil {
		s.Logger.Errorw("plan carries a non-numeric storefront variant id",
			"plan_id", pl.ID,
			"variant_id", *pl.ShopifyVariantID)
		return nil
	}

	tag := orderTagInitial
	if renewal {
		tag = orderTagRenewal
	}

	attrs := []shopify.NoteAttribute{
		{Name: "subscription_id", Value: sub.ID},
		{Name: "payment_id", Value: pmt.ID},
	}
	if delivery.DeliveryDate != "" {
		attrs = append(attrs, shopify.NoteAttribute{Name: "delivery_date", Value: delivery.DeliveryDate})
	}
	if delivery.DeliveryNote != "" {
		attrs = append(attrs, shopify.NoteAttribute{Name: "delivery_note", Value: delivery.DeliveryNote})
	}
	if delivery.Source != "" {
		attrs = append(attrs, shopify.NoteAttribute{Name: "source", Value: delivery.Source})
	}

	req := &shopify.CreateOrderRequest{
		Order: shopify.OrderInput{
			Email:           sub.CustomerEmail,
			LineItems:       []shopify.LineItem{{VariantID: variantID, Quantity: 1}},
			FinancialStatus: "paid",
			Tags:            orderTagBase + "," + tag,
			NoteAttributes:  attrs,
			SendReceipt:     false,
		},
	}
	if sub.Address != "" {
		req.Order.ShippingAddress = &shopify.Address{
			Name:     sub.CustomerName,
			Address1: sub.Address,
			City:     sub.City,
			Phone:    sub.Phone,
		}
	}

	order, err := s.Storefront.CreateOrder(ctx, req)
	if err != nil {
		s.Logger.Errorw("storefront order creation failed, payment and subscription state are unaffected",
			"subscription_id", sub.ID,
			"payment_id", pmt.ID,
			"error", err)
		return nil
	}

	orderID := strconv.FormatInt(order.ID, 10)
	pmt.OrderID = &orderID
	pmt.OrderName = &order.Name
	if err := s.PaymentRepo.Update(ctx, pmt); err != nil {
		s.Logger.Errorw("failed to back-link order onto payment",
			"payment_id", pmt.ID,
			"order_id", orderID,
			"error", err)
	}

	sub.LastOrderID = &orderID
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		s.Logger.Errorw("failed to back-link order onto subscription",
			"subscription_id", sub.ID,
			"order_id", orderID,
			"error", err)
	}

	return &orderID
}

func (s *orderService) BackfillOrders(ctx context.Context, sub *subscription.Subscription, pl *plan.Plan) (int, int) {
	if pl == nil || !pl.HasVariant() {
		return 0, 0
	}

	rows, err := s.PaymentRepo.ListSuccessWithoutOrder(ctx, sub.ID)
	if err != nil {
		s.Logger.Errorw("order backfill lookup failed",
			"subscription_id", sub.ID,
			"error", err)
		return 0, 0
	}
	if len(rows) == 0 {
		return 0, 0
	}

	attempted, failed := 0, 0
	for _, pmt := range rows {
		attempted++
		if s.CreateSubscriptionOrder(ctx, sub, pl, pmt, iyzico.DeliveryMetadata{}, true) == nil {
			failed++
		}
	}

	s.Logger.Infow("order_backfill",
		"subscription_id", sub.ID,
		"attempted", attempted,
		"failed", failed)
	return attempted, failed
}

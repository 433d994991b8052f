package testutil

import (
	"context"

	"github.com/loopcart/loopcart/internal/integration/shopify"
)

// FakeStorefront implements shopify.Client with overridable behavior.
type FakeStorefront struct {
	CreateOrderFn func(ctx context.Context, req *shopify.CreateOrderRequest) (*shopify.Order, error)

	// CreateOrderCalls records every request for assertions.
	CreateOrderCalls []*shopify.CreateOrderRequest

	nextOrderID int64
}

// NewFakeStorefront creates a fake storefront that assigns sequential order
// ids by default.
func NewFakeStorefront() *FakeStorefront {
	return &FakeStorefront{nextOrderID: 1000}
}

func (f *FakeStorefront) CreateOrder(ctx context.Context, req *shopify.CreateOrderRequest) (*shopify.Order, error) {
	f.CreateOrderCalls = append(f.CreateOrderCalls, req)
	if f.CreateOrderFn != nil {
		return f.CreateOrderFn(ctx, req)
	}
	f.nextOrderID++
	return &shopify.Order{ID: f.nextOrderID, Name: "#LC1001"}, nil
}

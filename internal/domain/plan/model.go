package plan

import (
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
)

// Plan represents a billable offering a customer can subscribe to.
type Plan struct {
	ID            string              `json:"id" gorm:"primaryKey;type:varchar(50)"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price" gorm:"type:numeric(20,6)"`
	Currency      string              `json:"currency"`
	Interval      types.BillingPeriod `json:"interval"`
	IntervalCount int                 `json:"interval_count"`

	// Storefront catalog references. Nil for subscription-only plans with no
	// physical fulfillment; order creation is skipped for those.
	ShopifyProductID *string `json:"shopify_product_id,omitempty"`
	ShopifyVariantID *string `json:"shopify_variant_id,omitempty"`

	Active bool `json:"active"`

	// Template plans define a plan shape that gets bulk-assigned to many
	// storefront products under a shared group handle.
	IsTemplate  bool    `json:"is_template"`
	GroupHandle *string `json:"group_handle,omitempty"`

	types.BaseModel
}

// TableName implements the gorm naming interface.
func (Plan) TableName() string {
	return string(types.TableNamePlans)
}

// Validate validates the plan.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name is required").
			Mark(ierr.ErrValidation)
	}
	if !p.Price.IsPositive() {
		return ierr.NewError("plan price must be positive").
			WithHint("Plan price must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("plan currency is required").
			WithHint("Plan currency is required").
			Mark(ierr.ErrValidation)
	}
	if err := p.Interval.Validate(); err != nil {
		return err
	}
	if p.IntervalCount < 1 {
		return ierr.NewError("interval count must be positive").
			WithHint("Interval count must be at least 1").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// HasVariant reports whether the plan carries a storefront variant reference
// and therefore participates in order creation.
func (p *Plan) HasVariant() bool {
	return p.ShopifyVariantID != nil && *p.ShopifyVariantID != ""
}

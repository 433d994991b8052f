package payment

import (
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
)

// Payment records one charge attempt against a subscription. Rows are never
// deleted; repeated gateway notifications for the same logical charge refine
// the existing row instead of inserting duplicates.
type Payment struct {
	ID             string              `json:"id" gorm:"primaryKey;type:varchar(50)"`
	SubscriptionID string              `json:"subscription_id"`
	Amount         decimal.Decimal     `json:"amount" gorm:"type:numeric(20,6)"`
	Currency       string              `json:"currency"`
	Status         types.PaymentStatus `json:"status"`

	// Gateway identifiers. The gateway may retry and emit several transaction
	// ids under one payment id, so the payment id is the coarser identity.
	IyzicoPaymentID            *string `json:"iyzico_payment_id,omitempty"`
	IyzicoPaymentTransactionID *string `json:"iyzico_payment_transaction_id,omitempty"`

	ErrorMessage *string `json:"error_message,omitempty"`

	// Storefront order back-links, populated asynchronously by the order
	// side-effect coordinator.
	OrderID   *string `json:"order_id,omitempty"`
	OrderName *string `json:"order_name,omitempty"`

	types.BaseModel
}

// TableName implements the gorm naming interface.
func (Payment) TableName() string {
	return string(types.TableNamePayments)
}

// DedupKey returns the identity used to de-duplicate gateway notifications:
// the gateway payment id when present, else the transaction id, else the
// record id (which is always unique, meaning no de-duplication is possible).
func (p *Payment) DedupKey() string {
	if p.IyzicoPaymentID != nil && *p.IyzicoPaymentID != "" {
		return "pid:" + *p.IyzicoPaymentID
	}
	if p.IyzicoPaymentTransactionID != nil && *p.IyzicoPaymentTransactionID != "" {
		return "tid:" + *p.IyzicoPaymentTransactionID
	}
	return "row:" + p.ID
}

// Validate validates the payment.
func (p *Payment) Validate() error {
	if p.SubscriptionID == "" {
		return ierr.NewError("subscription id is required").
			WithHint("Payment must reference a subscription").
			Mark(ierr.ErrValidation)
	}
	return p.Status.Validate()
}

package payment

import (
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
)

// Attempt is the normalized outcome of one charge as reported by the gateway,
// before it is written to the ledger.
type Attempt struct {
	Status               types.PaymentStatus
	Amount               decimal.Decimal
	Currency             string
	GatewayPaymentID     string
	GatewayTransactionID string
	ErrorMessage         string
}

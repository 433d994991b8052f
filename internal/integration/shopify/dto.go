package shopify

// CreateOrderRequest is the storefront admin order-creation payload.
type CreateOrderRequest struct {
	Order OrderInput `json:"order"`
}

type OrderInput struct {
	Email           string          `json:"email,omitempty"`
	LineItems       []LineItem      `json:"line_items"`
	FinancialStatus string          `json:"financial_status"`
	Tags            string          `json:"tags,omitempty"`
	NoteAttributes  []NoteAttribute `json:"note_attributes,omitempty"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	SendReceipt     bool            `json:"send_receipt"`
}

type LineItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Address struct {
	Name     string `json:"name,omitempty"`
	Address1 string `json:"address1,omitempty"`
	City     string `json:"city,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Order is the storefront's view of a created order.
type Order struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type createOrderResponse struct {
	Order Order `json:"order"`
}

type errorResponse struct {
	Errors interface{} `json:"errors"`
}

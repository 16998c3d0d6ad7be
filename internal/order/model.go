package order

import "time"

// Order statuses. cancelled and refunded are terminal: once an order lands on
// one of them no further status change is accepted (refund itself being the
// one operation exempt from the lock).
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

func IsTerminal(s string) bool {
	return s == StatusCancelled || s == StatusRefunded
}

type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Status        string `json:"status"`

	IsPaid      bool       `json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	IsDelivered bool       `json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	// Pricing snapshot, fixed at creation (NUMERIC -> string).
	ItemsPrice    string `json:"items_price"`
	ShippingPrice string `json:"shipping_price"`
	TaxPrice      string `json:"tax_price"`
	TotalPrice    string `json:"total_price"`

	PaymentMethod   string          `json:"payment_method"`
	PaymentResult   string          `json:"payment_result,omitempty"`
	ShippingAddress ShippingAddress `json:"shipping_address"`

	TrackingNumber  string `json:"tracking_number,omitempty"`
	TrackingCompany string `json:"tracking_company,omitempty"`

	RefundAmount string     `json:"refund_amount,omitempty"`
	RefundReason string     `json:"refund_reason,omitempty"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`

	// Version serializes per-order updates (optimistic locking).
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is one line of an order: product, quantity and the unit price at the
// moment of purchase. Immutable once the order exists.
type Item struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

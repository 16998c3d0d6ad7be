package order

// CreateOrderItem payload de ítem.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  int    `json:"quantity"  example:"2"`
}

// CreateOrderRequest payload de creación de orden.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	UserID          string            `json:"user_id" example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress ShippingAddress   `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method" example:"card"`
	ItemsPrice      string            `json:"items_price"    example:"30.00"`
	ShippingPrice   string            `json:"shipping_price" example:"5.00"`
	TaxPrice        string            `json:"tax_price"      example:"3.50"`
}

// PayOrderRequest optional gateway result attached on mark-paid.
// swagger:model PayOrderRequest
type PayOrderRequest struct {
	PaymentResult string `json:"payment_result" example:"ch_3OaQ2wEZ"`
}

// UpdateStatusRequest administrative status override.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"processing"`
}

// RefundRequest payload de reembolso; amount vacío = total de la orden.
// swagger:model RefundRequest
type RefundRequest struct {
	Amount string `json:"amount" example:"38.50"`
	Reason string `json:"reason" example:"damaged on arrival"`
}

// TrackingRequest shipment tracking info.
// swagger:model TrackingRequest
type TrackingRequest struct {
	TrackingNumber  string `json:"tracking_number"  example:"1Z999AA10123456784"`
	TrackingCompany string `json:"tracking_company" example:"UPS"`
}

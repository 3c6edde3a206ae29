package order

import "strings"

// CreateOrderItem is one cart line in a create request.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  int    `json:"quantity"  example:"2"`
}

// CreateOrderRequest is the body of POST /api/orders. The buyer comes from
// the bearer token, never from the body.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress string            `json:"shipping_address" example:"123 Main St"`
	ShippingCity    string            `json:"shipping_city" example:"Springfield"`
	ShippingState   string            `json:"shipping_state" example:"IL"`
	ShippingZip     string            `json:"shipping_zip" example:"62701"`
}

func (r CreateOrderRequest) Lines() []Line {
	out := make([]Line, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, Line{ProductID: strings.TrimSpace(it.ProductID), Quantity: it.Quantity})
	}
	return out
}

func (r CreateOrderRequest) Shipping() Shipping {
	return Shipping{
		Address: strings.TrimSpace(r.ShippingAddress),
		City:    strings.TrimSpace(r.ShippingCity),
		State:   strings.TrimSpace(r.ShippingState),
		Zip:     strings.TrimSpace(r.ShippingZip),
	}
}

// CreateOrderResponse is returned with 201 Created.
// swagger:model CreateOrderResponse
type CreateOrderResponse struct {
	OrderID string `json:"order_id"`
	Total   string `json:"total" example:"30.00"`
	Order   *Order `json:"order"`
}

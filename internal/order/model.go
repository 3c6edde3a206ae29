package order

import "time"

const StatusPending = "pending"

// Shipping fields are all required on create.
type Shipping struct {
	Address string `json:"shipping_address"`
	City    string `json:"shipping_city"`
	State   string `json:"shipping_state"`
	Zip     string `json:"shipping_zip"`
}

type Order struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Total  string `json:"total"` // NUMERIC -> string
	Shipping
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
}

// Item is one order line. Price is the unit price captured when the order
// was placed; ProductName and ProductImage are read from the catalog for
// display only.
type Item struct {
	ID           string `json:"id"`
	OrderID      string `json:"order_id"`
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	ProductImage string `json:"product_image,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	Line         int    `json:"-"`
}

// Line is a requested product and quantity.
type Line struct {
	ProductID string
	Quantity  int
}

// LockedProduct is the slice of a product row the engine needs while it
// holds the row.
type LockedProduct struct {
	ID    string
	Name  string
	Price string
	Stock int
}

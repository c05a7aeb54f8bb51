package model

// LineItem is a product plus quantity in the locally persisted cart.
// Product fields are denormalized so the cart renders without a catalog lookup.
type LineItem struct {
	Product
	Qty int `json:"qty"`
}

func (i LineItem) Subtotal() float64 {
	return float64(i.Price) * float64(i.Qty)
}

// ServerCartItem mirrors one entry of the remote cart resource.
type ServerCartItem struct {
	ID           uint   `json:"id"`
	Product      uint   `json:"product"`
	Quantity     int    `json:"quantity"`
	ProductName  string `json:"product_name,omitempty"`
	ProductPrice Money  `json:"product_price,omitempty"`
}

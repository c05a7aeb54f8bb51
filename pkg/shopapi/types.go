package shopapi

import "github.com/ikkim/storefront-backend/internal/app/model"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type cartItemRequest struct {
	Product  uint `json:"product"`
	Quantity int  `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// ProductInput is the body of product create and update requests.
type ProductInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       model.Money `json:"price"`
	Stock       int         `json:"stock"`
	Image       string      `json:"image,omitempty"`
	Category    uint        `json:"category,omitempty"`
	IsActive    bool        `json:"is_active"`
}

// ProductInputFrom copies the writable fields of p.
func ProductInputFrom(p model.Product) ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Image:       p.Image,
		Category:    p.Category,
		IsActive:    p.IsActive,
	}
}

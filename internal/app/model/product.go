package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Money accepts both JSON numbers and decimal strings ("12.50") as sent by the shop API.
type Money float64

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*m = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid money value %q: %w", s, err)
		}
		*m = Money(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Money(f)
	return nil
}

type Product struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       Money      `json:"price"`
	Stock       int        `json:"stock"`
	Image       string     `json:"image,omitempty"`
	Category    uint       `json:"category,omitempty"`
	Seller      string     `json:"seller,omitempty"`
	IsActive    bool       `json:"is_active"`
	Sold        int        `json:"sold,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	ID          uint    `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *Money  `json:"price,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
	Image       *string `json:"image,omitempty"`
	Category    *uint   `json:"category,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Apply merges the non-nil fields of the patch into p.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

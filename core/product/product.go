package product

import "time"

type Product struct {
	ID          string    `json:"id" db:"product_id"`
	Name        string    `json:"name" db:"name"`
	Price       float64   `json:"price" db:"price"`
	Description string    `json:"description" db:"description"`
	PhotoLink   string    `json:"photoLink" db:"photo_link"`
	InStock     bool      `json:"inStock" db:"in_stock"`
	Category    *string   `json:"category" db:"category"`
	Color       *string   `json:"color" db:"color"`
	Size        *string   `json:"size" db:"size"`
	Material    *string   `json:"material" db:"material"`
	Pattern     *string   `json:"pattern" db:"pattern"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type ProductNew struct {
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Description string  `json:"description"`
	PhotoLink   string  `json:"photoLink"`
	InStock     *bool   `json:"inStock"`
	Category    *string `json:"category"`
	Color       *string `json:"color"`
	Size        *string `json:"size"`
	Material    *string `json:"material"`
	Pattern     *string `json:"pattern"`
}

// ProductUp carries a partial update: nil fields are left untouched. Updates
// go through an explicit merge so every mutable column is named here.
type ProductUp struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Description *string  `json:"description"`
	PhotoLink   *string  `json:"photoLink"`
	InStock     *bool    `json:"inStock"`
	Category    *string  `json:"category"`
	Color       *string  `json:"color"`
	Size        *string  `json:"size"`
	Material    *string  `json:"material"`
	Pattern     *string  `json:"pattern"`
}

// Merge applies the set fields of up onto p and stamps the update time.
func Merge(p Product, up ProductUp, now time.Time) Product {
	if up.Name != nil {
		p.Name = *up.Name
	}
	if up.Price != nil {
		p.Price = *up.Price
	}
	if up.Description != nil {
		p.Description = *up.Description
	}
	if up.PhotoLink != nil {
		p.PhotoLink = *up.PhotoLink
	}
	if up.InStock != nil {
		p.InStock = *up.InStock
	}
	if up.Category != nil {
		p.Category = up.Category
	}
	if up.Color != nil {
		p.Color = up.Color
	}
	if up.Size != nil {
		p.Size = up.Size
	}
	if up.Material != nil {
		p.Material = up.Material
	}
	if up.Pattern != nil {
		p.Pattern = up.Pattern
	}
	p.UpdatedAt = now
	return p
}

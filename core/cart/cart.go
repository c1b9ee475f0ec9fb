package cart

import (
	"time"
)

type Cart struct {
	UserID string `json:"-" db:"user_id"`
	Items  []Item `json:"items" db:"-"`
}

type Item struct {
	UserID    string    `json:"-" db:"user_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type ItemUp struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

package models

import "time"

// Product представляет товар, принадлежащий одному магазину через OwnerEmail.
type Product struct {
	ID           string    `json:"id"`
	OwnerEmail   string    `json:"owner_email"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	Location     string    `json:"location,omitempty"`
	Cost         float64   `json:"cost"`
	ProfitMargin float64   `json:"profit_margin"`
	Discount     float64   `json:"discount"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductInfo данные нового товара из JSON-запроса.
type ProductInfo struct {
	OwnerEmail   string  `json:"owner_email" validate:"required,email"`
	Name         string  `json:"name" validate:"required,max=200"`
	Quantity     int     `json:"quantity" validate:"min=0"`
	Price        float64 `json:"price" validate:"min=0"`
	Location     string  `json:"location" validate:"omitempty,max=200"`
	Cost         float64 `json:"cost" validate:"min=0"`
	ProfitMargin float64 `json:"profit_margin"`
	Discount     float64 `json:"discount" validate:"min=0"`
	Description  string  `json:"description" validate:"omitempty,max=2000"`
	ImageURL     string  `json:"image_url" validate:"omitempty,max=2048"`
}

// ProductFields частичное обновление товара. Nil-поля не меняются.
// ID и OwnerEmail принимаются из JSON, но при обновлении отбрасываются.
type ProductFields struct {
	ID           *string  `json:"id,omitempty"`
	OwnerEmail   *string  `json:"owner_email,omitempty"`
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Quantity     *int     `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Price        *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	Location     *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	Cost         *float64 `json:"cost,omitempty" validate:"omitempty,min=0"`
	ProfitMargin *float64 `json:"profit_margin,omitempty"`
	Discount     *float64 `json:"discount,omitempty" validate:"omitempty,min=0"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	ImageURL     *string  `json:"image_url,omitempty" validate:"omitempty,max=2048"`
}

// Mutable возвращает копию без неизменяемых полей (id и владельца).
func (f ProductFields) Mutable() ProductFields {
	f.ID = nil
	f.OwnerEmail = nil
	return f
}

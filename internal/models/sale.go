package models

import "time"

// Sale неизменяемая запись о продаже.
type Sale struct {
	ID           string    `json:"id"`
	OwnerEmail   string    `json:"owner_email"`
	ProductID    string    `json:"product_id"`
	QuantitySold int       `json:"quantity_sold"`
	Amount       float64   `json:"amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// SaleInfo данные продажи из JSON-запроса.
type SaleInfo struct {
	OwnerEmail   string  `json:"owner_email" validate:"required,email"`
	ProductID    string  `json:"product_id" validate:"required,uuid"`
	QuantitySold int     `json:"quantity_sold" validate:"required,gt=0"`
	Amount       float64 `json:"amount" validate:"min=0"`
}

package models

import "time"

// Store представляет магазин владельца. RemainingQuota сколько товаров еще можно добавить.
type Store struct {
	ID             int64     `json:"id"`
	OwnerEmail     string    `json:"owner_email"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Description    string    `json:"description,omitempty"`
	LogoURL        string    `json:"logo_url,omitempty"`
	RemainingQuota int       `json:"remaining_quota"`
	Timestamp      time.Time `json:"timestamp"`
}

// StoreInfo используется для приёма данных нового магазина из JSON-запроса.
// RemainingQuota не обязателен: без него берется начальная квота из конфига.
type StoreInfo struct {
	OwnerEmail     string `json:"owner_email" validate:"required,email"`
	Name           string `json:"name" validate:"required,max=200"`
	Address        string `json:"address" validate:"required,max=500"`
	Description    string `json:"description" validate:"omitempty,max=2000"`
	LogoURL        string `json:"logo_url" validate:"omitempty,max=2048"`
	RemainingQuota *int   `json:"remaining_quota" validate:"omitempty,min=0"`
}

// QuotaResult результат атомарного изменения квоты.
// Matched == false, если магазина с таким владельцем нет.
type QuotaResult struct {
	Matched        bool `json:"matched"`
	RemainingQuota int  `json:"remaining_quota"`
}

// Package models содержит доменные структуры арендаторов: пользователей, магазинов,
// товаров, продаж и подписок, а также структуры для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователя внутри магазина. Пустая строка означает, что роль не назначена.
const (
	RoleUnset   = ""
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// User представляет пользователя, зарегистрированного по email.
type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"` // Время создания или последнего изменения роли
}

// UserFields поля, которые клиент передает при первом обращении.
// Если пользователь уже существует, поля игнорируются.
type UserFields struct {
	Name     string `json:"name" validate:"omitempty,max=200"`
	PhotoURL string `json:"photo_url" validate:"omitempty,max=2048"`
	Role     string `json:"role" validate:"omitempty,oneof=owner manager staff"`
}

// RoleRequest тело запроса на смену роли.
type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner manager staff"`
}

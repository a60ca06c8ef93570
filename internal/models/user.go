// Package models содержит доменные структуры портала: пользователей,
// записи на сессии, энергетические сканы, членства и обращения через
// контактную форму. Структуры используются в бизнес-логике и при работе
// с хранилищем.
package models

import "time"

// Роли пользователей системы.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// User представляет зарегистрированного пользователя портала.
type User struct {
	ID             int        `json:"id"`              // Уникальный идентификатор
	Email          string     `json:"email"`           // Электронная почта (хранится в нижнем регистре)
	PasswordHash   string     `json:"-"`               // Хэш пароля, наружу не отдается
	FirstName      string     `json:"first_name"`      // Имя
	LastName       string     `json:"last_name"`       // Фамилия
	Phone          *string    `json:"phone"`           // Телефон (опционально)
	Role           string     `json:"role"`            // Роль: client или admin
	MembershipTier *string    `json:"membership_tier"` // Зеркало тарифа активного членства
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsAdmin сообщает, имеет ли пользователь административную роль.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ClientSummary — строка списка клиентов в админке с агрегатами
// по записям и сканам.
type ClientSummary struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Phone          *string   `json:"phone"`
	MembershipTier *string   `json:"membership_tier"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	BookingCount   int       `json:"booking_count"`
	ScanCount      int       `json:"scan_count"`
}

// ClientDetail — карточка клиента: профиль плюс его записи, сканы
// и последнее членство.
type ClientDetail struct {
	ClientSummary
	Bookings   []*Booking  `json:"bookings"`
	Scans      []*Scan     `json:"scans"`
	Membership *Membership `json:"membership"`
}

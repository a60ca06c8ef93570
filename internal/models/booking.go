package models

import "time"

// BookingStatusPending статус новой записи до подтверждения.
const BookingStatusPending = "pending"

// Допустимые значения перечислимых полей записи на сессию.
var (
	ValidServiceTypes    = []string{"discovery-call", "support-session", "energetic-scan"}
	ValidBookingStatuses = []string{"pending", "confirmed", "completed", "cancelled"}
)

// Booking представляет запись клиента на сессию.
type Booking struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	ServiceType string    `json:"service_type"` // discovery-call, support-session или energetic-scan
	Date        time.Time `json:"date"`         // Дата сессии
	Time        string    `json:"time"`         // Время сессии в формате HH:MM
	Duration    int       `json:"duration"`     // Длительность в минутах
	Status      string    `json:"status"`       // pending, confirmed, completed или cancelled
	Notes       *string   `json:"notes"`
	Price       float64   `json:"price"`
	ZoomLink    *string   `json:"zoom_link"` // Заполняется только администратором
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookingWithOwner — запись вместе с идентификационными полями владельца,
// используется в административных списках.
type BookingWithOwner struct {
	Booking
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// IsOneOf проверяет принадлежность значения допустимому множеству.
func IsOneOf(value string, allowed []string) bool {
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}

// Package portalclient реализует клиентский слой синхронизации портала.
//
// Client — абстракция возможностей, у которой две реализации: Remote ходит
// по HTTP к серверу, Local работает только с локальным JSON-состоянием
// (демо-режим). Вызывающий код не знает, какая реализация активна.
package portalclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/soulsirensomatics/portal/internal/models"
)

// Ошибки уровня клиента. APIError сохраняет статус и текст серверного
// конверта ошибки.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSession    = errors.New("no active session")
)

// APIError переносит серверный конверт {"error":{"message":...}} вместе
// с HTTP-статусом.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// RegisterInput данные регистрации.
type RegisterInput struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone,omitempty"`
}

// ProfileInput необязательные поля обновления профиля.
type ProfileInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// BookingInput данные новой записи.
type BookingInput struct {
	ServiceType string   `json:"service_type"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Duration    *int     `json:"duration,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// Client описывает возможности портала, доступные клиентскому коду.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Register(ctx context.Context, in RegisterInput) (*models.User, string, error)
	Me(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*models.User, error)

	MyBookings(ctx context.Context) ([]*models.Booking, error)
	CreateBooking(ctx context.Context, in BookingInput) (*models.Booking, error)
	CancelBooking(ctx context.Context, id int) error

	MyScans(ctx context.Context) ([]*models.Scan, error)

	MyMembership(ctx context.Context) (*models.Membership, error)
	JoinMembership(ctx context.Context, tier string) (*models.Membership, error)
}

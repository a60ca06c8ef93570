// Package services содержит бизнес-логику работы с записями на сессии.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
)

// BookingRepository контракт хранилища записей.
type BookingRepository interface {
	ListBookings(ctx context.Context) ([]*models.BookingWithOwner, error)
	ListBookingsByUser(ctx context.Context, userID int) ([]*models.Booking, error)
	GetBookingByID(ctx context.Context, id int) (*models.BookingWithOwner, error)
	CreateBooking(ctx context.Context, booking models.Booking) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id int, b *patch.Builder) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id int) error
}

// Cache контракт кэша для горячих чтений.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// CreateInput данные новой записи. Длительность и цена необязательны.
type CreateInput struct {
	UserID      int
	ServiceType string
	Date        time.Time
	Time        string
	Duration    *int
	Price       *float64
	Notes       *string
}

// UpdateInput необязательные поля частичного обновления записи.
type UpdateInput struct {
	Date     *time.Time
	Time     *string
	Status   *string
	Notes    *string
	ZoomLink *string
}

// BookingService инкапсулирует работу с записями на сессии.
type BookingService struct {
	repo  BookingRepository
	cache Cache
	log   *slog.Logger
}

// NewBookingService создает новый экземпляр BookingService.
func NewBookingService(repo BookingRepository, cache Cache, log *slog.Logger) *BookingService {
	return &BookingService{repo: repo, cache: cache, log: log}
}

// List возвращает все записи вместе с данными владельцев.
func (s *BookingService) List(ctx context.Context) ([]*models.BookingWithOwner, error) {
	return s.repo.ListBookings(ctx)
}

// ListByUser возвращает записи одного пользователя.
func (s *BookingService) ListByUser(ctx context.Context, userID int) ([]*models.Booking, error) {
	return s.repo.ListBookingsByUser(ctx, userID)
}

// Read возвращает запись по идентификатору, сначала пробуя кэш.
func (s *BookingService) Read(ctx context.Context, id int) (*models.BookingWithOwner, error) {
	cacheKey := fmt.Sprintf("booking:%d", id)
	var cached models.BookingWithOwner
	if found, err := s.cache.Get(cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, booking, time.Hour); err != nil {
		s.log.Warn("failed to cache booking", slog.String("key", cacheKey), sl.Err(err))
	}
	return booking, nil
}

// Create сохраняет новую запись со статусом pending.
// Длительность по умолчанию 60 минут, цена 0.
func (s *BookingService) Create(ctx context.Context, in CreateInput) (*models.Booking, error) {
	duration := 60
	if in.Duration != nil {
		duration = *in.Duration
	}
	var price float64
	if in.Price != nil {
		price = *in.Price
	}

	booking, err := s.repo.CreateBooking(ctx, models.Booking{
		UserID:      in.UserID,
		ServiceType: in.ServiceType,
		Date:        in.Date,
		Time:        in.Time,
		Duration:    duration,
		Price:       price,
		Status:      models.BookingStatusPending,
		Notes:       in.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("created booking", slog.Int("id", booking.ID), slog.Int("user_id", booking.UserID))
	return booking, nil
}

// Update частично обновляет запись. Отсутствующие поля не меняются.
func (s *BookingService) Update(ctx context.Context, id int, upd UpdateInput) (*models.Booking, error) {
	b := &patch.Builder{}
	if upd.Date != nil {
		b.Set("date", *upd.Date)
	}
	if upd.Time != nil {
		b.Set("time", *upd.Time)
	}
	if upd.Status != nil {
		b.Set("status", *upd.Status)
	}
	if upd.Notes != nil {
		b.Set("notes", *upd.Notes)
	}
	if upd.ZoomLink != nil {
		b.Set("zoom_link", *upd.ZoomLink)
	}

	booking, err := s.repo.UpdateBooking(ctx, id, b)
	if err != nil {
		return nil, err
	}
	s.invalidate(id)
	return booking, nil
}

// Delete удаляет запись.
func (s *BookingService) Delete(ctx context.Context, id int) error {
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *BookingService) invalidate(id int) {
	cacheKey := fmt.Sprintf("booking:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate booking cache", slog.String("key", cacheKey), sl.Err(err))
	}
}

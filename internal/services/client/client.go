// Package services содержит бизнес-логику админских операций над клиентами.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// ErrTargetIsAdmin возвращается при попытке удалить аккаунт администратора.
var ErrTargetIsAdmin = errors.New("target user is an admin")

// ClientRepository контракт хранилища для операций над клиентами.
type ClientRepository interface {
	ListClients(ctx context.Context) ([]*models.ClientSummary, error)
	GetClientByID(ctx context.Context, id int) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateUser(ctx context.Context, id int, b *patch.Builder) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	ListBookingsByUser(ctx context.Context, userID int) ([]*models.Booking, error)
	ListScansByUser(ctx context.Context, userID int) ([]*models.Scan, error)
	GetLatestMembershipByUser(ctx context.Context, userID int) (*models.Membership, error)
}

// UpdateInput необязательные поля частичного обновления клиента.
// MembershipTierSet отличает явный null от отсутствующего поля.
type UpdateInput struct {
	FirstName         *string
	LastName          *string
	Phone             *string
	MembershipTier    *string
	MembershipTierSet bool
}

// ClientService инкапсулирует админские операции над клиентами.
type ClientService struct {
	repo ClientRepository
	log  *slog.Logger
}

// NewClientService создает новый экземпляр ClientService.
func NewClientService(repo ClientRepository, log *slog.Logger) *ClientService {
	return &ClientService{repo: repo, log: log}
}

// List возвращает всех клиентов со счетчиками записей и сканов.
func (s *ClientService) List(ctx context.Context) ([]*models.ClientSummary, error) {
	return s.repo.ListClients(ctx)
}

// Read собирает карточку клиента: профиль, записи, сканы и последнее членство.
func (s *ClientService) Read(ctx context.Context, id int) (*models.ClientDetail, error) {
	user, err := s.repo.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookingsByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	scans, err := s.repo.ListScansByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	membership, err := s.repo.GetLatestMembershipByUser(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	detail := &models.ClientDetail{
		ClientSummary: models.ClientSummary{
			ID:             user.ID,
			Email:          user.Email,
			FirstName:      user.FirstName,
			LastName:       user.LastName,
			Phone:          user.Phone,
			MembershipTier: user.MembershipTier,
			CreatedAt:      user.CreatedAt,
			BookingCount:   len(bookings),
			ScanCount:      len(scans),
		},
		Bookings:   bookings,
		Scans:      scans,
		Membership: membership,
	}
	return detail, nil
}

// Bookings возвращает записи клиента.
func (s *ClientService) Bookings(ctx context.Context, id int) ([]*models.Booking, error) {
	if _, err := s.repo.GetClientByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListBookingsByUser(ctx, id)
}

// Scans возвращает сканы клиента.
func (s *ClientService) Scans(ctx context.Context, id int) ([]*models.Scan, error) {
	if _, err := s.repo.GetClientByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListScansByUser(ctx, id)
}

// Update частично обновляет профиль клиента.
func (s *ClientService) Update(ctx context.Context, id int, upd UpdateInput) (*models.User, error) {
	b := &patch.Builder{}
	if upd.FirstName != nil {
		b.Set("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		b.Set("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		b.Set("phone", *upd.Phone)
	}
	if upd.MembershipTierSet {
		if upd.MembershipTier != nil {
			b.Set("membership_tier", *upd.MembershipTier)
		} else {
			b.Set("membership_tier", nil)
		}
	}
	if b.Empty() {
		return s.repo.GetClientByID(ctx, id)
	}
	return s.repo.UpdateUser(ctx, id, b)
}

// Delete удаляет аккаунт клиента со всеми его данными.
// Аккаунты администраторов удалять нельзя.
func (s *ClientService) Delete(ctx context.Context, id int) error {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return ErrTargetIsAdmin
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Info("deleted client", slog.Int("id", id))
	return nil
}

// Package services содержит бизнес-логику работы с членством клиентов.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// MembershipRepository контракт хранилища членств.
type MembershipRepository interface {
	ListMemberships(ctx context.Context) ([]*models.MembershipWithOwner, error)
	GetLatestMembershipByUser(ctx context.Context, userID int) (*models.Membership, error)
	GetMembershipByID(ctx context.Context, id int) (*models.MembershipWithOwner, error)
	CreateMembership(ctx context.Context, userID int, tier string) (*models.Membership, error)
	UpdateMembership(ctx context.Context, id int, b *patch.Builder) (*models.Membership, error)
	DeleteMembership(ctx context.Context, id int) error
}

// UpdateInput необязательные поля частичного обновления членства.
type UpdateInput struct {
	Tier    *string
	Status  *string
	EndDate *time.Time
}

// MembershipService инкапсулирует работу с членством.
type MembershipService struct {
	repo MembershipRepository
	log  *slog.Logger
}

// NewMembershipService создает новый экземпляр MembershipService.
func NewMembershipService(repo MembershipRepository, log *slog.Logger) *MembershipService {
	return &MembershipService{repo: repo, log: log}
}

// List возвращает все членства вместе с данными владельцев.
func (s *MembershipService) List(ctx context.Context) ([]*models.MembershipWithOwner, error) {
	return s.repo.ListMemberships(ctx)
}

// My возвращает последнее членство пользователя или nil, если его нет.
func (s *MembershipService) My(ctx context.Context, userID int) (*models.Membership, error) {
	membership, err := s.repo.GetLatestMembershipByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return membership, nil
}

// Read возвращает членство по идентификатору.
func (s *MembershipService) Read(ctx context.Context, id int) (*models.MembershipWithOwner, error) {
	return s.repo.GetMembershipByID(ctx, id)
}

// Create оформляет членство. Второе активное членство не допускается,
// users.membership_tier обновляется в той же транзакции.
func (s *MembershipService) Create(ctx context.Context, userID int, tier string) (*models.Membership, error) {
	membership, err := s.repo.CreateMembership(ctx, userID, tier)
	if err != nil {
		return nil, err
	}
	s.log.Info("created membership",
		slog.Int("id", membership.ID),
		slog.Int("user_id", userID),
		slog.String("tier", tier))
	return membership, nil
}

// Update частично обновляет членство.
func (s *MembershipService) Update(ctx context.Context, id int, upd UpdateInput) (*models.Membership, error) {
	b := &patch.Builder{}
	if upd.Tier != nil {
		b.Set("tier", *upd.Tier)
	}
	if upd.Status != nil {
		b.Set("status", *upd.Status)
	}
	if upd.EndDate != nil {
		b.Set("end_date", *upd.EndDate)
	}
	return s.repo.UpdateMembership(ctx, id, b)
}

// Delete удаляет членство и сбрасывает денормализованный tier пользователя.
func (s *MembershipService) Delete(ctx context.Context, id int) error {
	return s.repo.DeleteMembership(ctx, id)
}

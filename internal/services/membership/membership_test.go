package services_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/models"
	services "github.com/soulsirensomatics/portal/internal/services/membership"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

type MembershipRepoMock struct {
	mock.Mock
}

func (m *MembershipRepoMock) ListMemberships(ctx context.Context) ([]*models.MembershipWithOwner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MembershipWithOwner), args.Error(1)
}

func (m *MembershipRepoMock) GetLatestMembershipByUser(ctx context.Context, userID int) (*models.Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MembershipRepoMock) GetMembershipByID(ctx context.Context, id int) (*models.MembershipWithOwner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MembershipWithOwner), args.Error(1)
}

func (m *MembershipRepoMock) CreateMembership(ctx context.Context, userID int, tier string) (*models.Membership, error) {
	args := m.Called(ctx, userID, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MembershipRepoMock) UpdateMembership(ctx context.Context, id int, b *patch.Builder) (*models.Membership, error) {
	args := m.Called(ctx, id, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MembershipRepoMock) DeleteMembership(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newService(repo *MembershipRepoMock) *services.MembershipService {
	return services.NewMembershipService(repo, slog.New(slog.DiscardHandler))
}

func TestMembershipService_Create(t *testing.T) {
	repo := new(MembershipRepoMock)
	repo.On("CreateMembership", mock.Anything, 4, "seeker").
		Return(&models.Membership{ID: 1, UserID: 4, Tier: "seeker", Status: models.MembershipStatusActive}, nil).Once()

	membership, err := newService(repo).Create(context.Background(), 4, "seeker")

	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusActive, membership.Status)
	repo.AssertExpectations(t)
}

func TestMembershipService_Create_ActiveExists(t *testing.T) {
	repo := new(MembershipRepoMock)
	repo.On("CreateMembership", mock.Anything, 4, "siren").
		Return(nil, repository.ErrActiveMembershipExists).Once()

	_, err := newService(repo).Create(context.Background(), 4, "siren")

	assert.ErrorIs(t, err, repository.ErrActiveMembershipExists)
}

func TestMembershipService_My_NoneIsNotAnError(t *testing.T) {
	repo := new(MembershipRepoMock)
	repo.On("GetLatestMembershipByUser", mock.Anything, 8).Return(nil, repository.ErrNotFound).Once()

	membership, err := newService(repo).My(context.Background(), 8)

	require.NoError(t, err)
	assert.Nil(t, membership)
}

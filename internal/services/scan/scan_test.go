package services_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/models"
	services "github.com/soulsirensomatics/portal/internal/services/scan"
	"github.com/soulsirensomatics/portal/internal/storage/blob"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

type ScanRepoMock struct {
	mock.Mock
}

func (m *ScanRepoMock) ListScans(ctx context.Context) ([]*models.ScanWithOwner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScanWithOwner), args.Error(1)
}

func (m *ScanRepoMock) ListScansByUser(ctx context.Context, userID int) ([]*models.Scan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Scan), args.Error(1)
}

func (m *ScanRepoMock) GetScanByID(ctx context.Context, id int) (*models.ScanWithOwner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanWithOwner), args.Error(1)
}

func (m *ScanRepoMock) CreateScan(ctx context.Context, scan models.Scan) (*models.Scan, bool, error) {
	args := m.Called(ctx, scan)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Scan), args.Bool(1), args.Error(2)
}

func (m *ScanRepoMock) UpdateScan(ctx context.Context, id int, b *patch.Builder) (*models.Scan, bool, error) {
	args := m.Called(ctx, id, b)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Scan), args.Bool(1), args.Error(2)
}

func (m *ScanRepoMock) DeleteScan(ctx context.Context, id int) ([]models.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Attachment), args.Error(1)
}

func (m *ScanRepoMock) GetScanAttachments(ctx context.Context, id int) (int, []models.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(1) == nil {
		return args.Int(0), nil, args.Error(2)
	}
	return args.Int(0), args.Get(1).([]models.Attachment), args.Error(2)
}

func (m *ScanRepoMock) AppendScanAttachments(ctx context.Context, id int, added []models.Attachment) error {
	args := m.Called(ctx, id, added)
	return args.Error(0)
}

func (m *ScanRepoMock) RemoveScanAttachment(ctx context.Context, id int, filename string) (*models.Attachment, error) {
	args := m.Called(ctx, id, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attachment), args.Error(1)
}

func newScanService(t *testing.T, repo *ScanRepoMock) *services.ScanService {
	t.Helper()
	store, err := blob.New(t.TempDir())
	require.NoError(t, err)
	return services.NewScanService(repo, store, "http://localhost:8080", slog.New(slog.DiscardHandler))
}

func TestScanService_Create_DefaultsToPending(t *testing.T) {
	repo := new(ScanRepoMock)
	repo.On("CreateScan", mock.Anything, mock.MatchedBy(func(scan models.Scan) bool {
		return scan.Status == models.ScanStatusPending && scan.UserID == 7
	})).Return(&models.Scan{ID: 1, UserID: 7, Status: models.ScanStatusPending}, false, nil).Once()

	scan, notified, err := newScanService(t, repo).Create(context.Background(), services.CreateInput{
		UserID:   7,
		ScanDate: time.Now(),
	})

	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusPending, scan.Status)
	assert.False(t, notified)
	repo.AssertExpectations(t)
}

func TestScanService_Update_NotificationFlagPassedThrough(t *testing.T) {
	repo := new(ScanRepoMock)
	repo.On("UpdateScan", mock.Anything, 3, mock.Anything).
		Return(&models.Scan{ID: 3, Status: models.ScanStatusCompleted}, true, nil).Once()

	status := models.ScanStatusCompleted
	scan, notified, err := newScanService(t, repo).Update(context.Background(), 3, services.UpdateInput{
		Status: &status,
	})

	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusCompleted, scan.Status)
	assert.True(t, notified)
}

func TestScanService_SaveAttachments(t *testing.T) {
	repo := new(ScanRepoMock)
	repo.On("AppendScanAttachments", mock.Anything, 5, mock.MatchedBy(func(added []models.Attachment) bool {
		return len(added) == 1 &&
			added[0].OriginalName == "results.pdf" &&
			added[0].Type == "application/pdf" &&
			added[0].Size == int64(4) &&
			strings.HasPrefix(added[0].Filename, "scan_5_")
	})).Return(nil).Once()

	svc := newScanService(t, repo)
	added, err := svc.SaveAttachments(context.Background(), 5, []services.UploadFile{
		{OriginalName: "results.pdf", ContentType: "application/pdf", Size: 4, Reader: strings.NewReader("data")},
	})

	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Contains(t, added[0].URL, "/api/scans/5/attachments/scan_5_")

	ownerID := 7
	repo.On("GetScanAttachments", mock.Anything, 5).Return(ownerID, added, nil).Once()
	gotOwner, meta, f, err := svc.OpenAttachment(context.Background(), 5, added[0].Filename)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, ownerID, gotOwner)
	assert.Equal(t, "results.pdf", meta.OriginalName)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestScanService_SaveAttachments_ScanMissingCleansUpFiles(t *testing.T) {
	repo := new(ScanRepoMock)
	repo.On("AppendScanAttachments", mock.Anything, 9, mock.Anything).
		Return(repository.ErrNotFound).Once()

	svc := newScanService(t, repo)
	_, err := svc.SaveAttachments(context.Background(), 9, []services.UploadFile{
		{OriginalName: "photo.png", ContentType: "image/png", Size: 1, Reader: strings.NewReader("x")},
	})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScanService_OpenAttachment_NotInMetadata(t *testing.T) {
	repo := new(ScanRepoMock)
	repo.On("GetScanAttachments", mock.Anything, 5).Return(7, []models.Attachment{}, nil).Once()

	_, _, _, err := newScanService(t, repo).OpenAttachment(context.Background(), 5, "scan_5_rogue.pdf")
	assert.ErrorIs(t, err, repository.ErrAttachmentNotFound)
}

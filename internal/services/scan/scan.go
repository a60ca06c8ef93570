// Package services содержит бизнес-логику работы с энергетическими сканами
// и их вложениями.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/blob"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

const (
	// MaxAttachmentCount максимум файлов в одной загрузке.
	MaxAttachmentCount = 5
	// MaxAttachmentSize максимальный размер одного файла.
	MaxAttachmentSize = 10 << 20
)

// AllowedAttachmentTypes типы файлов, разрешенные к загрузке.
var AllowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ScanRepository контракт хранилища сканов.
type ScanRepository interface {
	ListScans(ctx context.Context) ([]*models.ScanWithOwner, error)
	ListScansByUser(ctx context.Context, userID int) ([]*models.Scan, error)
	GetScanByID(ctx context.Context, id int) (*models.ScanWithOwner, error)
	CreateScan(ctx context.Context, scan models.Scan) (*models.Scan, bool, error)
	UpdateScan(ctx context.Context, id int, b *patch.Builder) (*models.Scan, bool, error)
	DeleteScan(ctx context.Context, id int) ([]models.Attachment, error)
	GetScanAttachments(ctx context.Context, id int) (int, []models.Attachment, error)
	AppendScanAttachments(ctx context.Context, id int, added []models.Attachment) error
	RemoveScanAttachment(ctx context.Context, id int, filename string) (*models.Attachment, error)
}

// BlobStore контракт файлового хранилища вложений.
type BlobStore interface {
	Save(filename string, r io.Reader) (int64, error)
	Open(filename string) (io.ReadSeekCloser, error)
	Remove(filename string) error
}

// CreateInput данные нового скана.
type CreateInput struct {
	UserID            int
	ScanDate          time.Time
	Status            *string
	Findings          *string
	Recommendations   *string
	PractitionerNotes *string
}

// UpdateInput необязательные поля частичного обновления скана.
type UpdateInput struct {
	ScanDate          *time.Time
	Status            *string
	Findings          *string
	Recommendations   *string
	PractitionerNotes *string
}

// UploadFile один файл из multipart-загрузки.
type UploadFile struct {
	OriginalName string
	ContentType  string
	Size         int64
	Reader       io.Reader
}

// ScanService инкапсулирует работу со сканами и их вложениями.
type ScanService struct {
	repo      ScanRepository
	blobs     BlobStore
	serverURL string
	log       *slog.Logger
}

// NewScanService создает новый экземпляр ScanService.
func NewScanService(repo ScanRepository, blobs BlobStore, serverURL string, log *slog.Logger) *ScanService {
	return &ScanService{repo: repo, blobs: blobs, serverURL: serverURL, log: log}
}

// List возвращает все сканы вместе с данными владельцев.
func (s *ScanService) List(ctx context.Context) ([]*models.ScanWithOwner, error) {
	return s.repo.ListScans(ctx)
}

// ListByUser возвращает сканы одного пользователя.
func (s *ScanService) ListByUser(ctx context.Context, userID int) ([]*models.Scan, error) {
	return s.repo.ListScansByUser(ctx, userID)
}

// Read возвращает скан по идентификатору.
func (s *ScanService) Read(ctx context.Context, id int) (*models.ScanWithOwner, error) {
	return s.repo.GetScanByID(ctx, id)
}

// Create сохраняет новый скан. Без явного статуса скан создается как pending.
// Возвращает признак постановки уведомления в очередь.
func (s *ScanService) Create(ctx context.Context, in CreateInput) (*models.Scan, bool, error) {
	status := models.ScanStatusPending
	if in.Status != nil {
		status = *in.Status
	}

	scan, notified, err := s.repo.CreateScan(ctx, models.Scan{
		UserID:            in.UserID,
		ScanDate:          in.ScanDate,
		Status:            status,
		Findings:          in.Findings,
		Recommendations:   in.Recommendations,
		PractitionerNotes: in.PractitionerNotes,
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info("created scan",
		slog.Int("id", scan.ID),
		slog.Int("user_id", scan.UserID),
		slog.Bool("notification_queued", notified))
	return scan, notified, nil
}

// Update частично обновляет скан. Переход в completed ставит в очередь
// ровно одно уведомление клиенту.
func (s *ScanService) Update(ctx context.Context, id int, upd UpdateInput) (*models.Scan, bool, error) {
	b := &patch.Builder{}
	if upd.ScanDate != nil {
		b.Set("scan_date", *upd.ScanDate)
	}
	if upd.Status != nil {
		b.Set("status", *upd.Status)
	}
	if upd.Findings != nil {
		b.Set("findings", *upd.Findings)
	}
	if upd.Recommendations != nil {
		b.Set("recommendations", *upd.Recommendations)
	}
	if upd.PractitionerNotes != nil {
		b.Set("practitioner_notes", *upd.PractitionerNotes)
	}

	scan, notified, err := s.repo.UpdateScan(ctx, id, b)
	if err != nil {
		return nil, false, err
	}
	if notified {
		s.log.Info("scan completed, notification queued", slog.Int("id", id))
	}
	return scan, notified, nil
}

// Delete удаляет скан вместе с файлами вложений.
func (s *ScanService) Delete(ctx context.Context, id int) error {
	attachments, err := s.repo.DeleteScan(ctx, id)
	if err != nil {
		return err
	}
	for _, a := range attachments {
		if err := s.blobs.Remove(a.Filename); err != nil {
			s.log.Warn("failed to remove attachment file", slog.String("filename", a.Filename), sl.Err(err))
		}
	}
	return nil
}

// Attachments возвращает метаданные вложений скана и id владельца.
func (s *ScanService) Attachments(ctx context.Context, id int) (int, []models.Attachment, error) {
	return s.repo.GetScanAttachments(ctx, id)
}

// SaveAttachments сохраняет файлы на диск и дописывает метаданные к скану.
// Если скан исчез между загрузкой и записью метаданных, файлы удаляются.
func (s *ScanService) SaveAttachments(ctx context.Context, scanID int, files []UploadFile) ([]models.Attachment, error) {
	const op = "services.ScanService.SaveAttachments"

	added := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		filename := blob.BuildFilename(scanID, f.OriginalName)
		size, err := s.blobs.Save(filename, f.Reader)
		if err != nil {
			s.removeBlobs(added)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		added = append(added, models.Attachment{
			Filename:     filename,
			OriginalName: f.OriginalName,
			URL:          fmt.Sprintf("%s/api/scans/%d/attachments/%s", s.serverURL, scanID, filename),
			Type:         f.ContentType,
			Size:         size,
			UploadedAt:   time.Now().UTC(),
		})
	}

	if err := s.repo.AppendScanAttachments(ctx, scanID, added); err != nil {
		s.removeBlobs(added)
		return nil, err
	}

	s.log.Info("attachments uploaded", slog.Int("scan_id", scanID), slog.Int("count", len(added)))
	return added, nil
}

// OpenAttachment открывает файл вложения для стриминга клиенту.
// Файл должен числиться в метаданных скана. Возвращает id владельца скана
// для проверки прав на уровне обработчика.
func (s *ScanService) OpenAttachment(ctx context.Context, scanID int, filename string) (int, *models.Attachment, io.ReadSeekCloser, error) {
	ownerID, attachments, err := s.repo.GetScanAttachments(ctx, scanID)
	if err != nil {
		return 0, nil, nil, err
	}
	for _, a := range attachments {
		if a.Filename == filename {
			f, err := s.blobs.Open(a.Filename)
			if err != nil {
				return 0, nil, nil, err
			}
			return ownerID, &a, f, nil
		}
	}
	return 0, nil, nil, repository.ErrAttachmentNotFound
}

// RemoveAttachment удаляет метаданные вложения и затем сам файл.
// Отсутствие файла на диске не считается ошибкой.
func (s *ScanService) RemoveAttachment(ctx context.Context, scanID int, filename string) (*models.Attachment, error) {
	removed, err := s.repo.RemoveScanAttachment(ctx, scanID, filename)
	if err != nil {
		return nil, err
	}
	if err := s.blobs.Remove(removed.Filename); err != nil {
		s.log.Warn("failed to remove attachment file", slog.String("filename", removed.Filename), sl.Err(err))
	}
	return removed, nil
}

func (s *ScanService) removeBlobs(attachments []models.Attachment) {
	for _, a := range attachments {
		if err := s.blobs.Remove(a.Filename); err != nil {
			s.log.Warn("failed to clean up uploaded file", slog.String("filename", a.Filename), sl.Err(err))
		}
	}
}

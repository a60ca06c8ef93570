// Package services содержит бизнес-логику обращений через форму контактов.
package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/soulsirensomatics/portal/internal/models"
)

// SubmitInput данные публичной формы контактов.
type SubmitInput struct {
	Name    string
	Email   string
	Subject *string
	Message string
}

// ContactRepository контракт хранилища обращений.
type ContactRepository interface {
	CreateSubmission(ctx context.Context, sub models.ContactSubmission) (*models.ContactSubmission, error)
	ListSubmissions(ctx context.Context) ([]*models.ContactSubmission, error)
	GetSubmissionByID(ctx context.Context, id int) (*models.ContactSubmission, error)
	UpdateSubmissionStatus(ctx context.Context, id int, status string) (*models.ContactSubmission, error)
	DeleteSubmission(ctx context.Context, id int) error
}

// ContactService инкапсулирует работу с обращениями.
type ContactService struct {
	repo ContactRepository
	log  *slog.Logger
}

// NewContactService создает новый экземпляр ContactService.
func NewContactService(repo ContactRepository, log *slog.Logger) *ContactService {
	return &ContactService{repo: repo, log: log}
}

// Submit сохраняет новое обращение со статусом new.
// Поля очищаются от пробелов, email приводится к нижнему регистру.
func (s *ContactService) Submit(ctx context.Context, in SubmitInput) (*models.ContactSubmission, error) {
	var subject *string
	if in.Subject != nil {
		trimmed := strings.TrimSpace(*in.Subject)
		if trimmed != "" {
			subject = &trimmed
		}
	}

	sub, err := s.repo.CreateSubmission(ctx, models.ContactSubmission{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Subject: subject,
		Message: strings.TrimSpace(in.Message),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("contact submission received", slog.Int("id", sub.ID))
	return sub, nil
}

// List возвращает все обращения, новые первыми.
func (s *ContactService) List(ctx context.Context) ([]*models.ContactSubmission, error) {
	return s.repo.ListSubmissions(ctx)
}

// Read возвращает обращение по идентификатору.
func (s *ContactService) Read(ctx context.Context, id int) (*models.ContactSubmission, error) {
	return s.repo.GetSubmissionByID(ctx, id)
}

// UpdateStatus меняет статус обращения.
func (s *ContactService) UpdateStatus(ctx context.Context, id int, status string) (*models.ContactSubmission, error) {
	return s.repo.UpdateSubmissionStatus(ctx, id, status)
}

// Delete удаляет обращение.
func (s *ContactService) Delete(ctx context.Context, id int) error {
	return s.repo.DeleteSubmission(ctx, id)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soulsirensomatics/portal/internal/models"
)

const contactColumns = `id, name, email, subject, message, status, created_at`

func scanSubmission(row interface{ Scan(...any) error }) (*models.ContactSubmission, error) {
	c := &models.ContactSubmission{}
	var subject sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &subject, &c.Message,
		&c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Subject = fromNullString(subject)
	return c, nil
}

// CreateSubmission сохраняет обращение со статусом new.
func (s *Storage) CreateSubmission(ctx context.Context, sub models.ContactSubmission) (*models.ContactSubmission, error) {
	const op = "repository.CreateSubmission"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO contact_submissions (name, email, subject, message, status)
			  VALUES ($1, $2, $3, $4, 'new')
			  RETURNING ` + contactColumns
	created, err := scanSubmission(s.DB.QueryRowContext(ctx, query,
		sub.Name, sub.Email, toNullString(sub.Subject), sub.Message))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ListSubmissions возвращает все обращения, новые первыми.
func (s *Storage) ListSubmissions(ctx context.Context) ([]*models.ContactSubmission, error) {
	const op = "repository.ListSubmissions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contact_submissions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ContactSubmission
	for rows.Next() {
		c, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetSubmissionByID возвращает обращение по идентификатору.
func (s *Storage) GetSubmissionByID(ctx context.Context, id int) (*models.ContactSubmission, error) {
	const op = "repository.GetSubmissionByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	c, err := scanSubmission(s.DB.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contact_submissions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// UpdateSubmissionStatus меняет статус обращения.
func (s *Storage) UpdateSubmissionStatus(ctx context.Context, id int, status string) (*models.ContactSubmission, error) {
	const op = "repository.UpdateSubmissionStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	c, err := scanSubmission(s.DB.QueryRowContext(ctx,
		`UPDATE contact_submissions SET status = $1 WHERE id = $2 RETURNING `+contactColumns,
		status, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// DeleteSubmission удаляет обращение по идентификатору.
func (s *Storage) DeleteSubmission(ctx context.Context, id int) error {
	const op = "repository.DeleteSubmission"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM contact_submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

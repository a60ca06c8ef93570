package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/models"
)

const scanColumns = `id, user_id, scan_date, findings, recommendations, status,
			      attachments, practitioner_notes, created_at, updated_at`

func scanScan(row interface{ Scan(...any) error }) (*models.Scan, error) {
	sc := &models.Scan{}
	var findings, recommendations, notes sql.NullString
	var attachments []byte
	if err := row.Scan(&sc.ID, &sc.UserID, &sc.ScanDate, &findings, &recommendations,
		&sc.Status, &attachments, &notes, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
		return nil, err
	}
	sc.Findings = fromNullString(findings)
	sc.Recommendations = fromNullString(recommendations)
	sc.PractitionerNotes = fromNullString(notes)
	if err := unmarshalAttachments(attachments, &sc.Attachments); err != nil {
		return nil, err
	}
	return sc, nil
}

func unmarshalAttachments(raw []byte, dst *[]models.Attachment) error {
	*dst = []models.Attachment{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// ListScans возвращает все сканы вместе с данными владельца,
// свежие даты скана первыми.
func (s *Storage) ListScans(ctx context.Context) ([]*models.ScanWithOwner, error) {
	const op = "repository.ListScans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.user_id, s.scan_date, s.findings, s.recommendations, s.status,
			      s.attachments, s.practitioner_notes, s.created_at, s.updated_at,
			      u.first_name, u.last_name, u.email, u.phone
			  FROM scans s
			  LEFT JOIN users u ON s.user_id = u.id
			  ORDER BY s.scan_date DESC, s.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ScanWithOwner
	for rows.Next() {
		sc := &models.ScanWithOwner{}
		var findings, recommendations, notes sql.NullString
		var firstName, lastName, email, phone sql.NullString
		var attachments []byte
		if err = rows.Scan(&sc.ID, &sc.UserID, &sc.ScanDate, &findings, &recommendations,
			&sc.Status, &attachments, &notes, &sc.CreatedAt, &sc.UpdatedAt,
			&firstName, &lastName, &email, &phone); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sc.Findings = fromNullString(findings)
		sc.Recommendations = fromNullString(recommendations)
		sc.PractitionerNotes = fromNullString(notes)
		sc.FirstName = fromNullString(firstName)
		sc.LastName = fromNullString(lastName)
		sc.Email = fromNullString(email)
		sc.Phone = fromNullString(phone)
		if err = unmarshalAttachments(attachments, &sc.Attachments); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListScansByUser возвращает сканы одного пользователя.
func (s *Storage) ListScansByUser(ctx context.Context, userID int) ([]*models.Scan, error) {
	const op = "repository.ListScansByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + scanColumns + `
			  FROM scans
			  WHERE user_id = $1
			  ORDER BY scan_date DESC, created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Scan
	for rows.Next() {
		sc, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetScanByID возвращает скан вместе с данными владельца.
func (s *Storage) GetScanByID(ctx context.Context, id int) (*models.ScanWithOwner, error) {
	const op = "repository.GetScanByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.user_id, s.scan_date, s.findings, s.recommendations, s.status,
			      s.attachments, s.practitioner_notes, s.created_at, s.updated_at,
			      u.first_name, u.last_name, u.email, u.phone
			  FROM scans s
			  LEFT JOIN users u ON s.user_id = u.id
			  WHERE s.id = $1`
	sc := &models.ScanWithOwner{}
	var findings, recommendations, notes sql.NullString
	var firstName, lastName, email, phone sql.NullString
	var attachments []byte
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&sc.ID, &sc.UserID, &sc.ScanDate, &findings, &recommendations,
		&sc.Status, &attachments, &notes, &sc.CreatedAt, &sc.UpdatedAt,
		&firstName, &lastName, &email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sc.Findings = fromNullString(findings)
	sc.Recommendations = fromNullString(recommendations)
	sc.PractitionerNotes = fromNullString(notes)
	sc.FirstName = fromNullString(firstName)
	sc.LastName = fromNullString(lastName)
	sc.Email = fromNullString(email)
	sc.Phone = fromNullString(phone)
	if err = unmarshalAttachments(attachments, &sc.Attachments); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sc, nil
}

// CreateScan вставляет новый скан. Если скан сразу создан со статусом
// completed, в той же транзакции добавляется событие в outbox.
// Возвращает ErrUserNotFound, если целевого пользователя нет.
func (s *Storage) CreateScan(ctx context.Context, scan models.Scan) (*models.Scan, bool, error) {
	const op = "repository.CreateScan"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var email string
	var firstName sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT email, first_name FROM users WHERE id = $1`, scan.UserID).
		Scan(&email, &firstName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO scans (user_id, scan_date, findings, recommendations, status,
			      practitioner_notes)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + scanColumns
	row := tx.QueryRowContext(ctx, query,
		scan.UserID, scan.ScanDate, toNullString(scan.Findings),
		toNullString(scan.Recommendations), scan.Status,
		toNullString(scan.PractitionerNotes))
	created, err := scanScan(row)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	notified := false
	if created.Status == models.ScanStatusCompleted {
		if err = insertScanReadyEvent(ctx, tx, created, email, firstName.String); err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		notified = true
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return created, notified, nil
}

// UpdateScan выполняет частичное обновление скана. Строка блокируется
// на время транзакции; переход статуса в completed добавляет ровно одно
// событие в outbox той же транзакцией. Второй результат сообщает,
// было ли событие поставлено в очередь.
func (s *Storage) UpdateScan(ctx context.Context, id int, b *patch.Builder) (*models.Scan, bool, error) {
	const op = "repository.UpdateScan"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var previousStatus string
	var email, firstName sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT s.status, u.email, u.first_name
		 FROM scans s
		 LEFT JOIN users u ON s.user_id = u.id
		 WHERE s.id = $1
		 FOR UPDATE OF s`, id).
		Scan(&previousStatus, &email, &firstName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	query, args := b.SQL("scans", id, scanColumns)
	updated, err := scanScan(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	notified := false
	if updated.Status == models.ScanStatusCompleted && previousStatus != models.ScanStatusCompleted && email.Valid {
		if err = insertScanReadyEvent(ctx, tx, updated, email.String, firstName.String); err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		notified = true
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return updated, notified, nil
}

func insertScanReadyEvent(ctx context.Context, tx *sql.Tx, scan *models.Scan, email, firstName string) error {
	payload, err := json.Marshal(models.ScanReadyEvent{
		ScanID:    scan.ID,
		Email:     email,
		FirstName: firstName,
		ScanDate:  scan.ScanDate,
	})
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO notification_outbox (id, kind, payload) VALUES ($1, $2, $3)`,
		uuid.New().String(), models.KindScanCompleted, payload)
	return err
}

// DeleteScan удаляет скан и возвращает метаданные его вложений,
// чтобы вызывающая сторона убрала файлы из блоб-хранилища.
func (s *Storage) DeleteScan(ctx context.Context, id int) ([]models.Attachment, error) {
	const op = "repository.DeleteScan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var raw []byte
	err := s.DB.QueryRowContext(ctx,
		`DELETE FROM scans WHERE id = $1 RETURNING attachments`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var attachments []models.Attachment
	if err = unmarshalAttachments(raw, &attachments); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return attachments, nil
}

// GetScanAttachments возвращает владельца скана и текущий список вложений.
func (s *Storage) GetScanAttachments(ctx context.Context, id int) (int, []models.Attachment, error) {
	const op = "repository.GetScanAttachments"
	select {
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var userID int
	var raw []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT user_id, attachments FROM scans WHERE id = $1`, id).Scan(&userID, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	var attachments []models.Attachment
	if err = unmarshalAttachments(raw, &attachments); err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	return userID, attachments, nil
}

// AppendScanAttachments дописывает метаданные вложений к списку скана.
// Строка блокируется на время транзакции, чтобы параллельная загрузка
// не потеряла чужие записи.
func (s *Storage) AppendScanAttachments(ctx context.Context, id int, added []models.Attachment) error {
	const op = "repository.AppendScanAttachments"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT attachments FROM scans WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var current []models.Attachment
	if err = unmarshalAttachments(raw, &current); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	updated, err := json.Marshal(append(current, added...))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE scans SET attachments = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		updated, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveScanAttachment убирает вложение из списка скана по имени файла
// и возвращает удаленную запись. Отсутствие имени в списке — ErrAttachmentNotFound.
func (s *Storage) RemoveScanAttachment(ctx context.Context, id int, filename string) (*models.Attachment, error) {
	const op = "repository.RemoveScanAttachment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT attachments FROM scans WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var current []models.Attachment
	if err = unmarshalAttachments(raw, &current); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var removed *models.Attachment
	remaining := make([]models.Attachment, 0, len(current))
	for _, a := range current {
		if removed == nil && a.Filename == filename {
			att := a
			removed = &att
			continue
		}
		remaining = append(remaining, a)
	}
	if removed == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAttachmentNotFound)
	}

	updated, err := json.Marshal(remaining)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE scans SET attachments = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		updated, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return removed, nil
}

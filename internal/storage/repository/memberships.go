package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/models"
)

const membershipColumns = `id, user_id, tier, status, start_date, end_date,
			      created_at, updated_at`

func scanMembership(row interface{ Scan(...any) error }) (*models.Membership, error) {
	m := &models.Membership{}
	var endDate sql.NullTime
	if err := row.Scan(&m.ID, &m.UserID, &m.Tier, &m.Status, &m.StartDate, &endDate,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.EndDate = fromNullTime(endDate)
	return m, nil
}

// ListMemberships возвращает все членства вместе с данными владельца,
// новые первыми.
func (s *Storage) ListMemberships(ctx context.Context) ([]*models.MembershipWithOwner, error) {
	const op = "repository.ListMemberships"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT m.id, m.user_id, m.tier, m.status, m.start_date, m.end_date,
			      m.created_at, m.updated_at,
			      u.first_name, u.last_name, u.email, u.phone
			  FROM memberships m
			  LEFT JOIN users u ON m.user_id = u.id
			  ORDER BY m.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.MembershipWithOwner
	for rows.Next() {
		m := &models.MembershipWithOwner{}
		var endDate sql.NullTime
		var firstName, lastName, email, phone sql.NullString
		if err = rows.Scan(&m.ID, &m.UserID, &m.Tier, &m.Status, &m.StartDate, &endDate,
			&m.CreatedAt, &m.UpdatedAt, &firstName, &lastName, &email, &phone); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m.EndDate = fromNullTime(endDate)
		m.FirstName = fromNullString(firstName)
		m.LastName = fromNullString(lastName)
		m.Email = fromNullString(email)
		m.Phone = fromNullString(phone)
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetLatestMembershipByUser возвращает последнее членство пользователя
// или ErrNotFound, если членств нет.
func (s *Storage) GetLatestMembershipByUser(ctx context.Context, userID int) (*models.Membership, error) {
	const op = "repository.GetLatestMembershipByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + membershipColumns + `
			  FROM memberships
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT 1`
	m, err := scanMembership(s.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// GetMembershipByID возвращает членство вместе с данными владельца.
func (s *Storage) GetMembershipByID(ctx context.Context, id int) (*models.MembershipWithOwner, error) {
	const op = "repository.GetMembershipByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT m.id, m.user_id, m.tier, m.status, m.start_date, m.end_date,
			      m.created_at, m.updated_at,
			      u.first_name, u.last_name, u.email, u.phone
			  FROM memberships m
			  LEFT JOIN users u ON m.user_id = u.id
			  WHERE m.id = $1`
	m := &models.MembershipWithOwner{}
	var endDate sql.NullTime
	var firstName, lastName, email, phone sql.NullString
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.Tier, &m.Status, &m.StartDate, &endDate,
		&m.CreatedAt, &m.UpdatedAt, &firstName, &lastName, &email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.EndDate = fromNullTime(endDate)
	m.FirstName = fromNullString(firstName)
	m.LastName = fromNullString(lastName)
	m.Email = fromNullString(email)
	m.Phone = fromNullString(phone)
	return m, nil
}

// CreateMembership создает членство в одной транзакции с проверкой
// "не более одного активного" и обновлением зеркала users.membership_tier.
// Строка пользователя блокируется, чтобы параллельные вызовы не прошли
// проверку одновременно.
func (s *Storage) CreateMembership(ctx context.Context, userID int, tier string) (*models.Membership, error) {
	const op = "repository.CreateMembership"
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

	var lockedID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var hasActive bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM memberships WHERE user_id = $1 AND status = 'active')`,
		userID).Scan(&hasActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if hasActive {
		return nil, fmt.Errorf("%s: %w", op, ErrActiveMembershipExists)
	}

	query := `INSERT INTO memberships (user_id, tier, status, start_date)
			  VALUES ($1, $2, 'active', CURRENT_TIMESTAMP)
			  RETURNING ` + membershipColumns
	created, err := scanMembership(tx.QueryRowContext(ctx, query, userID, tier))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET membership_tier = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		tier, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateMembership выполняет частичное обновление членства и пересчитывает
// зеркало тарифа в той же транзакции: тариф активного членства либо NULL.
func (s *Storage) UpdateMembership(ctx context.Context, id int, b *patch.Builder) (*models.Membership, error) {
	const op = "repository.UpdateMembership"
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

	var userID int
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM memberships WHERE id = $1 FOR UPDATE`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query, args := b.SQL("memberships", id, membershipColumns)
	updated, err := scanMembership(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var mirror any
	if updated.Status == models.MembershipStatusActive {
		mirror = updated.Tier
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET membership_tier = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		mirror, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteMembership удаляет членство и сбрасывает зеркало тарифа
// в той же транзакции.
func (s *Storage) DeleteMembership(ctx context.Context, id int) error {
	const op = "repository.DeleteMembership"
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

	var userID int
	err = tx.QueryRowContext(ctx,
		`DELETE FROM memberships WHERE id = $1 RETURNING user_id`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET membership_tier = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

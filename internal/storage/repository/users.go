package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone, role,
			      membership_tier, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var phone, tier sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&phone, &u.Role, &tier, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Phone = fromNullString(phone)
	u.MembershipTier = fromNullString(tier)
	return u, nil
}

// CreateUser сохраняет нового пользователя. Email хранится в нижнем регистре;
// занятый email возвращает ErrEmailTaken, исходная строка не меняется.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "repository.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, user.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}

	query := `INSERT INTO users (email, password_hash, first_name, last_name, phone, role)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		toNullString(user.Phone), user.Role)
	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору. Используется
// middleware на каждом запросе, чтобы роль не бралась из устаревших claims.
func (s *Storage) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	const op = "repository.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUser выполняет частичное обновление пользователя и возвращает
// обновленную строку.
func (s *Storage) UpdateUser(ctx context.Context, id int, b *patch.Builder) (*models.User, error) {
	const op = "repository.UpdateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query, args := b.SQL("users", id, userColumns)
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserPassword заменяет хэш пароля пользователя.
func (s *Storage) UpdateUserPassword(ctx context.Context, id int, passwordHash string) error {
	const op = "repository.UpdateUserPassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id)
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

// ListClients возвращает всех пользователей с ролью client вместе
// с количеством их записей и сканов, новые первыми.
func (s *Storage) ListClients(ctx context.Context) ([]*models.ClientSummary, error) {
	const op = "repository.ListClients"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.id, u.email, u.first_name, u.last_name, u.phone, u.membership_tier,
			      u.created_at, u.updated_at,
			      COUNT(DISTINCT b.id) AS booking_count,
			      COUNT(DISTINCT s.id) AS scan_count
			  FROM users u
			  LEFT JOIN bookings b ON u.id = b.user_id
			  LEFT JOIN scans s ON u.id = s.user_id
			  WHERE u.role = 'client'
			  GROUP BY u.id
			  ORDER BY u.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ClientSummary
	for rows.Next() {
		c := &models.ClientSummary{}
		var phone, tier sql.NullString
		if err = rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &phone, &tier,
			&c.CreatedAt, &c.UpdatedAt, &c.BookingCount, &c.ScanCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.Phone = fromNullString(phone)
		c.MembershipTier = fromNullString(tier)
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetClientByID возвращает пользователя с ролью client по идентификатору.
func (s *Storage) GetClientByID(ctx context.Context, id int) (*models.User, error) {
	const op = "repository.GetClientByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND role = 'client'`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// DeleteUser удаляет пользователя; связанные записи, сканы и членства
// удаляются каскадом на уровне схемы.
func (s *Storage) DeleteUser(ctx context.Context, id int) error {
	const op = "repository.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/models"
)

const bookingColumns = `id, user_id, service_type, date, time, duration, status,
			      notes, price, zoom_link, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	b := &models.Booking{}
	var notes, zoomLink sql.NullString
	if err := row.Scan(&b.ID, &b.UserID, &b.ServiceType, &b.Date, &b.Time, &b.Duration,
		&b.Status, &notes, &b.Price, &zoomLink, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Notes = fromNullString(notes)
	b.ZoomLink = fromNullString(zoomLink)
	return b, nil
}

// ListBookings возвращает все записи вместе с данными владельца,
// свежие даты первыми.
func (s *Storage) ListBookings(ctx context.Context) ([]*models.BookingWithOwner, error) {
	const op = "repository.ListBookings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT b.id, b.user_id, b.service_type, b.date, b.time, b.duration, b.status,
			      b.notes, b.price, b.zoom_link, b.created_at, b.updated_at,
			      u.first_name, u.last_name, u.email, u.phone
			  FROM bookings b
			  LEFT JOIN users u ON b.user_id = u.id
			  ORDER BY b.date DESC, b.time DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.BookingWithOwner
	for rows.Next() {
		b := &models.BookingWithOwner{}
		var notes, zoomLink, firstName, lastName, email, phone sql.NullString
		if err = rows.Scan(&b.ID, &b.UserID, &b.ServiceType, &b.Date, &b.Time, &b.Duration,
			&b.Status, &notes, &b.Price, &zoomLink, &b.CreatedAt, &b.UpdatedAt,
			&firstName, &lastName, &email, &phone); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		b.Notes = fromNullString(notes)
		b.ZoomLink = fromNullString(zoomLink)
		b.FirstName = fromNullString(firstName)
		b.LastName = fromNullString(lastName)
		b.Email = fromNullString(email)
		b.Phone = fromNullString(phone)
		result = append(result, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListBookingsByUser возвращает записи одного пользователя,
// свежие даты первыми.
func (s *Storage) ListBookingsByUser(ctx context.Context, userID int) ([]*models.Booking, error) {
	const op = "repository.ListBookingsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + bookingColumns + `
			  FROM bookings
			  WHERE user_id = $1
			  ORDER BY date DESC, time DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetBookingByID возвращает запись вместе с данными владельца.
func (s *Storage) GetBookingByID(ctx context.Context, id int) (*models.BookingWithOwner, error) {
	const op = "repository.GetBookingByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT b.id, b.user_id, b.service_type, b.date, b.time, b.duration, b.status,
			      b.notes, b.price, b.zoom_link, b.created_at, b.updated_at,
			      u.first_name, u.last_name, u.email, u.phone
			  FROM bookings b
			  LEFT JOIN users u ON b.user_id = u.id
			  WHERE b.id = $1`
	b := &models.BookingWithOwner{}
	var notes, zoomLink, firstName, lastName, email, phone sql.NullString
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.UserID, &b.ServiceType, &b.Date, &b.Time, &b.Duration,
		&b.Status, &notes, &b.Price, &zoomLink, &b.CreatedAt, &b.UpdatedAt,
		&firstName, &lastName, &email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.Notes = fromNullString(notes)
	b.ZoomLink = fromNullString(zoomLink)
	b.FirstName = fromNullString(firstName)
	b.LastName = fromNullString(lastName)
	b.Email = fromNullString(email)
	b.Phone = fromNullString(phone)
	return b, nil
}

// CreateBooking вставляет новую запись и возвращает созданную строку.
func (s *Storage) CreateBooking(ctx context.Context, booking models.Booking) (*models.Booking, error) {
	const op = "repository.CreateBooking"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO bookings (user_id, service_type, date, time, duration, status,
			      notes, price, zoom_link)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + bookingColumns
	row := s.DB.QueryRowContext(ctx, query,
		booking.UserID, booking.ServiceType, booking.Date, booking.Time, booking.Duration,
		booking.Status, toNullString(booking.Notes), booking.Price,
		toNullString(booking.ZoomLink))
	created, err := scanBooking(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateBooking выполняет частичное обновление записи.
func (s *Storage) UpdateBooking(ctx context.Context, id int, b *patch.Builder) (*models.Booking, error) {
	const op = "repository.UpdateBooking"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query, args := b.SQL("bookings", id, bookingColumns)
	updated, err := scanBooking(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteBooking удаляет запись по идентификатору.
func (s *Storage) DeleteBooking(ctx context.Context, id int) error {
	const op = "repository.DeleteBooking"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
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

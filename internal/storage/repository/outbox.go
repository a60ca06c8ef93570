package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/soulsirensomatics/portal/internal/models"
)

// ListUnsentEvents возвращает неотправленные события outbox, старые первыми.
// Вставка событий происходит внутри транзакций изменения сканов.
func (s *Storage) ListUnsentEvents(ctx context.Context, limit int) ([]*models.OutboxEvent, error) {
	const op = "repository.ListUnsentEvents"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, kind, payload, created_at, sent_at
			  FROM notification_outbox
			  WHERE sent_at IS NULL
			  ORDER BY created_at
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.OutboxEvent
	for rows.Next() {
		e := &models.OutboxEvent{}
		var sentAt sql.NullTime
		if err = rows.Scan(&e.ID, &e.Kind, &e.Payload, &e.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.SentAt = fromNullTime(sentAt)
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkEventSent помечает событие как опубликованное.
func (s *Storage) MarkEventSent(ctx context.Context, id string) error {
	const op = "repository.MarkEventSent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx,
		`UPDATE notification_outbox SET sent_at = CURRENT_TIMESTAMP WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

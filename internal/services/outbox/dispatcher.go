// Package services содержит диспетчер исходящих уведомлений.
//
// События складываются в таблицу notification_outbox в одной транзакции с
// изменением скана, диспетчер по тикеру публикует их в RabbitMQ и помечает
// отправленными. Ошибка публикации оставляет событие в таблице до
// следующего прохода.
package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/streadway/amqp"

	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/rabbitmq"
)

var (
	publishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_outbox_published_total",
		Help: "Number of outbox events published to the broker.",
	})
	publishFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_outbox_publish_failed_total",
		Help: "Number of outbox publish attempts that failed.",
	})
)

// OutboxRepository контракт хранилища событий.
type OutboxRepository interface {
	ListUnsentEvents(ctx context.Context, limit int) ([]*models.OutboxEvent, error)
	MarkEventSent(ctx context.Context, id string) error
}

// Dispatcher публикует накопленные события уведомлений в RabbitMQ.
type Dispatcher struct {
	repo     OutboxRepository
	interval time.Duration
	batch    int
	log      *slog.Logger
}

// NewDispatcher создает новый экземпляр Dispatcher.
func NewDispatcher(repo OutboxRepository, interval time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		interval: interval,
		batch:    100,
		log:      log,
	}
}

// Run запускает цикл публикации до отмены контекста.
func (d *Dispatcher) Run(ctx context.Context, channel *amqp.Channel) {
	d.dispatch(ctx, channel)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.dispatch(ctx, channel)
		case <-ctx.Done():
			d.log.Info("outbox dispatcher stopped")
			return
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, channel *amqp.Channel) {
	events, err := d.repo.ListUnsentEvents(ctx, d.batch)
	if err != nil {
		d.log.Error("failed to list outbox events", sl.Err(err))
		return
	}
	if len(events) == 0 {
		return
	}
	d.log.Info("dispatching outbox events", slog.Int("count", len(events)))

	for _, event := range events {
		routingKey, ok := routingKeyFor(event.Kind)
		if !ok {
			d.log.Error("unknown outbox event kind, skipping",
				slog.String("id", event.ID), slog.String("kind", event.Kind))
			continue
		}
		if err := rabbitmq.PublishMessage(channel, rabbitmq.NotificationsExchange, routingKey, json.RawMessage(event.Payload)); err != nil {
			publishFailedTotal.Inc()
			d.log.Error("failed to publish outbox event", slog.String("id", event.ID), sl.Err(err))
			continue
		}
		if err := d.repo.MarkEventSent(ctx, event.ID); err != nil {
			d.log.Error("failed to mark event sent", slog.String("id", event.ID), sl.Err(err))
			continue
		}
		publishedTotal.Inc()
	}
}

func routingKeyFor(kind string) (string, bool) {
	switch kind {
	case models.KindScanCompleted:
		return rabbitmq.ScanReadyRoutingKey, true
	default:
		return "", false
	}
}

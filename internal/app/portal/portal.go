package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/soulsirensomatics/portal/internal/cache"
	"github.com/soulsirensomatics/portal/internal/config"
	appjwt "github.com/soulsirensomatics/portal/internal/lib/jwt"
	"github.com/soulsirensomatics/portal/internal/migrations"
	"github.com/soulsirensomatics/portal/internal/rabbitmq"
	authservice "github.com/soulsirensomatics/portal/internal/services/auth"
	bookingservice "github.com/soulsirensomatics/portal/internal/services/booking"
	clientservice "github.com/soulsirensomatics/portal/internal/services/client"
	contactservice "github.com/soulsirensomatics/portal/internal/services/contact"
	membershipservice "github.com/soulsirensomatics/portal/internal/services/membership"
	outboxservice "github.com/soulsirensomatics/portal/internal/services/outbox"
	scanservice "github.com/soulsirensomatics/portal/internal/services/scan"
	"github.com/soulsirensomatics/portal/internal/storage/blob"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// App связывает HTTP-сервер, хранилища и диспетчер уведомлений.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	dispatcher *outboxservice.Dispatcher
	amqpConn   *amqp.Connection
	amqpCh     *amqp.Channel
}

// New собирает приложение: подключает PostgreSQL, Redis и RabbitMQ,
// прогоняет миграции и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	blobs, err := blob.New(cfg.UploadsDir)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	amqpCh, err := rabbitmq.SetupChannel(amqpConn)
	if err != nil {
		amqpConn.Close()
		return nil, err
	}

	jwtMaker := appjwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	svc := Services{
		Auth:       authservice.NewAuthService(db, jwtMaker, logger),
		Booking:    bookingservice.NewBookingService(db, cacheRedis, logger),
		Scan:       scanservice.NewScanService(db, blobs, cfg.ServerURL, logger),
		Membership: membershipservice.NewMembershipService(db, logger),
		Client:     clientservice.NewClientService(db, logger),
		Contact:    contactservice.NewContactService(db, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc, jwtMaker, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		dispatcher: outboxservice.NewDispatcher(db, 5*time.Second, logger),
		amqpConn:   amqpConn,
		amqpCh:     amqpCh,
	}, nil
}

// Run запускает HTTP-сервер и диспетчер outbox, останавливая оба
// по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	go a.dispatcher.Run(ctx, a.amqpCh)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.amqpCh.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.amqpConn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		a.db.DB.Close()
		return err
	}
}

package quickstock

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	_ "github.com/magabrotheeeer/quick-stock/docs" // swagger

	"github.com/magabrotheeeer/quick-stock/internal/cache"
	"github.com/magabrotheeeer/quick-stock/internal/config"
	"github.com/magabrotheeeer/quick-stock/internal/http/handlers/health"
	"github.com/magabrotheeeer/quick-stock/internal/lib/jwt"
	"github.com/magabrotheeeer/quick-stock/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/metrics"
	"github.com/magabrotheeeer/quick-stock/internal/migrations"
	"github.com/magabrotheeeer/quick-stock/internal/paymentprovider"
	"github.com/magabrotheeeer/quick-stock/internal/services/inventory"
	"github.com/magabrotheeeer/quick-stock/internal/services/quota"
	"github.com/magabrotheeeer/quick-stock/internal/services/sales"
	"github.com/magabrotheeeer/quick-stock/internal/services/session"
	"github.com/magabrotheeeer/quick-stock/internal/services/subscription"
	"github.com/magabrotheeeer/quick-stock/internal/services/tenant"
	"github.com/magabrotheeeer/quick-stock/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App держит HTTP-сервер и все ресурсы процесса.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *rabbitmq.Publisher
}

// New открывает хранилище, накатывает миграции, подключается к redis и брокеру
// и собирает сервисы. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	app.db, err = repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(app.db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err = repository.CheckDatabaseReady(ctx, app.db); err != nil {
		return nil, err
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var events sales.EventPublisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		app.amqpConn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		ch, chErr := rabbitmq.SetupChannel(app.amqpConn, cfg.Exchange, rabbitmq.GetEventQueues())
		if chErr != nil {
			err = chErr
			return nil, err
		}
		app.publisher = rabbitmq.NewPublisher(ch, cfg.Exchange)
		events = app.publisher
	} else {
		logger.Warn("rabbitmq url is empty, domain events are not published")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	svc := Services{
		Session:      session.NewGate(jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger),
		Tenants:      tenant.NewRegistry(app.db, app.cache, cfg.CacheTTL, cfg.Quota.Initial, logger),
		Quota:        quota.NewLedger(app.db, app.cache, m, logger),
		Inventory:    inventory.NewStore(app.db, app.cache, cfg.Quota.Mode, m, logger),
		Sales:        sales.NewRecorder(app.db, events, cfg.EnforceStock, m, logger),
		Subscription: subscription.NewActivator(app.db, paymentprovider.NewClient(cfg.Payment), app.cache, events, cfg.Currency, cfg.Tiers, cfg.Prices, m, logger),
		Checks: map[string]health.Check{
			"postgres": func(ctx context.Context) error { return repository.CheckDatabaseReady(ctx, app.db) },
			"redis":    app.cache.Ping,
		},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, cfg, logger, m, svc)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	logger.Info("quick-stock configured",
		slog.String("quota_mode", cfg.Quota.Mode),
		slog.Bool("enforce_stock", cfg.EnforceStock),
	)
	return app, nil
}

// Run запускает HTTP-сервер и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
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
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close amqp channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close amqp connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis client", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
}

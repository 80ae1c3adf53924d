// Package botapp собирает компоненты бота и управляет их жизненным циклом.
package botapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/byteport-bot/internal/bot"
	"github.com/magabrotheeeer/byteport-bot/internal/cache"
	"github.com/magabrotheeeer/byteport-bot/internal/config"
	"github.com/magabrotheeeer/byteport-bot/internal/http/handlers/health"
	"github.com/magabrotheeeer/byteport-bot/internal/lib/sl"
	"github.com/magabrotheeeer/byteport-bot/internal/metrics"
	"github.com/magabrotheeeer/byteport-bot/internal/migrations"
	"github.com/magabrotheeeer/byteport-bot/internal/rabbitmq"
	"github.com/magabrotheeeer/byteport-bot/internal/services/order"
	"github.com/magabrotheeeer/byteport-bot/internal/services/scheduler"
	"github.com/magabrotheeeer/byteport-bot/internal/services/subscription"
	"github.com/magabrotheeeer/byteport-bot/internal/storage/filestore"
	"github.com/magabrotheeeer/byteport-bot/internal/storage/repository"
	"github.com/magabrotheeeer/byteport-bot/internal/telegram"
)

const shutdownTimeout = 15 * time.Second

var errUpdatesStopped = errors.New("telegram updates channel closed")

// App процесс бота: опрос мессенджера, сервер проверки живости и планировщик.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	client     *telegram.Client
	controller *bot.Controller
	scheduler  *scheduler.SchedulerService
	closers    []io.Closer
}

// New создает все зависимости по конфигурации. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	const op = "app.bot.New"
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	repo, check, err := a.initStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	staging, err := a.initStaging(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher, err := a.initPublisher(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subscriptions := subscription.NewService(repo, publisher, logger, subscription.Options{
		TrialEnabled: !cfg.Subscription.TrialDisabled,
		Key:          cfg.PlaceholderKey,
		Address:      cfg.PlaceholderAddress,
	})
	orders := order.NewService(staging, subscriptions, logger, cfg.BasePrice)
	m := metrics.New(prometheus.DefaultRegisterer)

	client, err := telegram.New(cfg.Telegram.Token, cfg.PollTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.client = client

	a.controller, err = bot.New(client, subscriptions, orders, m, logger, bot.Options{
		TrialDays:        cfg.TrialDays,
		BasePrice:        cfg.BasePrice,
		ChannelURL:       cfg.ChannelURL,
		SupportURL:       cfg.SupportURL,
		RPS:              cfg.RateLimit.RPS,
		Burst:            cfg.Burst,
		LimiterCacheSize: cfg.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.SchedulerEnabled {
		a.scheduler = scheduler.NewSchedulerService(subscriptions, client, logger, cfg.Interval)
	}

	a.server = &http.Server{
		Addr:         cfg.HTTPServer.Address(),
		Handler:      health.NewRouter(health.New(logger, check), prometheus.DefaultGatherer),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) initStorage(ctx context.Context, cfg *config.Config) (subscription.Repository, health.Checker, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := repository.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db)
		if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			return nil, nil, err
		}
		if err := repository.CheckDatabaseReady(ctx, db); err != nil {
			return nil, nil, err
		}
		a.logger.Info("using postgres user storage")
		return db, db.DB.PingContext, nil
	default:
		a.logger.Info("using file user storage", slog.String("path", cfg.FilePath))
		return filestore.New(cfg.FilePath, a.logger), nil, nil
	}
}

func (a *App) initStaging(ctx context.Context, cfg *config.Config) (order.Store, error) {
	if cfg.StagingDriver != "redis" {
		return order.NewMemoryStore(), nil
	}
	c, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, c)
	a.logger.Info("using redis order staging", slog.String("address", cfg.AddressRedis))
	return cache.NewOrderStore(c, cfg.Staging.TTL), nil
}

func (a *App) initPublisher(ctx context.Context, cfg *config.Config) (subscription.Publisher, error) {
	if !cfg.RabbitMQ.Enabled {
		return rabbitmq.Noop{}, nil
	}
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn)
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.SubscriptionQueues(cfg.RoutingKey))
	if err != nil {
		return nil, err
	}
	a.logger.Info("publishing subscription events", slog.String("exchange", cfg.Exchange))
	return rabbitmq.NewPublisher(ch, cfg.Exchange, cfg.RoutingKey), nil
}

// Run запускает сервер проверки живости, планировщик и опрос обновлений.
// Возвращается после отмены ctx и корректной остановки всех частей.
func (a *App) Run(ctx context.Context) error {
	defer a.close()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	})
	if a.scheduler != nil {
		g.Go(func() error {
			a.scheduler.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		a.client.Run(gctx, a.controller)
		if gctx.Err() == nil {
			return errUpdatesStopped
		}
		return nil
	})

	return g.Wait()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}

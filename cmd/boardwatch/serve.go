package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/boardwatch/api/handler"
	"github.com/fastygo/boardwatch/internal/infrastructure/buffer"
	kafkaInfra "github.com/fastygo/boardwatch/internal/infrastructure/kafka"
	"github.com/fastygo/boardwatch/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/boardwatch/internal/infrastructure/redis"
	"github.com/fastygo/boardwatch/internal/middleware"
	"github.com/fastygo/boardwatch/internal/router"
	"github.com/fastygo/boardwatch/internal/services"
	"github.com/fastygo/boardwatch/internal/services/lifecycle"
	"github.com/fastygo/boardwatch/pkg/httpcontext"
	"github.com/fastygo/boardwatch/pkg/logger"
	"github.com/fastygo/boardwatch/repository"
	kafkaRepo "github.com/fastygo/boardwatch/repository/kafka"
	kanboardRepo "github.com/fastygo/boardwatch/repository/kanboard"
	redisRepo "github.com/fastygo/boardwatch/repository/redis"
	calendarUC "github.com/fastygo/boardwatch/usecase/calendar"
	sensorUC "github.com/fastygo/boardwatch/usecase/sensor"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the poller, notification sinks and HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, zapLogger, err := setup(cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.WithSignals(cmd.Context())
	defer stop()

	sinks := []repository.NotificationPublisher{
		services.NewLogPublisher(logger.Component(zapLogger, "notifications")),
	}
	monOpts := monitor.Options{KafkaBrokers: cfg.Kafka.Brokers}

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	if redisClient != nil {
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		monOpts.Redis = redisClient
		sinks = append(sinks, redisRepo.NewNotificationPublisher(redisClient, cfg.Notify.RedisChannel))
	}

	if writer := kafkaInfra.NewWriter(cfg.Kafka); writer != nil {
		manager.Register("kafka", func(ctx context.Context) error {
			return writer.Close()
		})
		sinks = append(sinks, kafkaRepo.NewNotificationPublisher(writer))
	}

	var store *buffer.Store
	if cfg.Outbox.Path != "" {
		store, err = buffer.Open(cfg.Outbox.Path, buffer.DefaultBucket)
		if err != nil {
			return fmt.Errorf("failed to open outbox: %w", err)
		}
		manager.Register("outbox_store", func(ctx context.Context) error {
			return store.Close()
		})
		monOpts.Outbox = store
	}

	mon := monitor.New(monOpts, logger.Component(zapLogger, "monitor"))

	var outbox services.Outbox
	if store != nil {
		processor := services.NewOutboxProcessor(
			store,
			mon,
			logger.Component(zapLogger, "outbox"),
			services.ProcessorConfig{
				Interval:   cfg.Outbox.DrainInterval,
				BatchSize:  cfg.Outbox.BatchSize,
				MaxRetries: cfg.Outbox.MaxRetries,
			},
			sinks...,
		)
		outbox = processor
		processor.Start()
		manager.Register("outbox_processor", processor.Stop)
	}

	notifier := services.NewNotifier(services.NotifierConfig{
		QueueSize: cfg.Notify.QueueSize,
		Dedup:     cfg.Notify.Dedup,
	}, outbox, logger.Component(zapLogger, "notifier"), sinks...)
	notifier.Start()
	manager.Register("notifier", notifier.Stop)

	board := kanboardRepo.NewBoardRepository(newBoardClient(cfg, zapLogger))
	coordinator := services.NewCoordinator(board, notifier, logger.Component(zapLogger, "coordinator"), services.CoordinatorConfig{
		Interval:      cfg.Refresh.Interval,
		MinInterval:   cfg.Refresh.MinInterval,
		DueSoonDays:   cfg.Refresh.DueSoonDays,
		IncludeClosed: cfg.Kanboard.IncludeClosed,
	})

	mon.WatchRefresh(coordinator)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	firstCtx, cancelFirst := context.WithTimeout(appCtx, cfg.Refresh.Interval)
	coordinator.Start(firstCtx)
	cancelFirst()
	manager.Register("coordinator", coordinator.Stop)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	handlers := router.Handlers{
		Health:   apiHandler.NewHealthHandler(mon, notifier, ctxAdapter, zapLogger),
		Sensor:   apiHandler.NewSensorHandler(sensorUC.New(coordinator, cfg.Refresh.DueSoonDays, zapLogger), coordinator, ctxAdapter, zapLogger),
		Calendar: apiHandler.NewCalendarHandler(calendarUC.New(coordinator), ctxAdapter, zapLogger),
		Refresh:  apiHandler.NewRefreshHandler(coordinator, cfg.Refresh.Interval, ctxAdapter, zapLogger),
	}
	r := router.New(handlers, middleware.JWTAuth(cfg.JWT.Secret, zapLogger))

	server := &fasthttp.Server{
		Handler:      httpcontext.AccessLog(logger.Component(zapLogger, "http"))(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		serveErr <- server.ListenAndServe(cfg.Address())
	}()
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	var runErr error
	select {
	case <-appCtx.Done():
	case err := <-serveErr:
		if err != nil {
			zapLogger.Error("server crashed", zap.Error(err))
			runErr = err
		}
	}

	shutdownStarted := time.Now()
	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	zapLogger.Info("shutdown complete", zap.Duration("took", time.Since(shutdownStarted)))
	return runErr
}

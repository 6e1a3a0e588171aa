package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StableBench/internal/usecase"
	pkgch "StableBench/pkg/clickhouse"
	"StableBench/pkg/config"
	xhttp "StableBench/pkg/http"
	pkgkafka "StableBench/pkg/kafka"
	applogger "StableBench/pkg/logger"
	"StableBench/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	engine      *usecase.BenchmarkEngine
	collector   *usecase.ObservationCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	jobQueue    *queue.RedisQueue
	scheduler   *usecase.ReconstituteScheduler
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies. Kafka consumer,
// ClickHouse client, queue and scheduler may be nil when disabled.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	engine *usecase.BenchmarkEngine,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	jobQueue *queue.RedisQueue,
	scheduler *usecase.ReconstituteScheduler,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		jobQueue:  jobQueue,
		scheduler: scheduler,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start feed collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started",
		applogger.String("feed", a.cfg.Feed.Mode),
		applogger.Strings("universe", a.cfg.Engine.Universe))

	// Start tick loop
	a.engine.Start(ctx)
	l.Info("benchmark engine started",
		applogger.Duration("tick_interval_ms", a.cfg.Engine.TickInterval))

	// Start observation consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start reconstitution queue and scheduler if configured
	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			l.Error("job queue start error", applogger.Error(err))
		} else if a.scheduler != nil {
			a.scheduler.Start(ctx)
			l.Info("reconstitution scheduler started",
				applogger.Duration("interval_ms", a.cfg.Reconstitute.Interval))
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	// Stop accepting observations first so in-flight ticks drain cleanly
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Wait for in-flight ticks
	a.engine.Stop()

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Stop job queue
	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Flush any aggregated logs before exit
	l.RemoveCollector()

	l.Info("shutdown complete")
	return nil
}

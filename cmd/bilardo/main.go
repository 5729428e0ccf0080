package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bilardo/internal/amqp"
	"bilardo/internal/cli"
	apphttp "bilardo/internal/http"
	applog "bilardo/internal/log"
	"bilardo/internal/report"
	"bilardo/internal/session"
	"bilardo/internal/stock"
	"bilardo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	src, closeSource := cli.OpenSource(ctx, logger, cfg)

	// Stock events are optional; without a broker mutations are only logged.
	var publisher stock.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(applog.ComponentAMQP).Logger)
		if err != nil {
			logger.Warn("AMQP unavailable, stock events disabled", "error", err)
		} else {
			amqpClient = c
			publisher = c
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	}

	stockSvc := stock.NewService(src, publisher, cfg.LowStockThreshold,
		logger.WithComponent(applog.ComponentStock).Logger)

	deps := apphttp.Deps{
		Records: src,
		Stock:   stockSvc,
		Locale:  report.ParseLocale(cfg.ReportLocale),
		Logger:  logger.WithComponent(applog.ComponentHTTP),
	}

	var poller *worker.SessionPoller
	sessions := session.NewClient(cfg.SessionAPIURL, cfg.SessionAPITimeout)
	if sessions.Configured() {
		poller = worker.NewSessionPoller(sessions, cfg.SessionRefreshSchedule, cfg.SessionAPITimeout,
			logger.WithComponent(applog.ComponentSession).Logger)
		if err := poller.Start(); err != nil {
			logger.Error("Failed to start session poller", "error", err)
			os.Exit(1)
		}
		poller.Refresh(ctx)
		deps.Sessions = sessions
		deps.Tables = poller
		logger.Info("Session service configured", "url", cfg.SessionAPIURL, "schedule", cfg.SessionRefreshSchedule)
	} else {
		logger.Info("Session service disabled - no SESSION_API_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting bilardo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.RunCleanup(logger, 10*time.Second, func() {
		if poller != nil {
			poller.Stop()
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close failed", "error", err)
			}
		}
		closeSource()
	})
}

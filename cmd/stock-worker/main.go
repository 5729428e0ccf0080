package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bilardo/internal/amqp"
	"bilardo/internal/cli"
	"bilardo/internal/core"
	applog "bilardo/internal/log"
	"bilardo/internal/stock"
	"bilardo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting stock-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for stock-worker")
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	src, closeSource := cli.OpenSource(ctx, logger, cfg)
	defer closeSource()

	alerts := worker.NewStockAlerts(logger.WithComponent(applog.ComponentWorker).Logger)

	// Prime the alert state from the catalog; a failure only means the first
	// event per product may alert twice.
	view, err := stock.NewService(src, nil, cfg.LowStockThreshold, logger.WithComponent(applog.ComponentStock).Logger).Overview(ctx)
	if err != nil {
		logger.Warn("Failed to load catalog for alert state", "error", err)
	} else {
		statuses := make(map[string]core.StockStatus, len(view.Products))
		for _, p := range view.Products {
			statuses[p.ID] = p.Status
		}
		alerts.Seed(statuses)
		logger.Info("Alert state loaded", "products", len(statuses), "low", view.LowCount, "out", view.OutCount)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		logger.WithComponent(applog.ComponentAMQP).Logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	if err := client.ConsumeStockChanges(ctx, alerts.Handler()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
	}

	cli.RunCleanup(logger, 5*time.Second, func() {
		if err := client.Close(); err != nil {
			logger.Warn("AMQP close failed", "error", err)
		}
	})
}

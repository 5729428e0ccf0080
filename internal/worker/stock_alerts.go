package worker

import (
	"context"
	"log/slog"
	"sync"

	"bilardo/internal/amqp"
	"bilardo/internal/core"
)

// StockAlerts consumes stock change events and reports products that ran
// low or out. It remembers the last status per product so an alert is
// logged once per transition.
type StockAlerts struct {
	logger *slog.Logger

	mu     sync.Mutex
	status map[string]string
}

func NewStockAlerts(logger *slog.Logger) *StockAlerts {
	if logger == nil {
		logger = slog.Default()
	}
	return &StockAlerts{logger: logger, status: map[string]string{}}
}

// Seed records the current status of each product so the first event after
// startup only alerts on a real transition.
func (a *StockAlerts) Seed(statuses map[string]core.StockStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, st := range statuses {
		a.status[id] = string(st)
	}
}

// HandleStockChange processes a single stock change message from AMQP.
// It returns true when the message raised an alert.
func (a *StockAlerts) HandleStockChange(ctx context.Context, msg *amqp.StockChangeMessage) (bool, error) {
	a.logger.DebugContext(ctx, "Processing stock change",
		"id", msg.ID,
		"operation", msg.Operation,
		"product_id", msg.ProductID)

	if msg.ProductID == "" {
		return false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if msg.Operation == amqp.OpProductDeleted {
		delete(a.status, msg.ProductID)
		return false, nil
	}

	prev := a.status[msg.ProductID]
	a.status[msg.ProductID] = msg.Status
	if prev == msg.Status {
		return false, nil
	}

	switch core.StockStatus(msg.Status) {
	case core.OutOfStock:
		a.logger.WarnContext(ctx, "Product out of stock",
			"product_id", msg.ProductID,
			"product", msg.ProductName,
			"stock", msg.Stock)
		return true, nil
	case core.LowStock:
		a.logger.WarnContext(ctx, "Product stock is low",
			"product_id", msg.ProductID,
			"product", msg.ProductName,
			"stock", msg.Stock)
		return true, nil
	}
	if prev != "" {
		a.logger.InfoContext(ctx, "Product restocked",
			"product_id", msg.ProductID,
			"product", msg.ProductName,
			"stock", msg.Stock)
	}
	return false, nil
}

// Handler adapts HandleStockChange to the consumer callback.
func (a *StockAlerts) Handler() func(context.Context, *amqp.StockChangeMessage) error {
	return func(ctx context.Context, msg *amqp.StockChangeMessage) error {
		_, err := a.HandleStockChange(ctx, msg)
		return err
	}
}

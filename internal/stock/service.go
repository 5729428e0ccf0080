// Package stock manages the product catalog and its stock counts.
package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bilardo/internal/amqp"
	"bilardo/internal/core"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryInUse     = errors.New("category still has products")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateName     = errors.New("name already exists")
)

// CatalogStore reads and replaces the whole catalog.
type CatalogStore interface {
	Catalog(ctx context.Context) (core.Catalog, error)
	SaveCatalog(ctx context.Context, c core.Catalog) error
}

// Publisher receives a message after every successful mutation.
type Publisher interface {
	PublishStockChange(ctx context.Context, msg *amqp.StockChangeMessage) error
}

type ProductInput struct {
	Name       string
	CategoryID string
	Price      core.Money
	Stock      int
}

// ProductView is a product joined with its category and stock status.
type ProductView struct {
	core.Product
	CategoryName string
	Status       core.StockStatus
}

type View struct {
	Categories []core.Category
	Products   []ProductView
	LowCount   int
	OutCount   int
	Threshold  int
}

// Service serialises catalog mutations: each one loads the catalog, applies
// the change to a copy and writes the copy back.
type Service struct {
	store     CatalogStore
	publisher Publisher
	threshold int
	logger    *slog.Logger
	mu        sync.Mutex
}

func NewService(store CatalogStore, publisher Publisher, threshold int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, publisher: publisher, threshold: threshold, logger: logger}
}

func (s *Service) Threshold() int { return s.threshold }

func (s *Service) Catalog(ctx context.Context) (core.Catalog, error) {
	return s.store.Catalog(ctx)
}

// Overview returns every product with its status, plus low/out counts.
func (s *Service) Overview(ctx context.Context) (View, error) {
	cat, err := s.store.Catalog(ctx)
	if err != nil {
		return View{}, err
	}
	v := View{Categories: cat.Categories, Products: make([]ProductView, 0, len(cat.Products)), Threshold: s.threshold}
	for _, p := range cat.Products {
		pv := ProductView{Product: p, CategoryName: cat.CategoryName(p.CategoryID), Status: p.Status(s.threshold)}
		switch pv.Status {
		case core.LowStock:
			v.LowCount++
		case core.OutOfStock:
			v.OutCount++
		}
		v.Products = append(v.Products, pv)
	}
	return v, nil
}

// LowStock lists products that are low or out of stock.
func (s *Service) LowStock(ctx context.Context) ([]ProductView, error) {
	v, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	out := []ProductView{}
	for _, p := range v.Products {
		if p.Status != core.InStock {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) AddCategory(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	err := s.mutate(ctx, func(cat *core.Catalog) (*amqp.StockChangeMessage, error) {
		for _, existing := range cat.Categories {
			if strings.EqualFold(existing.Name, c.Name) {
				return nil, fmt.Errorf("category %q: %w", c.Name, ErrDuplicateName)
			}
		}
		cat.Categories = append(cat.Categories, c)
		msg := amqp.NewStockChangeMessage(amqp.OpCategoryAdded, "", "", 0, 0, "")
		msg.CategoryID = c.ID
		return msg, nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.mutate(ctx, func(cat *core.Catalog) (*amqp.StockChangeMessage, error) {
		i := cat.CategoryIndex(id)
		if i < 0 {
			return nil, ErrCategoryNotFound
		}
		for _, p := range cat.Products {
			if p.CategoryID == id {
				return nil, fmt.Errorf("%s: %w", cat.Categories[i].Name, ErrCategoryInUse)
			}
		}
		cat.Categories = append(cat.Categories[:i], cat.Categories[i+1:]...)
		msg := amqp.NewStockChangeMessage(amqp.OpCategoryDeleted, "", "", 0, 0, "")
		msg.CategoryID = id
		return msg, nil
	})
}

func (s *Service) AddProduct(ctx context.Context, in ProductInput) (core.Product, error) {
	p := core.Product{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(in.Name),
		CategoryID: strings.TrimSpace(in.CategoryID),
		Price:      in.Price,
		Stock:      in.Stock,
	}
	if err := p.Validate(); err != nil {
		return core.Product{}, err
	}
	err := s.mutate(ctx, func(cat *core.Catalog) (*amqp.StockChangeMessage, error) {
		if cat.CategoryIndex(p.CategoryID) < 0 {
			return nil, ErrCategoryNotFound
		}
		for _, existing := range cat.Products {
			if strings.EqualFold(existing.Name, p.Name) {
				return nil, fmt.Errorf("product %q: %w", p.Name, ErrDuplicateName)
			}
		}
		cat.Products = append(cat.Products, p)
		msg := amqp.NewStockChangeMessage(amqp.OpProductAdded, p.ID, p.Name, p.Stock, p.Stock, string(p.Status(s.threshold)))
		msg.CategoryID = p.CategoryID
		return msg, nil
	})
	if err != nil {
		return core.Product{}, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.mutate(ctx, func(cat *core.Catalog) (*amqp.StockChangeMessage, error) {
		i := cat.ProductIndex(id)
		if i < 0 {
			return nil, ErrProductNotFound
		}
		p := cat.Products[i]
		cat.Products = append(cat.Products[:i], cat.Products[i+1:]...)
		return amqp.NewStockChangeMessage(amqp.OpProductDeleted, p.ID, p.Name, -p.Stock, 0, ""), nil
	})
}

// StockIn adds qty units to a product.
func (s *Service) StockIn(ctx context.Context, id string, qty int) (core.Product, error) {
	return s.adjust(ctx, id, qty, amqp.OpStockIn)
}

// StockOut removes qty units; the count never goes below zero.
func (s *Service) StockOut(ctx context.Context, id string, qty int) (core.Product, error) {
	return s.adjust(ctx, id, -qty, amqp.OpStockOut)
}

func (s *Service) adjust(ctx context.Context, id string, delta int, op string) (core.Product, error) {
	if delta == 0 || (op == amqp.OpStockIn) != (delta > 0) {
		return core.Product{}, core.ErrInvalidQuantity
	}
	var updated core.Product
	err := s.mutate(ctx, func(cat *core.Catalog) (*amqp.StockChangeMessage, error) {
		i := cat.ProductIndex(id)
		if i < 0 {
			return nil, ErrProductNotFound
		}
		p := &cat.Products[i]
		if p.Stock+delta < 0 {
			return nil, fmt.Errorf("%s has %d, requested %d: %w", p.Name, p.Stock, -delta, ErrInsufficientStock)
		}
		p.Stock += delta
		updated = *p
		return amqp.NewStockChangeMessage(op, p.ID, p.Name, delta, p.Stock, string(p.Status(s.threshold))), nil
	})
	return updated, err
}

// mutate applies fn to a copy of the current catalog, saves it and publishes
// the resulting message. Publish failures are logged, never returned.
func (s *Service) mutate(ctx context.Context, fn func(*core.Catalog) (*amqp.StockChangeMessage, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	next := current.Clone()
	msg, err := fn(&next)
	if err != nil {
		return err
	}
	if err := s.store.SaveCatalog(ctx, next); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}

	if msg == nil || s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishStockChange(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish stock change", "operation", msg.Operation, "error", err)
	}
	return nil
}

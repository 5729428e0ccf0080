package core

import (
	"errors"
	"strings"
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrNegativeStock   = errors.New("stock cannot be negative")
	ErrInvalidQuantity = errors.New("quantity must be a positive whole number")
)

type StockStatus string

const (
	OutOfStock StockStatus = "out_of_stock"
	LowStock   StockStatus = "low_stock"
	InStock    StockStatus = "in_stock"
)

type (
	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Product struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		CategoryID string `json:"categoryId"`
		Price      Money  `json:"price"`
		Stock      int    `json:"stock"`
	}

	// Catalog is the persisted stock collection. It is always read and written whole.
	Catalog struct {
		Categories []Category `json:"categories"`
		Products   []Product  `json:"products"`
	}
)

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// Status classifies the stock level. A product at or below threshold is low.
func (p Product) Status(threshold int) StockStatus {
	switch {
	case p.Stock <= 0:
		return OutOfStock
	case p.Stock <= threshold:
		return LowStock
	default:
		return InStock
	}
}

// ProductIndex returns the position of the product with the given id, or -1.
func (c Catalog) ProductIndex(id string) int {
	for i, p := range c.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// CategoryIndex returns the position of the category with the given id, or -1.
func (c Catalog) CategoryIndex(id string) int {
	for i, cat := range c.Categories {
		if cat.ID == id {
			return i
		}
	}
	return -1
}

// CategoryName resolves a category id, falling back to UnknownCategory.
func (c Catalog) CategoryName(id string) string {
	if i := c.CategoryIndex(id); i >= 0 {
		return c.Categories[i].Name
	}
	return UnknownCategory
}

// Clone returns a deep copy so callers can mutate without touching a shared value.
func (c Catalog) Clone() Catalog {
	return Catalog{
		Categories: append([]Category{}, c.Categories...),
		Products:   append([]Product{}, c.Products...),
	}
}

// Package store reads and writes the point-of-sale collections held in an
// external key-value store. Adapters live in the subpackages.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by adapters used after Close.
var ErrClosed = errors.New("store closed")

// Ports for outbound adapters.
type (
	// KV is a flat key-value store of JSON documents. Get reports ok=false
	// for a missing key; err is reserved for transport failures.
	KV interface {
		Get(ctx context.Context, key string) (value []byte, ok bool, err error)
		Put(ctx context.Context, key string, value []byte) error
	}

	// Pinger is implemented by adapters that can check their connection.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Keys names the three logical collections.
type Keys struct {
	Tickets       string
	CashMovements string
	Catalog       string
}

// DefaultKeys are the collection names written by the point-of-sale front end.
var DefaultKeys = Keys{
	Tickets:       "tickets",
	CashMovements: "cash_movements",
	Catalog:       "stock_catalog",
}

// WithDefaults fills empty names from DefaultKeys.
func (k Keys) WithDefaults() Keys {
	if k.Tickets == "" {
		k.Tickets = DefaultKeys.Tickets
	}
	if k.CashMovements == "" {
		k.CashMovements = DefaultKeys.CashMovements
	}
	if k.Catalog == "" {
		k.Catalog = DefaultKeys.Catalog
	}
	return k
}

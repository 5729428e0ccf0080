package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"bilardo/internal/cache"
	"bilardo/internal/core"
)

// Source decodes collections from a KV. Reads are lenient: a missing key or a
// payload that is not a JSON array yields an empty collection, and array items
// that are not objects are skipped. Only transport errors are returned.
type Source struct {
	kv      KV
	keys    Keys
	logger  *slog.Logger
	records cache.Cache[[]core.Record]
}

type SourceOption func(*Source)

// WithRecordCache memoises decoded record collections by key.
func WithRecordCache(c cache.Cache[[]core.Record]) SourceOption {
	return func(s *Source) { s.records = c }
}

func WithLogger(l *slog.Logger) SourceOption {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSource(kv KV, keys Keys, opts ...SourceOption) *Source {
	s := &Source{kv: kv, keys: keys.WithDefaults(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Keys() Keys { return s.keys }

// Ping checks the underlying store when it supports it.
func (s *Source) Ping(ctx context.Context) error {
	if p, ok := s.kv.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Tickets returns the ticket / financial pool records.
func (s *Source) Tickets(ctx context.Context) ([]core.Record, error) {
	return s.Records(ctx, s.keys.Tickets)
}

// CashMovements returns the cash register movements.
func (s *Source) CashMovements(ctx context.Context) ([]core.Record, error) {
	return s.Records(ctx, s.keys.CashMovements)
}

// Records loads and decodes the collection stored under key. The returned
// slice is never nil and must not be modified by the caller.
func (s *Source) Records(ctx context.Context, key string) ([]core.Record, error) {
	if s.records != nil {
		if recs, ok := s.records.Get(key); ok {
			return recs, nil
		}
	}
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	recs := []core.Record{}
	if ok {
		recs = s.decodeRecords(ctx, key, raw)
	}
	if s.records != nil {
		s.records.Set(key, recs)
	}
	return recs, nil
}

func (s *Source) decodeRecords(ctx context.Context, key string, raw []byte) []core.Record {
	items, ok := s.decodeArray(ctx, key, raw)
	if !ok {
		return []core.Record{}
	}
	out := make([]core.Record, 0, len(items))
	skipped := 0
	for _, item := range items {
		item = bytes.TrimSpace(item)
		var rec core.Record
		if len(item) == 0 || item[0] != '{' {
			skipped++
			continue
		}
		if err := json.Unmarshal(item, &rec); err != nil {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	if skipped > 0 {
		s.logger.WarnContext(ctx, "Skipped malformed records", "key", key, "count", skipped)
	}
	return out
}

func (s *Source) decodeArray(ctx context.Context, key string, raw []byte) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.WarnContext(ctx, "Stored collection is not a JSON array, treating as empty",
			"key", key, "error", err)
		return nil, false
	}
	return items, true
}

// Catalog loads the stock catalog. The catalog is stored as one object with
// categories and products; malformed entries are dropped.
func (s *Source) Catalog(ctx context.Context) (core.Catalog, error) {
	cat := core.Catalog{Categories: []core.Category{}, Products: []core.Product{}}
	raw, ok, err := s.kv.Get(ctx, s.keys.Catalog)
	if err != nil {
		return cat, fmt.Errorf("read %s: %w", s.keys.Catalog, err)
	}
	if !ok {
		return cat, nil
	}

	var doc struct {
		Categories []json.RawMessage `json:"categories"`
		Products   []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(raw), &doc); err != nil {
		s.logger.WarnContext(ctx, "Stored catalog is malformed, treating as empty",
			"key", s.keys.Catalog, "error", err)
		return cat, nil
	}
	for _, item := range doc.Categories {
		var c core.Category
		if json.Unmarshal(item, &c) == nil && c.ID != "" {
			cat.Categories = append(cat.Categories, c)
		}
	}
	for _, item := range doc.Products {
		var p core.Product
		if json.Unmarshal(item, &p) == nil && p.ID != "" {
			cat.Products = append(cat.Products, p)
		}
	}
	return cat, nil
}

// SaveCatalog replaces the whole catalog document.
func (s *Source) SaveCatalog(ctx context.Context, c core.Catalog) error {
	if c.Categories == nil {
		c.Categories = []core.Category{}
	}
	if c.Products == nil {
		c.Products = []core.Product{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := s.kv.Put(ctx, s.keys.Catalog, b); err != nil {
		return fmt.Errorf("write %s: %w", s.keys.Catalog, err)
	}
	return nil
}

// Invalidate drops a cached collection, e.g. after an external write.
func (s *Source) Invalidate(key string) {
	if s.records != nil {
		s.records.Delete(key)
	}
}

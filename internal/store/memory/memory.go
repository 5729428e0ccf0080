// Package memory is an in-process KV used for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"bilardo/internal/core"
	"bilardo/internal/store"
)

// SeedCatalogFile is read when no catalog JSON is present in the data directory.
const SeedCatalogFile = "seed_catalog.yaml"

type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var (
	_ store.KV     = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
)

func New() *Store {
	return &Store{data: map[string][]byte{}}
}

// NewWithRecords seeds collections from already decoded records.
func NewWithRecords(collections map[string][]core.Record) (*Store, error) {
	s := New()
	for key, recs := range collections {
		b, err := json.Marshal(recs)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		s.data[key] = b
	}
	return s, nil
}

// NewFromFiles loads "<key>.json" for each collection in base. A missing
// catalog is seeded from seed_catalog.yaml. Missing files are not an error.
func NewFromFiles(base string, keys store.Keys) (*Store, error) {
	keys = keys.WithDefaults()
	s := New()
	for _, key := range []string{keys.Tickets, keys.CashMovements, keys.Catalog} {
		b, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		s.data[key] = b
	}

	if _, ok := s.data[keys.Catalog]; !ok {
		cat, err := loadSeedCatalog(filepath.Join(base, SeedCatalogFile))
		if err != nil {
			return nil, err
		}
		if cat != nil {
			b, err := json.Marshal(cat)
			if err != nil {
				return nil, fmt.Errorf("encode seed catalog: %w", err)
			}
			s.data[keys.Catalog] = b
			slog.Info("Seeded stock catalog", "categories", len(cat.Categories), "products", len(cat.Products))
		}
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

type seedFile struct {
	Categories []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"categories"`
	Products []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Category string `yaml:"category"`
		Price    string `yaml:"price"`
		Stock    int    `yaml:"stock"`
	} `yaml:"products"`
}

// loadSeedCatalog returns nil when the file does not exist. Products refer to
// categories by id or by name; ids are generated when omitted.
func loadSeedCatalog(path string) (*core.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read seed catalog: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}

	cat := &core.Catalog{Categories: []core.Category{}, Products: []core.Product{}}
	byName := map[string]string{}
	for _, c := range seed.Categories {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			id = uuid.NewString()
		}
		cat.Categories = append(cat.Categories, core.Category{ID: id, Name: strings.TrimSpace(c.Name)})
		byName[strings.ToLower(strings.TrimSpace(c.Name))] = id
	}
	for _, p := range seed.Products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			id = uuid.NewString()
		}
		categoryID := strings.TrimSpace(p.Category)
		if mapped, ok := byName[strings.ToLower(categoryID)]; ok {
			categoryID = mapped
		}
		var price core.Money
		if strings.TrimSpace(p.Price) != "" {
			if price, err = core.ParseAmount(p.Price); err != nil {
				return nil, fmt.Errorf("seed product %q: %w", p.Name, err)
			}
		}
		prod := core.Product{ID: id, Name: strings.TrimSpace(p.Name), CategoryID: categoryID, Price: price, Stock: p.Stock}
		if err := prod.Validate(); err != nil {
			return nil, fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		cat.Products = append(cat.Products, prod)
	}
	return cat, nil
}

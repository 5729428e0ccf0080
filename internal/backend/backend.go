// Package backend selects and opens the key-value store named by DATA_BACKEND.
package backend

import (
	"context"
	"time"

	"bilardo/internal/store"
)

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	SheetsBackend   BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, SheetsBackend:
		return true
	}
	return false
}

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

type BackendResult struct {
	KV      store.KV
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// Memory
	DataDirectory string
	Keys          store.Keys

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresURL     string
	PostgresTimeout time.Duration

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

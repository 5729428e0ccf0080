// Package sheets keeps collections in a Google Sheets tab: one row per key,
// the key in column A and the JSON payload split across the following cells.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilardo/internal/store"
)

// cellLimit stays under the 50k character cap Sheets puts on a single cell.
const cellLimit = 45000

// DefaultSheetName is used when no tab name is configured.
const DefaultSheetName = "Store"

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	mu            sync.Mutex
}

var (
	_ store.KV     = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
)

// New builds a store authenticated with service account credentials.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Store {
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultSheetName
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// rows reads the whole tab. Row i of the result is sheet row i+1.
func (s *Store) rows(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:ZZ", s.sheet)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func find(rows [][]any, key string) int {
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == key {
			return i
		}
	}
	return -1
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, false, err
	}
	i := find(rows, key)
	if i < 0 {
		return nil, false, nil
	}
	var b strings.Builder
	for _, cell := range rows[i][1:] {
		b.WriteString(fmt.Sprint(cell))
	}
	return []byte(b.String()), true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(ctx)
	if err != nil {
		return err
	}
	rowNum := len(rows) + 1
	prevCells := 0
	if i := find(rows, key); i >= 0 {
		rowNum = i + 1
		prevCells = len(rows[i]) - 1
	}

	cells := []any{key}
	for _, chunk := range split(string(value), cellLimit) {
		cells = append(cells, chunk)
	}
	// Blank out chunks left over from a longer previous value.
	for len(cells)-1 < prevCells {
		cells = append(cells, "")
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", s.sheet, rowNum, columnName(len(cells)-1), rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheet+"!A1").Context(ctx).Do()
	return err
}

func split(s string, n int) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	for len(s) > n {
		cut := n
		// Never split a UTF-8 sequence.
		for cut > 0 && s[cut]&0xC0 == 0x80 {
			cut--
		}
		if cut == 0 {
			cut = n
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	return append(out, s)
}

// columnName converts a zero-based column index to its A1 letters.
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

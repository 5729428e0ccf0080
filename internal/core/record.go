package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinels for missing record fields.
const (
	UndeterminedTable = "Undetermined"
	UnknownProduct    = "Unknown Product"
	UnknownCategory   = "Unknown"
)

// Origin and movement tags.
const (
	SourceTicket = "ticket"
	KindIncome   = "income"
	KindExpense  = "expense"
)

// Record is one persisted transaction-like entry. Records are written by the
// point-of-sale front end without a schema, so every field is optional and
// defaulted when decoded:
//
//	source, type, description  -> ""
//	date                       -> zero Date (RawDate keeps the original text)
//	amount                     -> 0
//	tableNumber                -> UndeterminedTable
//	productName                -> UnknownProduct
//	category                   -> UnknownCategory
//	quantity                   -> 1 (also when zero or negative)
type Record struct {
	Source      string
	Type        string
	RawDate     string
	Date        Date
	Amount      Money
	Table       string
	Product     string
	Category    string
	Quantity    int
	Description string
}

type rawRecord struct {
	Source      json.RawMessage `json:"source"`
	Type        json.RawMessage `json:"type"`
	Date        json.RawMessage `json:"date"`
	Amount      json.RawMessage `json:"amount"`
	TableNumber json.RawMessage `json:"tableNumber"`
	Table       json.RawMessage `json:"table"`
	ProductName json.RawMessage `json:"productName"`
	Category    json.RawMessage `json:"category"`
	Quantity    json.RawMessage `json:"quantity"`
	Description json.RawMessage `json:"description"`
}

type jsonRecord struct {
	Source      string `json:"source,omitempty"`
	Type        string `json:"type,omitempty"`
	Date        string `json:"date,omitempty"`
	Amount      Money  `json:"amount"`
	TableNumber string `json:"tableNumber"`
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON decodes a record object leniently. Only a non-object payload is an error.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw rawRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	table := rawText(raw.TableNumber)
	if table == "" {
		table = rawText(raw.Table)
	}
	rec := Record{
		Source:      rawText(raw.Source),
		Type:        rawText(raw.Type),
		RawDate:     rawText(raw.Date),
		Amount:      coerceMoney(raw.Amount),
		Table:       table,
		Product:     rawText(raw.ProductName),
		Category:    rawText(raw.Category),
		Quantity:    rawInt(raw.Quantity),
		Description: rawText(raw.Description),
	}
	rec.Date = NormalizeDay(rec.RawDate)
	*r = rec.Normalized()
	return nil
}

// MarshalJSON writes the normalised record with the keys it was read from.
func (r Record) MarshalJSON() ([]byte, error) {
	n := r.Normalized()
	date := n.RawDate
	if date == "" {
		date = n.Date.String()
	}
	return json.Marshal(jsonRecord{
		Source:      n.Source,
		Type:        n.Type,
		Date:        date,
		Amount:      n.Amount,
		TableNumber: n.Table,
		ProductName: n.Product,
		Category:    n.Category,
		Quantity:    n.Quantity,
		Description: n.Description,
	})
}

// Normalized returns a copy with every defaulting rule applied. Records built
// in code go through the same rules as decoded ones.
func (r Record) Normalized() Record {
	r.Source = strings.TrimSpace(r.Source)
	r.Type = strings.TrimSpace(r.Type)
	r.Table = strings.TrimSpace(r.Table)
	if r.Table == "" {
		r.Table = UndeterminedTable
	}
	r.Product = strings.TrimSpace(r.Product)
	if r.Product == "" {
		r.Product = UnknownProduct
	}
	r.Category = strings.TrimSpace(r.Category)
	if r.Category == "" {
		r.Category = UnknownCategory
	}
	if r.Quantity <= 0 {
		r.Quantity = 1
	}
	if r.Date.IsZero() && r.RawDate != "" {
		r.Date = NormalizeDay(r.RawDate)
	}
	return r
}

func (r Record) IsTicket() bool {
	return strings.EqualFold(strings.TrimSpace(r.Source), SourceTicket)
}

func (r Record) IsIncome() bool {
	return r.hasTag(KindIncome)
}

func (r Record) IsExpense() bool {
	return r.hasTag(KindExpense)
}

func (r Record) hasTag(tag string) bool {
	return strings.EqualFold(strings.TrimSpace(r.Type), tag) ||
		strings.EqualFold(strings.TrimSpace(r.Source), tag)
}

// rawText renders a JSON scalar as text: strings as-is, numbers and booleans
// by their literal, null/objects/arrays as "".
func rawText(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{', '[', 'n':
		return ""
	default:
		return string(b)
	}
}

// rawInt reads a whole quantity from a number or numeric string. Fractions are
// truncated; anything unreadable is 0 and later defaulted.
func rawInt(b json.RawMessage) int {
	s := rawText(b)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}

package report

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"bilardo/internal/core"
)

// DefaultLocale orders product names when no locale is configured.
var DefaultLocale = language.Turkish

type ProductSummary struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Quantity int        `json:"quantity"`
	Total    core.Money `json:"total"`
}

// ProductReport lists product sales alphabetically. The grand figures are the
// sums of the rows, so they always match what is displayed.
type ProductReport struct {
	Range         core.DateRange   `json:"-"`
	Rows          []ProductSummary `json:"rows"`
	GrandQuantity int              `json:"grandQuantity"`
	GrandTotal    core.Money       `json:"grandTotal"`
}

// ParseLocale resolves a BCP 47 tag, falling back to DefaultLocale.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return DefaultLocale
	}
	return tag
}

// SummarizeProducts groups income records inside rng by product name.
func SummarizeProducts(records []core.Record, rng core.DateRange, locale language.Tag) ProductReport {
	rep := ProductReport{Range: rng, Rows: []ProductSummary{}}
	index := map[string]int{}
	for _, rec := range records {
		if !rec.IsIncome() {
			continue
		}
		rec = rec.Normalized()
		if !rng.Contains(rec.Date) {
			continue
		}
		i, ok := index[rec.Product]
		if !ok {
			i = len(rep.Rows)
			index[rec.Product] = i
			rep.Rows = append(rep.Rows, ProductSummary{Name: rec.Product, Category: core.UnknownCategory})
		}
		row := &rep.Rows[i]
		row.Quantity += rec.Quantity
		row.Total = row.Total.Add(rec.Amount)
		if row.Category == core.UnknownCategory && rec.Category != core.UnknownCategory {
			row.Category = rec.Category
		}
	}

	// collate.Collator keeps iteration buffers; one per call keeps this safe for concurrent callers.
	col := collate.New(locale)
	slices.SortFunc(rep.Rows, func(a, b ProductSummary) int {
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	for _, row := range rep.Rows {
		rep.GrandQuantity += row.Quantity
		rep.GrandTotal = rep.GrandTotal.Add(row.Total)
	}
	return rep
}

// Package export renders report results as XLSX workbooks and PDF documents.
// Both formats are produced from the same Sheet values so they always carry
// the rows and totals shown on the HTML pages.
package export

import (
	"fmt"
	"strconv"

	"bilardo/internal/core"
	"bilardo/internal/report"
)

// Sheet is one titled table of a document.
type Sheet struct {
	Name     string
	Title    string
	Subtitle string
	Headers  []string
	Widths   []float64
	Rows     [][]any
	Footer   []any
}

// Document is an ordered set of sheets with a file name stem.
type Document struct {
	Name   string
	Sheets []Sheet
}

func rangeLabel(r core.DateRange) string {
	from, to := "başlangıç", "bugün"
	if !r.From.IsZero() {
		from = r.From.String()
	}
	if !r.To.IsZero() {
		to = r.To.String()
	}
	return from + " / " + to
}

// TablesDocument holds the table ranking and the ticket details.
func TablesDocument(rep report.TableReport) Document {
	ranking := Sheet{
		Name:     "Masalar",
		Title:    "Masa Ciro Sıralaması",
		Subtitle: rangeLabel(rep.Range),
		Headers:  []string{"#", "Masa", "Adisyon", "Toplam", "Ortalama"},
		Widths:   []float64{12, 50, 30, 45, 45},
		Rows:     make([][]any, 0, len(rep.Ranking)),
		Footer:   []any{"", "Toplam", rep.Count, rep.Total, ""},
	}
	for i, s := range rep.Ranking {
		ranking.Rows = append(ranking.Rows, []any{i + 1, s.Table, s.Count, s.Total, s.Average()})
	}

	details := Sheet{
		Name:     "Detay",
		Title:    "Adisyon Detayı",
		Subtitle: rangeLabel(rep.Range),
		Headers:  []string{"Masa", "Tarih", "Açıklama", "Tutar"},
		Widths:   []float64{30, 35, 85, 32},
		Rows:     make([][]any, 0, len(rep.Details)),
		Footer:   []any{"Toplam", "", "", rep.Total},
	}
	for _, rec := range rep.Details {
		details.Rows = append(details.Rows, []any{rec.Table, displayDate(rec), rec.Description, rec.Amount})
	}
	return Document{Name: "masa-raporu", Sheets: []Sheet{ranking, details}}
}

func ProductsDocument(rep report.ProductReport) Document {
	s := Sheet{
		Name:     "Ürünler",
		Title:    "Ürün Satış Özeti",
		Subtitle: rangeLabel(rep.Range),
		Headers:  []string{"Ürün", "Kategori", "Adet", "Tutar"},
		Widths:   []float64{70, 50, 25, 37},
		Rows:     make([][]any, 0, len(rep.Rows)),
		Footer:   []any{"Toplam", "", rep.GrandQuantity, rep.GrandTotal},
	}
	for _, row := range rep.Rows {
		s.Rows = append(s.Rows, []any{row.Name, row.Category, row.Quantity, row.Total})
	}
	return Document{Name: "urun-raporu", Sheets: []Sheet{s}}
}

func ExpensesDocument(l report.ExpenseLedger) Document {
	s := Sheet{
		Name:     "Giderler",
		Title:    "Gider Listesi",
		Subtitle: l.Day.String(),
		Headers:  []string{"Tarih", "Açıklama", "Kategori", "Tutar"},
		Widths:   []float64{35, 80, 35, 32},
		Rows:     make([][]any, 0, len(l.Items)),
		Footer:   []any{"Toplam", "", "", l.Total},
	}
	for _, rec := range l.Items {
		s.Rows = append(s.Rows, []any{displayDate(rec), rec.Description, rec.Category, rec.Amount})
	}
	return Document{Name: "giderler-" + l.Day.String(), Sheets: []Sheet{s}}
}

func displayDate(rec core.Record) string {
	if !rec.Date.IsZero() {
		return rec.Date.String()
	}
	return rec.RawDate
}

// text renders a cell for formats without typed cells.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case core.Money:
		return FormatLira(x)
	default:
		return fmt.Sprint(x)
	}
}

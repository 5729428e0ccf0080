package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"bilardo/internal/core"
	"bilardo/internal/export"
	applog "bilardo/internal/log"
	"bilardo/internal/report"
)

type rangeForm struct {
	From string
	To   string
}

func newRangeForm(r core.DateRange) rangeForm {
	return rangeForm{From: r.From.String(), To: r.To.String()}
}

type tablesPage struct {
	page
	Filter rangeForm
	Report report.TableReport
}

type productsPage struct {
	page
	Filter rangeForm
	Report report.ProductReport
}

type expensesPage struct {
	page
	Date   string
	Ledger report.ExpenseLedger
}

type tableRowJSON struct {
	Table   string     `json:"table"`
	Total   core.Money `json:"total"`
	Count   int        `json:"count"`
	Average core.Money `json:"average"`
}

// loadRecords reads a collection; a store failure degrades to no data.
func (s *Server) loadRecords(ctx context.Context, load func(context.Context) ([]core.Record, error), what string) ([]core.Record, []string) {
	recs, err := load(ctx)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Record load failed", applog.FieldKey, what, "error", err)
		return nil, []string{"Veriler okunamadı, rapor boş gösteriliyor"}
	}
	return recs, nil
}

func (s *Server) tickets(ctx context.Context) ([]core.Record, []string) {
	if s.records == nil {
		return nil, nil
	}
	return s.loadRecords(ctx, s.records.Tickets, "tickets")
}

func (s *Server) cashMovements(ctx context.Context) ([]core.Record, []string) {
	if s.records == nil {
		return nil, nil
	}
	return s.loadRecords(ctx, s.records.CashMovements, "cash_movements")
}

func (s *Server) handleTablesReport(w http.ResponseWriter, r *http.Request) {
	params, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	recs, warnings := s.tickets(r.Context())
	rep := report.RankTables(recs, params.Range)

	switch params.Format {
	case FormatJSON:
		rows := make([]tableRowJSON, 0, len(rep.Ranking))
		for _, g := range rep.Ranking {
			rows = append(rows, tableRowJSON{Table: g.Table, Total: g.Total, Count: g.Count, Average: g.Average()})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"from":    params.Range.From.String(),
			"to":      params.Range.To.String(),
			"ranking": rows,
			"details": rep.Details,
			"total":   rep.Total,
			"count":   rep.Count,
		})
	case FormatXLSX, FormatPDF:
		s.writeDocument(w, r, params.Format, export.TablesDocument(rep))
	default:
		s.render(w, r, "tables.html", tablesPage{
			page:   page{Title: "Masa Raporu", Nav: "tables", Warnings: warnings},
			Filter: newRangeForm(params.Range),
			Report: rep,
		})
	}
	s.events.LogReport(r.Context(), "tables", string(params.Format), len(rep.Ranking))
}

func (s *Server) handleProductsReport(w http.ResponseWriter, r *http.Request) {
	params, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	recs, warnings := s.tickets(r.Context())
	rep := report.SummarizeProducts(recs, params.Range, s.locale)

	switch params.Format {
	case FormatJSON:
		writeJSON(w, http.StatusOK, map[string]any{
			"from":          params.Range.From.String(),
			"to":            params.Range.To.String(),
			"rows":          rep.Rows,
			"grandQuantity": rep.GrandQuantity,
			"grandTotal":    rep.GrandTotal,
		})
	case FormatXLSX, FormatPDF:
		s.writeDocument(w, r, params.Format, export.ProductsDocument(rep))
	default:
		s.render(w, r, "products.html", productsPage{
			page:   page{Title: "Ürün Raporu", Nav: "products", Warnings: warnings},
			Filter: newRangeForm(params.Range),
			Report: rep,
		})
	}
	s.events.LogReport(r.Context(), "products", string(params.Format), len(rep.Rows))
}

func (s *Server) handleExpensesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := ParseFormat(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	day, err := ParseDayParam(q, time.Now().In(istanbul))
	if err != nil {
		BadRequestError("Geçersiz tarih: " + q.Get("date")).Write(w)
		return
	}
	recs, warnings := s.cashMovements(r.Context())
	ledger := report.FilterExpenses(recs, day)

	switch format {
	case FormatJSON:
		writeJSON(w, http.StatusOK, map[string]any{
			"date":  day.String(),
			"items": ledger.Items,
			"total": ledger.Total,
		})
	case FormatXLSX, FormatPDF:
		s.writeDocument(w, r, format, export.ExpensesDocument(ledger))
	default:
		s.render(w, r, "expenses.html", expensesPage{
			page:   page{Title: "Giderler", Nav: "expenses", Warnings: warnings},
			Date:   day.String(),
			Ledger: ledger,
		})
	}
	s.events.LogReport(r.Context(), "expenses", string(format), len(ledger.Items))
}

// writeDocument renders doc fully before sending so a failure can still be
// reported with a proper status.
func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, format ReportFormat, doc export.Document) {
	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case FormatXLSX:
		err = export.WriteXLSX(&buf, doc)
		contentType = export.ContentTypeXLSX
	default:
		err = export.WritePDF(&buf, doc)
		contentType = export.ContentTypePDF
	}
	if err != nil {
		s.events.LogError(r.Context(), "Report export failed", err, applog.OpExport,
			applog.NewFields().WithReport(doc.Name, string(format), 0))
		InternalServerError("Dışa aktarma başarısız").Write(w)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Name+"."+string(format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

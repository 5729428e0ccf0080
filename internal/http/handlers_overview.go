package http

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"bilardo/internal/core"
	applog "bilardo/internal/log"
	"bilardo/internal/report"
	"bilardo/internal/stock"
)

type page struct {
	Title    string
	Nav      string
	Warnings []string
}

type overviewPage struct {
	page
	Overview core.DayOverview
	LowStock []stock.ProductView
}

// handleOverview loads the three collections concurrently and shows today's
// headline figures. A failed load degrades its block to zero with a warning.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	day := today(time.Now())

	var (
		tickets, cash []core.Record
		view          stock.View
		ticketsErr    error
		cashErr       error
		stockErr      error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.records != nil {
			tickets, ticketsErr = s.records.Tickets(gctx)
		}
		return nil
	})
	g.Go(func() error {
		if s.records != nil {
			cash, cashErr = s.records.CashMovements(gctx)
		}
		return nil
	})
	g.Go(func() error {
		if s.stock != nil {
			view, stockErr = s.stock.Overview(gctx)
		}
		return nil
	})
	_ = g.Wait()

	data := overviewPage{page: page{Title: "Genel Bakış", Nav: "overview"}}
	for _, e := range []struct {
		err error
		msg string
	}{
		{ticketsErr, "Adisyonlar okunamadı"},
		{cashErr, "Kasa hareketleri okunamadı"},
		{stockErr, "Stok kataloğu okunamadı"},
	} {
		if e.err != nil {
			logger.WarnContext(ctx, "Overview load failed", "error", e.err)
			data.Warnings = append(data.Warnings, e.msg)
		}
	}

	tables := report.RankTables(tickets, core.DateRange{From: day, To: day})
	expenses := report.FilterExpenses(cash, day)
	data.Overview = core.DayOverview{
		Day:             day,
		TicketRevenue:   tables.Total,
		TicketCount:     tables.Count,
		ExpenseTotal:    expenses.Total,
		ExpenseCount:    len(expenses.Items),
		LowStockCount:   view.LowCount,
		OutOfStockCount: view.OutCount,
	}
	for _, p := range view.Products {
		if p.Status != core.InStock {
			data.LowStock = append(data.LowStock, p)
		}
	}
	s.render(w, r, "overview.html", data)
}

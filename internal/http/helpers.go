package http

import (
	"html/template"
	"time"

	"bilardo/internal/core"
	"bilardo/internal/export"
)

var istanbul = func() *time.Location {
	if loc, err := time.LoadLocation("Europe/Istanbul"); err == nil {
		return loc
	}
	return time.FixedZone("TRT", 3*60*60)
}()

// today is the current calendar day in the hall's time zone.
func today(now time.Time) core.Date {
	n := now.In(istanbul)
	return core.NewDate(n.Year(), int(n.Month()), n.Day())
}

var templateFuncs = template.FuncMap{
	"lira": export.FormatLira,
	"day": func(d core.Date) string {
		if d.IsZero() {
			return "-"
		}
		return d.Format("02.01.2006")
	},
	"recordDay": func(rec core.Record) string {
		if rec.Date.IsZero() {
			if rec.RawDate == "" {
				return "-"
			}
			return rec.RawDate
		}
		return rec.Date.Format("02.01.2006")
	},
	"clock": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.In(istanbul).Format("15:04:05")
	},
	"inc": func(i int) int { return i + 1 },
	"statusLabel": func(s core.StockStatus) string {
		switch s {
		case core.OutOfStock:
			return "Tükendi"
		case core.LowStock:
			return "Azaldı"
		}
		return "Stokta"
	},
}

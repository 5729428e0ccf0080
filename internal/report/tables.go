// Package report implements the admin report aggregations. Every function
// here is a pure transform of (records, filter): no I/O, no shared state,
// identical input always yields identical output.
package report

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"bilardo/internal/core"
)

// TableSummary accumulates the ticket revenue of one table.
type TableSummary struct {
	Table   string        `json:"table"`
	Total   core.Money    `json:"total"`
	Count   int           `json:"count"`
	Entries []core.Record `json:"entries"`
}

// Average is the revenue per ticket. Emitted summaries always have Count > 0.
func (s TableSummary) Average() core.Money {
	return s.Total.Div(s.Count)
}

// TableReport is the table revenue ranking plus its flat detail list.
type TableReport struct {
	Range   core.DateRange `json:"-"`
	Ranking []TableSummary `json:"ranking"`
	Details []core.Record  `json:"details"`
	Total   core.Money     `json:"total"`
	Count   int            `json:"count"`
}

// RankTables groups ticket records inside rng by table and orders the groups
// by revenue, highest first. Ties keep the order in which tables were first seen.
func RankTables(records []core.Record, rng core.DateRange) TableReport {
	rep := TableReport{
		Range:   rng,
		Ranking: []TableSummary{},
		Details: []core.Record{},
	}
	index := map[string]int{}
	for _, rec := range records {
		if !rec.IsTicket() {
			continue
		}
		rec = rec.Normalized()
		if !rng.Contains(rec.Date) {
			continue
		}
		i, ok := index[rec.Table]
		if !ok {
			i = len(rep.Ranking)
			index[rec.Table] = i
			rep.Ranking = append(rep.Ranking, TableSummary{Table: rec.Table})
		}
		g := &rep.Ranking[i]
		g.Total = g.Total.Add(rec.Amount)
		g.Count++
		g.Entries = append(g.Entries, rec)

		rep.Details = append(rep.Details, rec)
		rep.Total = rep.Total.Add(rec.Amount)
		rep.Count++
	}

	slices.SortStableFunc(rep.Ranking, func(a, b TableSummary) int {
		return cmp.Compare(b.Total.Cents, a.Total.Cents)
	})
	slices.SortStableFunc(rep.Details, func(a, b core.Record) int {
		if c := CompareTableIDs(a.Table, b.Table); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return rep
}

// CompareTableIDs orders table identifiers: numeric ids numerically and before
// named ones, named ids lexically, and the Undetermined bucket last.
func CompareTableIDs(a, b string) int {
	aU, bU := a == core.UndeterminedTable, b == core.UndeterminedTable
	switch {
	case aU && bU:
		return 0
	case aU:
		return 1
	case bU:
		return -1
	}
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(an, bn)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

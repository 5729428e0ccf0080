package report

import "bilardo/internal/core"

// ExpenseLedger is the list of expense movements of a single day.
type ExpenseLedger struct {
	Day   core.Date     `json:"-"`
	Items []core.Record `json:"items"`
	Total core.Money    `json:"total"`
}

// FilterExpenses keeps the expense records of exactly one day, in source order.
// The ledger of a day without expenses has no items and a zero total.
func FilterExpenses(records []core.Record, day core.Date) ExpenseLedger {
	ledger := ExpenseLedger{Day: day, Items: []core.Record{}}
	if day.IsZero() {
		return ledger
	}
	for _, rec := range records {
		if !rec.IsExpense() {
			continue
		}
		rec = rec.Normalized()
		if !rec.Date.Equal(day.Time) {
			continue
		}
		ledger.Items = append(ledger.Items, rec)
		ledger.Total = ledger.Total.Add(rec.Amount)
	}
	return ledger
}

package core

// DayOverview is the headline block of the admin landing page.
type DayOverview struct {
	Day             Date
	TicketRevenue   Money
	TicketCount     int
	ExpenseTotal    Money
	ExpenseCount    int
	LowStockCount   int
	OutOfStockCount int
}

// Balance is the day's ticket revenue minus its expenses.
func (o DayOverview) Balance() Money {
	return Money{Cents: o.TicketRevenue.Cents - o.ExpenseTotal.Cents}
}

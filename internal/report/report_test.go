package report

import (
	"reflect"
	"testing"

	"golang.org/x/text/language"

	"bilardo/internal/core"
)

func ticket(table, date string, cents int64) core.Record {
	return core.Record{Source: core.SourceTicket, Table: table, RawDate: date, Amount: core.Money{Cents: cents}}.Normalized()
}

func income(product, category, date string, qty int, cents int64) core.Record {
	return core.Record{Type: core.KindIncome, Product: product, Category: category, RawDate: date, Quantity: qty, Amount: core.Money{Cents: cents}}.Normalized()
}

func expense(desc, date string, cents int64) core.Record {
	return core.Record{Type: core.KindExpense, Description: desc, RawDate: date, Amount: core.Money{Cents: cents}}.Normalized()
}

func mustRange(t *testing.T, from, to string) core.DateRange {
	t.Helper()
	r, err := core.ParseDateRange(from, to)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return r
}

func TestRankTablesScenario(t *testing.T) {
	records := []core.Record{
		ticket("5", "2024-01-01", 10000),
		ticket("5", "2024-01-02", 5000),
		ticket("3", "2024-01-01", 20000),
	}
	rep := RankTables(records, core.DateRange{})

	if len(rep.Ranking) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rep.Ranking))
	}
	want := []struct {
		table string
		total int64
		count int
	}{
		{"3", 20000, 1},
		{"5", 15000, 2},
	}
	for i, w := range want {
		g := rep.Ranking[i]
		if g.Table != w.table || g.Total.Cents != w.total || g.Count != w.count {
			t.Errorf("group %d = {%s %d %d}, want %+v", i, g.Table, g.Total.Cents, g.Count, w)
		}
	}
	if got := rep.Ranking[1].Average().Cents; got != 7500 {
		t.Errorf("average = %d, want 7500", got)
	}
	if rep.Total.Cents != 35000 || rep.Count != 3 {
		t.Errorf("totals = %d/%d", rep.Total.Cents, rep.Count)
	}
}

func TestRankTablesStableOnTies(t *testing.T) {
	records := []core.Record{
		ticket("9", "2024-01-01", 1000),
		ticket("2", "2024-01-01", 1000),
		ticket("7", "2024-01-01", 1000),
	}
	rep := RankTables(records, core.DateRange{})
	var got []string
	for _, g := range rep.Ranking {
		got = append(got, g.Table)
	}
	if !reflect.DeepEqual(got, []string{"9", "2", "7"}) {
		t.Fatalf("tie order = %v, want first-seen order", got)
	}
}

func TestRankTablesFiltersSourceAndRange(t *testing.T) {
	records := []core.Record{
		ticket("1", "2024-01-01", 100),
		ticket("1", "2024-01-05", 200),
		ticket("2", "2024-01-10T22:15:00", 400),
		ticket("2", "not a date", 800),
		income("Çay", "Sıcak", "2024-01-05", 1, 1600),
		{Source: "income", Table: "1", RawDate: "2024-01-05", Amount: core.Money{Cents: 3200}},
	}
	rep := RankTables(records, mustRange(t, "2024-01-05", "2024-01-10"))

	if rep.Total.Cents != 600 || rep.Count != 2 {
		t.Fatalf("total = %d count = %d, want 600/2", rep.Total.Cents, rep.Count)
	}
	if rep.Ranking[0].Table != "2" || rep.Ranking[1].Table != "1" {
		t.Fatalf("unexpected ranking: %+v", rep.Ranking)
	}
}

func TestRankTablesSumMatchesDirectFilter(t *testing.T) {
	records := []core.Record{
		ticket("1", "2024-03-01", 1250),
		ticket("", "2024-03-02", 999),
		ticket("4", "2024-03-03", 10),
		ticket("1", "2024-02-28", 5000),
		ticket("bar", "2024-03-02", 333),
		expense("Market", "2024-03-02", 7000),
	}
	rng := mustRange(t, "2024-03-01", "2024-03-31")
	rep := RankTables(records, rng)

	var direct core.Money
	for _, r := range records {
		if r.IsTicket() && rng.Contains(r.Date) {
			direct = direct.Add(r.Amount)
		}
	}
	var grouped core.Money
	for _, g := range rep.Ranking {
		if g.Count == 0 {
			t.Fatalf("empty group %q materialized", g.Table)
		}
		grouped = grouped.Add(g.Total)
	}
	if grouped != direct || rep.Total != direct {
		t.Fatalf("grouped %s, report %s, direct %s", grouped, rep.Total, direct)
	}
}

func TestRankTablesDetailOrder(t *testing.T) {
	records := []core.Record{
		ticket("", "2024-01-01", 1),
		ticket("10", "2024-01-02", 1),
		ticket("bar", "2024-01-01", 1),
		ticket("2", "2024-01-03", 1),
		ticket("10", "2024-01-01", 1),
		ticket("2", "2024-01-01", 1),
	}
	rep := RankTables(records, core.DateRange{})

	type key struct{ table, day string }
	var got []key
	for _, d := range rep.Details {
		got = append(got, key{d.Table, d.Date.String()})
	}
	want := []key{
		{"2", "2024-01-01"},
		{"2", "2024-01-03"},
		{"10", "2024-01-01"},
		{"10", "2024-01-02"},
		{"bar", "2024-01-01"},
		{core.UndeterminedTable, "2024-01-01"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("details = %v\nwant     %v", got, want)
	}
}

func TestRankTablesEntriesKeepInsertionOrder(t *testing.T) {
	records := []core.Record{
		ticket("1", "2024-01-03", 1),
		ticket("1", "2024-01-01", 2),
		ticket("1", "2024-01-02", 3),
	}
	rep := RankTables(records, core.DateRange{})
	var got []int64
	for _, e := range rep.Ranking[0].Entries {
		got = append(got, e.Amount.Cents)
	}
	if !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("entries = %v", got)
	}
}

func TestCompareTableIDs(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"3", "3", 0},
		{"9", "bar", -1},
		{"bar", "baz", -1},
		{core.UndeterminedTable, "1", 1},
		{"zzz", core.UndeterminedTable, -1},
		{core.UndeterminedTable, core.UndeterminedTable, 0},
	}
	for _, tc := range cases {
		if got := CompareTableIDs(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareTableIDs(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSummarizeProductsAlphabetical(t *testing.T) {
	records := []core.Record{
		income("Su", "Soğuk", "2024-01-01", 2, 2000),
		income("Çay", "Sıcak", "2024-01-01", 3, 4500),
		income("Tost", "Yemek", "2024-01-01", 1, 9000),
		income("Cips", "Atıştırmalık", "2024-01-01", 1, 3000),
		income("Ayran", "Soğuk", "2024-01-01", 1, 2500),
		income("Çay", "Sıcak", "2024-01-02", 2, 3000),
	}
	rep := SummarizeProducts(records, core.DateRange{}, language.Turkish)

	var names []string
	for _, r := range rep.Rows {
		names = append(names, r.Name)
	}
	want := []string{"Ayran", "Cips", "Çay", "Su", "Tost"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("order = %v, want %v", names, want)
	}

	seen := map[string]bool{}
	for _, r := range rep.Rows {
		if seen[r.Name] {
			t.Fatalf("duplicate row %q", r.Name)
		}
		seen[r.Name] = true
	}

	cay := rep.Rows[2]
	if cay.Quantity != 5 || cay.Total.Cents != 7500 || cay.Category != "Sıcak" {
		t.Fatalf("Çay row = %+v", cay)
	}
}

func TestSummarizeProductsGrandTotalsMatchRows(t *testing.T) {
	records := []core.Record{
		income("Kola", "Soğuk", "2024-05-01", 0, 3500),
		income("", "", "2024-05-01", 2, 1000),
		income("Kola", "Soğuk", "2024-05-03", 4, 14000),
		income("Tost", "Yemek", "2024-04-30", 1, 9000),
		ticket("4", "2024-05-01", 50000),
	}
	rep := SummarizeProducts(records, mustRange(t, "2024-05-01", ""), DefaultLocale)

	var qty int
	var total core.Money
	for _, r := range rep.Rows {
		qty += r.Quantity
		total = total.Add(r.Total)
	}
	if rep.GrandQuantity != qty || rep.GrandTotal != total {
		t.Fatalf("grand %d/%s, rows %d/%s", rep.GrandQuantity, rep.GrandTotal, qty, total)
	}
	if qty != 7 || total.Cents != 18500 {
		t.Fatalf("unexpected sums %d/%d", qty, total.Cents)
	}
	if len(rep.Rows) != 2 || rep.Rows[0].Name != "Kola" || rep.Rows[1].Name != core.UnknownProduct {
		t.Fatalf("rows = %+v", rep.Rows)
	}
	if rep.Rows[1].Category != core.UnknownCategory {
		t.Fatalf("unknown product category = %q", rep.Rows[1].Category)
	}
}

func TestSummarizeProductsCategoryPrefersKnown(t *testing.T) {
	records := []core.Record{
		income("Kahve", "", "2024-01-01", 1, 100),
		income("Kahve", "Sıcak", "2024-01-01", 1, 100),
		income("Kahve", "Diğer", "2024-01-01", 1, 100),
	}
	rep := SummarizeProducts(records, core.DateRange{}, DefaultLocale)
	if rep.Rows[0].Category != "Sıcak" {
		t.Fatalf("category = %q, want Sıcak", rep.Rows[0].Category)
	}
}

func TestFilterExpensesScenario(t *testing.T) {
	records := []core.Record{expense("Ekmek", "2024-02-01T10:00", 3000)}
	day, _ := core.ParseDay("2024-02-02")

	ledger := FilterExpenses(records, day)
	if ledger.Items == nil || len(ledger.Items) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", ledger.Items)
	}
	if !ledger.Total.IsZero() {
		t.Fatalf("total = %s, want 0", ledger.Total)
	}
}

func TestFilterExpensesSingleDaySourceOrder(t *testing.T) {
	records := []core.Record{
		expense("Ekmek", "2024-02-01T18:00", 3000),
		expense("Dün", "2024-01-31T23:59", 100),
		income("Çay", "Sıcak", "2024-02-01", 1, 1500),
		expense("Süt", "2024-02-01T08:00", 4550),
		{Source: core.KindExpense, Description: "Kira", RawDate: "01.02.2024", Amount: core.Money{Cents: 100000}},
	}
	day, _ := core.ParseDay("2024-02-01")
	ledger := FilterExpenses(records, day)

	var got []string
	for _, r := range ledger.Items {
		got = append(got, r.Description)
	}
	if !reflect.DeepEqual(got, []string{"Ekmek", "Süt", "Kira"}) {
		t.Fatalf("items = %v", got)
	}
	if ledger.Total.Cents != 107550 {
		t.Fatalf("total = %d", ledger.Total.Cents)
	}
}

func TestFilterExpensesZeroDay(t *testing.T) {
	records := []core.Record{expense("x", "", 100)}
	ledger := FilterExpenses(records, core.Date{})
	if len(ledger.Items) != 0 || !ledger.Total.IsZero() {
		t.Fatalf("zero day should match nothing: %+v", ledger)
	}
}

func TestAggregationsAreIdempotent(t *testing.T) {
	records := []core.Record{
		ticket("2", "2024-01-01", 500),
		ticket("1", "2024-01-01", 500),
		ticket("", "2024-01-02", 700),
		income("Su", "Soğuk", "2024-01-01", 1, 100),
		income("Çay", "Sıcak", "2024-01-01", 1, 100),
		expense("Ekmek", "2024-01-01", 300),
	}
	rng := mustRange(t, "2024-01-01", "2024-01-02")
	day, _ := core.ParseDay("2024-01-01")

	if a, b := RankTables(records, rng), RankTables(records, rng); !reflect.DeepEqual(a, b) {
		t.Errorf("RankTables not idempotent")
	}
	if a, b := SummarizeProducts(records, rng, DefaultLocale), SummarizeProducts(records, rng, DefaultLocale); !reflect.DeepEqual(a, b) {
		t.Errorf("SummarizeProducts not idempotent")
	}
	if a, b := FilterExpenses(records, day), FilterExpenses(records, day); !reflect.DeepEqual(a, b) {
		t.Errorf("FilterExpenses not idempotent")
	}
}

func TestParseLocale(t *testing.T) {
	if ParseLocale("") != DefaultLocale {
		t.Errorf("empty locale should fall back")
	}
	if ParseLocale("en") != language.English {
		t.Errorf("en should parse")
	}
}

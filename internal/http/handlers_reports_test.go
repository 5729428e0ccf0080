package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"bilardo/internal/core"
	"bilardo/internal/export"
)

func reportFixture(t *testing.T) fixture {
	return newFixture(t, map[string][]core.Record{
		"tickets": {
			ticket("3", "2024-02-01T10:00:00", "50"),
			ticket("5", "2024-02-01T11:00:00", "120"),
			ticket("3", "2024-02-02", "30"),
			ticket("7", "2024-03-01", "500"),
			sale("Tost", "Yiyecek", "2024-02-01", 2, "80"),
			sale("Çay", "İçecek", "2024-02-01", 5, "50"),
			sale("Cips", "", "2024-02-02", 0, "25"),
		},
		"cash_movements": {
			expense("Buz", "2024-02-01T10:00:00", "40"),
			expense("Temizlik", "2024-02-02", "15"),
		},
	}, Deps{})
}

func TestTablesReportJSON(t *testing.T) {
	f := reportFixture(t)
	rr := f.do(t, http.MethodGet, "/reports/tables?from=2024-02-01&to=2024-02-02&format=json", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got struct {
		Ranking []tableRowJSON `json:"ranking"`
		Details []core.Record  `json:"details"`
		Total   core.Money     `json:"total"`
		Count   int            `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Ranking) != 2 || got.Ranking[0].Table != "5" || got.Ranking[1].Table != "3" {
		t.Fatalf("ranking = %+v", got.Ranking)
	}
	if got.Ranking[1].Total.Cents != 8000 || got.Ranking[1].Count != 2 || got.Ranking[1].Average.Cents != 4000 {
		t.Fatalf("table 3 summary = %+v", got.Ranking[1])
	}
	if got.Total.Cents != 20000 || got.Count != 3 || len(got.Details) != 3 {
		t.Fatalf("totals = %v / %d / %d", got.Total, got.Count, len(got.Details))
	}
}

func TestTablesReportHTML(t *testing.T) {
	f := reportFixture(t)
	rr := f.do(t, http.MethodGet, "/reports/tables?from=2024-02-01&to=2024-02-02", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `value="2024-02-01"`) || !strings.Contains(body, "200,00 ₺") {
		t.Fatalf("tables page missing filter or total")
	}
	if strings.Index(body, "<td>5</td>") > strings.Index(body, "<td>3</td>") {
		t.Fatalf("table 5 should be ranked first")
	}

	rr = f.do(t, http.MethodGet, "/reports/tables?from=2030-01-01", nil, false)
	if !strings.Contains(rr.Body.String(), "adisyon yok") {
		t.Fatalf("empty range should show placeholder")
	}
}

func TestProductsReportJSON(t *testing.T) {
	f := reportFixture(t)
	rr := f.do(t, http.MethodGet, "/reports/products?format=json", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got struct {
		Rows []struct {
			Name     string     `json:"name"`
			Category string     `json:"category"`
			Quantity int        `json:"quantity"`
			Total    core.Money `json:"total"`
		} `json:"rows"`
		GrandQuantity int        `json:"grandQuantity"`
		GrandTotal    core.Money `json:"grandTotal"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var names []string
	for _, r := range got.Rows {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "Cips,Çay,Tost" {
		t.Fatalf("order = %v", names)
	}
	if got.Rows[0].Quantity != 1 || got.Rows[0].Category != core.UnknownCategory {
		t.Fatalf("defaults not applied: %+v", got.Rows[0])
	}
	if got.GrandQuantity != 8 || got.GrandTotal.Cents != 15500 {
		t.Fatalf("grand = %d / %v", got.GrandQuantity, got.GrandTotal)
	}
}

func TestExpensesReport(t *testing.T) {
	f := reportFixture(t)
	rr := f.do(t, http.MethodGet, "/reports/expenses?date=2024-02-01&format=json", nil, false)
	var got struct {
		Date  string        `json:"date"`
		Items []core.Record `json:"items"`
		Total core.Money    `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Date != "2024-02-01" || len(got.Items) != 1 || got.Total.Cents != 4000 {
		t.Fatalf("ledger = %+v", got)
	}

	rr = f.do(t, http.MethodGet, "/reports/expenses?date=2023-05-05", nil, false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "0,00 ₺") || !strings.Contains(rr.Body.String(), "gider yok") {
		t.Fatalf("empty day should render a zero total")
	}
}

func TestReportExports(t *testing.T) {
	f := reportFixture(t)
	cases := []struct {
		path        string
		contentType string
		magic       []byte
	}{
		{"/reports/tables?format=xlsx", export.ContentTypeXLSX, []byte("PK")},
		{"/reports/products?format=xlsx", export.ContentTypeXLSX, []byte("PK")},
		{"/reports/expenses?date=2024-02-01&format=xlsx", export.ContentTypeXLSX, []byte("PK")},
		{"/reports/tables?format=pdf", export.ContentTypePDF, []byte("%PDF")},
		{"/reports/products?format=pdf", export.ContentTypePDF, []byte("%PDF")},
		{"/reports/expenses?date=2024-02-01&format=pdf", export.ContentTypePDF, []byte("%PDF")},
	}
	for _, tc := range cases {
		rr := f.do(t, http.MethodGet, tc.path, nil, false)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status=%d", tc.path, rr.Code)
		}
		if rr.Header().Get("Content-Type") != tc.contentType {
			t.Errorf("%s: content type %q", tc.path, rr.Header().Get("Content-Type"))
		}
		if !strings.HasPrefix(rr.Header().Get("Content-Disposition"), "attachment;") {
			t.Errorf("%s: missing attachment disposition", tc.path)
		}
		if !bytes.HasPrefix(rr.Body.Bytes(), tc.magic) {
			t.Errorf("%s: unexpected body prefix", tc.path)
		}
	}
}

func TestReportBadParams(t *testing.T) {
	f := reportFixture(t)
	for _, path := range []string{
		"/reports/tables?from=01-02-2024",
		"/reports/products?to=yesterday",
		"/reports/tables?format=csv",
		"/reports/expenses?date=2024-13-01",
	} {
		if rr := f.do(t, http.MethodGet, path, nil, false); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rr.Code)
		}
	}
}

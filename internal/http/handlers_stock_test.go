package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestStockFlow(t *testing.T) {
	f := newFixture(t, nil, Deps{})
	ctx := context.Background()

	rr := f.do(t, http.MethodPost, "/stock/categories", url.Values{"name": {"İçecek"}}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("add category: status=%d body=%s", rr.Code, rr.Body.String())
	}
	cat, err := f.stock.Catalog(ctx)
	if err != nil || len(cat.Categories) != 1 {
		t.Fatalf("category not saved: %v %+v", err, cat)
	}
	catID := cat.Categories[0].ID

	rr = f.do(t, http.MethodPost, "/stock/products", url.Values{
		"name": {"Kola"}, "category": {catID}, "price": {"35,50"}, "stock": {"6"},
	}, true)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Kola") || !strings.Contains(rr.Body.String(), "35,50 ₺") {
		t.Fatalf("add product: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "stock:changed") {
		t.Fatalf("missing stock:changed trigger")
	}
	cat, _ = f.stock.Catalog(ctx)
	prodID := cat.Products[0].ID

	rr = f.do(t, http.MethodPost, "/stock/products/"+prodID+"/out", url.Values{"qty": {"2"}}, true)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Azaldı") {
		t.Fatalf("stock out should leave a low-stock product: status=%d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/stock/products/"+prodID+"/out", url.Values{"qty": {"10"}}, true)
	if rr.Code != http.StatusConflict || !strings.Contains(rr.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Fatalf("overdraw: status=%d trigger=%s", rr.Code, rr.Header().Get("HX-Trigger"))
	}

	rr = f.do(t, http.MethodPost, "/stock/products/"+prodID+"/in", url.Values{"qty": {"0"}}, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zero quantity: status=%d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/stock/categories/"+catID+"/delete", url.Values{}, true)
	if rr.Code != http.StatusConflict {
		t.Fatalf("deleting a used category: status=%d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/stock/products/"+prodID+"/delete", url.Values{}, false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/stock" {
		t.Fatalf("plain form should redirect: status=%d", rr.Code)
	}
	rr = f.do(t, http.MethodPost, "/stock/products/"+prodID+"/delete", url.Values{}, true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("deleting twice: status=%d", rr.Code)
	}

	rr = f.do(t, http.MethodGet, "/stock", nil, false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "İçecek") {
		t.Fatalf("stock page: status=%d", rr.Code)
	}
}

func TestStockValidation(t *testing.T) {
	f := newFixture(t, nil, Deps{})
	cases := []struct {
		name string
		form url.Values
		want int
	}{
		{"empty name", url.Values{"name": {" "}, "category": {"x"}}, http.StatusUnprocessableEntity},
		{"bad price", url.Values{"name": {"Tost"}, "category": {"x"}, "price": {"abc"}}, http.StatusUnprocessableEntity},
		{"negative stock", url.Values{"name": {"Tost"}, "category": {"x"}, "stock": {"-1"}}, http.StatusUnprocessableEntity},
		{"unknown category", url.Values{"name": {"Tost"}, "category": {"x"}}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/stock/products", tc.form, true)
			if rr.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

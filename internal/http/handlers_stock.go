package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bilardo/internal/core"
	applog "bilardo/internal/log"
	"bilardo/internal/stock"
)

type stockPage struct {
	page
	View stock.View
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) stockView(r *http.Request) (stock.View, []string) {
	if s.stock == nil {
		return stock.View{}, []string{"Stok servisi yapılandırılmamış"}
	}
	v, err := s.stock.Overview(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Stock overview failed", "error", err)
		return stock.View{}, []string{"Stok kataloğu okunamadı"}
	}
	return v, nil
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	view, warnings := s.stockView(r)
	s.render(w, r, "stock.html", stockPage{
		page: page{Title: "Stok", Nav: "stock", Warnings: warnings},
		View: view,
	})
}

// stockError maps a catalog error to a status and a user message.
func stockError(err error) (int, string) {
	switch {
	case errors.Is(err, stock.ErrProductNotFound):
		return http.StatusNotFound, "Ürün bulunamadı"
	case errors.Is(err, stock.ErrCategoryNotFound):
		return http.StatusNotFound, "Kategori bulunamadı"
	case errors.Is(err, stock.ErrCategoryInUse):
		return http.StatusConflict, "Kategoride hâlâ ürün var"
	case errors.Is(err, stock.ErrInsufficientStock):
		return http.StatusConflict, "Yetersiz stok"
	case errors.Is(err, stock.ErrDuplicateName):
		return http.StatusConflict, "Bu isim zaten kullanılıyor"
	case errors.Is(err, core.ErrEmptyName):
		return http.StatusUnprocessableEntity, "İsim boş olamaz"
	case errors.Is(err, core.ErrNegativeStock), errors.Is(err, core.ErrInvalidQuantity), errors.Is(err, errInvalidQuantity):
		return http.StatusUnprocessableEntity, "Geçersiz miktar"
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "Geçersiz fiyat"
	}
	return http.StatusInternalServerError, "Stok güncellenemedi"
}

func (s *Server) stockFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := stockError(err)
	if status >= 500 {
		s.events.LogError(r.Context(), "Stock mutation failed", err, op, applog.NewFields().WithComponent(applog.ComponentStock))
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

// stockSuccess re-renders the catalog for htmx and redirects plain forms.
func (s *Server) stockSuccess(w http.ResponseWriter, r *http.Request, productID, msg string) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/stock", http.StatusSeeOther)
		return
	}
	view, warnings := s.stockView(r)
	var buf bytes.Buffer
	if s.templates == nil {
		InternalServerError("Şablonlar yüklenemedi").Write(w)
		return
	}
	if err := s.templates.ExecuteTemplate(&buf, "stock_catalog", stockPage{page: page{Warnings: warnings}, View: view}); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, applog.OpRender, nil)
		InternalServerError("Sayfa oluşturulamadı").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerStockChanged(productID).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		BodyHTML(buf.String()).
		Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.stock == nil {
		ServiceUnavailableError("Stok servisi yapılandırılmamış").Write(w)
		return
	}
	c, err := s.stock.AddCategory(r.Context(), formValue(r, "name"))
	if err != nil {
		s.stockFailure(w, r, applog.OpCreate, err)
		return
	}
	s.stockSuccess(w, r, "", "Kategori eklendi: "+c.Name)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if s.stock == nil {
		ServiceUnavailableError("Stok servisi yapılandırılmamış").Write(w)
		return
	}
	if err := s.stock.DeleteCategory(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.stockFailure(w, r, applog.OpDelete, err)
		return
	}
	s.stockSuccess(w, r, "", "Kategori silindi")
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.stock == nil {
		ServiceUnavailableError("Stok servisi yapılandırılmamış").Write(w)
		return
	}
	in := stock.ProductInput{
		Name:       formValue(r, "name"),
		CategoryID: formValue(r, "category"),
	}
	var err error
	if v := formValue(r, "price"); v != "" {
		if in.Price, err = core.ParseAmount(v); err != nil || in.Price.Cents < 0 {
			s.stockFailure(w, r, applog.OpCreate, core.ErrInvalidAmount)
			return
		}
	}
	if in.Stock, err = parseStock(r.PostForm, "stock"); err != nil {
		s.stockFailure(w, r, applog.OpCreate, err)
		return
	}
	p, err := s.stock.AddProduct(r.Context(), in)
	if err != nil {
		s.stockFailure(w, r, applog.OpCreate, err)
		return
	}
	s.events.LogStockChange(r.Context(), applog.OpCreate, p.ID, p.Stock, p.Stock)
	s.stockSuccess(w, r, p.ID, "Ürün eklendi: "+p.Name)
}

func (s *Server) handleStockIn(w http.ResponseWriter, r *http.Request) {
	s.adjustStock(w, r, applog.OpStockIn)
}

func (s *Server) handleStockOut(w http.ResponseWriter, r *http.Request) {
	s.adjustStock(w, r, applog.OpStockOut)
}

func (s *Server) adjustStock(w http.ResponseWriter, r *http.Request, op string) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.stock == nil {
		ServiceUnavailableError("Stok servisi yapılandırılmamış").Write(w)
		return
	}
	qty, err := parseQuantity(r.PostForm, "qty")
	if err != nil {
		s.stockFailure(w, r, op, err)
		return
	}
	id := mux.Vars(r)["id"]
	var p core.Product
	delta := qty
	if op == applog.OpStockIn {
		p, err = s.stock.StockIn(r.Context(), id, qty)
	} else {
		p, err = s.stock.StockOut(r.Context(), id, qty)
		delta = -qty
	}
	if err != nil {
		s.stockFailure(w, r, op, err)
		return
	}
	s.events.LogStockChange(r.Context(), op, p.ID, delta, p.Stock)
	s.stockSuccess(w, r, p.ID, p.Name+": stok "+strconv.Itoa(p.Stock))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if s.stock == nil {
		ServiceUnavailableError("Stok servisi yapılandırılmamış").Write(w)
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.stock.DeleteProduct(r.Context(), id); err != nil {
		s.stockFailure(w, r, applog.OpDelete, err)
		return
	}
	s.stockSuccess(w, r, id, "Ürün silindi")
}

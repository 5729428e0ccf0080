package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"bilardo/internal/core"
	applog "bilardo/internal/log"
	"bilardo/internal/report"
	"bilardo/internal/session"
	"bilardo/internal/stock"
	"bilardo/internal/worker"
	appweb "bilardo/web"
)

// RecordSource loads the record collections the reports read.
type RecordSource interface {
	Tickets(ctx context.Context) ([]core.Record, error)
	CashMovements(ctx context.Context) ([]core.Record, error)
	Ping(ctx context.Context) error
}

// StockManager is the catalog surface of the admin pages.
type StockManager interface {
	Overview(ctx context.Context) (stock.View, error)
	AddCategory(ctx context.Context, name string) (core.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	AddProduct(ctx context.Context, in stock.ProductInput) (core.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	StockIn(ctx context.Context, id string, qty int) (core.Product, error)
	StockOut(ctx context.Context, id string, qty int) (core.Product, error)
}

// SessionActions are the mutating calls of the session service.
type SessionActions interface {
	StartSession(ctx context.Context, tableID, mode string) (string, error)
	ExtendSession(ctx context.Context, sessionID, unit string) (string, error)
	TransferSession(ctx context.Context, sessionID, targetTableID string) (string, error)
}

// TableSnapshots serves the billiard dashboard.
type TableSnapshots interface {
	Snapshot() worker.Snapshot
	Refresh(ctx context.Context) worker.Snapshot
}

var (
	_ StockManager   = (*stock.Service)(nil)
	_ SessionActions = (*session.Client)(nil)
	_ TableSnapshots = (*worker.SessionPoller)(nil)
)

type Deps struct {
	Records  RecordSource
	Stock    StockManager
	Sessions SessionActions
	Tables   TableSnapshots
	Locale   language.Tag
	Logger   *applog.Logger
	// PostLimit caps POST requests per client IP per minute. Zero means 60.
	PostLimit int
}

type Server struct {
	http.Server
	templates *template.Template
	records   RecordSource
	stock     StockManager
	sessions  SessionActions
	tables    TableSnapshots
	locale    language.Tag
	logger    *applog.Logger
	events    *applog.StructuredLogger

	rateLimiter *rateLimiter
	security    *securityMetrics
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.Wrap(slog.Default(), applog.ComponentHTTP)
	}
	locale := deps.Locale
	if locale == language.Und {
		locale = report.DefaultLocale
	}
	limit := deps.PostLimit
	if limit <= 0 {
		limit = 60
	}

	r := mux.NewRouter()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		records:     deps.Records,
		stock:       deps.Stock,
		sessions:    deps.Sessions,
		tables:      deps.Tables,
		locale:      locale,
		logger:      logger,
		events:      applog.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(limit, time.Minute),
		security:    &securityMetrics{},
		started:     time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	app := r.NewRoute().Subrouter()
	app.Use(s.requestLogging, s.securityHeaders, s.rateLimit)

	app.HandleFunc("/", s.handleOverview).Methods(http.MethodGet)

	app.HandleFunc("/reports/tables", s.handleTablesReport).Methods(http.MethodGet)
	app.HandleFunc("/reports/products", s.handleProductsReport).Methods(http.MethodGet)
	app.HandleFunc("/reports/expenses", s.handleExpensesReport).Methods(http.MethodGet)

	app.HandleFunc("/stock", s.handleStock).Methods(http.MethodGet)
	app.HandleFunc("/stock/categories", s.handleAddCategory).Methods(http.MethodPost)
	app.HandleFunc("/stock/categories/{id}/delete", s.handleDeleteCategory).Methods(http.MethodPost)
	app.HandleFunc("/stock/products", s.handleAddProduct).Methods(http.MethodPost)
	app.HandleFunc("/stock/products/{id}/in", s.handleStockIn).Methods(http.MethodPost)
	app.HandleFunc("/stock/products/{id}/out", s.handleStockOut).Methods(http.MethodPost)
	app.HandleFunc("/stock/products/{id}/delete", s.handleDeleteProduct).Methods(http.MethodPost)

	app.HandleFunc("/billiard", s.handleBilliard).Methods(http.MethodGet)
	app.HandleFunc("/billiard/refresh", s.handleBilliardRefresh).Methods(http.MethodPost)
	app.HandleFunc("/billiard/tables/{id}/start", s.handleStartSession).Methods(http.MethodPost)
	app.HandleFunc("/billiard/sessions/{id}/extend", s.handleExtendSession).Methods(http.MethodPost)
	app.HandleFunc("/billiard/sessions/{id}/transfer", s.handleTransferSession).Methods(http.MethodPost)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("GET, POST").Write(w)
	})
	return s
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a page template, degrading to a plain error on failure.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "template", name)
		InternalServerError("Şablonlar yüklenemedi").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, applog.OpRender,
			applog.NewFields().WithComponent(applog.ComponentTemplate))
	}
}

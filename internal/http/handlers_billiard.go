package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	applog "bilardo/internal/log"
	"bilardo/internal/session"
	"bilardo/internal/worker"
)

// Session modes and extension units offered by the dashboard forms.
var (
	sessionModes   = []string{"open", "30", "60", "90", "120"}
	extensionUnits = []string{"15", "30", "60"}
)

type billiardPage struct {
	page
	Configured bool
	Snapshot   worker.Snapshot
	Modes      []string
	Units      []string
}

func (s *Server) billiardData(snap worker.Snapshot) billiardPage {
	return billiardPage{
		page:       page{Title: "Bilardo", Nav: "billiard"},
		Configured: s.sessions != nil && s.tables != nil,
		Snapshot:   snap,
		Modes:      sessionModes,
		Units:      extensionUnits,
	}
}

func (s *Server) handleBilliard(w http.ResponseWriter, r *http.Request) {
	var snap worker.Snapshot
	if s.tables != nil {
		snap = s.tables.Snapshot()
	}
	s.render(w, r, "billiard.html", s.billiardData(snap))
}

// handleBilliardRefresh fetches the tables now and returns the tables partial.
func (s *Server) handleBilliardRefresh(w http.ResponseWriter, r *http.Request) {
	if s.tables == nil {
		ServiceUnavailableError("Masa servisi yapılandırılmamış").Write(w)
		return
	}
	snap := s.tables.Refresh(r.Context())
	resp := NewHTMXResponse().TriggerTablesChanged()
	if snap.LastError != "" {
		resp.TriggerErrorNotification(snap.LastError)
	}
	s.writeTables(w, r, snap, resp)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, applog.OpStart, "Oturum başlatıldı", func(ctx context.Context) (string, error) {
		id, err := s.sessions.StartSession(ctx, mux.Vars(r)["id"], formValue(r, "mode"))
		if err != nil {
			return "", err
		}
		applog.FromContext(ctx).InfoContext(ctx, "Session started",
			applog.FieldTableID, mux.Vars(r)["id"], applog.FieldSessionID, id)
		return "", nil
	})
}

func (s *Server) handleExtendSession(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, applog.OpExtend, "Süre uzatıldı", func(ctx context.Context) (string, error) {
		return s.sessions.ExtendSession(ctx, mux.Vars(r)["id"], formValue(r, "unit"))
	})
}

func (s *Server) handleTransferSession(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, applog.OpTransfer, "Oturum taşındı", func(ctx context.Context) (string, error) {
		return s.sessions.TransferSession(ctx, mux.Vars(r)["id"], formValue(r, "target"))
	})
}

// sessionAction performs one remote call. A failure is shown with the
// service's message and leaves the snapshot as it was; a success is followed
// by a fresh table listing.
func (s *Server) sessionAction(w http.ResponseWriter, r *http.Request, op, okMsg string, call func(context.Context) (string, error)) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.sessions == nil || s.tables == nil {
		ServiceUnavailableError("Masa servisi yapılandırılmamış").
			TriggerErrorNotification("Masa servisi yapılandırılmamış").
			Write(w)
		return
	}

	msg, err := call(r.Context())
	if err != nil {
		status, text := sessionError(err)
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Session call failed",
			applog.FieldOperation, op, "error", err)
		ErrorResponse(status, text).TriggerErrorNotification(text).Write(w)
		return
	}
	if msg == "" {
		msg = okMsg
	}

	snap := s.tables.Refresh(r.Context())
	resp := NewHTMXResponse().
		TriggerTablesChanged().
		TriggerSuccessNotification(msg)
	if !isHTMX(r) {
		http.Redirect(w, r, "/billiard", http.StatusSeeOther)
		return
	}
	s.writeTables(w, r, snap, resp)
}

func sessionError(err error) (int, string) {
	var apiErr *session.APIError
	switch {
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, apiErr.Error()
	case errors.Is(err, session.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "Eksik bilgi: masa, süre veya hedef seçilmeli"
	case errors.Is(err, session.ErrNotConfigured):
		return http.StatusServiceUnavailable, "Masa servisi yapılandırılmamış"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Masa servisi zamanında yanıt vermedi"
	}
	return http.StatusBadGateway, "Masa servisine ulaşılamadı"
}

func (s *Server) writeTables(w http.ResponseWriter, r *http.Request, snap worker.Snapshot, resp *HTMXResponseBuilder) {
	if s.templates == nil {
		InternalServerError("Şablonlar yüklenemedi").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "billiard_tables", s.billiardData(snap)); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, applog.OpRender, nil)
		InternalServerError("Sayfa oluşturulamadı").Write(w)
		return
	}
	resp.BodyHTML(buf.String()).Write(w)
}

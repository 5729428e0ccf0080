package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bilardo/internal/session"
)

// TableLister is the read side of the session service.
type TableLister interface {
	ListTables(ctx context.Context) ([]session.Table, error)
}

// Snapshot is the last known state of the billiard tables. A failed refresh
// keeps the previous tables and records the error.
type Snapshot struct {
	Tables      []session.Table
	RefreshedAt time.Time
	LastError   string
}

func (s Snapshot) Fresh() bool {
	return !s.RefreshedAt.IsZero()
}

// SessionPoller keeps a tables snapshot current, on a cron schedule and on demand.
type SessionPoller struct {
	lister   TableLister
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	refreshMu sync.Mutex
	mu        sync.RWMutex
	snapshot  Snapshot

	cron *cron.Cron
}

func NewSessionPoller(lister TableLister, schedule string, timeout time.Duration, logger *slog.Logger) *SessionPoller {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SessionPoller{
		lister:   lister,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		snapshot: Snapshot{Tables: []session.Table{}},
	}
}

// Start schedules periodic refreshes. An empty schedule disables them.
func (p *SessionPoller) Start() error {
	if p.schedule == "" || p.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(p.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", p.schedule, err)
	}
	c.Start()
	p.cron = c
	p.logger.Info("Session poller started", "schedule", p.schedule)
	return nil
}

// Stop waits for a running refresh to finish.
func (p *SessionPoller) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
	p.cron = nil
	p.logger.Info("Session poller stopped")
}

// Refresh fetches the tables now. Concurrent calls are serialised.
func (p *SessionPoller) Refresh(ctx context.Context) Snapshot {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	tables, err := p.lister.ListTables(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.snapshot.LastError = err.Error()
		p.logger.WarnContext(ctx, "Session tables refresh failed", "error", err)
		return p.copyLocked()
	}
	p.snapshot = Snapshot{Tables: tables, RefreshedAt: p.now()}
	p.logger.DebugContext(ctx, "Session tables refreshed", "tables", len(tables))
	return p.copyLocked()
}

func (p *SessionPoller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.copyLocked()
}

func (p *SessionPoller) copyLocked() Snapshot {
	s := p.snapshot
	s.Tables = append([]session.Table(nil), p.snapshot.Tables...)
	return s
}

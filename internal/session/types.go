package session

import (
	"fmt"
	"time"

	"bilardo/internal/core"
)

// Table statuses reported by the session service.
const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
)

// Session is the running session on a table.
type Session struct {
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	StartedAt string `json:"startedAt,omitempty"`
	EndsAt    string `json:"endsAt,omitempty"`
}

// Table is one billiard table as reported by the service. Charge and elapsed
// time are computed remotely.
type Table struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	ElapsedMinutes float64    `json:"elapsedMinutes"`
	Charge         core.Money `json:"charge"`
	Session        *Session   `json:"session,omitempty"`
}

func (t Table) Occupied() bool {
	return t.Session != nil || t.Status == StatusOccupied
}

// Elapsed renders the elapsed time as h:mm.
func (t Table) Elapsed() string {
	d := time.Duration(t.ElapsedMinutes * float64(time.Minute)).Round(time.Minute)
	return fmt.Sprintf("%d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// APIError is a non-success answer from the session service. Message is the
// service's own text and is shown to the user unchanged.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed (status %d)", e.Op, e.StatusCode)
	}
	return e.Message
}

type envelope struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	SessionID string  `json:"sessionId,omitempty"`
	Tables    []Table `json:"tables,omitempty"`
}

// Package audit appends security events to the audit log. Recording is
// best-effort: a failed append is reported on the operational log and never
// surfaces to the caller, so audit storage trouble cannot take down
// authentication itself.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jacintalama/socsargen-system/internal/auth/domain"
)

// Event is the caller-facing shape of one security event. Empty UserID or
// Email are stored as NULL.
type Event struct {
	Type      domain.EventType
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
	Details   map[string]any
}

type Recorder interface {
	Record(ctx context.Context, event Event)
}

type StoreRecorder struct {
	store  domain.EventStore
	logger zerolog.Logger
}

func NewStoreRecorder(store domain.EventStore, logger zerolog.Logger) *StoreRecorder {
	return &StoreRecorder{store: store, logger: logger}
}

// Record appends one event. The insert runs on a detached context so an
// aborted request still gets its audit trail, and its error — if any — stops
// here.
func (r *StoreRecorder) Record(ctx context.Context, event Event) {
	row := &domain.SecurityEvent{
		Type:      event.Type,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Details:   event.Details,
		CreatedAt: time.Now(),
	}
	if event.UserID != "" {
		row.UserID = &event.UserID
	}
	if event.Email != "" {
		row.Email = &event.Email
	}

	if err := r.store.InsertSecurityEvent(context.WithoutCancel(ctx), row); err != nil {
		r.logger.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("user_id", event.UserID).
			Msg("audit log append failed")
	}
}

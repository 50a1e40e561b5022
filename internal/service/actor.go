package service

import (
	"context"
	"log"
	"time"

	"handyhub/internal/model"
	"handyhub/internal/notify"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID uuid.UUID
	Role   model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// Clock returns the current time; tests replace it
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// sendEmail hands msg to the dispatcher. Delivery is best-effort: failures are logged and never returned.
func sendEmail(ctx context.Context, d notify.Dispatcher, msg notify.Message) {
	if d == nil || msg.To == "" {
		return
	}
	if err := d.Dispatch(ctx, msg); err != nil {
		log.Printf("notify: failed to enqueue %s for %s: %v", msg.Kind, msg.To, err)
	}
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05Z07:00")
}

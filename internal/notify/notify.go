// Package notify delivers templated email outside the request path.
// Dispatchers only enqueue; delivery happens on background workers and
// failures end up in the log, never in the caller.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

type Kind string

const (
	KindVerification        Kind = "verification"
	KindWelcome             Kind = "welcome"
	KindPasswordReset       Kind = "password-reset"
	KindPasswordChanged     Kind = "password-changed"
	KindLoginCode           Kind = "login-code"
	KindBookingConfirmation Kind = "booking-confirmation"
	KindBookingNotification Kind = "booking-notification"
	KindBookingStatusUpdate Kind = "booking-status-update"
	KindBookingReminder     Kind = "booking-reminder"
	KindApplicationDecision Kind = "worker-application-decision"
)

// Message is one email to render and send
type Message struct {
	Kind  Kind              `json:"kind"`
	To    string            `json:"to"`
	Name  string            `json:"name"`
	Data  map[string]string `json:"data,omitempty"`
	Queue time.Time         `json:"queued_at"`
}

// Dispatcher accepts messages for asynchronous delivery
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// Mailer sends a rendered email
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// deliver renders and sends msg within timeout. Failures are logged as dead letters.
func deliver(mailer Mailer, renderer *Renderer, msg Message, timeout time.Duration) error {
	subject, body, err := renderer.Render(msg)
	if err != nil {
		deadLetter(msg, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := mailer.Send(ctx, msg.To, subject, body); err != nil {
		deadLetter(msg, err)
		return err
	}
	return nil
}

func deadLetter(msg Message, cause error) {
	if _, ok := msg.Data["code"]; ok {
		redacted := make(map[string]string, len(msg.Data))
		for k, v := range msg.Data {
			redacted[k] = v
		}
		redacted["code"] = "******"
		msg.Data = redacted
	}
	payload, _ := json.Marshal(msg)
	log.Printf("notify: dead-letter kind=%s to=%s err=%v payload=%s", msg.Kind, msg.To, cause, payload)
}

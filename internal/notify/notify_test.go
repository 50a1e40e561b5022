package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
	wait time.Duration
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, _ string) error {
	if m.wait > 0 {
		select {
		case <-time.After(m.wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestRendererCoversEveryKind(t *testing.T) {
	r := MustRenderer()
	for kind := range emailTemplates {
		subject, body, err := r.Render(Message{Kind: kind, To: "a@example.com", Name: "Ana", Data: map[string]string{
			"code": "HH7K2M9QX", "status": "confirmed", "decision": "approved", "service": "Deep Cleaning",
		}})
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if subject == "" || !strings.Contains(body, "Hi Ana") {
			t.Errorf("%s: unexpected output %q / %q", kind, subject, body)
		}
	}
}

func TestRendererEscapesBodyButNotSubject(t *testing.T) {
	r := MustRenderer()
	subject, body, err := r.Render(Message{Kind: KindBookingStatusUpdate, Name: "<b>x</b>", Data: map[string]string{
		"code": "HHA&B", "status": "cancelled", "note": "<script>",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "<script>") || strings.Contains(body, "<b>x</b>") {
		t.Fatalf("body must be escaped: %s", body)
	}
	if subject != "Booking HHA&B is now cancelled" {
		t.Fatalf("unexpected subject %q", subject)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, _, err := MustRenderer().Render(Message{Kind: "nope"}); err == nil {
		t.Fatal("expected an error for an unknown template")
	}
}

func TestLocalQueueDeliversAndDrainsOnClose(t *testing.T) {
	mailer := &recordingMailer{}
	q := NewLocalQueue(mailer, MustRenderer(), 2, 10, time.Second)

	for i := 0; i < 5; i++ {
		if err := q.Dispatch(context.Background(), Message{Kind: KindWelcome, To: "u@example.com"}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	q.Close()

	if got := mailer.count(); got != 5 {
		t.Fatalf("expected 5 deliveries, got %d", got)
	}
	if err := q.Dispatch(context.Background(), Message{Kind: KindWelcome}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

func TestLocalQueueDoesNotBlockCaller(t *testing.T) {
	mailer := &recordingMailer{wait: time.Hour}
	q := NewLocalQueue(mailer, MustRenderer(), 1, 1, 50*time.Millisecond)
	defer q.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_ = q.Dispatch(context.Background(), Message{Kind: KindWelcome, To: "slow@example.com"})
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("dispatch should return immediately even when the mailer is slow")
	}
}

func TestDeliverTimesOut(t *testing.T) {
	mailer := &recordingMailer{wait: time.Second}
	err := deliver(mailer, MustRenderer(), Message{Kind: KindWelcome, To: "x@example.com"}, 20*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

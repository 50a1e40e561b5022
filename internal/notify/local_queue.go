package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var ErrQueueFull = errors.New("notification queue is full")
var ErrQueueClosed = errors.New("notification queue is closed")

// LocalQueue is an in-process Dispatcher backed by a buffered channel and a
// fixed pool of delivery goroutines.
type LocalQueue struct {
	mailer   Mailer
	renderer *Renderer
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan Message
	wg     sync.WaitGroup
}

func NewLocalQueue(mailer Mailer, renderer *Renderer, workers, buffer int, timeout time.Duration) *LocalQueue {
	if workers < 1 {
		workers = 1
	}
	q := &LocalQueue{
		mailer:   mailer,
		renderer: renderer,
		timeout:  timeout,
		jobs:     make(chan Message, buffer),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

func (q *LocalQueue) run() {
	defer q.wg.Done()
	for msg := range q.jobs {
		if err := deliver(q.mailer, q.renderer, msg, q.timeout); err == nil {
			log.Printf("notify: sent %s to %s", msg.Kind, msg.To)
		}
	}
}

// Dispatch never blocks: a full buffer drops the message to the dead-letter log.
func (q *LocalQueue) Dispatch(_ context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	if msg.Queue.IsZero() {
		msg.Queue = time.Now()
	}
	select {
	case q.jobs <- msg:
		return nil
	default:
		deadLetter(msg, ErrQueueFull)
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be delivered
func (q *LocalQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}

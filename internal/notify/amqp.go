package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPDispatcher publishes messages to a durable RabbitMQ queue.
// The connection is opened lazily and re-opened after a failed publish.
type AMQPDispatcher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPDispatcher(url, queue string) *AMQPDispatcher {
	return &AMQPDispatcher{url: url, queue: queue}
}

func (d *AMQPDispatcher) channel() (*amqp.Channel, error) {
	if d.ch != nil && !d.ch.IsClosed() {
		return d.ch, nil
	}
	d.reset()

	conn, err := amqp.Dial(d.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(d.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	d.conn, d.ch = conn, ch
	return ch, nil
}

func (d *AMQPDispatcher) reset() {
	if d.ch != nil {
		_ = d.ch.Close()
	}
	if d.conn != nil {
		_ = d.conn.Close()
	}
	d.conn, d.ch = nil, nil
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, msg Message) error {
	if msg.Queue.IsZero() {
		msg.Queue = time.Now().UTC()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal message: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ch, err := d.channel()
	if err != nil {
		log.Printf("rabbitmq: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.Queue,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", d.queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		d.reset()
		return err
	}
	return nil
}

func (d *AMQPDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// Consumer drains the notification queue and delivers each message
type Consumer struct {
	url      string
	queue    string
	mailer   Mailer
	renderer *Renderer
	timeout  time.Duration
}

func NewConsumer(url, queue string, mailer Mailer, renderer *Renderer, timeout time.Duration) *Consumer {
	return &Consumer{url: url, queue: queue, mailer: mailer, renderer: renderer, timeout: timeout}
}

// Run connects and consumes until ctx is cancelled, reconnecting with backoff
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				_ = d.Nack(false, false) // do not requeue; the failure is already dead-lettered in the log
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Printf("notify-consumer: unmarshal: %v", err)
		return err
	}
	if err := deliver(c.mailer, c.renderer, msg, c.timeout); err != nil {
		return err
	}
	log.Printf("notify: sent %s to %s", msg.Kind, msg.To)
	return nil
}

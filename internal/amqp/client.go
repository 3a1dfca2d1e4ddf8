package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"aruskas/internal/log"
)

// Circuit breaker states guarding Publish.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
	maxBackoff  = 30 * time.Second
)

// Handler processes one change event. Returning an error requeues the message
// once; a failure on redelivery drops it.
type Handler func(ctx context.Context, ev *ChangeEvent) error

type Client struct {
	url          string
	exchangeName string
	queueName    string
	consumer     bool
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewPublisher connects and declares the fanout exchange only. Publishing
// never creates a queue; each reader owns its own.
func NewPublisher(url, exchangeName string, logger *log.Logger) (*Client, error) {
	return newClient(url, exchangeName, "", false, logger)
}

// NewConsumer connects, declares the exchange and binds a queue to it. An
// empty queueName gives this reader a private, server-named queue that is
// removed when it disconnects, so every running reader sees every event.
// A non-empty name declares a durable queue shared by whoever consumes it.
func NewConsumer(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	return newClient(url, exchangeName, queueName, true, logger)
}

func newClient(url, exchangeName, queueName string, consumer bool, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		consumer:     consumer,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(c.exchangeName, "fanout", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	queue := ""
	if c.consumer {
		queue, err = bindQueue(channel, c.exchangeName, c.queueName)
		if err != nil {
			channel.Close()
			conn.Close()
			return err
		}
	}

	c.mu.Lock()
	c.conn, c.channel, c.queue = conn, channel, queue
	c.mu.Unlock()
	return nil
}

// queueOptions reports how a consumer queue is declared. A private queue is
// exclusive and auto-deleted; a named one is durable and outlives its readers.
func queueOptions(name string) (durable, autoDelete, exclusive bool) {
	if name == "" {
		return false, true, true
	}
	return true, false, false
}

// bindQueue declares the consumer queue and binds it to exchange, returning
// the name the broker assigned.
func bindQueue(ch *amqp091.Channel, exchange, name string) (string, error) {
	durable, autoDelete, exclusive := queueOptions(name)
	q, err := ch.QueueDeclare(name, durable, autoDelete, exclusive, false, nil)
	if err != nil {
		return "", fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return "", fmt.Errorf("bind queue: %w", err)
	}
	return q.Name, nil
}

// Publish announces a change to every bound reader.
func (c *Client) Publish(ctx context.Context, ev *ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return errors.New("publish change event: circuit breaker is open")
	}
	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		c.recordFailure()
		return errors.New("publish change event: channel not open")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(ctx, c.exchangeName, "", false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    ev.Timestamp,
		Body:         body,
	})
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.InfoContext(ctx, "Published change event",
		log.FieldOperation, log.OpPublish, "entity", ev.Entity, "action", ev.Action, "id", ev.ID)
	return nil
}

// Consume delivers change events to handler until ctx is cancelled,
// reconnecting with exponential backoff when the broker goes away.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		c.logger.WarnContext(ctx, "AMQP connection lost, reconnecting",
			log.FieldError, err.Error(), "attempt", attempt, "backoff", wait.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err := c.connect(); err != nil {
			c.logger.WarnContext(ctx, "Reconnect failed", log.FieldError, err.Error())
			continue
		}
		attempt = 0
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	ch, queue := c.channel, c.queue
	c.mu.Unlock()
	if ch == nil {
		return amqp091.ErrClosed
	}
	if queue == "" {
		return errors.New("start consuming: client was not opened as a consumer")
	}

	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.logger.InfoContext(ctx, "Started consuming change events", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			handleDelivery(ctx, c.logger, delivery, handler)
		}
	}
}

// handleDelivery acks processed events and drops undecodable ones. A handler
// failure requeues a first delivery and drops a redelivered one.
func handleDelivery(ctx context.Context, logger *log.Logger, d amqp091.Delivery, handler Handler) {
	ev, err := ChangeEventFromJSON(d.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to decode change event", log.FieldError, err.Error())
		d.Nack(false, false)
		return
	}
	if err := handler(ctx, ev); err != nil {
		requeue := !d.Redelivered
		logger.ErrorContext(ctx, "Failed to handle change event",
			log.FieldError, err.Error(), "entity", ev.Entity, "action", ev.Action, "requeue", requeue)
		d.Nack(false, requeue)
		return
	}
	d.Ack(false)
	logger.DebugContext(ctx, "Processed change event", "entity", ev.Entity, "action", ev.Action, "id", ev.ID)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s, 2s, 4s ... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "closed", "eof", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

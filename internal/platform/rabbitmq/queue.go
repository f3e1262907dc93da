package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/task"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	baseReconnectDelay = 1 * time.Second
	maxReconnectDelay  = 30 * time.Second

	defaultPublishTimeout = 5 * time.Second
)

// ErrNotConnected is returned by Publish while the queue is reconnecting.
var ErrNotConnected = errors.New("rabbitmq: not connected")

// Config holds the queue settings.
type Config struct {
	URL           string
	QueueName     string
	Prefetch      int
	MaxDeliveries int

	// PublishTimeout bounds the wait for a publisher confirm.
	PublishTimeout time.Duration

	// RetryDelay parks retried jobs on a TTL queue for this long before
	// they return to the work queue. Zero requeues immediately.
	RetryDelay time.Duration
}

// ConfigFrom builds a Config from the queue settings. prefetch is normally
// the worker count.
func ConfigFrom(cfg config.QueueConfig, prefetch int) Config {
	return Config{
		URL:            cfg.RabbitMQURL,
		QueueName:      cfg.Name,
		Prefetch:       prefetch,
		MaxDeliveries:  cfg.MaxDeliveries,
		PublishTimeout: defaultPublishTimeout,
		RetryDelay:     cfg.RedeliveryDelay,
	}
}

// Queue is a task.Queue backed by RabbitMQ.
type Queue struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.RWMutex
	conn      *amqp.Connection
	publishCh *amqp.Channel
	consumeCh *amqp.Channel
	closed    bool

	deliveries chan task.Delivery
	closeCh    chan struct{}
	done       chan struct{}
}

var _ task.Queue = (*Queue)(nil)

// Dial connects to RabbitMQ, declares the topology and starts consuming.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Queue, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}

	q := &Queue{
		cfg:        cfg,
		logger:     logger.With("component", "rabbitmq", "queue", cfg.QueueName),
		deliveries: make(chan task.Delivery),
		closeCh:    make(chan struct{}),
		done:       make(chan struct{}),
	}

	if err := q.connect(); err != nil {
		return nil, err
	}

	go q.run()
	return q, nil
}

// connect opens the connection, a confirming publish channel and a
// consume channel, and declares the queue and its dead-letter route.
func (q *Queue) connect() error {
	conn, err := amqp.Dial(q.cfg.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}

	fail := func(step string, err error) error {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: %s: %w", step, err)
	}

	pub, err := conn.Channel()
	if err != nil {
		return fail("publish channel", err)
	}
	if err := pub.Confirm(false); err != nil {
		return fail("enable confirms", err)
	}

	if err := pub.ExchangeDeclare(dlxName(q.cfg.QueueName), "direct", true, false, false, false, nil); err != nil {
		return fail("declare DLX", err)
	}
	if _, err := pub.QueueDeclare(dlqName(q.cfg.QueueName), true, false, false, false, nil); err != nil {
		return fail("declare DLQ", err)
	}
	if err := pub.QueueBind(dlqName(q.cfg.QueueName), dlqName(q.cfg.QueueName), dlxName(q.cfg.QueueName), false, nil); err != nil {
		return fail("bind DLQ", err)
	}
	if _, err := pub.QueueDeclare(q.cfg.QueueName, true, false, false, false,
		queueArgs(q.cfg.QueueName, q.cfg.MaxDeliveries)); err != nil {
		return fail("declare queue", err)
	}
	if q.cfg.RetryDelay > 0 {
		if _, err := pub.QueueDeclare(retryName(q.cfg.QueueName), true, false, false, false,
			retryQueueArgs(q.cfg.QueueName, q.cfg.RetryDelay)); err != nil {
			return fail("declare retry queue", err)
		}
	}

	con, err := conn.Channel()
	if err != nil {
		return fail("consume channel", err)
	}
	if err := con.Qos(q.cfg.Prefetch, 0, false); err != nil {
		return fail("qos", err)
	}

	q.mu.Lock()
	q.conn = conn
	q.publishCh = pub
	q.consumeCh = con
	q.mu.Unlock()

	q.logger.Info("connected to RabbitMQ", "prefetch", q.cfg.Prefetch)
	return nil
}

// Publish implements task.Queue. It returns once the broker confirms the
// message.
func (q *Queue) Publish(ctx context.Context, jobID uuid.UUID) error {
	return q.publish(ctx, q.cfg.QueueName, jobID, nil)
}

// publish sends a job message to routingKey on the default exchange and
// waits for the broker's confirm.
func (q *Queue) publish(ctx context.Context, routingKey string, jobID uuid.UUID, headers amqp.Table) error {
	body, err := encodeMessage(jobID)
	if err != nil {
		return err
	}

	q.mu.RLock()
	closed, ch := q.closed, q.publishCh
	q.mu.RUnlock()
	if closed {
		return task.ErrQueueClosed
	}
	if ch == nil {
		return ErrNotConnected
	}

	publishCtx, cancel := context.WithTimeout(ctx, q.cfg.PublishTimeout)
	defer cancel()

	confirm, err := ch.PublishWithDeferredConfirmWithContext(publishCtx,
		"", // default exchange routes by queue name
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			Headers:      headers,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    jobID.String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}

	acked, err := confirm.WaitContext(publishCtx)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish confirmation (job_id=%s): %w", jobID, err)
	}
	if !acked {
		return fmt.Errorf("rabbitmq: broker nacked message (job_id=%s)", jobID)
	}

	q.logger.Debug("published job", "job_id", jobID, "routing_key", routingKey)
	return nil
}

// retry parks d on the retry queue, or requeues it at once when no delay
// is configured. A job that used up MaxDeliveries is dead-lettered.
func (q *Queue) retry(d *delivery) error {
	if q.cfg.RetryDelay <= 0 {
		return d.msg.Nack(false, true)
	}
	if q.cfg.MaxDeliveries > 0 && d.attempt >= q.cfg.MaxDeliveries {
		q.logger.Warn("delivery limit reached, dead-lettering job",
			"job_id", d.jobID,
			"attempt", d.attempt)
		return d.msg.Nack(false, false)
	}

	headers := amqp.Table{priorAttemptsHeader: int64(d.attempt)}
	if err := q.publish(context.Background(), retryName(q.cfg.QueueName), d.jobID, headers); err != nil {
		q.logger.Warn("delayed retry failed, requeueing immediately", "job_id", d.jobID, "error", err)
		return d.msg.Nack(false, true)
	}
	return d.msg.Ack(false)
}

// Deliveries implements task.Queue.
func (q *Queue) Deliveries() <-chan task.Delivery {
	return q.deliveries
}

// Close implements task.Queue. Unacknowledged messages return to the queue.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeCh)
	conn := q.conn
	q.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
		if errors.Is(err, amqp.ErrClosed) {
			err = nil
		}
	}
	<-q.done
	return err
}

// run consumes until Close, reconnecting with capped exponential backoff
// whenever the connection drops.
func (q *Queue) run() {
	defer close(q.done)
	defer close(q.deliveries)

	for {
		err := q.consume()
		if q.isClosed() {
			return
		}
		q.logger.Warn("consumer lost connection, reconnecting", "error", err)

		for attempt := 0; ; attempt++ {
			delay := reconnectDelay(attempt)
			select {
			case <-q.closeCh:
				return
			case <-time.After(delay):
			}

			if err := q.connect(); err != nil {
				q.logger.Error("reconnect failed", "attempt", attempt+1, "retry_in", delay, "error", err)
				continue
			}
			q.logger.Info("reconnected to RabbitMQ")
			break
		}
	}
}

// consume runs one consume session until the channel closes or the queue
// is closed.
func (q *Queue) consume() error {
	q.mu.RLock()
	ch := q.consumeCh
	q.mu.RUnlock()
	if ch == nil {
		return ErrNotConnected
	}

	msgs, err := ch.Consume(
		q.cfg.QueueName,
		"",    // auto-generated consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume: %w", err)
	}

	q.logger.Info("consumer started")

	for {
		select {
		case <-q.closeCh:
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq: delivery channel closed")
			}

			jobID, err := decodeMessage(msg.Body)
			if err != nil {
				q.logger.Error("dropping malformed message", "error", err, "message_id", msg.MessageId)
				_ = msg.Nack(false, false)
				continue
			}

			d := &delivery{
				queue:   q,
				msg:     msg,
				jobID:   jobID,
				attempt: deliveryAttempt(msg.Headers, msg.Redelivered),
			}
			select {
			case q.deliveries <- d:
			case <-q.closeCh:
				_ = msg.Nack(false, true)
				return nil
			}
		}
	}
}

func (q *Queue) isClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func reconnectDelay(attempt int) time.Duration {
	delay := baseReconnectDelay
	for i := 0; i < attempt && delay < maxReconnectDelay; i++ {
		delay *= 2
	}
	return min(delay, maxReconnectDelay)
}

// delivery adapts an AMQP delivery to task.Delivery.
type delivery struct {
	queue   *Queue
	msg     amqp.Delivery
	jobID   uuid.UUID
	attempt int
}

func (d *delivery) JobID() uuid.UUID { return d.jobID }
func (d *delivery) Attempt() int     { return d.attempt }
func (d *delivery) Ack() error       { return d.msg.Ack(false) }
func (d *delivery) Retry() error     { return d.queue.retry(d) }
func (d *delivery) Reject() error    { return d.msg.Nack(false, false) }

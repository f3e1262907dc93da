package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrInvalidMessage is returned for a message body that is not a job
// reference.
var ErrInvalidMessage = errors.New("invalid job message")

const (
	// deliveryCountHeader is set by quorum queues on redelivered messages.
	deliveryCountHeader = "x-delivery-count"

	// priorAttemptsHeader carries the attempts a job used before it was
	// parked on the retry queue. The republished message starts a fresh
	// delivery count.
	priorAttemptsHeader = "x-prior-attempts"
)

// jobMessage is the body of every published message.
type jobMessage struct {
	JobID uuid.UUID `json:"job_id"`
}

func encodeMessage(jobID uuid.UUID) ([]byte, error) {
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("%w: nil job id", ErrInvalidMessage)
	}
	return json.Marshal(jobMessage{JobID: jobID})
}

func decodeMessage(body []byte) (uuid.UUID, error) {
	var msg jobMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.JobID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: missing job_id", ErrInvalidMessage)
	}
	return msg.JobID, nil
}

// deliveryAttempt returns the 1-based attempt number of a delivery.
// Quorum queues report previous deliveries in x-delivery-count; without the
// header the redelivered flag is the only hint. Attempts spent before a
// delayed retry are added on top.
func deliveryAttempt(headers amqp.Table, redelivered bool) int {
	prior, _ := headerInt(headers, priorAttemptsHeader)
	if n, ok := headerInt(headers, deliveryCountHeader); ok {
		return prior + n + 1
	}
	if redelivered {
		return prior + 2
	}
	return prior + 1
}

func headerInt(headers amqp.Table, key string) (int, bool) {
	switch n := headers[key].(type) {
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// queueArgs declares a quorum queue that dead-letters to the DLX after
// maxDeliveries deliveries.
func queueArgs(name string, maxDeliveries int) amqp.Table {
	args := amqp.Table{
		"x-queue-type":              "quorum",
		"x-dead-letter-exchange":    dlxName(name),
		"x-dead-letter-routing-key": dlqName(name),
	}
	if maxDeliveries > 0 {
		args["x-delivery-limit"] = int64(maxDeliveries)
	}
	return args
}

// retryQueueArgs declares a holding queue whose messages expire after
// delay and are dead-lettered back onto the work queue.
func retryQueueArgs(name string, delay time.Duration) amqp.Table {
	return amqp.Table{
		"x-message-ttl":             delay.Milliseconds(),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": name,
	}
}

func retryName(queue string) string { return queue + ".retry" }
func dlxName(queue string) string { return queue + ".dlx" }
func dlqName(queue string) string { return queue + ".dlq" }

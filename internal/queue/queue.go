package queue

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/ned/internal/util"
	"github.com/OFFIS-RIT/ned/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DisambiguateQueue = "disambiguate_queue"

	// MaxRetries is the number of redeliveries before a message is moved
	// to the dead-letter queue.
	MaxRetries = 10
	// RetryDelay is how long a message waits in the retry queue.
	RetryDelay = 10 * time.Second
)

// Queues lists every work queue the worker consumes.
var Queues = []string{DisambiguateQueue}

// Channel is the subset of *amqp091.Channel used for declaring queues and
// publishing.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

func URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnvString("RABBITMQ_HOST", "localhost"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)
}

func Init() *amqp091.Connection {
	conn, err := amqp091.Dial(URL())
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	return conn
}

func RetryQueue(name string) string { return name + "_retry" }

func DeadLetterQueue(name string) string { return name + "_dlq" }

func declare(ch Channel, name string, args amqp091.Table) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

// SetupQueues declares every queue with its dead-letter queue and a retry
// queue that routes expired messages back to the work queue.
func SetupQueues(ch Channel, queueNames []string) error {
	for _, name := range queueNames {
		retryArgs := amqp091.Table{
			"x-message-ttl":             int32(RetryDelay.Milliseconds()),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": name,
		}
		if err := declare(ch, name, nil); err != nil {
			return err
		}
		if err := declare(ch, DeadLetterQueue(name), nil); err != nil {
			return err
		}
		if err := declare(ch, RetryQueue(name), retryArgs); err != nil {
			return err
		}
	}
	return nil
}

// PublishFIFO publishes a persistent JSON message to the default exchange,
// declaring the queue first so publishing works before any worker started.
func PublishFIFO(ch Channel, queueName string, data []byte) error {
	if err := declare(ch, queueName, nil); err != nil {
		return err
	}
	return ch.Publish("", queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	})
}

func retryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError moves a failed delivery to the retry queue, or to
// the dead-letter queue once MaxRetries is reached or the error is
// permanent. The original delivery is acked after a successful publish and
// requeued otherwise.
func HandleProcessingError(ch Channel, msg amqp091.Delivery, queueName string, cause error) {
	retries := retryCount(msg.Headers)
	headers := make(amqp091.Table, len(msg.Headers)+1)
	for k, v := range msg.Headers {
		headers[k] = v
	}

	target := RetryQueue(queueName)
	if retries >= MaxRetries || util.IsPermanent(cause) {
		target = DeadLetterQueue(queueName)
		if cause != nil {
			headers["x-error"] = cause.Error()
		}
		logger.Info("[Queue] Sending message to DLQ", "dlq", target, "retries", retries, "err", cause)
	} else {
		headers["x-retries"] = int32(retries + 1)
		logger.Debug("[Queue] Scheduling retry", "queue", target, "attempt", retries+1)
	}

	err := ch.Publish("", target, false, false, amqp091.Publishing{
		ContentType: msg.ContentType,
		Headers:     headers,
		Body:        msg.Body,
	})
	if err != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

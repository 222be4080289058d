package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	exchangeType = "topic"

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	confirmTimeout = 5 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// confirmation is the broker's answer to one publish.
// *amqp.DeferredConfirmation satisfies it.
type confirmation interface {
	Done() <-chan struct{}
	Acked() bool
}

// publishChannel is the slice of *amqp.Channel the publisher uses.
type publishChannel interface {
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

// confirmChannel adapts an *amqp.Channel in confirm mode.
type confirmChannel struct {
	*amqp.Channel
}

func (c confirmChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

// AMQPPublisher publishes events to a durable RabbitMQ topic exchange using
// the event type as routing key. Each attempt waits on its own deferred
// confirmation, so a late ack for an abandoned attempt is never read as the
// answer to a later one.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  publishChannel
	exchange string
	log      *zap.Logger

	initialBackoff time.Duration
	confirmTimeout time.Duration

	mu sync.Mutex
}

// NewAMQPPublisher dials url, declares exchange and enables publisher confirms.
func NewAMQPPublisher(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if err := channel.Confirm(false); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	log.Info("connected to RabbitMQ", zap.String("exchange", exchange))

	p := newPublisher(confirmChannel{channel}, exchange, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch publishChannel, exchange string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		channel:        ch,
		exchange:       exchange,
		log:            log,
		initialBackoff: initialBackoff,
		confirmTimeout: confirmTimeout,
	}
}

// Publish sends e with exponential backoff, waiting for a broker ack on each attempt.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	backoff := p.initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff = min(backoff*2, maxBackoff)
			}
		}

		conf, err := p.channel.publish(ctx, p.exchange, e.EventType, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    e.EventID,
			Body:         body,
			Headers: amqp.Table{
				"event_type":    e.EventType,
				"event_version": e.EventVersion,
			},
		})
		if err != nil {
			lastErr = err
			p.log.Warn("publish event failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		timer := time.NewTimer(p.confirmTimeout)
		select {
		case <-conf.Done():
			timer.Stop()
			if conf.Acked() {
				p.log.Debug("event published",
					zap.String("event_id", e.EventID),
					zap.String("event_type", e.EventType),
				)
				return nil
			}
			lastErr = errors.New("event not acknowledged")
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			lastErr = errors.New("confirmation timeout")
		}
		p.log.Warn("event publish not confirmed, retrying", zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}

	return fmt.Errorf("publish event after %d attempts: %w", maxRetries, lastErr)
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

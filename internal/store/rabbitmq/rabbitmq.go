// Package rabbitmq publishes price batches to a RabbitMQ exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"rideprice/internal/fare"
	"rideprice/internal/store"
)

const backend = "rabbitmq"

const publishTimeout = 10 * time.Second

// Config holds the broker URL and publishing target.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher emits every batch as one persistent JSON message.
type Publisher struct {
	ch         Channel
	exchange   string
	routingKey string
	closers    []func() error
}

// NewPublisher wraps an open channel.
func NewPublisher(ch Channel, exchange, routingKey string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, routingKey: routingKey}
}

// Dial connects, opens a channel and declares a durable direct exchange.
func Dial(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq: URL is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("rabbitmq: declare exchange %q: %w", cfg.Exchange, err)
		}
	}
	p := NewPublisher(ch, cfg.Exchange, cfg.RoutingKey)
	p.closers = []func() error{ch.Close, conn.Close}
	return p, nil
}

// Append publishes the batch. Empty batches are still published so consumers
// can see that a provider answered with no prices.
func (p *Publisher) Append(ctx context.Context, b store.Batch) error {
	body, err := json.Marshal(b)
	if err != nil {
		return &fare.StorageError{Backend: backend, Err: fmt.Errorf("encode batch %s: %w", b.ID, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    b.ID.String(),
		Timestamp:    b.FetchedAt,
		Type:         string(b.Provider),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return &fare.StorageError{Backend: backend, Err: fmt.Errorf("publish batch %s: %w", b.ID, err)}
	}
	return nil
}

// Close closes the channel and connection opened by Dial.
func (p *Publisher) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

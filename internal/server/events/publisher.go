// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/celengan/internal/logging"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// TypeTransactionPosted is the message type of a committed posting.
const TypeTransactionPosted = "transaction.posted"

const publishTimeout = 5 * time.Second

// TransactionPosted is the JSON body of a transaction.posted message.
type TransactionPosted struct {
	Type         string           `json:"type"`
	EntryID      string           `json:"entry_id"`
	UserID       string           `json:"user_id"`
	GoalID       string           `json:"goal_id"`
	Kind         models.EntryKind `json:"kind"`
	Amount       decimal.Decimal  `json:"amount"`
	GoalBalance  decimal.Decimal  `json:"goal_balance"`
	TotalBalance decimal.Decimal  `json:"total_balance"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// NewTransactionPosted builds the event for a posting result.
func NewTransactionPosted(r *models.PostingResult) TransactionPosted {
	return TransactionPosted{
		Type:         TypeTransactionPosted,
		EntryID:      r.Entry.ID,
		UserID:       r.Entry.UserID,
		GoalID:       r.Entry.GoalID,
		Kind:         r.Entry.Kind,
		Amount:       r.Entry.Amount,
		GoalBalance:  r.Goal.CurrentAmount,
		TotalBalance: r.TotalBalance,
		OccurredAt:   r.Entry.CreatedAt,
	}
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends events to a durable queue on the default exchange.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel channel
	queue   string
	log     logging.Logger
}

// Dial connects to url, opens a channel and declares queue.
func Dial(url, queue string, log logging.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	log.Info(context.Background(), "connected to RabbitMQ", "queue", q.Name, "messages", q.Messages)
	return &AMQPPublisher{conn: conn, channel: ch, queue: q.Name, log: log}, nil
}

// PublishPosting sends a transaction.posted message for r.
func (p *AMQPPublisher) PublishPosting(ctx context.Context, r *models.PostingResult) error {
	event := NewTransactionPosted(r)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(publishCtx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         TypeTransactionPosted,
			MessageId:    event.EntryID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	p.log.Debug(ctx, "event published", "queue", p.queue, "type", TypeTransactionPosted, "entry_id", event.EntryID)
	return nil
}

// Close closes the channel and then the connection.
func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NopPublisher drops every event. It stands in when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPosting(context.Context, *models.PostingResult) error { return nil }
func (NopPublisher) Close() error                                               { return nil }

package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, msg []byte, headers amqp.Table) error {
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
		},
	)
}

// IngestPublisher enqueues submission messages on the ingest routing key.
type IngestPublisher struct {
	pub *Publisher
}

func NewIngestPublisher(pub *Publisher) *IngestPublisher {
	return &IngestPublisher{pub: pub}
}

func (ip *IngestPublisher) PublishIngest(ctx context.Context, msg []byte) error {
	return ip.pub.publish(ctx, routingKeyIngest, msg, nil)
}

// StatusPublisher emits job status transition events.
type StatusPublisher struct {
	pub *Publisher
}

func NewStatusPublisher(pub *Publisher) *StatusPublisher {
	return &StatusPublisher{pub: pub}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, routingKeyStatus, msg, nil)
}

// DLQPublisher parks undecodable submissions for inspection; there is no
// retry path out of the DLQ.
type DLQPublisher struct {
	channel *amqp.Channel
	queue   string
}

func NewDLQPublisher(conn *amqp.Connection, dlqQueue string) (*DLQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open dlq channel: %w", err)
	}
	return &DLQPublisher{channel: ch, queue: dlqQueue}, nil
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return dp.channel.PublishWithContext(ctx,
		"",
		dp.queue,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"x-dlq-reason": reason,
			},
		},
	)
}

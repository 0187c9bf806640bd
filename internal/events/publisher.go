package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/amnamine/AccessoiresHF/internal/contracts"
	"github.com/amnamine/AccessoiresHF/internal/order"
)

// Sequencer is implemented by SequenceRepository.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// RabbitOrderEventsPublisher publishes OrderPlaced envelopes to the topic
// exchange. Placement does not depend on it succeeding; callers log publish
// failures and move on.
type RabbitOrderEventsPublisher struct {
	ch  *amqp.Channel
	seq Sequencer
}

func NewRabbitOrderEventsPublisher(conn *amqp.Connection, seq Sequencer) (*RabbitOrderEventsPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &RabbitOrderEventsPublisher{ch: ch, seq: seq}, nil
}

func (p *RabbitOrderEventsPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitOrderEventsPublisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	// Partition by buyer so one buyer's orders stay in sequence; guest
	// orders partition by the order itself.
	partitionKey := o.BuyerID
	if partitionKey == "" {
		partitionKey = o.ID
	}

	seq, err := p.seq.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := contracts.BuildOrderPlacedEvent(o, contracts.EnvelopeOptions{
		PartitionKey: partitionKey,
		Sequence:     seq,
	})

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced envelope: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		OrderPlacedRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

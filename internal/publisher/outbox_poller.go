package publisher

import (
	"context"
	"log"
	"time"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	"github.com/segmentio/kafka-go"
)

// OutboxPoller drains the payment-events outbox to Kafka. Reconciliation
// writes the event in the same flow as the ledger write; publication here is
// at-least-once and consumers dedupe on correlation id.
type OutboxPoller struct {
	tick   time.Duration
	repo   repository.PaymentEventRepository
	writer *kafka.Writer
}

func NewOutboxPoller(repo repository.PaymentEventRepository, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "payment-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{tick: time.Second, repo: repo, writer: w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() {
	if err := p.writer.Close(); err != nil {
		log.Printf("error closing kafka writer: %v", err)
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.FetchUnpublished(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch payment events: %v", err)
		return
	}

	for _, event := range events {
		if errPublish := p.publishToKafka(ctx, event); errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		if errMark := p.repo.MarkPublished(ctx, event.ID); errMark != nil {
			log.Printf("failed to mark event as published id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.PaymentEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.CorrelationID), // per-payment ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}

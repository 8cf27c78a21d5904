package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentEvent is an outbox row recording a reconciliation outcome for
// asynchronous publication to the fulfillment side.
type PaymentEvent struct {
	ID            string     `bson:"_id,omitempty"`
	EventType     string     `bson:"event_type"`
	CorrelationID string     `bson:"correlation_id"`
	Payload       []byte     `bson:"payload"`
	CreatedAt     time.Time  `bson:"created_at"`
	PublishedAt   *time.Time `bson:"published_at,omitempty"`
}

type PaymentEventRepository interface {
	Insert(ctx context.Context, eventType, correlationID string, payload any) error
	FetchUnpublished(ctx context.Context, limit int64) ([]*PaymentEvent, error)
	MarkPublished(ctx context.Context, id string) error
}

type mongoPaymentEventRepository struct {
	collection *mongo.Collection
}

func NewMongoPaymentEventRepository(db *mongo.Database) PaymentEventRepository {
	return &mongoPaymentEventRepository{
		collection: db.Collection("payment_events"),
	}
}

func (m *mongoPaymentEventRepository) Insert(ctx context.Context, eventType, correlationID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := PaymentEvent{
		ID:            primitive.NewObjectID().Hex(),
		EventType:     eventType,
		CorrelationID: correlationID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if _, err := m.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert payment event: %w", err)
	}
	return nil
}

func (m *mongoPaymentEventRepository) FetchUnpublished(ctx context.Context, limit int64) ([]*PaymentEvent, error) {
	filter := bson.M{"published_at": bson.M{"$exists": false}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unpublished events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*PaymentEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode payment events: %w", err)
	}
	return events, nil
}

func (m *mongoPaymentEventRepository) MarkPublished(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"published_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("payment event %s not found", id)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoTransactionRepository struct {
	collection *mongo.Collection
}

func NewMongoTransactionRepository(db *mongo.Database) TransactionRepository {
	return &mongoTransactionRepository{
		collection: db.Collection("transactions"),
	}
}

func (m *mongoTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	now := time.Now()
	if tx.ID == "" {
		tx.ID = primitive.NewObjectID().Hex()
	}
	tx.Status = domain.TransactionStatusPending
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (m *mongoTransactionRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*domain.Transaction, error) {
	var tx domain.Transaction

	filter := bson.M{"correlation_id": correlationID}
	err := m.collection.FindOne(ctx, filter).Decode(&tx)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	return &tx, nil
}

// Transition is a single atomic read-modify-write: the filter matches only
// when the document still holds the expected status, so two concurrent
// callers can never both succeed for the same step.
func (m *mongoTransactionRepository) Transition(ctx context.Context, correlationID string, from, to domain.TransactionStatus) (*domain.Transaction, error) {
	if !from.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}

	filter := bson.M{"correlation_id": correlationID, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var tx domain.Transaction
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&tx)
	if err == nil {
		return &tx, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to transition transaction: %w", err)
	}

	// No document matched: either the id is unknown or another writer moved
	// the status first. Distinguish the two for the caller.
	current, findErr := m.FindByCorrelationID(ctx, correlationID)
	if findErr != nil {
		return nil, findErr
	}
	return current, ErrTransitionConflict
}

func (m *mongoTransactionRepository) SetProviderRef(ctx context.Context, correlationID, providerRef string) error {
	filter := bson.M{"correlation_id": correlationID}
	update := bson.M{"$set": bson.M{"provider_ref": providerRef, "updated_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set provider ref: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (m *mongoTransactionRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "correlation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrderRepository struct {
	collection   *mongo.Collection
	transactions *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection:   db.Collection("orders"),
		transactions: db.Collection("transactions"),
	}
}

func (m *mongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	// An order cannot exist without its ledger entry, and their totals must
	// agree at creation time.
	var tx domain.Transaction
	err := m.transactions.FindOne(ctx, bson.M{"correlation_id": order.PaymentRef}).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrPaymentRefNotFound
		}
		return fmt.Errorf("failed to verify payment ref: %w", err)
	}
	if tx.Amount.Total != order.TotalAmount {
		return ErrOrderTotalMismatch
	}

	now := time.Now()
	order.Status = domain.OrderStatusProcessing
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *mongoOrderRepository) GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"payment_ref": paymentRef})
}

func (m *mongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

func (m *mongoOrderRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (m *mongoOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return ErrInvalidOrderStatus
	}

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		// Either the order is unknown or its status moved underneath us.
		count, countErr := m.collection.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return fmt.Errorf("failed to check order existence: %w", countErr)
		}
		if count == 0 {
			return ErrOrderNotFound
		}
		return ErrInvalidOrderStatus
	}
	return nil
}

func (m *mongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "payment_ref", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	return nil
}

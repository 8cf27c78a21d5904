package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrProductNotFound = errors.New("product not found")

// ProductCatalog is the price-lookup collaborator. Checkout only ever reads
// current unit prices; catalog management lives elsewhere in the storefront.
type ProductCatalog interface {
	GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type mongoProductCatalog struct {
	collection *mongo.Collection
}

func NewMongoProductCatalog(db *mongo.Database) ProductCatalog {
	return &mongoProductCatalog{
		collection: db.Collection("products"),
	}
}

func (m *mongoProductCatalog) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	filter := bson.M{"_id": bson.M{"$in": ids}}

	cursor, err := m.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make(map[string]domain.Product, len(ids))
	for cursor.Next(ctx) {
		var p domain.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products[p.ID] = p
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("product cursor error: %w", err)
	}

	return products, nil
}

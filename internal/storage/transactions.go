package storage

import (
	"context"

	"perishable-scm-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TransactionStore is append-only: records are inserted once and never
// updated or deleted.
type TransactionStore struct {
	c *mongo.Collection
}

func NewTransactionStore(db *mongo.Database) *TransactionStore {
	return &TransactionStore{c: db.Collection("stock_transactions")}
}

func (s *TransactionStore) Append(ctx context.Context, tx *models.StockTransaction) error {
	_, err := s.c.InsertOne(ctx, tx)
	return translate(err)
}

// List returns a page of the audit trail, newest first.
func (s *TransactionStore) List(ctx context.Context, productID, hubID, txType string, page models.Page) ([]models.StockTransaction, error) {
	filter := bson.M{}
	if productID != "" {
		filter["productID"] = productID
	}
	if hubID != "" {
		filter["hubID"] = hubID
	}
	if txType != "" {
		filter["type"] = txType
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var txs []models.StockTransaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, translate(err)
	}
	return txs, nil
}

package storage

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BatchStore struct {
	c *mongo.Collection
}

func NewBatchStore(db *mongo.Database) *BatchStore {
	return &BatchStore{c: db.Collection("batches")}
}

func (s *BatchStore) key(productID, hubID, batchNo string) bson.M {
	return bson.M{"productID": productID, "hubID": hubID, "batchNo": batchNo}
}

func (s *BatchStore) FindByBatchNo(ctx context.Context, productID, hubID, batchNo string) (*models.Batch, error) {
	var batch models.Batch
	err := s.c.FindOne(ctx, s.key(productID, hubID, batchNo)).Decode(&batch)
	if err != nil {
		return nil, translate(err)
	}
	return &batch, nil
}

// FindActiveByExpiry locates the merge target for a stock-in without an
// explicit batch number: the active batch with the exact same expiry date.
func (s *BatchStore) FindActiveByExpiry(ctx context.Context, productID, hubID string, expiry time.Time) (*models.Batch, error) {
	var batch models.Batch
	err := s.c.FindOne(ctx, bson.M{
		"productID":  productID,
		"hubID":      hubID,
		"expiryDate": expiry,
		"status":     models.BatchStatusActive,
	}).Decode(&batch)
	if err != nil {
		return nil, translate(err)
	}
	return &batch, nil
}

// Insert creates a new batch document. A duplicate (productID, hubID,
// batchNo) surfaces as a Conflict for the caller's merge fallback.
func (s *BatchStore) Insert(ctx context.Context, batch *models.Batch) error {
	_, err := s.c.InsertOne(ctx, batch)
	return translate(err)
}

// MergeStock folds incoming quantity and value into an existing batch and
// stamps the recomputed weighted-average unit price.
func (s *BatchStore) MergeStock(ctx context.Context, productID, hubID, batchNo string, qty int, value, newUnitPrice float64, now time.Time) error {
	res, err := s.c.UpdateOne(ctx, s.key(productID, hubID, batchNo), bson.M{
		"$inc": bson.M{"quantity": qty, "purchaseValue": value},
		"$set": bson.M{"purchaseUnitPrice": newUnitPrice, "lastUpdated": now},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return apperr.Newf(apperr.NotFound, "batch %q not found for merge", batchNo)
	}
	return nil
}

// TotalActive sums available quantity across all active batches for the
// (product, hub) pair.
func (s *BatchStore) TotalActive(ctx context.Context, productID, hubID string) (int, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"productID": productID, "hubID": hubID, "status": models.BatchStatusActive}},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$quantity"}}},
	}
	cursor, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, translate(err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, translate(err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// ListActiveFIFO returns the consumption snapshot: active batches with
// stock, soonest expiry first, ties broken by insertion order.
func (s *BatchStore) ListActiveFIFO(ctx context.Context, productID, hubID string) ([]models.Batch, error) {
	opts := options.Find().SetSort(bson.D{{Key: "expiryDate", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{
		"productID": productID,
		"hubID":     hubID,
		"status":    models.BatchStatusActive,
		"quantity":  bson.M{"$gt": 0},
	}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var batches []models.Batch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, translate(err)
	}
	return batches, nil
}

// DecrementQuantity takes stock out of one batch, guarded so the quantity
// can never drop below zero. Returns the post-decrement quantity; a
// Conflict means the guard failed because of a concurrent consumer.
func (s *BatchStore) DecrementQuantity(ctx context.Context, productID, hubID, batchNo string, take int, now time.Time) (int, error) {
	filter := s.key(productID, hubID, batchNo)
	filter["status"] = models.BatchStatusActive
	filter["quantity"] = bson.M{"$gte": take}

	var updated models.Batch
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{
		"$inc": bson.M{"quantity": -take},
		"$set": bson.M{"lastUpdated": now},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, apperr.Newf(apperr.Conflict, "batch %q changed concurrently, decrement of %d rejected", batchNo, take)
		}
		return 0, translate(err)
	}
	return updated.Quantity, nil
}

// MarkDepleted flips an active batch to depleted once its quantity has hit
// zero. The quantity guard makes the flip safe to attempt after any
// decrement.
func (s *BatchStore) MarkDepleted(ctx context.Context, productID, hubID, batchNo string, now time.Time) error {
	filter := s.key(productID, hubID, batchNo)
	filter["status"] = models.BatchStatusActive
	filter["quantity"] = 0

	_, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"status": models.BatchStatusDepleted, "lastUpdated": now},
	})
	return translate(err)
}

// CreditTransfer upserts a destination-hub batch from one consumption
// trace entry, preserving the original batch number and unit cost.
func (s *BatchStore) CreditTransfer(ctx context.Context, productID, hubID, batchNo string, qty int, unitCost float64, expiry time.Time, now time.Time) error {
	_, err := s.c.UpdateOne(ctx, s.key(productID, hubID, batchNo), bson.M{
		"$inc": bson.M{"quantity": qty, "purchaseValue": unitCost * float64(qty)},
		"$set": bson.M{"status": models.BatchStatusActive, "lastUpdated": now},
		"$setOnInsert": bson.M{
			"purchaseUnitPrice": unitCost,
			"expiryDate":        expiry,
			"createdAt":         now,
		},
	}, options.Update().SetUpsert(true))
	return translate(err)
}

// AdjustQuantity applies a signed manual correction. Negative deltas are
// guarded the same way as consumption decrements.
func (s *BatchStore) AdjustQuantity(ctx context.Context, productID, hubID, batchNo string, delta int, now time.Time) (int, error) {
	filter := s.key(productID, hubID, batchNo)
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}

	var updated models.Batch
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"lastUpdated": now},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, apperr.Newf(apperr.Conflict, "adjustment of %d on batch %q rejected", delta, batchNo)
		}
		return 0, translate(err)
	}
	return updated.Quantity, nil
}

// SetArchived moves an active or depleted batch to archived.
func (s *BatchStore) SetArchived(ctx context.Context, productID, hubID, batchNo string, now time.Time) error {
	filter := s.key(productID, hubID, batchNo)
	filter["status"] = bson.M{"$in": []string{models.BatchStatusActive, models.BatchStatusDepleted}}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"status": models.BatchStatusArchived, "lastUpdated": now},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return apperr.Newf(apperr.InvalidState, "batch %q is not active or depleted", batchNo)
	}
	return nil
}

// BatchSummary is the aggregate view of a (product, hub) pair.
type BatchSummary struct {
	TotalQuantity int        `bson:"totalQuantity"`
	NearestExpiry *time.Time `bson:"nearestExpiry"`
	BatchesCount  int        `bson:"batchesCount"`
}

func (s *BatchStore) Summary(ctx context.Context, productID, hubID string) (*BatchSummary, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"productID": productID, "hubID": hubID, "status": models.BatchStatusActive}},
		{"$group": bson.M{
			"_id":           "$productID",
			"totalQuantity": bson.M{"$sum": "$quantity"},
			"nearestExpiry": bson.M{"$min": "$expiryDate"},
			"batchesCount":  bson.M{"$sum": 1},
		}},
	}
	cursor, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var result []BatchSummary
	if err := cursor.All(ctx, &result); err != nil {
		return nil, translate(err)
	}
	if len(result) == 0 {
		return &BatchSummary{}, nil
	}
	return &result[0], nil
}

// List returns a page of batches for a (product, hub) pair, optionally
// filtered by status, soonest expiry first.
func (s *BatchStore) List(ctx context.Context, productID, hubID, status string, page models.Page) ([]models.Batch, error) {
	filter := bson.M{"productID": productID, "hubID": hubID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "expiryDate", Value: 1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var batches []models.Batch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, translate(err)
	}
	return batches, nil
}

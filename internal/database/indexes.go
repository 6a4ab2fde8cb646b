package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the conditional-update model relies
// on. The unique index on (productID, hubID, batchNo) is load-bearing: it
// is what turns a batch-creation race into a duplicate-key error the
// ledger can recover from by merging.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"hubs": {
			{Keys: bson.D{{Key: "hubID", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "hubName", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "hubManager", Value: 1}}},
		},
		"closed_hubs": {
			{Keys: bson.D{{Key: "hub.hubID", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"products": {
			{Keys: bson.D{{Key: "productID", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		"batches": {
			{
				Keys:    bson.D{{Key: "productID", Value: 1}, {Key: "hubID", Value: 1}, {Key: "batchNo", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "productID", Value: 1}, {Key: "hubID", Value: 1}, {Key: "expiryDate", Value: 1}}},
		},
		"stock_transactions": {
			{Keys: bson.D{{Key: "transactionID", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "productID", Value: 1}, {Key: "hubID", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		"dispatches": {
			{Keys: bson.D{{Key: "dispatchID", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"drivers": {
			{Keys: bson.D{{Key: "driverID", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "licenseNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "hubID", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		"vehicles": {
			{Keys: bson.D{{Key: "vehicleID", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "vehicleNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

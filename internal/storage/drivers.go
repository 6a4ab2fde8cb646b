package storage

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DriverStore struct {
	c *mongo.Collection
}

func NewDriverStore(db *mongo.Database) *DriverStore {
	return &DriverStore{c: db.Collection("drivers")}
}

func (s *DriverStore) Insert(ctx context.Context, driver *models.Driver) error {
	_, err := s.c.InsertOne(ctx, driver)
	return translate(err)
}

func (s *DriverStore) FindByID(ctx context.Context, driverID string) (*models.Driver, error) {
	var driver models.Driver
	err := s.c.FindOne(ctx, bson.M{
		"driverID": driverID,
		"status":   bson.M{"$ne": models.DriverStatusDeleted},
	}).Decode(&driver)
	if err != nil {
		return nil, translate(err)
	}
	return &driver, nil
}

// ClaimIdle atomically flips the first idle driver to assigned and returns
// it. The status flip and the read are one document update, so two
// concurrent allocators can never claim the same driver.
func (s *DriverStore) ClaimIdle(ctx context.Context) (*models.Driver, error) {
	var driver models.Driver
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"status": models.DriverStatusIdle},
		bson.M{"$set": bson.M{"status": models.DriverStatusAssigned, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&driver)
	if err != nil {
		return nil, translate(err)
	}
	return &driver, nil
}

func (s *DriverStore) SetStatus(ctx context.Context, driverID, status string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"driverID": driverID}, bson.M{
		"$set": bson.M{"status": status, "updatedAt": time.Now()},
	})
	return translate(err)
}

func (s *DriverStore) UpdateFields(ctx context.Context, driverID string, fields map[string]interface{}) (*models.Driver, error) {
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	var driver models.Driver
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"driverID": driverID, "status": bson.M{"$ne": models.DriverStatusDeleted}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&driver)
	if err != nil {
		return nil, translate(err)
	}
	return &driver, nil
}

// SoftDelete marks a driver deleted; the document stays for the audit
// trail. Assigned drivers cannot be deleted.
func (s *DriverStore) SoftDelete(ctx context.Context, driverID string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"driverID": driverID,
		"status":   bson.M{"$in": []string{models.DriverStatusIdle, models.DriverStatusRetired}},
	}, bson.M{
		"$set": bson.M{"status": models.DriverStatusDeleted, "updatedAt": time.Now()},
	})
	if err != nil {
		return false, translate(err)
	}
	return res.ModifiedCount == 1, nil
}

// RetireByAge marks idle drivers at or past the retirement age. Returns
// how many were retired.
func (s *DriverStore) RetireByAge(ctx context.Context, age int) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{
		"status": models.DriverStatusIdle,
		"age":    bson.M{"$gte": age},
	}, bson.M{
		"$set": bson.M{
			"status":        models.DriverStatusRetired,
			"retiredReason": "age limit reached",
			"updatedAt":     time.Now(),
		},
	})
	if err != nil {
		return 0, translate(err)
	}
	return res.ModifiedCount, nil
}

func (s *DriverStore) Search(ctx context.Context, name, license, status, hubID string, page models.Page) ([]models.Driver, error) {
	filter := bson.M{"status": bson.M{"$ne": models.DriverStatusDeleted}}
	if name != "" {
		filter["name"] = bson.M{"$regex": name, "$options": "i"}
	}
	if license != "" {
		filter["licenseNumber"] = license
	}
	if status != "" {
		filter["status"] = status
	}
	if hubID != "" {
		filter["hubID"] = hubID
	}

	opts := options.Find().SetSkip(page.Skip).SetLimit(page.Limit)
	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var drivers []models.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, translate(err)
	}
	return drivers, nil
}

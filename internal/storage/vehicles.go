package storage

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VehicleStore struct {
	c *mongo.Collection
}

func NewVehicleStore(db *mongo.Database) *VehicleStore {
	return &VehicleStore{c: db.Collection("vehicles")}
}

func (s *VehicleStore) Insert(ctx context.Context, vehicle *models.Vehicle) error {
	_, err := s.c.InsertOne(ctx, vehicle)
	return translate(err)
}

func (s *VehicleStore) FindByID(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := s.c.FindOne(ctx, bson.M{
		"vehicleID": vehicleID,
		"status":    bson.M{"$ne": models.VehicleStatusDeleted},
	}).Decode(&vehicle)
	if err != nil {
		return nil, translate(err)
	}
	return &vehicle, nil
}

// ClaimIdle atomically flips the first available vehicle to In-Transit and
// returns it; see DriverStore.ClaimIdle.
func (s *VehicleStore) ClaimIdle(ctx context.Context) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"status": models.VehicleStatusAvailable},
		bson.M{"$set": bson.M{"status": models.VehicleStatusInTransit, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&vehicle)
	if err != nil {
		return nil, translate(err)
	}
	return &vehicle, nil
}

func (s *VehicleStore) SetStatus(ctx context.Context, vehicleID, status string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"vehicleID": vehicleID}, bson.M{
		"$set": bson.M{"status": status, "updatedAt": time.Now()},
	})
	return translate(err)
}

func (s *VehicleStore) UpdateFields(ctx context.Context, vehicleID string, fields map[string]interface{}) (*models.Vehicle, error) {
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	var vehicle models.Vehicle
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"vehicleID": vehicleID, "status": bson.M{"$ne": models.VehicleStatusDeleted}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&vehicle)
	if err != nil {
		return nil, translate(err)
	}
	return &vehicle, nil
}

// SoftDelete marks a vehicle deleted unless it is out on a dispatch.
func (s *VehicleStore) SoftDelete(ctx context.Context, vehicleID string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"vehicleID": vehicleID,
		"status":    bson.M{"$in": []string{models.VehicleStatusAvailable, models.VehicleStatusMaintenance}},
	}, bson.M{
		"$set": bson.M{"status": models.VehicleStatusDeleted, "updatedAt": time.Now()},
	})
	if err != nil {
		return false, translate(err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *VehicleStore) Search(ctx context.Context, vehicleID, vehicleNumber, status string, page models.Page) ([]models.Vehicle, error) {
	filter := bson.M{"status": bson.M{"$ne": models.VehicleStatusDeleted}}
	if vehicleID != "" {
		filter["vehicleID"] = vehicleID
	}
	if vehicleNumber != "" {
		filter["vehicleNumber"] = vehicleNumber
	}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSkip(page.Skip).SetLimit(page.Limit)
	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, translate(err)
	}
	return vehicles, nil
}

package storage

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type HubStore struct {
	hubs   *mongo.Collection
	closed *mongo.Collection
}

func NewHubStore(db *mongo.Database) *HubStore {
	return &HubStore{
		hubs:   db.Collection("hubs"),
		closed: db.Collection("closed_hubs"),
	}
}

// Exists is the collaborator check the inventory and dispatch cores use.
func (s *HubStore) Exists(ctx context.Context, hubID string) (bool, error) {
	count, err := s.hubs.CountDocuments(ctx, bson.M{"hubID": hubID})
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (s *HubStore) Insert(ctx context.Context, hub *models.Hub) error {
	_, err := s.hubs.InsertOne(ctx, hub)
	return translate(err)
}

func (s *HubStore) FindByID(ctx context.Context, hubID string) (*models.Hub, error) {
	var hub models.Hub
	err := s.hubs.FindOne(ctx, bson.M{"hubID": hubID}).Decode(&hub)
	if err != nil {
		return nil, translate(err)
	}
	return &hub, nil
}

// FindByManager locates the active hub a manager is responsible for, if
// any. A manager may only run one active hub at a time.
func (s *HubStore) FindByManager(ctx context.Context, manager string) (*models.Hub, error) {
	var hub models.Hub
	err := s.hubs.FindOne(ctx, bson.M{
		"hubManager": manager,
		"status":     models.HubStatusActive,
	}).Decode(&hub)
	if err != nil {
		return nil, translate(err)
	}
	return &hub, nil
}

func (s *HubStore) UpdateFields(ctx context.Context, hubID string, fields map[string]interface{}) (*models.Hub, error) {
	now := time.Now()
	set := bson.M{"updatedAt": now}
	for k, v := range fields {
		set[k] = v
	}
	var hub models.Hub
	err := s.hubs.FindOneAndUpdate(ctx,
		bson.M{"hubID": hubID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&hub)
	if err != nil {
		return nil, translate(err)
	}
	return &hub, nil
}

// Close archives the hub into closed_hubs and removes it from the active
// set. Two documents, no transaction: the unique closed_hubs index makes a
// replayed close harmless.
func (s *HubStore) Close(ctx context.Context, hub *models.Hub, reason string) error {
	hub.Status = models.HubStatusClosed
	archived := models.ClosedHub{Hub: *hub, ClosedAt: time.Now(), Reason: reason}
	archived.Hub.ID = primitive.NilObjectID

	if _, err := s.closed.InsertOne(ctx, archived); err != nil {
		return translate(err)
	}
	_, err := s.hubs.DeleteOne(ctx, bson.M{"hubID": hub.HubID})
	return translate(err)
}

func (s *HubStore) Search(ctx context.Context, hubID, hubName, status string, page models.Page) ([]models.Hub, error) {
	filter := bson.M{}
	if hubID != "" {
		filter["hubID"] = hubID
	}
	if hubName != "" {
		filter["hubName"] = bson.M{"$regex": hubName, "$options": "i"}
	}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "hubID", Value: 1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.hubs.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var hubs []models.Hub
	if err := cursor.All(ctx, &hubs); err != nil {
		return nil, translate(err)
	}
	return hubs, nil
}

func (s *HubStore) ListClosed(ctx context.Context, page models.Page) ([]models.ClosedHub, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "closedAt", Value: -1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.closed.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var hubs []models.ClosedHub
	if err := cursor.All(ctx, &hubs); err != nil {
		return nil, translate(err)
	}
	return hubs, nil
}

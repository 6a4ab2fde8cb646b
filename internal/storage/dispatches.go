package storage

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DispatchStore struct {
	c *mongo.Collection
}

func NewDispatchStore(db *mongo.Database) *DispatchStore {
	return &DispatchStore{c: db.Collection("dispatches")}
}

func (s *DispatchStore) Insert(ctx context.Context, dispatch *models.Dispatch) error {
	_, err := s.c.InsertOne(ctx, dispatch)
	return translate(err)
}

func (s *DispatchStore) FindByID(ctx context.Context, dispatchID string) (*models.Dispatch, error) {
	var dispatch models.Dispatch
	err := s.c.FindOne(ctx, bson.M{"dispatchID": dispatchID}).Decode(&dispatch)
	if err != nil {
		return nil, translate(err)
	}
	return &dispatch, nil
}

// FindFirstInProgress returns the oldest dispatch still waiting for
// resources, or NotFound when nothing is pending.
func (s *DispatchStore) FindFirstInProgress(ctx context.Context) (*models.Dispatch, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	var dispatch models.Dispatch
	err := s.c.FindOne(ctx, bson.M{"status": models.DispatchStatusInProgress}, opts).Decode(&dispatch)
	if err != nil {
		return nil, translate(err)
	}
	return &dispatch, nil
}

// AssignResources attaches a driver/vehicle pair and moves the dispatch to
// In-Transit in one conditional update: it only applies while the dispatch
// is still In-Progress, so a racing allocator loses cleanly.
func (s *DispatchStore) AssignResources(ctx context.Context, dispatchID, driverID, vehicleID string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"dispatchID": dispatchID,
		"status":     models.DispatchStatusInProgress,
	}, bson.M{
		"$set": bson.M{
			"status":          models.DispatchStatusInTransit,
			"driverAssigned":  driverID,
			"vehicleAssigned": vehicleID,
		},
	})
	if err != nil {
		return false, translate(err)
	}
	return res.ModifiedCount == 1, nil
}

// Complete transitions In-Transit to Completed and stamps the arrival
// time. The status guard is what makes a retried receive fail instead of
// double-crediting.
func (s *DispatchStore) Complete(ctx context.Context, dispatchID string, arrival time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"dispatchID": dispatchID,
		"status":     models.DispatchStatusInTransit,
	}, bson.M{
		"$set": bson.M{"status": models.DispatchStatusCompleted, "arrivalTime": arrival},
	})
	if err != nil {
		return false, translate(err)
	}
	return res.ModifiedCount == 1, nil
}

// Cancel is valid from In-Progress or In-Transit only.
func (s *DispatchStore) Cancel(ctx context.Context, dispatchID string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"dispatchID": dispatchID,
		"status": bson.M{"$in": []string{
			models.DispatchStatusInProgress,
			models.DispatchStatusInTransit,
		}},
	}, bson.M{
		"$set": bson.M{"status": models.DispatchStatusCancelled},
	})
	if err != nil {
		return false, translate(err)
	}
	return res.ModifiedCount == 1, nil
}

// AddDeliveryProof appends an uploaded proof document to the dispatch.
func (s *DispatchStore) AddDeliveryProof(ctx context.Context, dispatchID string, proof models.MediaPointer) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"dispatchID": dispatchID}, bson.M{
		"$push": bson.M{"deliveryProofs": proof},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments)
	}
	return nil
}

// List returns a page of dispatches, newest first, optionally filtered by
// status.
func (s *DispatchStore) List(ctx context.Context, status string, page models.Page) ([]models.Dispatch, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var dispatches []models.Dispatch
	if err := cursor.All(ctx, &dispatches); err != nil {
		return nil, translate(err)
	}
	return dispatches, nil
}

package storage

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductStore struct {
	c *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{c: db.Collection("products")}
}

func (s *ProductStore) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := s.c.FindOne(ctx, bson.M{"productID": productID}).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *ProductStore) Insert(ctx context.Context, product *models.Product) error {
	_, err := s.c.InsertOne(ctx, product)
	return translate(err)
}

// UpdateFields sets only the provided master fields and stamps updatedAt.
func (s *ProductStore) UpdateFields(ctx context.Context, productID string, fields map[string]interface{}, now time.Time) error {
	set := bson.M{"updatedAt": now}
	for k, v := range fields {
		set[k] = v
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"productID": productID}, bson.M{"$set": set})
	return translate(err)
}

// List returns a page of products sorted by name, optionally matching a
// case-insensitive search on id or name.
func (s *ProductStore) List(ctx context.Context, search string, page models.Page) ([]models.Product, error) {
	filter := bson.M{}
	if search != "" {
		filter["$or"] = []bson.M{
			{"productID": bson.M{"$regex": search, "$options": "i"}},
			{"name": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, translate(err)
	}
	return products, nil
}

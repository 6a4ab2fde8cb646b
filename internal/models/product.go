package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is the per-product master record, shared across hubs.
// Created on first registration at any hub, updated in place afterwards,
// never deleted.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID    string             `bson:"productID" json:"productID"`
	Name         string             `bson:"name" json:"name"`
	Category     string             `bson:"category" json:"category"`
	Brand        string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	SellingPrice float64            `bson:"sellingPrice" json:"sellingPrice"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

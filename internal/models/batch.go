package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BatchStatusActive   = "active"
	BatchStatusDepleted = "depleted"
	BatchStatusArchived = "archived"
)

// Batch is one lot of a product at a hub with its own expiry and cost
// basis. Identified by (productID, hubID, batchNo); quantity never goes
// below zero, and a batch is never deleted, only marked depleted or
// archived.
type Batch struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID         string             `bson:"productID" json:"productID"`
	HubID             string             `bson:"hubID" json:"hubID"`
	BatchNo           string             `bson:"batchNo" json:"batchNo"`
	Quantity          int                `bson:"quantity" json:"quantity"`
	ExpiryDate        time.Time          `bson:"expiryDate" json:"expiryDate"`
	PurchaseValue     float64            `bson:"purchaseValue" json:"purchaseValue"`
	PurchaseUnitPrice float64            `bson:"purchaseUnitPrice" json:"purchaseUnitPrice"`
	Status            string             `bson:"status" json:"status"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	LastUpdated       time.Time          `bson:"lastUpdated" json:"lastUpdated"`
}

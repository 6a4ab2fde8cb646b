package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	VehicleStatusAvailable   = "Available"
	VehicleStatusInTransit   = "In-Transit"
	VehicleStatusMaintenance = "Under-Maintenance"
	VehicleStatusDeleted     = "Deleted"
)

type Vehicle struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID     string             `bson:"vehicleID" json:"vehicleID"`
	VehicleNumber string             `bson:"vehicleNumber" json:"vehicleNumber"` // plate number
	Type          string             `bson:"type" json:"type"`                   // TRUCK, VAN, MOTORBIKE
	Refrigerated  bool               `bson:"refrigerated" json:"refrigerated"`
	PayloadTonnes float64            `bson:"payloadTonnes" json:"payloadTonnes"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

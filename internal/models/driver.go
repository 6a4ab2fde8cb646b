package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DriverStatusIdle     = "idle"
	DriverStatusAssigned = "assigned"
	DriverStatusRetired  = "retired"
	DriverStatusDeleted  = "deleted"

	// DriverRetirementAge: drivers at or above this age are flagged by the
	// retirement audit.
	DriverRetirementAge = 50
)

type Driver struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DriverID      string             `bson:"driverID" json:"driverID"`
	Name          string             `bson:"name" json:"name"`
	LicenseNumber string             `bson:"licenseNumber" json:"licenseNumber"`
	Age           int                `bson:"age" json:"age"`
	HubID         string             `bson:"hubID" json:"hubID"`
	Status        string             `bson:"status" json:"status"`
	RetiredReason string             `bson:"retiredReason,omitempty" json:"retiredReason,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

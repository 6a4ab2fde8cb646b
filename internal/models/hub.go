package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	HubStatusActive = "Active"
	HubStatusClosed = "Closed"
)

type Hub struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HubID       string             `bson:"hubID" json:"hubID"`
	HubName     string             `bson:"hubName" json:"hubName"`
	HubManager  string             `bson:"hubManager,omitempty" json:"hubManager,omitempty"`
	PhoneNumber string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Status      string             `bson:"status" json:"status"`
	OpeningDate time.Time          `bson:"openingDate" json:"openingDate"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   *time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ClosedHub is the archived copy of a hub moved out of the active set.
type ClosedHub struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Hub      Hub                `bson:"hub" json:"hub"`
	ClosedAt time.Time          `bson:"closedAt" json:"closedAt"`
	Reason   string             `bson:"reason,omitempty" json:"reason,omitempty"`
}

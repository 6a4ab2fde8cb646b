package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DispatchStatusInProgress = "In-Progress"
	DispatchStatusInTransit  = "In-Transit"
	DispatchStatusCompleted  = "Completed"
	DispatchStatusCancelled  = "Cancelled"

	// ResourceUnassigned marks the driver/vehicle fields of a dispatch that
	// has not been allocated yet. A dispatch without resources is
	// distinguished by this sentinel, not by a missing record.
	ResourceUnassigned = "UNASSIGNED"
)

// ConsumptionEntry is one step of the FIFO consumption trace: which batch
// was drained, how much, and at what unit cost. The trace is the source of
// truth for what must be credited at the destination hub on receipt.
type ConsumptionEntry struct {
	BatchNo  string  `bson:"batchNo" json:"batchNo"`
	Qty      int     `bson:"qty" json:"qty"`
	UnitCost float64 `bson:"unitCost" json:"unitCost"`
}

// Dispatch tracks one hub-to-hub stock transfer through its lifecycle:
// In-Progress -> In-Transit -> Completed, with Cancelled reachable from
// the first two states.
type Dispatch struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DispatchID       string             `bson:"dispatchID" json:"dispatchID"`
	ProductID        string             `bson:"productID" json:"productID"`
	FromHubID        string             `bson:"fromHubID" json:"fromHubID"`
	ToHubID          string             `bson:"toHubID" json:"toHubID"`
	Quantity         int                `bson:"quantity" json:"quantity"`
	BatchConsumption []ConsumptionEntry `bson:"batchConsumption" json:"batchConsumption"`
	DriverAssigned   string             `bson:"driverAssigned" json:"driverAssigned"`
	VehicleAssigned  string             `bson:"vehicleAssigned" json:"vehicleAssigned"`
	Status           string             `bson:"status" json:"status"`
	RequestRef       string             `bson:"requestRef,omitempty" json:"requestRef,omitempty"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	DeliveryProofs   []MediaPointer     `bson:"deliveryProofs,omitempty" json:"deliveryProofs,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	ArrivalTime      *time.Time         `bson:"arrivalTime,omitempty" json:"arrivalTime,omitempty"`
}

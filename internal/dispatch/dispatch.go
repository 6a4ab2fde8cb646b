// Package dispatch orchestrates hub-to-hub transfers: stock consumption
// at the source, driver/vehicle allocation, and reconciliation at the
// destination. State lives on the dispatch document; every transition is
// a conditional single-document update.
package dispatch

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/inventory"
	"perishable-scm-api-server/internal/models"
)

// Ledger is the slice of the inventory core the orchestrator drives.
type Ledger interface {
	ConsumeFIFO(ctx context.Context, productID, hubID string, quantity int, remarks string) (*inventory.ConsumptionResult, error)
	ReceiveTransfer(ctx context.Context, productID, toHub, fromHub string, entries []models.ConsumptionEntry, dispatchID string) error
}

type DispatchStore interface {
	Insert(ctx context.Context, dispatch *models.Dispatch) error
	FindByID(ctx context.Context, dispatchID string) (*models.Dispatch, error)
	FindFirstInProgress(ctx context.Context) (*models.Dispatch, error)
	AssignResources(ctx context.Context, dispatchID, driverID, vehicleID string) (bool, error)
	Complete(ctx context.Context, dispatchID string, arrival time.Time) (bool, error)
	Cancel(ctx context.Context, dispatchID string) (bool, error)
	AddDeliveryProof(ctx context.Context, dispatchID string, proof models.MediaPointer) error
	List(ctx context.Context, status string, page models.Page) ([]models.Dispatch, error)
}

// DriverRegistry and VehicleRegistry expose the atomic claim the
// allocator relies on for exclusive ownership.
type DriverRegistry interface {
	ClaimIdle(ctx context.Context) (*models.Driver, error)
	SetStatus(ctx context.Context, driverID, status string) error
}

type VehicleRegistry interface {
	ClaimIdle(ctx context.Context) (*models.Vehicle, error)
	SetStatus(ctx context.Context, vehicleID, status string) error
}

type HubDirectory interface {
	Exists(ctx context.Context, hubID string) (bool, error)
}

// EventSink pushes dispatch lifecycle events to connected clients. May be
// nil when the server runs without the websocket hub.
type EventSink interface {
	BroadcastJSON(v interface{})
}

// Event is the wire shape of a lifecycle notification.
type Event struct {
	Type     string           `json:"type"`
	Dispatch *models.Dispatch `json:"dispatch,omitempty"`
}

const (
	EventCreated   = "dispatch_created"
	EventAssigned  = "dispatch_assigned"
	EventCompleted = "dispatch_completed"
	EventCancelled = "dispatch_cancelled"
)

type CreateInput struct {
	ProductID  string
	FromHubID  string
	ToHubID    string
	Quantity   int
	RequestRef string
	Notes      string
}

type CreateResult struct {
	DispatchID string                    `json:"dispatchID"`
	Entries    []models.ConsumptionEntry `json:"entries"`
	// RemainingAtSource is the aggregate quantity left at the source hub.
	RemainingAtSource int `json:"remainingAtSource"`
}

// AssignmentResult reports one allocation attempt. A shortage is an
// outcome, not an error: the dispatch simply stays In-Progress until the
// next attempt.
type AssignmentResult struct {
	DispatchID string `json:"dispatchID,omitempty"`
	DriverID   string `json:"driverID,omitempty"`
	VehicleID  string `json:"vehicleID,omitempty"`
	Assigned   bool   `json:"assigned"`
	Reason     string `json:"reason,omitempty"`
}

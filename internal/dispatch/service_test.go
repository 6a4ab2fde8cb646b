package dispatch

import (
	"context"
	"testing"
	"time"

	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/inventory"
	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc        *Service
	ledger     *inventory.Service
	batches    *memory.BatchStore
	dispatches *memory.DispatchStore
	drivers    *memory.DriverStore
	vehicles   *memory.VehicleStore
}

func newFixture(drivers []models.Driver, vehicles []models.Vehicle) *fixture {
	hubs := memory.NewHubStore("HUB-A", "HUB-B")
	f := &fixture{
		batches:    memory.NewBatchStore(),
		dispatches: memory.NewDispatchStore(),
		drivers:    memory.NewDriverStore(drivers...),
		vehicles:   memory.NewVehicleStore(vehicles...),
	}
	f.ledger = inventory.NewService(memory.NewProductStore(), f.batches, memory.NewTransactionStore(), hubs, zap.NewNop())
	f.svc = NewService(f.ledger, f.dispatches, f.drivers, f.vehicles, hubs, nil, zap.NewNop())
	return f
}

func idleDriver(id string) models.Driver {
	return models.Driver{DriverID: id, Name: "Driver " + id, Status: models.DriverStatusIdle}
}

func availableVehicle(id string) models.Vehicle {
	return models.Vehicle{VehicleID: id, VehicleNumber: "51C-" + id, Status: models.VehicleStatusAvailable}
}

// seedStock registers 100 units at total value 4000 (unit cost 40) for
// P1 at HUB-A, expiring in 60 days.
func (f *fixture) seedStock(t *testing.T) {
	t.Helper()
	_, err := f.ledger.RegisterIncoming(context.Background(), inventory.RegisterStockInput{
		ProductID:     "P1",
		Name:          "Pork belly",
		Category:      "meat",
		HubID:         "HUB-A",
		Quantity:      100,
		PurchaseValue: 4000,
		ExpiryDate:    time.Now().Add(60 * 24 * time.Hour),
	})
	require.NoError(t, err)
}

func (f *fixture) createDispatch(t *testing.T, qty int) *CreateResult {
	t.Helper()
	result, err := f.svc.Create(context.Background(), CreateInput{
		ProductID: "P1",
		FromHubID: "HUB-A",
		ToHubID:   "HUB-B",
		Quantity:  qty,
	})
	require.NoError(t, err)
	return result
}

func TestCreateConsumesSourceAndStoresTrace(t *testing.T) {
	f := newFixture(nil, nil)
	f.seedStock(t)

	result := f.createDispatch(t, 30)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, 30, result.Entries[0].Qty)
	assert.InDelta(t, 40.0, result.Entries[0].UnitCost, 1e-9)
	assert.Equal(t, 70, result.RemainingAtSource)

	stored, err := f.dispatches.FindByID(context.Background(), result.DispatchID)
	require.NoError(t, err)
	assert.Equal(t, models.DispatchStatusInProgress, stored.Status)
	assert.Equal(t, models.ResourceUnassigned, stored.DriverAssigned)
	assert.Equal(t, models.ResourceUnassigned, stored.VehicleAssigned)
	assert.Equal(t, result.Entries, stored.BatchConsumption)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(nil, nil)
	f.seedStock(t)

	_, err := f.svc.Create(context.Background(), CreateInput{ProductID: "P1", FromHubID: "HUB-A", ToHubID: "HUB-A", Quantity: 10})
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	_, err = f.svc.Create(context.Background(), CreateInput{ProductID: "P1", FromHubID: "HUB-A", ToHubID: "HUB-X", Quantity: 10})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCreateInsufficientStockLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(nil, nil)
	f.seedStock(t)

	_, err := f.svc.Create(context.Background(), CreateInput{ProductID: "P1", FromHubID: "HUB-A", ToHubID: "HUB-B", Quantity: 101})
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))

	total, err := f.batches.TotalActive(context.Background(), "P1", "HUB-A")
	require.NoError(t, err)
	assert.Equal(t, 100, total)

	dispatches, err := f.dispatches.List(context.Background(), "", models.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, dispatches)
}

func TestAssignResourcesClaimsPair(t *testing.T) {
	f := newFixture([]models.Driver{idleDriver("D1")}, []models.Vehicle{availableVehicle("V1")})
	f.seedStock(t)
	created := f.createDispatch(t, 30)

	result, err := f.svc.AssignResources(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Assigned)
	assert.Equal(t, created.DispatchID, result.DispatchID)
	assert.Equal(t, "D1", result.DriverID)
	assert.Equal(t, "V1", result.VehicleID)

	stored, err := f.dispatches.FindByID(context.Background(), created.DispatchID)
	require.NoError(t, err)
	assert.Equal(t, models.DispatchStatusInTransit, stored.Status)
	assert.Equal(t, models.DriverStatusAssigned, f.drivers.StatusOf("D1"))
	assert.Equal(t, models.VehicleStatusInTransit, f.vehicles.StatusOf("V1"))
}

func TestAssignResourcesReportsShortages(t *testing.T) {
	f := newFixture(nil, nil)
	f.seedStock(t)

	// Nothing waiting yet.
	result, err := f.svc.AssignResources(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Assigned)
	assert.Contains(t, result.Reason, "no dispatch waiting")

	f.createDispatch(t, 10)

	result, err = f.svc.AssignResources(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Assigned)
	assert.Contains(t, result.Reason, "no idle driver")
}

func TestAssignReleasesDriverOnVehicleShortage(t *testing.T) {
	f := newFixture([]models.Driver{idleDriver("D1")}, nil)
	f.seedStock(t)
	f.createDispatch(t, 10)

	result, err := f.svc.AssignResources(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Assigned)
	assert.Contains(t, result.Reason, "no available vehicle")
	assert.Equal(t, models.DriverStatusIdle, f.drivers.StatusOf("D1"))
}

func TestAssignResourcesExclusiveUnderBacklog(t *testing.T) {
	f := newFixture([]models.Driver{idleDriver("D1")}, []models.Vehicle{availableVehicle("V1")})
	f.seedStock(t)
	f.createDispatch(t, 10)
	f.createDispatch(t, 10)

	first, err := f.svc.AssignResources(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Assigned)

	// The only pair is taken; the second dispatch waits.
	second, err := f.svc.AssignResources(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Assigned)
	assert.Contains(t, second.Reason, "no idle driver")
}

func TestMarkReceivedCreditsOnceAndReleases(t *testing.T) {
	f := newFixture([]models.Driver{idleDriver("D1")}, []models.Vehicle{availableVehicle("V1")})
	f.seedStock(t)
	created := f.createDispatch(t, 30)

	_, err := f.svc.AssignResources(context.Background())
	require.NoError(t, err)

	received, err := f.svc.MarkReceived(context.Background(), created.DispatchID)
	require.NoError(t, err)
	assert.Equal(t, models.DispatchStatusCompleted, received.Status)
	require.NotNil(t, received.ArrivalTime)

	destTotal, err := f.batches.TotalActive(context.Background(), "P1", "HUB-B")
	require.NoError(t, err)
	assert.Equal(t, 30, destTotal)
	assert.Equal(t, models.DriverStatusIdle, f.drivers.StatusOf("D1"))
	assert.Equal(t, models.VehicleStatusAvailable, f.vehicles.StatusOf("V1"))

	// A replay fails and cannot credit a second time.
	_, err = f.svc.MarkReceived(context.Background(), created.DispatchID)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	destTotal, err = f.batches.TotalActive(context.Background(), "P1", "HUB-B")
	require.NoError(t, err)
	assert.Equal(t, 30, destTotal)
}

func TestMarkReceivedRequiresInTransit(t *testing.T) {
	f := newFixture(nil, nil)
	f.seedStock(t)
	created := f.createDispatch(t, 10)

	_, err := f.svc.MarkReceived(context.Background(), created.DispatchID)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
}

func TestRoundTripConservesTotalStock(t *testing.T) {
	f := newFixture([]models.Driver{idleDriver("D1")}, []models.Vehicle{availableVehicle("V1")})
	f.seedStock(t)
	created := f.createDispatch(t, 30)

	_, err := f.svc.AssignResources(context.Background())
	require.NoError(t, err)
	_, err = f.svc.MarkReceived(context.Background(), created.DispatchID)
	require.NoError(t, err)

	sourceTotal, err := f.batches.TotalActive(context.Background(), "P1", "HUB-A")
	require.NoError(t, err)
	destTotal, err := f.batches.TotalActive(context.Background(), "P1", "HUB-B")
	require.NoError(t, err)
	assert.Equal(t, 70, sourceTotal)
	assert.Equal(t, 30, destTotal)
	assert.Equal(t, 100, sourceTotal+destTotal)

	// Cost basis survives the transfer batch by batch.
	credited, err := f.batches.FindByBatchNo(context.Background(), "P1", "HUB-B", created.Entries[0].BatchNo)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, credited.PurchaseUnitPrice, 1e-9)
}

func TestCancelReleasesResources(t *testing.T) {
	f := newFixture([]models.Driver{idleDriver("D1")}, []models.Vehicle{availableVehicle("V1")})
	f.seedStock(t)
	created := f.createDispatch(t, 10)

	_, err := f.svc.AssignResources(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), created.DispatchID))

	stored, err := f.dispatches.FindByID(context.Background(), created.DispatchID)
	require.NoError(t, err)
	assert.Equal(t, models.DispatchStatusCancelled, stored.Status)
	assert.Equal(t, models.DriverStatusIdle, f.drivers.StatusOf("D1"))
	assert.Equal(t, models.VehicleStatusAvailable, f.vehicles.StatusOf("V1"))

	// Terminal states stay terminal.
	err = f.svc.Cancel(context.Background(), created.DispatchID)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
	_, err = f.svc.MarkReceived(context.Background(), created.DispatchID)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	// Source stock stays consumed: compensation is a manual adjustment.
	total, err := f.batches.TotalActive(context.Background(), "P1", "HUB-A")
	require.NoError(t, err)
	assert.Equal(t, 90, total)
}

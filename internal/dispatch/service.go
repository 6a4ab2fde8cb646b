package dispatch

import (
	"context"
	"strings"
	"time"

	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	ledger     Ledger
	dispatches DispatchStore
	drivers    DriverRegistry
	vehicles   VehicleRegistry
	hubs       HubDirectory
	events     EventSink
	log        *zap.Logger

	now func() time.Time
}

func NewService(ledger Ledger, dispatches DispatchStore, drivers DriverRegistry, vehicles VehicleRegistry, hubs HubDirectory, events EventSink, log *zap.Logger) *Service {
	return &Service{
		ledger:     ledger,
		dispatches: dispatches,
		drivers:    drivers,
		vehicles:   vehicles,
		hubs:       hubs,
		events:     events,
		log:        log,
		now:        time.Now,
	}
}

// Create consumes stock at the source hub FIFO and persists a new
// dispatch carrying the consumption trace. Resources are not allocated
// here; the dispatch starts In-Progress with both slots UNASSIGNED.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.FromHubID = strings.TrimSpace(in.FromHubID)
	in.ToHubID = strings.TrimSpace(in.ToHubID)

	switch {
	case in.ProductID == "":
		return nil, apperr.New(apperr.InvalidArgument, "productID is required")
	case in.FromHubID == "" || in.ToHubID == "":
		return nil, apperr.New(apperr.InvalidArgument, "fromHubID and toHubID are required")
	case in.FromHubID == in.ToHubID:
		return nil, apperr.New(apperr.InvalidArgument, "source and destination hub must differ")
	case in.Quantity <= 0:
		return nil, apperr.New(apperr.InvalidArgument, "quantity must be positive")
	}
	for _, hubID := range []string{in.FromHubID, in.ToHubID} {
		ok, err := s.hubs.Exists(ctx, hubID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Newf(apperr.NotFound, "hub %q not found", hubID)
		}
	}

	consumption, err := s.ledger.ConsumeFIFO(ctx, in.ProductID, in.FromHubID, in.Quantity, "dispatch to "+in.ToHubID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dispatch := &models.Dispatch{
		DispatchID:       newDispatchID(),
		ProductID:        in.ProductID,
		FromHubID:        in.FromHubID,
		ToHubID:          in.ToHubID,
		Quantity:         in.Quantity,
		BatchConsumption: consumption.Entries,
		DriverAssigned:   models.ResourceUnassigned,
		VehicleAssigned:  models.ResourceUnassigned,
		Status:           models.DispatchStatusInProgress,
		RequestRef:       in.RequestRef,
		Notes:            in.Notes,
		CreatedAt:        now,
	}
	if err := s.dispatches.Insert(ctx, dispatch); err != nil {
		// Stock is already consumed; the transaction trail still accounts
		// for it, but the transfer record is gone. This needs an operator.
		s.log.Error("dispatch insert failed after consumption",
			zap.String("productID", in.ProductID),
			zap.String("fromHubID", in.FromHubID),
			zap.Error(err))
		return nil, err
	}

	util.DispatchesCreatedTotal.Inc()
	s.broadcast(EventCreated, dispatch)
	s.log.Info("dispatch created",
		zap.String("dispatchID", dispatch.DispatchID),
		zap.String("productID", in.ProductID),
		zap.String("fromHubID", in.FromHubID),
		zap.String("toHubID", in.ToHubID),
		zap.Int("quantity", in.Quantity))

	return &CreateResult{
		DispatchID:        dispatch.DispatchID,
		Entries:           consumption.Entries,
		RemainingAtSource: consumption.RemainingAtHub,
	}, nil
}

// AssignResources allocates the first idle driver and vehicle to the
// oldest waiting dispatch. Claims are atomic status flips, so concurrent
// allocators never share a resource; a partial claim is released before
// reporting the shortage.
func (s *Service) AssignResources(ctx context.Context) (*AssignmentResult, error) {
	dispatch, err := s.dispatches.FindFirstInProgress(ctx)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return &AssignmentResult{Reason: "no dispatch waiting for resources"}, nil
		}
		return nil, err
	}

	driver, err := s.drivers.ClaimIdle(ctx)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			util.ResourceShortageTotal.WithLabelValues("driver").Inc()
			return &AssignmentResult{DispatchID: dispatch.DispatchID, Reason: "no idle driver"}, nil
		}
		return nil, err
	}

	vehicle, err := s.vehicles.ClaimIdle(ctx)
	if err != nil {
		s.releaseDriver(ctx, driver.DriverID)
		if apperr.KindOf(err) == apperr.NotFound {
			util.ResourceShortageTotal.WithLabelValues("vehicle").Inc()
			return &AssignmentResult{DispatchID: dispatch.DispatchID, Reason: "no available vehicle"}, nil
		}
		return nil, err
	}

	ok, err := s.dispatches.AssignResources(ctx, dispatch.DispatchID, driver.DriverID, vehicle.VehicleID)
	if err != nil || !ok {
		s.releaseDriver(ctx, driver.DriverID)
		s.releaseVehicle(ctx, vehicle.VehicleID)
		if err != nil {
			return nil, err
		}
		// The dispatch left In-Progress between the read and the update
		// (cancelled, or a racing allocator won).
		return &AssignmentResult{DispatchID: dispatch.DispatchID, Reason: "dispatch no longer waiting"}, nil
	}

	util.ResourceAssignmentsTotal.Inc()
	dispatch.Status = models.DispatchStatusInTransit
	dispatch.DriverAssigned = driver.DriverID
	dispatch.VehicleAssigned = vehicle.VehicleID
	s.broadcast(EventAssigned, dispatch)
	s.log.Info("resources assigned",
		zap.String("dispatchID", dispatch.DispatchID),
		zap.String("driverID", driver.DriverID),
		zap.String("vehicleID", vehicle.VehicleID))

	return &AssignmentResult{
		DispatchID: dispatch.DispatchID,
		DriverID:   driver.DriverID,
		VehicleID:  vehicle.VehicleID,
		Assigned:   true,
	}, nil
}

// MarkReceived reconciles an arrived dispatch: credits the consumption
// trace into the destination hub, releases the driver and vehicle, and
// completes the dispatch. The In-Transit check rejects replays before any
// crediting; the conditional Completed transition is the backstop.
func (s *Service) MarkReceived(ctx context.Context, dispatchID string) (*models.Dispatch, error) {
	dispatch, err := s.dispatches.FindByID(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	if dispatch.Status != models.DispatchStatusInTransit {
		return nil, apperr.Newf(apperr.InvalidState,
			"dispatch %s is %s, only In-Transit dispatches can be received", dispatchID, dispatch.Status)
	}

	if err := s.ledger.ReceiveTransfer(ctx, dispatch.ProductID, dispatch.ToHubID, dispatch.FromHubID,
		dispatch.BatchConsumption, dispatch.DispatchID); err != nil {
		return nil, err
	}

	s.releaseResources(ctx, dispatch)

	arrival := s.now()
	ok, err := s.dispatches.Complete(ctx, dispatchID, arrival)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Newf(apperr.Conflict, "dispatch %s was completed or cancelled concurrently", dispatchID)
	}

	util.DispatchesCompletedTotal.Inc()
	dispatch.Status = models.DispatchStatusCompleted
	dispatch.ArrivalTime = &arrival
	s.broadcast(EventCompleted, dispatch)
	s.log.Info("dispatch received",
		zap.String("dispatchID", dispatchID),
		zap.String("toHubID", dispatch.ToHubID))
	return dispatch, nil
}

// Cancel aborts an In-Progress or In-Transit dispatch and releases any
// assigned resources. Consumed stock is not restored automatically; an
// operator corrects the source hub with a manual adjustment if needed.
func (s *Service) Cancel(ctx context.Context, dispatchID string) error {
	dispatch, err := s.dispatches.FindByID(ctx, dispatchID)
	if err != nil {
		return err
	}

	ok, err := s.dispatches.Cancel(ctx, dispatchID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Newf(apperr.InvalidState, "dispatch %s is %s and cannot be cancelled", dispatchID, dispatch.Status)
	}

	s.releaseResources(ctx, dispatch)

	util.DispatchesCancelledTotal.Inc()
	dispatch.Status = models.DispatchStatusCancelled
	s.broadcast(EventCancelled, dispatch)
	s.log.Info("dispatch cancelled", zap.String("dispatchID", dispatchID))
	return nil
}

func (s *Service) Get(ctx context.Context, dispatchID string) (*models.Dispatch, error) {
	return s.dispatches.FindByID(ctx, dispatchID)
}

func (s *Service) List(ctx context.Context, status string, page models.Page) ([]models.Dispatch, error) {
	return s.dispatches.List(ctx, status, page)
}

// AttachDeliveryProof records an uploaded proof document on the dispatch.
func (s *Service) AttachDeliveryProof(ctx context.Context, dispatchID string, proof models.MediaPointer) error {
	return s.dispatches.AddDeliveryProof(ctx, dispatchID, proof)
}

func (s *Service) releaseResources(ctx context.Context, dispatch *models.Dispatch) {
	if dispatch.DriverAssigned != models.ResourceUnassigned && dispatch.DriverAssigned != "" {
		s.releaseDriver(ctx, dispatch.DriverAssigned)
	}
	if dispatch.VehicleAssigned != models.ResourceUnassigned && dispatch.VehicleAssigned != "" {
		s.releaseVehicle(ctx, dispatch.VehicleAssigned)
	}
}

// Release failures are logged, not propagated: the dispatch transition
// must not be blocked, and a stuck resource is visible in its status.
func (s *Service) releaseDriver(ctx context.Context, driverID string) {
	if err := s.drivers.SetStatus(ctx, driverID, models.DriverStatusIdle); err != nil {
		s.log.Warn("driver release failed", zap.String("driverID", driverID), zap.Error(err))
	}
}

func (s *Service) releaseVehicle(ctx context.Context, vehicleID string) {
	if err := s.vehicles.SetStatus(ctx, vehicleID, models.VehicleStatusAvailable); err != nil {
		s.log.Warn("vehicle release failed", zap.String("vehicleID", vehicleID), zap.Error(err))
	}
}

func (s *Service) broadcast(eventType string, dispatch *models.Dispatch) {
	if s.events == nil {
		return
	}
	s.events.BroadcastJSON(Event{Type: eventType, Dispatch: dispatch})
}

func newDispatchID() string {
	return "disp-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

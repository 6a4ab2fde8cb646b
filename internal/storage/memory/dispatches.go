package memory

import (
	"context"
	"sync"
	"time"

	"perishable-scm-api-server/internal/models"
)

type DispatchStore struct {
	mu    sync.Mutex
	byID  map[string]*models.Dispatch
	order []string
}

func NewDispatchStore() *DispatchStore {
	return &DispatchStore{byID: map[string]*models.Dispatch{}}
}

func cloneDispatch(d *models.Dispatch) *models.Dispatch {
	copied := *d
	copied.BatchConsumption = append([]models.ConsumptionEntry(nil), d.BatchConsumption...)
	copied.DeliveryProofs = append([]models.MediaPointer(nil), d.DeliveryProofs...)
	return &copied
}

func (s *DispatchStore) Insert(_ context.Context, dispatch *models.Dispatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[dispatch.DispatchID]; exists {
		return duplicate("dispatchID")
	}
	s.byID[dispatch.DispatchID] = cloneDispatch(dispatch)
	s.order = append(s.order, dispatch.DispatchID)
	return nil
}

func (s *DispatchStore) FindByID(_ context.Context, dispatchID string) (*models.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispatch, ok := s.byID[dispatchID]
	if !ok {
		return nil, notFound("dispatch")
	}
	return cloneDispatch(dispatch), nil
}

func (s *DispatchStore) FindFirstInProgress(_ context.Context) (*models.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *models.Dispatch
	for _, id := range s.order {
		dispatch := s.byID[id]
		if dispatch.Status != models.DispatchStatusInProgress {
			continue
		}
		if oldest == nil || dispatch.CreatedAt.Before(oldest.CreatedAt) {
			oldest = dispatch
		}
	}
	if oldest == nil {
		return nil, notFound("dispatch")
	}
	return cloneDispatch(oldest), nil
}

func (s *DispatchStore) AssignResources(_ context.Context, dispatchID, driverID, vehicleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispatch, ok := s.byID[dispatchID]
	if !ok || dispatch.Status != models.DispatchStatusInProgress {
		return false, nil
	}
	dispatch.Status = models.DispatchStatusInTransit
	dispatch.DriverAssigned = driverID
	dispatch.VehicleAssigned = vehicleID
	return true, nil
}

func (s *DispatchStore) Complete(_ context.Context, dispatchID string, arrival time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispatch, ok := s.byID[dispatchID]
	if !ok || dispatch.Status != models.DispatchStatusInTransit {
		return false, nil
	}
	dispatch.Status = models.DispatchStatusCompleted
	dispatch.ArrivalTime = &arrival
	return true, nil
}

func (s *DispatchStore) Cancel(_ context.Context, dispatchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispatch, ok := s.byID[dispatchID]
	if !ok {
		return false, nil
	}
	if dispatch.Status != models.DispatchStatusInProgress && dispatch.Status != models.DispatchStatusInTransit {
		return false, nil
	}
	dispatch.Status = models.DispatchStatusCancelled
	return true, nil
}

func (s *DispatchStore) AddDeliveryProof(_ context.Context, dispatchID string, proof models.MediaPointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispatch, ok := s.byID[dispatchID]
	if !ok {
		return notFound("dispatch")
	}
	dispatch.DeliveryProofs = append(dispatch.DeliveryProofs, proof)
	return nil
}

func (s *DispatchStore) List(_ context.Context, status string, page models.Page) ([]models.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dispatches []models.Dispatch
	for i := len(s.order) - 1; i >= 0; i-- {
		dispatch := s.byID[s.order[i]]
		if status != "" && dispatch.Status != status {
			continue
		}
		dispatches = append(dispatches, *cloneDispatch(dispatch))
	}
	return paginate(dispatches, page), nil
}

package memory

import (
	"context"
	"sync"

	"perishable-scm-api-server/internal/models"
)

type DriverStore struct {
	mu    sync.Mutex
	byID  map[string]*models.Driver
	order []string
}

func NewDriverStore(drivers ...models.Driver) *DriverStore {
	s := &DriverStore{byID: map[string]*models.Driver{}}
	for i := range drivers {
		copied := drivers[i]
		s.byID[copied.DriverID] = &copied
		s.order = append(s.order, copied.DriverID)
	}
	return s
}

func (s *DriverStore) ClaimIdle(_ context.Context) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		driver := s.byID[id]
		if driver.Status == models.DriverStatusIdle {
			driver.Status = models.DriverStatusAssigned
			copied := *driver
			return &copied, nil
		}
	}
	return nil, notFound("idle driver")
}

func (s *DriverStore) SetStatus(_ context.Context, driverID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if driver, ok := s.byID[driverID]; ok {
		driver.Status = status
	}
	return nil
}

// StatusOf is a test helper.
func (s *DriverStore) StatusOf(driverID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if driver, ok := s.byID[driverID]; ok {
		return driver.Status
	}
	return ""
}

type VehicleStore struct {
	mu    sync.Mutex
	byID  map[string]*models.Vehicle
	order []string
}

func NewVehicleStore(vehicles ...models.Vehicle) *VehicleStore {
	s := &VehicleStore{byID: map[string]*models.Vehicle{}}
	for i := range vehicles {
		copied := vehicles[i]
		s.byID[copied.VehicleID] = &copied
		s.order = append(s.order, copied.VehicleID)
	}
	return s
}

func (s *VehicleStore) ClaimIdle(_ context.Context) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		vehicle := s.byID[id]
		if vehicle.Status == models.VehicleStatusAvailable {
			vehicle.Status = models.VehicleStatusInTransit
			copied := *vehicle
			return &copied, nil
		}
	}
	return nil, notFound("available vehicle")
}

func (s *VehicleStore) SetStatus(_ context.Context, vehicleID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vehicle, ok := s.byID[vehicleID]; ok {
		vehicle.Status = status
	}
	return nil
}

// StatusOf is a test helper.
func (s *VehicleStore) StatusOf(vehicleID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vehicle, ok := s.byID[vehicleID]; ok {
		return vehicle.Status
	}
	return ""
}

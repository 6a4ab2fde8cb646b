package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/storage"
)

type BatchStore struct {
	mu    sync.Mutex
	byKey map[string]*models.Batch
	order []string
}

func NewBatchStore() *BatchStore {
	return &BatchStore{byKey: map[string]*models.Batch{}}
}

func (s *BatchStore) FindByBatchNo(_ context.Context, productID, hubID, batchNo string) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.byKey[batchKey(productID, hubID, batchNo)]
	if !ok {
		return nil, notFound("batch")
	}
	copied := *batch
	return &copied, nil
}

func (s *BatchStore) FindActiveByExpiry(_ context.Context, productID, hubID string, expiry time.Time) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.order {
		batch := s.byKey[key]
		if batch == nil {
			continue
		}
		if batch.ProductID == productID && batch.HubID == hubID &&
			batch.Status == models.BatchStatusActive && batch.ExpiryDate.Equal(expiry) {
			copied := *batch
			return &copied, nil
		}
	}
	return nil, notFound("batch")
}

func (s *BatchStore) Insert(_ context.Context, batch *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := batchKey(batch.ProductID, batch.HubID, batch.BatchNo)
	if _, exists := s.byKey[key]; exists {
		return duplicate("batch key")
	}
	copied := *batch
	s.byKey[key] = &copied
	s.order = append(s.order, key)
	return nil
}

func (s *BatchStore) MergeStock(_ context.Context, productID, hubID, batchNo string, qty int, value, newUnitPrice float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.byKey[batchKey(productID, hubID, batchNo)]
	if !ok {
		return apperr.Newf(apperr.NotFound, "batch %q not found for merge", batchNo)
	}
	batch.Quantity += qty
	batch.PurchaseValue += value
	batch.PurchaseUnitPrice = newUnitPrice
	batch.LastUpdated = now
	return nil
}

func (s *BatchStore) TotalActive(_ context.Context, productID, hubID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, batch := range s.byKey {
		if batch.ProductID == productID && batch.HubID == hubID && batch.Status == models.BatchStatusActive {
			total += batch.Quantity
		}
	}
	return total, nil
}

func (s *BatchStore) ListActiveFIFO(_ context.Context, productID, hubID string) ([]models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var batches []models.Batch
	for _, key := range s.order {
		batch := s.byKey[key]
		if batch.ProductID == productID && batch.HubID == hubID &&
			batch.Status == models.BatchStatusActive && batch.Quantity > 0 {
			batches = append(batches, *batch)
		}
	}
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].ExpiryDate.Equal(batches[j].ExpiryDate) {
			return batches[i].ExpiryDate.Before(batches[j].ExpiryDate)
		}
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
	return batches, nil
}

func (s *BatchStore) DecrementQuantity(_ context.Context, productID, hubID, batchNo string, take int, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.byKey[batchKey(productID, hubID, batchNo)]
	if !ok || batch.Status != models.BatchStatusActive || batch.Quantity < take {
		return 0, apperr.Newf(apperr.Conflict, "batch %q changed concurrently, decrement of %d rejected", batchNo, take)
	}
	batch.Quantity -= take
	batch.LastUpdated = now
	return batch.Quantity, nil
}

func (s *BatchStore) MarkDepleted(_ context.Context, productID, hubID, batchNo string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.byKey[batchKey(productID, hubID, batchNo)]
	if ok && batch.Status == models.BatchStatusActive && batch.Quantity == 0 {
		batch.Status = models.BatchStatusDepleted
		batch.LastUpdated = now
	}
	return nil
}

func (s *BatchStore) CreditTransfer(_ context.Context, productID, hubID, batchNo string, qty int, unitCost float64, expiry, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := batchKey(productID, hubID, batchNo)
	batch, ok := s.byKey[key]
	if !ok {
		batch = &models.Batch{
			ProductID:         productID,
			HubID:             hubID,
			BatchNo:           batchNo,
			PurchaseUnitPrice: unitCost,
			ExpiryDate:        expiry,
			CreatedAt:         now,
		}
		s.byKey[key] = batch
		s.order = append(s.order, key)
	}
	batch.Quantity += qty
	batch.PurchaseValue += unitCost * float64(qty)
	batch.Status = models.BatchStatusActive
	batch.LastUpdated = now
	return nil
}

func (s *BatchStore) AdjustQuantity(_ context.Context, productID, hubID, batchNo string, delta int, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.byKey[batchKey(productID, hubID, batchNo)]
	if !ok || (delta < 0 && batch.Quantity < -delta) {
		return 0, apperr.Newf(apperr.Conflict, "adjustment of %d on batch %q rejected", delta, batchNo)
	}
	batch.Quantity += delta
	batch.LastUpdated = now
	return batch.Quantity, nil
}

func (s *BatchStore) SetArchived(_ context.Context, productID, hubID, batchNo string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.byKey[batchKey(productID, hubID, batchNo)]
	if !ok || (batch.Status != models.BatchStatusActive && batch.Status != models.BatchStatusDepleted) {
		return apperr.Newf(apperr.InvalidState, "batch %q is not active or depleted", batchNo)
	}
	batch.Status = models.BatchStatusArchived
	batch.LastUpdated = now
	return nil
}

func (s *BatchStore) Summary(_ context.Context, productID, hubID string) (*storage.BatchSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := &storage.BatchSummary{}
	for _, batch := range s.byKey {
		if batch.ProductID != productID || batch.HubID != hubID || batch.Status != models.BatchStatusActive {
			continue
		}
		summary.TotalQuantity += batch.Quantity
		summary.BatchesCount++
		if summary.NearestExpiry == nil || batch.ExpiryDate.Before(*summary.NearestExpiry) {
			expiry := batch.ExpiryDate
			summary.NearestExpiry = &expiry
		}
	}
	return summary, nil
}

func (s *BatchStore) List(_ context.Context, productID, hubID, status string, page models.Page) ([]models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var batches []models.Batch
	for _, key := range s.order {
		batch := s.byKey[key]
		if batch.ProductID != productID || batch.HubID != hubID {
			continue
		}
		if status != "" && batch.Status != status {
			continue
		}
		batches = append(batches, *batch)
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].ExpiryDate.Before(batches[j].ExpiryDate)
	})
	return paginate(batches, page), nil
}

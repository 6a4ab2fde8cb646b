package memory

import (
	"context"
	"sync"

	"perishable-scm-api-server/internal/models"
)

type TransactionStore struct {
	mu  sync.Mutex
	all []models.StockTransaction
	ids map[string]bool
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{ids: map[string]bool{}}
}

func (s *TransactionStore) Append(_ context.Context, tx *models.StockTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[tx.TransactionID] {
		return duplicate("transactionID")
	}
	s.ids[tx.TransactionID] = true
	s.all = append(s.all, *tx)
	return nil
}

func (s *TransactionStore) List(_ context.Context, productID, hubID, txType string, page models.Page) ([]models.StockTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txs []models.StockTransaction
	// Newest first: walk the append order backwards.
	for i := len(s.all) - 1; i >= 0; i-- {
		tx := s.all[i]
		if productID != "" && tx.ProductID != productID {
			continue
		}
		if hubID != "" && tx.HubID != hubID {
			continue
		}
		if txType != "" && tx.Type != txType {
			continue
		}
		txs = append(txs, tx)
	}
	return paginate(txs, page), nil
}

// All returns every record in append order; test helper.
func (s *TransactionStore) All() []models.StockTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.StockTransaction, len(s.all))
	copy(out, s.all)
	return out
}

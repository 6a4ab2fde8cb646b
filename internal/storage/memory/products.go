package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"perishable-scm-api-server/internal/models"
)

type ProductStore struct {
	mu   sync.Mutex
	byID map[string]*models.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{byID: map[string]*models.Product{}}
}

func (s *ProductStore) FindByID(_ context.Context, productID string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.byID[productID]
	if !ok {
		return nil, notFound("product")
	}
	copied := *product
	return &copied, nil
}

func (s *ProductStore) Insert(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[product.ProductID]; exists {
		return duplicate("productID")
	}
	copied := *product
	s.byID[product.ProductID] = &copied
	return nil
}

func (s *ProductStore) UpdateFields(_ context.Context, productID string, fields map[string]interface{}, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.byID[productID]
	if !ok {
		return nil
	}
	for key, val := range fields {
		switch key {
		case "name":
			product.Name = val.(string)
		case "category":
			product.Category = val.(string)
		case "brand":
			product.Brand = val.(string)
		case "description":
			product.Description = val.(string)
		case "sellingPrice":
			product.SellingPrice = val.(float64)
		}
	}
	product.UpdatedAt = now
	return nil
}

func (s *ProductStore) List(_ context.Context, search string, page models.Page) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(search)
	var products []models.Product
	for _, product := range s.byID {
		if needle != "" &&
			!strings.Contains(strings.ToLower(product.ProductID), needle) &&
			!strings.Contains(strings.ToLower(product.Name), needle) {
			continue
		}
		products = append(products, *product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return paginate(products, page), nil
}

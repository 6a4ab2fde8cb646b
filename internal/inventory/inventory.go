// Package inventory is the stock ledger core: product registration, batch
// merging with weighted-average costing, FIFO consumption and the
// append-only transaction trail. It talks to storage through narrow
// interfaces and never imports transport types.
package inventory

import (
	"context"
	"time"

	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/storage"
)

// BatchStore is the slice of batch storage the ledger needs. Implemented
// by storage.BatchStore and by the in-memory double used in tests.
type BatchStore interface {
	FindByBatchNo(ctx context.Context, productID, hubID, batchNo string) (*models.Batch, error)
	FindActiveByExpiry(ctx context.Context, productID, hubID string, expiry time.Time) (*models.Batch, error)
	Insert(ctx context.Context, batch *models.Batch) error
	MergeStock(ctx context.Context, productID, hubID, batchNo string, qty int, value, newUnitPrice float64, now time.Time) error
	TotalActive(ctx context.Context, productID, hubID string) (int, error)
	ListActiveFIFO(ctx context.Context, productID, hubID string) ([]models.Batch, error)
	DecrementQuantity(ctx context.Context, productID, hubID, batchNo string, take int, now time.Time) (int, error)
	MarkDepleted(ctx context.Context, productID, hubID, batchNo string, now time.Time) error
	CreditTransfer(ctx context.Context, productID, hubID, batchNo string, qty int, unitCost float64, expiry, now time.Time) error
	AdjustQuantity(ctx context.Context, productID, hubID, batchNo string, delta int, now time.Time) (int, error)
	SetArchived(ctx context.Context, productID, hubID, batchNo string, now time.Time) error
	Summary(ctx context.Context, productID, hubID string) (*storage.BatchSummary, error)
	List(ctx context.Context, productID, hubID, status string, page models.Page) ([]models.Batch, error)
}

type ProductStore interface {
	FindByID(ctx context.Context, productID string) (*models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
	UpdateFields(ctx context.Context, productID string, fields map[string]interface{}, now time.Time) error
	List(ctx context.Context, search string, page models.Page) ([]models.Product, error)
}

type TransactionStore interface {
	Append(ctx context.Context, tx *models.StockTransaction) error
	List(ctx context.Context, productID, hubID, txType string, page models.Page) ([]models.StockTransaction, error)
}

// HubDirectory answers existence checks against the hub registry.
type HubDirectory interface {
	Exists(ctx context.Context, hubID string) (bool, error)
}

// ExpiryWarningWindow: stock arriving with less shelf life than this gets
// an advisory warning on the register/add responses.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// RegisterStockInput carries a stock arrival for a product that may not
// have a master record yet.
type RegisterStockInput struct {
	ProductID    string
	Name         string
	Category     string
	Brand        string
	Description  string
	SellingPrice float64
	HubID        string
	Quantity     int
	// PurchaseValue is the total paid for this consignment, not per unit.
	PurchaseValue float64
	ExpiryDate    time.Time
	// BatchNo pins the merge target; empty means match by expiry date or
	// create a fresh batch.
	BatchNo string
	Remarks string
}

// AddStockInput tops up an existing product. Master fields are pointers:
// nil means leave unchanged.
type AddStockInput struct {
	ProductID     string
	HubID         string
	Name          *string
	Category      *string
	Brand         *string
	Description   *string
	SellingPrice  *float64
	Quantity      int
	PurchaseValue float64
	ExpiryDate    time.Time
	BatchNo       string
	Remarks       string
}

// StockResult reports where the incoming quantity landed.
type StockResult struct {
	BatchNo       string `json:"batchNo"`
	Merged        bool   `json:"merged"`
	QuantityAdded int    `json:"quantityAdded"`
	// BatchQuantity is the batch total after the merge or create.
	BatchQuantity int     `json:"batchQuantity"`
	UnitPrice     float64 `json:"unitPrice"`
	Warning       string  `json:"warning,omitempty"`
}

// ConsumptionResult is the outcome of a FIFO draw-down.
type ConsumptionResult struct {
	Entries  []models.ConsumptionEntry `json:"entries"`
	Consumed int                       `json:"consumed"`
	// RemainingAtHub is the aggregate active quantity left after the
	// consumption, best effort.
	RemainingAtHub int `json:"remainingAtHub"`
}

// SummaryResult is the per-(product, hub) aggregate view.
type SummaryResult struct {
	Product       *models.Product `json:"product"`
	HubID         string          `json:"hubID"`
	TotalQuantity int             `json:"totalQuantity"`
	NearestExpiry *time.Time      `json:"nearestExpiry,omitempty"`
	BatchesCount  int             `json:"batchesCount"`
	ExpiryWarning bool            `json:"expiryWarning"`
}

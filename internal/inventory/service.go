package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// createMergeAttempts bounds the create-then-merge recovery loop: two
// writers may race on the same batch key, and each retry re-reads the
// winner and merges instead.
const createMergeAttempts = 3

type Service struct {
	products ProductStore
	batches  BatchStore
	txs      TransactionStore
	hubs     HubDirectory
	log      *zap.Logger

	now func() time.Time
}

func NewService(products ProductStore, batches BatchStore, txs TransactionStore, hubs HubDirectory, log *zap.Logger) *Service {
	return &Service{
		products: products,
		batches:  batches,
		txs:      txs,
		hubs:     hubs,
		log:      log,
		now:      time.Now,
	}
}

// RegisterIncoming records a stock arrival, creating the product master on
// first sight and merging into an existing batch when one matches by batch
// number or expiry date.
func (s *Service) RegisterIncoming(ctx context.Context, in RegisterStockInput) (*StockResult, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.HubID = strings.TrimSpace(in.HubID)
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)

	switch {
	case in.ProductID == "":
		return nil, apperr.New(apperr.InvalidArgument, "productID is required")
	case in.HubID == "":
		return nil, apperr.New(apperr.InvalidArgument, "hubID is required")
	case in.Name == "":
		return nil, apperr.New(apperr.InvalidArgument, "product name is required")
	case in.Category == "":
		return nil, apperr.New(apperr.InvalidArgument, "category is required")
	case in.Quantity <= 0:
		return nil, apperr.New(apperr.InvalidArgument, "quantity must be positive")
	case in.PurchaseValue < 0:
		return nil, apperr.New(apperr.InvalidArgument, "purchaseValue cannot be negative")
	case in.SellingPrice < 0:
		return nil, apperr.New(apperr.InvalidArgument, "sellingPrice cannot be negative")
	}

	if err := s.requireHub(ctx, in.HubID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.upsertProduct(ctx, in, now); err != nil {
		return nil, err
	}

	result, err := s.upsertBatch(ctx, in.ProductID, in.HubID, in.BatchNo, in.Quantity, in.PurchaseValue, in.ExpiryDate, now)
	if err != nil {
		return nil, err
	}

	if err := s.appendTx(ctx, models.TxTypeIn, in.ProductID, in.HubID, result.BatchNo,
		in.Quantity, unitPrice(in.PurchaseValue, in.Quantity), in.PurchaseValue, "", in.Remarks, now); err != nil {
		return nil, err
	}
	util.StockInTotal.Add(float64(in.Quantity))

	s.log.Info("stock registered",
		zap.String("productID", in.ProductID),
		zap.String("hubID", in.HubID),
		zap.String("batchNo", result.BatchNo),
		zap.Int("quantity", in.Quantity),
		zap.Bool("merged", result.Merged))
	return result, nil
}

// AddStock tops up a product that already has a master record, optionally
// updating master fields in the same call.
func (s *Service) AddStock(ctx context.Context, in AddStockInput) (*StockResult, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.HubID = strings.TrimSpace(in.HubID)
	if in.ProductID == "" {
		return nil, apperr.New(apperr.InvalidArgument, "productID is required")
	}
	if in.Quantity < 0 {
		return nil, apperr.New(apperr.InvalidArgument, "quantity cannot be negative")
	}
	if in.SellingPrice != nil && *in.SellingPrice < 0 {
		return nil, apperr.New(apperr.InvalidArgument, "sellingPrice cannot be negative")
	}

	if _, err := s.products.FindByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := s.now()
	fields := map[string]interface{}{}
	setIf(fields, "name", in.Name)
	setIf(fields, "category", in.Category)
	setIf(fields, "brand", in.Brand)
	setIf(fields, "description", in.Description)
	if in.SellingPrice != nil {
		fields["sellingPrice"] = *in.SellingPrice
	}
	if len(fields) > 0 {
		if err := s.products.UpdateFields(ctx, in.ProductID, fields, now); err != nil {
			return nil, err
		}
	}

	if in.Quantity == 0 {
		if len(fields) == 0 {
			return nil, apperr.New(apperr.InvalidArgument, "nothing to update")
		}
		return &StockResult{}, nil
	}

	if in.HubID == "" {
		return nil, apperr.New(apperr.InvalidArgument, "hubID is required when adding quantity")
	}
	if err := s.requireHub(ctx, in.HubID); err != nil {
		return nil, err
	}

	result, err := s.upsertBatch(ctx, in.ProductID, in.HubID, in.BatchNo, in.Quantity, in.PurchaseValue, in.ExpiryDate, now)
	if err != nil {
		return nil, err
	}

	if err := s.appendTx(ctx, models.TxTypeIn, in.ProductID, in.HubID, result.BatchNo,
		in.Quantity, unitPrice(in.PurchaseValue, in.Quantity), in.PurchaseValue, "", in.Remarks, now); err != nil {
		return nil, err
	}
	util.StockInTotal.Add(float64(in.Quantity))

	return result, nil
}

// ConsumeFIFO drains quantity from the hub's active batches, soonest
// expiry first. The aggregate availability check is advisory; the per-batch
// conditional decrement is what keeps quantities non-negative under
// concurrency. When the snapshot is exhausted with units still outstanding
// the partial consumption stands and the result is returned alongside a
// Conflict error.
func (s *Service) ConsumeFIFO(ctx context.Context, productID, hubID string, quantity int, remarks string) (*ConsumptionResult, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.InvalidArgument, "quantity must be positive")
	}

	available, err := s.batches.TotalActive(ctx, productID, hubID)
	if err != nil {
		return nil, err
	}
	if available < quantity {
		util.InsufficientStockTotal.Inc()
		return nil, apperr.Newf(apperr.InsufficientStock,
			"insufficient stock for %s at %s: requested %d, available %d", productID, hubID, quantity, available)
	}

	snapshot, err := s.batches.ListActiveFIFO(ctx, productID, hubID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	remaining := quantity
	var entries []models.ConsumptionEntry

	for _, batch := range snapshot {
		if remaining == 0 {
			break
		}
		take := remaining
		if batch.Quantity < take {
			take = batch.Quantity
		}

		newQty, err := s.batches.DecrementQuantity(ctx, productID, hubID, batch.BatchNo, take, now)
		if err != nil {
			if apperr.KindOf(err) != apperr.Conflict {
				return nil, err
			}
			// A concurrent consumer got there first. Re-read and take what
			// is actually left, or move on to the next batch.
			fresh, ferr := s.batches.FindByBatchNo(ctx, productID, hubID, batch.BatchNo)
			if ferr != nil {
				if apperr.KindOf(ferr) == apperr.NotFound {
					continue
				}
				return nil, ferr
			}
			if fresh.Status != models.BatchStatusActive || fresh.Quantity <= 0 {
				continue
			}
			take = remaining
			if fresh.Quantity < take {
				take = fresh.Quantity
			}
			newQty, err = s.batches.DecrementQuantity(ctx, productID, hubID, batch.BatchNo, take, now)
			if err != nil {
				if apperr.KindOf(err) == apperr.Conflict {
					continue
				}
				return nil, err
			}
		}

		if newQty == 0 {
			if err := s.batches.MarkDepleted(ctx, productID, hubID, batch.BatchNo, now); err != nil {
				return nil, err
			}
		}

		if err := s.appendTx(ctx, models.TxTypeOut, productID, hubID, batch.BatchNo,
			take, batch.PurchaseUnitPrice, batch.PurchaseUnitPrice*float64(take), "", remarks, now); err != nil {
			return nil, err
		}

		entries = append(entries, models.ConsumptionEntry{
			BatchNo:  batch.BatchNo,
			Qty:      take,
			UnitCost: batch.PurchaseUnitPrice,
		})
		remaining -= take
	}

	consumed := quantity - remaining
	util.StockOutTotal.Add(float64(consumed))

	result := &ConsumptionResult{Entries: entries, Consumed: consumed}
	if left, err := s.batches.TotalActive(ctx, productID, hubID); err == nil {
		result.RemainingAtHub = left
	} else {
		s.log.Warn("remaining quantity lookup failed", zap.Error(err))
	}

	if remaining > 0 {
		s.log.Warn("consumption snapshot exhausted",
			zap.String("productID", productID),
			zap.String("hubID", hubID),
			zap.Int("outstanding", remaining))
		return result, apperr.Newf(apperr.Conflict,
			"concurrent consumption drained the snapshot, %d of %d units outstanding", remaining, quantity)
	}
	return result, nil
}

// ReceiveTransfer credits a consumption trace into the destination hub,
// preserving batch numbers and unit costs. Expiry dates are copied from
// the source hub's batches.
func (s *Service) ReceiveTransfer(ctx context.Context, productID, toHub, fromHub string, entries []models.ConsumptionEntry, dispatchID string) error {
	if len(entries) == 0 {
		return apperr.New(apperr.InvalidArgument, "empty consumption trace")
	}
	now := s.now()

	for _, entry := range entries {
		var expiry time.Time
		source, err := s.batches.FindByBatchNo(ctx, productID, fromHub, entry.BatchNo)
		switch {
		case err == nil:
			expiry = source.ExpiryDate
		case apperr.KindOf(err) == apperr.NotFound:
			s.log.Warn("source batch missing, crediting without expiry",
				zap.String("batchNo", entry.BatchNo), zap.String("fromHub", fromHub))
		default:
			return err
		}

		if err := s.batches.CreditTransfer(ctx, productID, toHub, entry.BatchNo, entry.Qty, entry.UnitCost, expiry, now); err != nil {
			return err
		}
		if err := s.appendTx(ctx, models.TxTypeIn, productID, toHub, entry.BatchNo,
			entry.Qty, entry.UnitCost, entry.UnitCost*float64(entry.Qty), dispatchID,
			"transfer from "+fromHub, now); err != nil {
			return err
		}
		util.StockInTotal.Add(float64(entry.Qty))
	}
	return nil
}

// AdjustStock applies a signed manual correction to one batch. The
// guarded update rejects corrections that would take the quantity below
// zero.
func (s *Service) AdjustStock(ctx context.Context, productID, hubID, batchNo string, delta int, remarks string) (int, error) {
	if delta == 0 {
		return 0, apperr.New(apperr.InvalidArgument, "delta cannot be zero")
	}

	batch, err := s.batches.FindByBatchNo(ctx, productID, hubID, batchNo)
	if err != nil {
		return 0, err
	}

	now := s.now()
	newQty, err := s.batches.AdjustQuantity(ctx, productID, hubID, batchNo, delta, now)
	if err != nil {
		return 0, err
	}
	if newQty == 0 {
		if err := s.batches.MarkDepleted(ctx, productID, hubID, batchNo, now); err != nil {
			return 0, err
		}
	}

	if err := s.appendTx(ctx, models.TxTypeAdjustment, productID, hubID, batchNo,
		delta, batch.PurchaseUnitPrice, batch.PurchaseUnitPrice*float64(delta), "", remarks, now); err != nil {
		return 0, err
	}

	s.log.Info("stock adjusted",
		zap.String("productID", productID),
		zap.String("batchNo", batchNo),
		zap.Int("delta", delta),
		zap.Int("newQuantity", newQty))
	return newQty, nil
}

// ArchiveBatch retires a batch from circulation, recording the quantity
// written off in the transaction trail.
func (s *Service) ArchiveBatch(ctx context.Context, productID, hubID, batchNo, remarks string) error {
	batch, err := s.batches.FindByBatchNo(ctx, productID, hubID, batchNo)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.batches.SetArchived(ctx, productID, hubID, batchNo, now); err != nil {
		return err
	}

	return s.appendTx(ctx, models.TxTypeArchive, productID, hubID, batchNo,
		batch.Quantity, batch.PurchaseUnitPrice, batch.PurchaseUnitPrice*float64(batch.Quantity), "", remarks, now)
}

// ProductSummary is the aggregate stock view for a product at one hub.
func (s *Service) ProductSummary(ctx context.Context, productID, hubID string) (*SummaryResult, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	summary, err := s.batches.Summary(ctx, productID, hubID)
	if err != nil {
		return nil, err
	}

	result := &SummaryResult{
		Product:       product,
		HubID:         hubID,
		TotalQuantity: summary.TotalQuantity,
		NearestExpiry: summary.NearestExpiry,
		BatchesCount:  summary.BatchesCount,
	}
	if summary.NearestExpiry != nil && summary.NearestExpiry.Sub(s.now()) < ExpiryWarningWindow {
		result.ExpiryWarning = true
	}
	return result, nil
}

func (s *Service) ListBatches(ctx context.Context, productID, hubID, status string, page models.Page) ([]models.Batch, error) {
	return s.batches.List(ctx, productID, hubID, status, page)
}

func (s *Service) ListProducts(ctx context.Context, search string, page models.Page) ([]models.Product, error) {
	return s.products.List(ctx, search, page)
}

func (s *Service) ListTransactions(ctx context.Context, productID, hubID, txType string, page models.Page) ([]models.StockTransaction, error) {
	return s.txs.List(ctx, productID, hubID, txType, page)
}

// upsertBatch merges the incoming quantity into an existing batch or
// creates a new one. A duplicate-key failure on create means another
// writer created the same batch concurrently; the loop re-reads and merges
// into the winner instead.
func (s *Service) upsertBatch(ctx context.Context, productID, hubID, batchNo string, qty int, value float64, expiry time.Time, now time.Time) (*StockResult, error) {
	for attempt := 0; attempt < createMergeAttempts; attempt++ {
		target, err := s.findMergeTarget(ctx, productID, hubID, batchNo, expiry)
		if err != nil {
			return nil, err
		}

		if target != nil {
			newQty := target.Quantity + qty
			newValue := target.PurchaseValue + value
			newUnit := newValue / float64(newQty)

			err := s.batches.MergeStock(ctx, productID, hubID, target.BatchNo, qty, value, newUnit, now)
			if err != nil {
				if apperr.KindOf(err) == apperr.NotFound {
					continue
				}
				return nil, err
			}
			return &StockResult{
				BatchNo:       target.BatchNo,
				Merged:        true,
				QuantityAdded: qty,
				BatchQuantity: newQty,
				UnitPrice:     newUnit,
				Warning:       s.expiryWarning(target.BatchNo, target.ExpiryDate, now),
			}, nil
		}

		if expiry.IsZero() {
			return nil, apperr.New(apperr.InvalidArgument, "expiryDate is required for a new batch")
		}

		newNo := batchNo
		if newNo == "" {
			newNo = generateBatchNo(productID, hubID, now)
		}
		batch := &models.Batch{
			ProductID:         productID,
			HubID:             hubID,
			BatchNo:           newNo,
			Quantity:          qty,
			ExpiryDate:        expiry,
			PurchaseValue:     value,
			PurchaseUnitPrice: unitPrice(value, qty),
			Status:            models.BatchStatusActive,
			CreatedAt:         now,
			LastUpdated:       now,
		}
		err = s.batches.Insert(ctx, batch)
		if err == nil {
			return &StockResult{
				BatchNo:       newNo,
				QuantityAdded: qty,
				BatchQuantity: qty,
				UnitPrice:     batch.PurchaseUnitPrice,
				Warning:       s.expiryWarning(newNo, expiry, now),
			}, nil
		}
		if apperr.KindOf(err) != apperr.Conflict {
			return nil, err
		}
		util.BatchMergeConflictsTotal.Inc()
		s.log.Info("batch creation raced, merging into winner",
			zap.String("productID", productID),
			zap.String("hubID", hubID),
			zap.String("batchNo", newNo))
		if batchNo == "" {
			// The race is on the (productID, hubID, expiryDate) match, not on
			// a caller-supplied number: retry with the winner found by expiry.
			continue
		}
		batchNo = newNo
	}
	return nil, apperr.Newf(apperr.Conflict, "batch upsert for %s at %s kept racing, giving up", productID, hubID)
}

// findMergeTarget locates the batch incoming stock should fold into, or
// nil when a new batch is needed.
func (s *Service) findMergeTarget(ctx context.Context, productID, hubID, batchNo string, expiry time.Time) (*models.Batch, error) {
	if batchNo != "" {
		batch, err := s.batches.FindByBatchNo(ctx, productID, hubID, batchNo)
		if err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				return nil, nil
			}
			return nil, err
		}
		if batch.Status == models.BatchStatusArchived {
			return nil, apperr.Newf(apperr.InvalidState, "batch %q is archived", batchNo)
		}
		return batch, nil
	}

	if expiry.IsZero() {
		return nil, nil
	}
	batch, err := s.batches.FindActiveByExpiry(ctx, productID, hubID, expiry)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return batch, nil
}

func (s *Service) upsertProduct(ctx context.Context, in RegisterStockInput, now time.Time) error {
	existing, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		if apperr.KindOf(err) != apperr.NotFound {
			return err
		}
		err = s.products.Insert(ctx, &models.Product{
			ProductID:    in.ProductID,
			Name:         in.Name,
			Category:     in.Category,
			Brand:        in.Brand,
			Description:  in.Description,
			SellingPrice: in.SellingPrice,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		// A concurrent register already created the master; that is fine.
		if err != nil && apperr.KindOf(err) != apperr.Conflict {
			return err
		}
		return nil
	}

	fields := map[string]interface{}{}
	if existing.SellingPrice != in.SellingPrice {
		fields["sellingPrice"] = in.SellingPrice
	}
	if in.Description != "" && existing.Description != in.Description {
		fields["description"] = in.Description
	}
	if len(fields) == 0 {
		return nil
	}
	return s.products.UpdateFields(ctx, in.ProductID, fields, now)
}

func (s *Service) appendTx(ctx context.Context, txType, productID, hubID, batchNo string, qty int, unit, total float64, reference, remarks string, now time.Time) error {
	return s.txs.Append(ctx, &models.StockTransaction{
		TransactionID: newTransactionID(),
		Type:          txType,
		ProductID:     productID,
		HubID:         hubID,
		BatchNo:       batchNo,
		Quantity:      qty,
		UnitPrice:     unit,
		TotalValue:    total,
		Reference:     reference,
		Timestamp:     now,
		Remarks:       remarks,
	})
}

func (s *Service) expiryWarning(batchNo string, expiry, now time.Time) string {
	left := expiry.Sub(now)
	if left >= ExpiryWarningWindow {
		return ""
	}
	days := int(left.Hours() / 24)
	if days < 0 {
		days = 0
	}
	return fmt.Sprintf("batch %s expires in %d days", batchNo, days)
}

func newTransactionID() string {
	return "txn-" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func generateBatchNo(productID, hubID string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%s", productID, hubID,
		now.Format("20060102150405"), strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
}

func unitPrice(value float64, qty int) float64 {
	if qty == 0 {
		return 0
	}
	return value / float64(qty)
}

func (s *Service) requireHub(ctx context.Context, hubID string) error {
	ok, err := s.hubs.Exists(ctx, hubID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Newf(apperr.NotFound, "hub %q not found", hubID)
	}
	return nil
}

func setIf(fields map[string]interface{}, key string, val *string) {
	if val != nil {
		fields[key] = strings.TrimSpace(*val)
	}
}

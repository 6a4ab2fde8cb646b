package inventory

import (
	"context"
	"testing"
	"time"

	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	products *memory.ProductStore
	batches  *memory.BatchStore
	txs      *memory.TransactionStore
}

func newFixture(hubIDs ...string) *fixture {
	f := &fixture{
		products: memory.NewProductStore(),
		batches:  memory.NewBatchStore(),
		txs:      memory.NewTransactionStore(),
	}
	f.svc = NewService(f.products, f.batches, f.txs, memory.NewHubStore(hubIDs...), zap.NewNop())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func registerInput(qty int, value float64, expiry time.Time) RegisterStockInput {
	return RegisterStockInput{
		ProductID:     "P1",
		Name:          "Pork belly",
		Category:      "meat",
		SellingPrice:  55,
		HubID:         "HUB-A",
		Quantity:      qty,
		PurchaseValue: value,
		ExpiryDate:    expiry,
	}
}

func TestRegisterIncomingCreatesProductAndBatch(t *testing.T) {
	f := newFixture("HUB-A")
	expiry := testNow.Add(60 * 24 * time.Hour)

	result, err := f.svc.RegisterIncoming(context.Background(), registerInput(100, 4000, expiry))
	require.NoError(t, err)

	assert.False(t, result.Merged)
	assert.NotEmpty(t, result.BatchNo)
	assert.Equal(t, 100, result.QuantityAdded)
	assert.Equal(t, 100, result.BatchQuantity)
	assert.InDelta(t, 40.0, result.UnitPrice, 1e-9)
	assert.Empty(t, result.Warning)

	product, err := f.products.FindByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, "Pork belly", product.Name)

	all := f.txs.All()
	require.Len(t, all, 1)
	assert.Equal(t, models.TxTypeIn, all[0].Type)
	assert.Equal(t, 100, all[0].Quantity)
	assert.InDelta(t, 4000.0, all[0].TotalValue, 1e-9)
}

func TestRegisterIncomingValidation(t *testing.T) {
	f := newFixture("HUB-A")
	expiry := testNow.Add(60 * 24 * time.Hour)

	in := registerInput(0, 4000, expiry)
	_, err := f.svc.RegisterIncoming(context.Background(), in)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	in = registerInput(10, 400, expiry)
	in.Category = "   "
	_, err = f.svc.RegisterIncoming(context.Background(), in)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	in = registerInput(10, 400, expiry)
	in.HubID = "HUB-MISSING"
	_, err = f.svc.RegisterIncoming(context.Background(), in)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	// A brand-new batch cannot be created without an expiry date.
	in = registerInput(10, 400, time.Time{})
	_, err = f.svc.RegisterIncoming(context.Background(), in)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
}

func TestRegisterIncomingMergesByExpiry(t *testing.T) {
	f := newFixture("HUB-A")
	expiry := testNow.Add(60 * 24 * time.Hour)

	first, err := f.svc.RegisterIncoming(context.Background(), registerInput(100, 4000, expiry))
	require.NoError(t, err)
	second, err := f.svc.RegisterIncoming(context.Background(), registerInput(100, 2000, expiry))
	require.NoError(t, err)

	assert.True(t, second.Merged)
	assert.Equal(t, first.BatchNo, second.BatchNo)
	assert.Equal(t, 200, second.BatchQuantity)
	// (100*40 + 100*20) / 200
	assert.InDelta(t, 30.0, second.UnitPrice, 1e-9)
}

func TestWeightedAverageIsOrderIndependent(t *testing.T) {
	expiry := testNow.Add(45 * 24 * time.Hour)
	lots := []struct {
		qty   int
		value float64
	}{
		{100, 4000}, {50, 1000}, {25, 2000},
	}

	run := func(order []int) (int, float64) {
		f := newFixture("HUB-A")
		var last *StockResult
		for _, i := range order {
			result, err := f.svc.RegisterIncoming(context.Background(), registerInput(lots[i].qty, lots[i].value, expiry))
			require.NoError(t, err)
			last = result
		}
		return last.BatchQuantity, last.UnitPrice
	}

	qtyA, priceA := run([]int{0, 1, 2})
	qtyB, priceB := run([]int{2, 0, 1})
	qtyC, priceC := run([]int{1, 2, 0})

	assert.Equal(t, 175, qtyA)
	assert.Equal(t, qtyA, qtyB)
	assert.Equal(t, qtyA, qtyC)
	assert.InDelta(t, 7000.0/175.0, priceA, 1e-9)
	assert.InDelta(t, priceA, priceB, 1e-9)
	assert.InDelta(t, priceA, priceC, 1e-9)
}

func TestRegisterIncomingWarnsOnShortShelfLife(t *testing.T) {
	f := newFixture("HUB-A")

	result, err := f.svc.RegisterIncoming(context.Background(), registerInput(10, 400, testNow.Add(10*24*time.Hour)))
	require.NoError(t, err)
	assert.Contains(t, result.Warning, "expires in 10 days")
}

// racingBatchStore makes the first Insert lose a duplicate-key race: the
// competing writer's batch lands first and the insert is rejected.
type racingBatchStore struct {
	*memory.BatchStore
	raced bool
}

func (r *racingBatchStore) Insert(ctx context.Context, batch *models.Batch) error {
	if !r.raced {
		r.raced = true
		winner := *batch
		winner.Quantity = 40
		winner.PurchaseValue = 800
		winner.PurchaseUnitPrice = 20
		if err := r.BatchStore.Insert(ctx, &winner); err != nil {
			return err
		}
		return apperr.New(apperr.Conflict, "duplicate batch key")
	}
	return r.BatchStore.Insert(ctx, batch)
}

func TestRegisterIncomingRecoversCreationRaceByMerging(t *testing.T) {
	f := newFixture("HUB-A")
	racing := &racingBatchStore{BatchStore: f.batches}
	f.svc.batches = racing

	expiry := testNow.Add(60 * 24 * time.Hour)
	result, err := f.svc.RegisterIncoming(context.Background(), registerInput(100, 4000, expiry))
	require.NoError(t, err)

	assert.True(t, result.Merged)
	assert.Equal(t, 140, result.BatchQuantity)
	assert.InDelta(t, 4800.0/140.0, result.UnitPrice, 1e-9)

	// Exactly one batch exists for the (product, hub) pair afterwards.
	batches, err := f.batches.ListActiveFIFO(context.Background(), "P1", "HUB-A")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 140, batches[0].Quantity)
}

func TestAddStockRequiresExistingProduct(t *testing.T) {
	f := newFixture("HUB-A")

	_, err := f.svc.AddStock(context.Background(), AddStockInput{ProductID: "P1", HubID: "HUB-A", Quantity: 5})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestAddStockUpdatesMasterAndMerges(t *testing.T) {
	f := newFixture("HUB-A")
	expiry := testNow.Add(60 * 24 * time.Hour)
	first, err := f.svc.RegisterIncoming(context.Background(), registerInput(100, 4000, expiry))
	require.NoError(t, err)

	price := 60.0
	result, err := f.svc.AddStock(context.Background(), AddStockInput{
		ProductID:     "P1",
		HubID:         "HUB-A",
		SellingPrice:  &price,
		Quantity:      100,
		PurchaseValue: 2000,
		BatchNo:       first.BatchNo,
	})
	require.NoError(t, err)
	assert.True(t, result.Merged)
	assert.Equal(t, 200, result.BatchQuantity)
	assert.InDelta(t, 30.0, result.UnitPrice, 1e-9)

	product, err := f.products.FindByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 60.0, product.SellingPrice)
}

func TestConsumeFIFODrainsSoonestExpiryFirst(t *testing.T) {
	f := newFixture("HUB-A")

	late, err := f.svc.RegisterIncoming(context.Background(), registerInput(50, 2500, testNow.Add(90*24*time.Hour)))
	require.NoError(t, err)
	soon, err := f.svc.RegisterIncoming(context.Background(), registerInput(40, 1200, testNow.Add(40*24*time.Hour)))
	require.NoError(t, err)

	result, err := f.svc.ConsumeFIFO(context.Background(), "P1", "HUB-A", 60, "order-1")
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, soon.BatchNo, result.Entries[0].BatchNo)
	assert.Equal(t, 40, result.Entries[0].Qty)
	assert.InDelta(t, 30.0, result.Entries[0].UnitCost, 1e-9)
	assert.Equal(t, late.BatchNo, result.Entries[1].BatchNo)
	assert.Equal(t, 20, result.Entries[1].Qty)
	assert.InDelta(t, 50.0, result.Entries[1].UnitCost, 1e-9)
	assert.Equal(t, 60, result.Consumed)
	assert.Equal(t, 30, result.RemainingAtHub)

	// The fully drained batch flips to depleted.
	drained, err := f.batches.FindByBatchNo(context.Background(), "P1", "HUB-A", soon.BatchNo)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusDepleted, drained.Status)

	outs, err := f.txs.List(context.Background(), "P1", "HUB-A", models.TxTypeOut, models.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, outs, 2)
}

func TestConsumeFIFOInsufficientStockMutatesNothing(t *testing.T) {
	f := newFixture("HUB-A")
	_, err := f.svc.RegisterIncoming(context.Background(), registerInput(100, 4000, testNow.Add(60*24*time.Hour)))
	require.NoError(t, err)

	_, err = f.svc.ConsumeFIFO(context.Background(), "P1", "HUB-A", 101, "")
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "requested 101")
	assert.Contains(t, err.Error(), "available 100")

	total, err := f.batches.TotalActive(context.Background(), "P1", "HUB-A")
	require.NoError(t, err)
	assert.Equal(t, 100, total)

	outs, err := f.txs.List(context.Background(), "P1", "HUB-A", models.TxTypeOut, models.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestReceiveTransferCreditsDestination(t *testing.T) {
	f := newFixture("HUB-A", "HUB-B")
	expiry := testNow.Add(60 * 24 * time.Hour)
	_, err := f.svc.RegisterIncoming(context.Background(), registerInput(100, 4000, expiry))
	require.NoError(t, err)

	consumed, err := f.svc.ConsumeFIFO(context.Background(), "P1", "HUB-A", 30, "")
	require.NoError(t, err)

	err = f.svc.ReceiveTransfer(context.Background(), "P1", "HUB-B", "HUB-A", consumed.Entries, "disp-test1")
	require.NoError(t, err)

	credited, err := f.batches.FindByBatchNo(context.Background(), "P1", "HUB-B", consumed.Entries[0].BatchNo)
	require.NoError(t, err)
	assert.Equal(t, 30, credited.Quantity)
	assert.InDelta(t, 40.0, credited.PurchaseUnitPrice, 1e-9)
	assert.True(t, credited.ExpiryDate.Equal(expiry), "expiry copied from the source batch")

	ins, err := f.txs.List(context.Background(), "P1", "HUB-B", models.TxTypeIn, models.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, ins, 1)
	assert.Equal(t, "disp-test1", ins[0].Reference)
}

func TestAdjustStockGuardsNegativeQuantity(t *testing.T) {
	f := newFixture("HUB-A")
	result, err := f.svc.RegisterIncoming(context.Background(), registerInput(10, 400, testNow.Add(60*24*time.Hour)))
	require.NoError(t, err)

	_, err = f.svc.AdjustStock(context.Background(), "P1", "HUB-A", result.BatchNo, -11, "shrinkage")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	newQty, err := f.svc.AdjustStock(context.Background(), "P1", "HUB-A", result.BatchNo, -10, "shrinkage")
	require.NoError(t, err)
	assert.Equal(t, 0, newQty)

	batch, err := f.batches.FindByBatchNo(context.Background(), "P1", "HUB-A", result.BatchNo)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusDepleted, batch.Status)

	adjustments, err := f.txs.List(context.Background(), "P1", "HUB-A", models.TxTypeAdjustment, models.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, -10, adjustments[0].Quantity)
}

func TestArchiveBatch(t *testing.T) {
	f := newFixture("HUB-A")
	result, err := f.svc.RegisterIncoming(context.Background(), registerInput(10, 400, testNow.Add(60*24*time.Hour)))
	require.NoError(t, err)

	require.NoError(t, f.svc.ArchiveBatch(context.Background(), "P1", "HUB-A", result.BatchNo, "spoiled"))

	batch, err := f.batches.FindByBatchNo(context.Background(), "P1", "HUB-A", result.BatchNo)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusArchived, batch.Status)

	err = f.svc.ArchiveBatch(context.Background(), "P1", "HUB-A", result.BatchNo, "again")
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	archives, err := f.txs.List(context.Background(), "P1", "HUB-A", models.TxTypeArchive, models.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, 10, archives[0].Quantity)
}

func TestProductSummary(t *testing.T) {
	f := newFixture("HUB-A")
	nearest := testNow.Add(20 * 24 * time.Hour)
	_, err := f.svc.RegisterIncoming(context.Background(), registerInput(10, 400, nearest))
	require.NoError(t, err)
	_, err = f.svc.RegisterIncoming(context.Background(), registerInput(5, 300, testNow.Add(90*24*time.Hour)))
	require.NoError(t, err)

	summary, err := f.svc.ProductSummary(context.Background(), "P1", "HUB-A")
	require.NoError(t, err)
	assert.Equal(t, 15, summary.TotalQuantity)
	assert.Equal(t, 2, summary.BatchesCount)
	require.NotNil(t, summary.NearestExpiry)
	assert.True(t, summary.NearestExpiry.Equal(nearest))
	assert.True(t, summary.ExpiryWarning)
}

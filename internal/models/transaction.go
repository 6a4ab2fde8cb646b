package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TxTypeIn         = "IN"
	TxTypeOut        = "OUT"
	TxTypeAdjustment = "ADJUSTMENT"
	TxTypeArchive    = "ARCHIVE"
)

// StockTransaction is an immutable, append-only record of a single
// quantity-affecting event. Written once, never updated; the ledger state
// must be re-derivable from the sequence of these records.
type StockTransaction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TransactionID string             `bson:"transactionID" json:"transactionID"`
	Type          string             `bson:"type" json:"type"`
	ProductID     string             `bson:"productID" json:"productID"`
	HubID         string             `bson:"hubID" json:"hubID"`
	BatchNo       string             `bson:"batchNo" json:"batchNo"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	UnitPrice     float64            `bson:"unitPrice" json:"unitPrice"`
	TotalValue    float64            `bson:"totalValue" json:"totalValue"`
	Reference     string             `bson:"reference,omitempty" json:"reference,omitempty"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	Remarks       string             `bson:"remarks,omitempty" json:"remarks,omitempty"`
}

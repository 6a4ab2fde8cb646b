package handlers

import (
	"net/http"
	"time"

	"perishable-scm-api-server/internal/inventory"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	Svc *inventory.Service
}

type registerStockRequest struct {
	ProductID     string     `json:"productID" binding:"required"`
	Name          string     `json:"name" binding:"required"`
	Category      string     `json:"category" binding:"required"`
	Brand         string     `json:"brand"`
	Description   string     `json:"description"`
	SellingPrice  float64    `json:"sellingPrice"`
	HubID         string     `json:"hubID" binding:"required"`
	Quantity      int        `json:"quantity" binding:"required"`
	PurchaseValue float64    `json:"purchaseValue"`
	ExpiryDate    *time.Time `json:"expiryDate"`
	BatchNo       string     `json:"batchNo"`
	Remarks       string     `json:"remarks"`
}

func (h *InventoryHandler) Register(c *gin.Context) {
	var req registerStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := inventory.RegisterStockInput{
		ProductID:     req.ProductID,
		Name:          req.Name,
		Category:      req.Category,
		Brand:         req.Brand,
		Description:   req.Description,
		SellingPrice:  req.SellingPrice,
		HubID:         req.HubID,
		Quantity:      req.Quantity,
		PurchaseValue: req.PurchaseValue,
		BatchNo:       req.BatchNo,
		Remarks:       req.Remarks,
	}
	if req.ExpiryDate != nil {
		in.ExpiryDate = *req.ExpiryDate
	}

	result, err := h.Svc.RegisterIncoming(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type addStockRequest struct {
	ProductID     string     `json:"productID" binding:"required"`
	HubID         string     `json:"hubID"`
	Name          *string    `json:"name"`
	Category      *string    `json:"category"`
	Brand         *string    `json:"brand"`
	Description   *string    `json:"description"`
	SellingPrice  *float64   `json:"sellingPrice"`
	Quantity      int        `json:"quantity"`
	PurchaseValue float64    `json:"purchaseValue"`
	ExpiryDate    *time.Time `json:"expiryDate"`
	BatchNo       string     `json:"batchNo"`
	Remarks       string     `json:"remarks"`
}

func (h *InventoryHandler) AddStock(c *gin.Context) {
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := inventory.AddStockInput{
		ProductID:     req.ProductID,
		HubID:         req.HubID,
		Name:          req.Name,
		Category:      req.Category,
		Brand:         req.Brand,
		Description:   req.Description,
		SellingPrice:  req.SellingPrice,
		Quantity:      req.Quantity,
		PurchaseValue: req.PurchaseValue,
		BatchNo:       req.BatchNo,
		Remarks:       req.Remarks,
	}
	if req.ExpiryDate != nil {
		in.ExpiryDate = *req.ExpiryDate
	}

	result, err := h.Svc.AddStock(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InventoryHandler) Summary(c *gin.Context) {
	productID := c.Query("productID")
	hubID := c.Query("hubID")
	if productID == "" || hubID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productID and hubID are required"})
		return
	}

	summary, err := h.Svc.ProductSummary(c.Request.Context(), productID, hubID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *InventoryHandler) Batches(c *gin.Context) {
	productID := c.Query("productID")
	hubID := c.Query("hubID")
	if productID == "" || hubID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productID and hubID are required"})
		return
	}

	batches, err := h.Svc.ListBatches(c.Request.Context(), productID, hubID, c.Query("status"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func (h *InventoryHandler) Products(c *gin.Context) {
	products, err := h.Svc.ListProducts(c.Request.Context(), c.Query("search"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *InventoryHandler) Transactions(c *gin.Context) {
	txs, err := h.Svc.ListTransactions(c.Request.Context(),
		c.Query("productID"), c.Query("hubID"), c.Query("type"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

type adjustStockRequest struct {
	ProductID string `json:"productID" binding:"required"`
	HubID     string `json:"hubID" binding:"required"`
	BatchNo   string `json:"batchNo" binding:"required"`
	Delta     int    `json:"delta" binding:"required"`
	Remarks   string `json:"remarks" binding:"required"`
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newQty, err := h.Svc.AdjustStock(c.Request.Context(), req.ProductID, req.HubID, req.BatchNo, req.Delta, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batchNo": req.BatchNo, "quantity": newQty})
}

type archiveBatchRequest struct {
	ProductID string `json:"productID" binding:"required"`
	HubID     string `json:"hubID" binding:"required"`
	BatchNo   string `json:"batchNo" binding:"required"`
	Remarks   string `json:"remarks"`
}

func (h *InventoryHandler) Archive(c *gin.Context) {
	var req archiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Svc.ArchiveBatch(c.Request.Context(), req.ProductID, req.HubID, req.BatchNo, req.Remarks); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batchNo": req.BatchNo, "status": "archived"})
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"perishable-scm-api-server/internal/dispatch"
	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/s3"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DispatchHandler struct {
	Svc      *dispatch.Service
	Uploader *s3.Uploader
}

type createDispatchRequest struct {
	ProductID  string `json:"productID" binding:"required"`
	FromHubID  string `json:"fromHubID" binding:"required"`
	ToHubID    string `json:"toHubID" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	RequestRef string `json:"requestRef"`
	Notes      string `json:"notes"`
}

func (h *DispatchHandler) Create(c *gin.Context) {
	var req createDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Svc.Create(c.Request.Context(), dispatch.CreateInput{
		ProductID:  req.ProductID,
		FromHubID:  req.FromHubID,
		ToHubID:    req.ToHubID,
		Quantity:   req.Quantity,
		RequestRef: req.RequestRef,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *DispatchHandler) Get(c *gin.Context) {
	d, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DispatchHandler) List(c *gin.Context) {
	dispatches, err := h.Svc.List(c.Request.Context(), c.Query("status"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispatches": dispatches})
}

// Assign triggers one allocation attempt, same as a cron tick.
func (h *DispatchHandler) Assign(c *gin.Context) {
	result, err := h.Svc.AssignResources(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DispatchHandler) MarkReceived(c *gin.Context) {
	d, err := h.Svc.MarkReceived(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DispatchHandler) Cancel(c *gin.Context) {
	if err := h.Svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispatchID": c.Param("id"), "status": models.DispatchStatusCancelled})
}

// UploadDeliveryPhoto stores a proof-of-delivery file on S3 and attaches
// the resulting pointer to the dispatch.
func (h *DispatchHandler) UploadDeliveryPhoto(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage is not configured"})
		return
	}

	dispatchID := c.Param("id")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer file.Close()

	proofID := strings.ReplaceAll(uuid.New().String(), "-", "")
	objectKey := fmt.Sprintf("dispatches/%s/%s-%s", dispatchID, proofID, fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")

	url, err := h.Uploader.UploadFile(c.Request.Context(), file, objectKey, contentType)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload failed"})
		return
	}

	proof := models.MediaPointer{
		ID:       proofID,
		URL:      url,
		FileName: fileHeader.Filename,
		FileType: contentType,
	}
	if err := h.Svc.AttachDeliveryProof(c.Request.Context(), dispatchID, proof); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proof)
}

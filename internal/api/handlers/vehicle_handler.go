package handlers

import (
	"net/http"
	"strings"
	"time"

	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VehicleHandler struct {
	Vehicles *storage.VehicleStore
}

type createVehicleRequest struct {
	VehicleID     string  `json:"vehicleID"`
	VehicleNumber string  `json:"vehicleNumber" binding:"required"`
	Type          string  `json:"type" binding:"required,oneof=TRUCK VAN MOTORBIKE"`
	Refrigerated  bool    `json:"refrigerated"`
	PayloadTonnes float64 `json:"payloadTonnes" binding:"gte=0"`
}

func (h *VehicleHandler) Create(c *gin.Context) {
	var req createVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.VehicleID == "" {
		req.VehicleID = "veh-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	now := time.Now()
	vehicle := &models.Vehicle{
		VehicleID:     req.VehicleID,
		VehicleNumber: req.VehicleNumber,
		Type:          req.Type,
		Refrigerated:  req.Refrigerated,
		PayloadTonnes: req.PayloadTonnes,
		Status:        models.VehicleStatusAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Vehicles.Insert(c.Request.Context(), vehicle); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.Vehicles.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

type updateVehicleRequest struct {
	VehicleNumber *string  `json:"vehicleNumber"`
	Refrigerated  *bool    `json:"refrigerated"`
	PayloadTonnes *float64 `json:"payloadTonnes"`
	// Status may only be toggled between Available and Under-Maintenance
	// here; In-Transit is owned by the allocator.
	Status *string `json:"status"`
}

func (h *VehicleHandler) Update(c *gin.Context) {
	var req updateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if req.VehicleNumber != nil {
		fields["vehicleNumber"] = *req.VehicleNumber
	}
	if req.Refrigerated != nil {
		fields["refrigerated"] = *req.Refrigerated
	}
	if req.PayloadTonnes != nil {
		fields["payloadTonnes"] = *req.PayloadTonnes
	}
	if req.Status != nil {
		if *req.Status != models.VehicleStatusAvailable && *req.Status != models.VehicleStatusMaintenance {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status can only be set to Available or Under-Maintenance"})
			return
		}
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	vehicle, err := h.Vehicles.UpdateFields(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandler) Delete(c *gin.Context) {
	ok, err := h.Vehicles.SoftDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle is on a dispatch or already deleted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicleID": c.Param("id"), "status": models.VehicleStatusDeleted})
}

func (h *VehicleHandler) Search(c *gin.Context) {
	vehicles, err := h.Vehicles.Search(c.Request.Context(),
		c.Query("vehicleID"), c.Query("vehicleNumber"), c.Query("status"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

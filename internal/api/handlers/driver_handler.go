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

type DriverHandler struct {
	Drivers *storage.DriverStore
}

type createDriverRequest struct {
	DriverID      string `json:"driverID"`
	Name          string `json:"name" binding:"required"`
	LicenseNumber string `json:"licenseNumber" binding:"required"`
	Age           int    `json:"age" binding:"required,gt=17"`
	HubID         string `json:"hubID" binding:"required"`
}

func (h *DriverHandler) Create(c *gin.Context) {
	var req createDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DriverID == "" {
		req.DriverID = "drv-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	now := time.Now()
	driver := &models.Driver{
		DriverID:      req.DriverID,
		Name:          req.Name,
		LicenseNumber: req.LicenseNumber,
		Age:           req.Age,
		HubID:         req.HubID,
		Status:        models.DriverStatusIdle,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Drivers.Insert(c.Request.Context(), driver); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, driver)
}

func (h *DriverHandler) Get(c *gin.Context) {
	driver, err := h.Drivers.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, driver)
}

type updateDriverRequest struct {
	Name  *string `json:"name"`
	Age   *int    `json:"age"`
	HubID *string `json:"hubID"`
}

func (h *DriverHandler) Update(c *gin.Context) {
	var req updateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Age != nil {
		fields["age"] = *req.Age
	}
	if req.HubID != nil {
		fields["hubID"] = *req.HubID
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	driver, err := h.Drivers.UpdateFields(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, driver)
}

func (h *DriverHandler) Delete(c *gin.Context) {
	ok, err := h.Drivers.SoftDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver is on a dispatch or already deleted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"driverID": c.Param("id"), "status": models.DriverStatusDeleted})
}

func (h *DriverHandler) Search(c *gin.Context) {
	drivers, err := h.Drivers.Search(c.Request.Context(),
		c.Query("name"), c.Query("licenseNumber"), c.Query("status"), c.Query("hubID"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drivers": drivers})
}

// RetireAudit retires every idle driver at or past the age limit.
func (h *DriverHandler) RetireAudit(c *gin.Context) {
	retired, err := h.Drivers.RetireByAge(c.Request.Context(), models.DriverRetirementAge)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"retired": retired})
}

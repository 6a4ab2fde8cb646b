package handlers

import (
	"net/http"
	"time"

	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/models"
	"perishable-scm-api-server/internal/storage"

	"github.com/gin-gonic/gin"
)

type HubHandler struct {
	Hubs *storage.HubStore
}

type registerHubRequest struct {
	HubID       string     `json:"hubID" binding:"required"`
	HubName     string     `json:"hubName" binding:"required"`
	HubManager  string     `json:"hubManager"`
	PhoneNumber string     `json:"phoneNumber"`
	Address     string     `json:"address"`
	OpeningDate *time.Time `json:"openingDate"`
}

func (h *HubHandler) Register(c *gin.Context) {
	var req registerHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.HubManager != "" {
		if err := h.requireFreeManager(c, req.HubManager, ""); err != nil {
			respondError(c, err)
			return
		}
	}

	now := time.Now()
	opening := now
	if req.OpeningDate != nil {
		opening = *req.OpeningDate
	}
	hub := &models.Hub{
		HubID:       req.HubID,
		HubName:     req.HubName,
		HubManager:  req.HubManager,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Status:      models.HubStatusActive,
		OpeningDate: opening,
		CreatedAt:   now,
	}
	if err := h.Hubs.Insert(c.Request.Context(), hub); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hub)
}

type updateHubRequest struct {
	HubName     *string `json:"hubName"`
	HubManager  *string `json:"hubManager"`
	PhoneNumber *string `json:"phoneNumber"`
	Address     *string `json:"address"`
}

func (h *HubHandler) Update(c *gin.Context) {
	hubID := c.Param("id")
	var req updateHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if req.HubName != nil {
		fields["hubName"] = *req.HubName
	}
	if req.HubManager != nil {
		if *req.HubManager != "" {
			if err := h.requireFreeManager(c, *req.HubManager, hubID); err != nil {
				respondError(c, err)
				return
			}
		}
		fields["hubManager"] = *req.HubManager
	}
	if req.PhoneNumber != nil {
		fields["phoneNumber"] = *req.PhoneNumber
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	hub, err := h.Hubs.UpdateFields(c.Request.Context(), hubID, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hub)
}

type closeHubRequest struct {
	// HubName must match the hub being closed; a cheap confirmation
	// against closing the wrong hub.
	HubName string `json:"hubName" binding:"required"`
	Reason  string `json:"reason"`
}

func (h *HubHandler) Close(c *gin.Context) {
	hubID := c.Param("id")
	var req closeHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hub, err := h.Hubs.FindByID(c.Request.Context(), hubID)
	if err != nil {
		respondError(c, err)
		return
	}
	if hub.HubName != req.HubName {
		respondError(c, apperr.New(apperr.InvalidArgument, "hub name does not match"))
		return
	}

	if err := h.Hubs.Close(c.Request.Context(), hub, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hubID": hubID, "status": models.HubStatusClosed})
}

func (h *HubHandler) Get(c *gin.Context) {
	hub, err := h.Hubs.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hub)
}

func (h *HubHandler) Search(c *gin.Context) {
	hubs, err := h.Hubs.Search(c.Request.Context(),
		c.Query("hubID"), c.Query("hubName"), c.Query("status"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hubs": hubs})
}

func (h *HubHandler) Closed(c *gin.Context) {
	hubs, err := h.Hubs.ListClosed(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hubs": hubs})
}

// requireFreeManager enforces the one-active-hub-per-manager rule.
// exceptHubID lets an update keep the manager on their own hub.
func (h *HubHandler) requireFreeManager(c *gin.Context, manager, exceptHubID string) error {
	existing, err := h.Hubs.FindByManager(c.Request.Context(), manager)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil
		}
		return err
	}
	if existing.HubID == exceptHubID {
		return nil
	}
	return apperr.Newf(apperr.Conflict, "manager %q already manages hub %q", manager, existing.HubID)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"ticketing-backend/logger"
	"ticketing-backend/models"
	"ticketing-backend/store"
)

func (h *EventHandler) AssignOfficer(c *gin.Context) {
	var req models.AssignOfficerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	event, ok := h.ownedEvent(c)
	if !ok {
		return
	}

	if _, err := h.store.GetUser(c, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, "get user", err)
		return
	}

	now := h.now()
	officer, err := h.store.CreateOfficer(c, &models.SecurityOfficer{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   event.ID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		respondError(c, "assign officer", err)
		return
	}

	logger.Log.Info("[officers] officer assigned", "officer_id", officer.ID, "user_id", userID, "event_id", event.ID)
	c.JSON(http.StatusCreated, officer)
}

func (h *EventHandler) ListOfficers(c *gin.Context) {
	event, ok := h.ownedEvent(c)
	if !ok {
		return
	}

	officers, err := h.store.ListOfficers(c, event.ID)
	if err != nil {
		respondError(c, "list officers", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"officers": officers,
		"count":    len(officers),
	})
}

// UpdateOfficer activates or deactivates an officer. Verification re-reads
// the officer on every scan, so the change applies to the next scan.
func (h *EventHandler) UpdateOfficer(c *gin.Context) {
	var req models.UpdateOfficerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	officerID, err := uuid.Parse(c.Param("officerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid officer ID"})
		return
	}

	event, ok := h.ownedEvent(c)
	if !ok {
		return
	}

	officer, err := h.store.SetOfficerActive(c, officerID, event.ID, *req.Active, h.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Security officer not found for this event"})
			return
		}
		respondError(c, "update officer", err)
		return
	}

	logger.Log.Info("[officers] officer updated", "officer_id", officer.ID, "event_id", event.ID, "active", officer.Active)
	c.JSON(http.StatusOK, officer)
}

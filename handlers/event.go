package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"ticketing-backend/logger"
	"ticketing-backend/models"
	"ticketing-backend/store"
	"ticketing-backend/verification"
)

type EventHandler struct {
	store store.Store
	now   func() time.Time
}

func NewEventHandler(st store.Store) *EventHandler {
	return &EventHandler{
		store: st,
		now:   time.Now,
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CreateEvent registers an event owned by the signed-in user.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	organizerID, ok := requireActor(c)
	if !ok {
		return
	}

	if req.EndDate.Before(req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not be before start_date"})
		return
	}

	if _, err := h.store.GetUser(c, organizerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Organizer profile not found"})
			return
		}
		respondError(c, "get organizer", err)
		return
	}

	now := h.now()
	event := &models.Event{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Title:       req.Title,
		Description: optionalString(req.Description),
		Location:    optionalString(req.Location),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	event.Status = verification.StatusAt(event, now)

	created, err := h.store.CreateEvent(c, event)
	if err != nil {
		respondError(c, "create event", err)
		return
	}

	logger.Log.Info("[events] event created", "event_id", created.ID, "organizer_id", organizerID, "status", created.Status)
	c.JSON(http.StatusCreated, created)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	event, err := h.store.GetEvent(c, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		respondError(c, "get event", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event":        event,
		"window_phase": verification.WindowOf(event).At(h.now()).String(),
	})
}

func (h *EventHandler) UpdateEventStatus(c *gin.Context) {
	var req models.UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	event, ok := h.ownedEvent(c)
	if !ok {
		return
	}

	updated, err := h.store.UpdateEventStatus(c, event.ID, req.Status, h.now())
	if err != nil {
		respondError(c, "update event status", err)
		return
	}

	logger.Log.Info("[events] status updated", "event_id", event.ID, "status", req.Status)
	c.JSON(http.StatusOK, updated)
}

// ownedEvent loads the :id event and checks that the signed-in user organizes
// it. On failure it has already written the response.
func (h *EventHandler) ownedEvent(c *gin.Context) (*models.Event, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return nil, false
	}

	actor, ok := requireActor(c)
	if !ok {
		return nil, false
	}

	event, err := h.store.GetEvent(c, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return nil, false
		}
		respondError(c, "get event", err)
		return nil, false
	}

	if event.OrganizerID != actor {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to manage this event"})
		return nil, false
	}
	return event, true
}

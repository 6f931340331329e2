package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"ticketing-backend/logger"
	"ticketing-backend/models"
	"ticketing-backend/store"
)

// IssueTicket creates an unused ticket for a user. In a full deployment
// tickets come from completed orders; the organizer endpoint covers comps and
// manual issuance.
func (h *EventHandler) IssueTicket(c *gin.Context) {
	var req models.IssueTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	var orderID *uuid.UUID
	if req.OrderID != "" {
		parsed, err := uuid.Parse(req.OrderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
			return
		}
		orderID = &parsed
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

	code, err := generateTicketCode()
	if err != nil {
		respondError(c, "generate ticket code", err)
		return
	}

	ticket, err := h.store.CreateTicket(c, &models.Ticket{
		ID:         uuid.New(),
		EventID:    event.ID,
		UserID:     userID,
		OrderID:    orderID,
		Code:       code,
		UsageState: models.UsageUnused,
		CreatedAt:  h.now(),
	})
	if err != nil {
		respondError(c, "issue ticket", err)
		return
	}

	logger.Log.Info("[tickets] ticket issued", "ticket_id", ticket.ID, "event_id", event.ID, "user_id", userID)
	c.JSON(http.StatusCreated, ticket)
}

// GetTicket is visible to the ticket holder and the event organizer.
func (h *EventHandler) GetTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	ticket, err := h.store.GetTicketByID(c, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		respondError(c, "get ticket", err)
		return
	}

	if ticket.UserID != actor {
		event, err := h.store.GetEvent(c, ticket.EventID)
		if err != nil {
			respondError(c, "get event", err)
			return
		}
		if event.OrganizerID != actor {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this ticket"})
			return
		}
	}

	c.JSON(http.StatusOK, ticket)
}

// generateTicketCode returns the opaque string encoded into the ticket's QR
// code.
func generateTicketCode() (string, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return "TKT-" + hex.EncodeToString(randomBytes), nil
}

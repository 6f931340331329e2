package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"ticketing-backend/logger"
	"ticketing-backend/models"
	"ticketing-backend/store"
	"ticketing-backend/verification"
)

type VerificationHandler struct {
	store  store.Store
	engine *verification.Engine
	stats  *verification.Aggregator
	now    func() time.Time
}

func NewVerificationHandler(st store.Store, engine *verification.Engine, stats *verification.Aggregator) *VerificationHandler {
	return &VerificationHandler{
		store:  st,
		engine: engine,
		stats:  stats,
		now:    time.Now,
	}
}

type verifyResponse struct {
	Success bool `json:"success"`
	*verification.Result
}

func (h *VerificationHandler) VerifyTicket(c *gin.Context) {
	var req models.VerifyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error_kind": verification.KindInvalidRequest, "message": err.Error()})
		return
	}

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	h.verify(c, verification.Request{
		TicketID:  req.TicketID,
		EventID:   req.EventID,
		OfficerID: req.OfficerID,
		ActorID:   actor.String(),
	})
}

// VerifyCode resolves the opaque QR string to a ticket and then runs the same
// checks as VerifyTicket.
func (h *VerificationHandler) VerifyCode(c *gin.Context) {
	var req models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error_kind": verification.KindInvalidRequest, "message": err.Error()})
		return
	}

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error_kind": verification.KindInvalidRequest, "message": "Invalid event ID format"})
		return
	}

	ticket, err := h.store.ResolveCode(c, req.Code)
	if errors.Is(err, store.ErrNotFound) || (err == nil && ticket.EventID != eventID) {
		logger.Log.Info("[verify] unknown ticket code", "event_id", req.EventID, "officer_id", req.OfficerID)
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error_kind": verification.KindTicketNotFound, "message": "Ticket not found for this event"})
		return
	}
	if err != nil {
		respondError(c, "resolve ticket code", err)
		return
	}

	h.verify(c, verification.Request{
		TicketID:  ticket.ID.String(),
		EventID:   req.EventID,
		OfficerID: req.OfficerID,
		ActorID:   actor.String(),
	})
}

func (h *VerificationHandler) verify(c *gin.Context, req verification.Request) {
	result, err := h.engine.Verify(c, req)
	if err != nil {
		if kind := verification.KindOf(err); kind != "" {
			logger.Log.Info("[verify] ticket rejected",
				"ticket_id", req.TicketID,
				"event_id", req.EventID,
				"officer_id", req.OfficerID,
				"kind", kind,
			)
		}
		respondError(c, "verify ticket", err)
		return
	}

	c.JSON(http.StatusOK, verifyResponse{Success: true, Result: result})
}

// GetStats summarizes the audit log for the officer given in ?officer_id=.
// The signed-in user must be that officer and the binding must be active.
func (h *VerificationHandler) GetStats(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid event ID"})
		return
	}
	officerID, err := uuid.Parse(c.Query("officer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid officer ID"})
		return
	}

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	officer, err := verification.Authorize(c, h.store, officerID, eventID, actor.String())
	if err != nil {
		respondError(c, "authorize officer", err)
		return
	}

	summary, err := h.stats.Summarize(c, officer.ID, eventID, h.now())
	if err != nil {
		respondError(c, "summarize verifications", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListVerifications returns the event's audit log to its organizer.
func (h *VerificationHandler) ListVerifications(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid event ID"})
		return
	}

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	event, err := h.store.GetEvent(c, eventID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Event not found"})
		return
	}
	if err != nil {
		respondError(c, "get event", err)
		return
	}
	if event.OrganizerID != actor {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not authorized to view verifications for this event"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	filter := store.VerificationFilter{EventID: eventID, Limit: limit}
	if raw := c.Query("ticket_id"); raw != "" {
		ticketID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ticket ID"})
			return
		}
		filter.TicketID = &ticketID
	}

	entries, err := h.store.ListVerifications(c, filter)
	if err != nil {
		respondError(c, "list verifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verifications": entries,
		"count":         len(entries),
	})
}

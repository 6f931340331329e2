package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"ticketing-backend/models"
	"ticketing-backend/store"
)

type UserHandler struct {
	store store.Store
}

func NewUserHandler(st store.Store) *UserHandler {
	return &UserHandler{store: st}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.CreateUser(c, &models.User{
		ID:        uuid.New(),
		Name:      req.Name,
		Email:     optionalString(req.Email),
		CreatedAt: time.Now(),
	})
	if err != nil {
		respondError(c, "create user", err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.store.GetUser(c, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, "get user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"ticketing-backend/logger"
	"ticketing-backend/store"
	"ticketing-backend/verification"
)

func statusFor(kind verification.Kind) int {
	switch kind {
	case verification.KindInvalidRequest:
		return http.StatusBadRequest
	case verification.KindTicketNotFound:
		return http.StatusNotFound
	case verification.KindUnauthorized:
		return http.StatusForbidden
	case verification.KindEventNotStarted, verification.KindEventEnded, verification.KindAlreadyUsed:
		return http.StatusConflict
	case verification.KindMarkLimitExceeded:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondError writes verification rejections with their kind, store
// conflicts as 409, and everything else as a logged 500.
func respondError(c *gin.Context, action string, err error) {
	var verr *verification.Error
	if errors.As(err, &verr) {
		c.JSON(statusFor(verr.Kind), gin.H{
			"success":    false,
			"error_kind": verr.Kind,
			"message":    verr.Message,
		})
		return
	}

	if errors.Is(err, store.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Record already exists"})
		return
	}

	logger.Log.Error("[api] "+action+" failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Database error"})
}

package handlers

import "github.com/gin-gonic/gin"

func RegisterRoutes(api *gin.RouterGroup, users *UserHandler, events *EventHandler, verifications *VerificationHandler) {
	// User routes
	api.POST("/users", users.CreateUser)
	api.GET("/users/:id", users.GetUser)

	// Event routes
	api.POST("/events", events.CreateEvent)
	api.GET("/events/:id", events.GetEvent)
	api.PUT("/events/:id/status", events.UpdateEventStatus)

	// Security officer routes
	api.POST("/events/:id/officers", events.AssignOfficer)
	api.GET("/events/:id/officers", events.ListOfficers)
	api.PUT("/events/:id/officers/:officerId", events.UpdateOfficer)

	// Ticket routes
	api.POST("/events/:id/tickets", events.IssueTicket)
	api.GET("/tickets/:id", events.GetTicket)

	// Verification routes
	api.POST("/verify", verifications.VerifyTicket)
	api.POST("/verify/code", verifications.VerifyCode)
	api.GET("/events/:id/verification-stats", verifications.GetStats)
	api.GET("/events/:id/verifications", verifications.ListVerifications)
}

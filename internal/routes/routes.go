package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jutorials/backend/internal/handlers"
	"github.com/jutorials/backend/internal/middleware"
)

// SetupRoutes registers the admin API routes
func SetupRoutes(router *gin.Engine, authHandler *handlers.AuthHandler, adminHandler *handlers.AdminHandler, rateLimiter *middleware.RateLimiter) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.Middleware())
	{
		authGroup.POST("/login", authHandler.Login)
	}

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(rateLimiter.Middleware(), middleware.AuthMiddleware())
	{
		adminGroup.GET("/stats", adminHandler.Stats)
		adminGroup.GET("/accounts/:id", adminHandler.GetAccount)

		adminGroup.GET("/withdrawals", adminHandler.ListPendingWithdrawals)
		adminGroup.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
		adminGroup.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)

		adminGroup.GET("/payments", adminHandler.ListPendingPayments)
		adminGroup.POST("/payments/:id/approve", adminHandler.ApprovePayment)
		adminGroup.POST("/payments/:id/reject", adminHandler.RejectPayment)
	}
}

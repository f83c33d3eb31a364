package api

import (
	"net/http"

	"notification-delivery/internal/auth/delivery"
	authUsecase "notification-delivery/internal/auth/usecase"
	notificationDelivery "notification-delivery/internal/notification/delivery"
	"notification-delivery/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, tokens authUsecase.TokenService, alertHandler *notificationDelivery.AlertHandler) {
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Customer routes (protected)
		customers := api.Group("/customers")
		customers.Use(delivery.AuthMiddleware(tokens))
		{
			customers.POST("/:customerUUID/alerts", alertHandler.CreateAlert)
			customers.GET("/:customerUUID/devices", alertHandler.GetDevices)
		}

		// Device routes (protected)
		devices := api.Group("/devices")
		devices.Use(delivery.AuthMiddleware(tokens))
		{
			devices.POST("", alertHandler.RegisterDevice)
			devices.DELETE("/:platform/:registrationId", alertHandler.DeactivateDevice)
		}
	}
}

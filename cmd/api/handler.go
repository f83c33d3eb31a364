package api

import (
	authUsecase "notification-delivery/internal/auth/usecase"
	notificationDelivery "notification-delivery/internal/notification/delivery"
	"notification-delivery/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	tokens       authUsecase.TokenService
	alertHandler *notificationDelivery.AlertHandler
}

func NewHandler(tokens authUsecase.TokenService, alertHandler *notificationDelivery.AlertHandler) *Handler {
	return &Handler{
		tokens:       tokens,
		alertHandler: alertHandler,
	}
}

// Engine builds the gin engine with middleware and routes
func (h *Handler) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.GinMiddleware())

	// CORS middleware. Callers authenticate with a bearer header, never cookies,
	// so no origin is granted credentials.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.tokens, h.alertHandler)
	return r
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	return h.Engine().Run(addr)
}

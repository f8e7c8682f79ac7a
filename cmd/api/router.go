package api

import (
	"net/http"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/auth/delivery"
	authUsecase "github.com/carvalholeo/sistema-caronas-sub001/internal/auth/usecase"
	notificationDelivery "github.com/carvalholeo/sistema-caronas-sub001/internal/notification/delivery"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/config"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, notificationHandler *notificationDelivery.NotificationHandler, rec *metrics.Recorder, cfg *config.Config) {
	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(rec.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(delivery.AuthMiddleware(authUsecase))
		{
			notifications.POST("/subscriptions", notificationHandler.RegisterSubscription)
			notifications.GET("/subscriptions", notificationHandler.ListSubscriptions)
			notifications.PUT("/subscriptions/:device_id/preferences", notificationHandler.UpdatePreferences)
			notifications.DELETE("/subscriptions/:device_id", notificationHandler.DeleteSubscription)
			notifications.GET("/audit", notificationHandler.GetAudit)
		}

		// Service-to-service routes
		internal := api.Group("/internal")
		internal.Use(delivery.InternalKeyMiddleware(cfg.InternalAPIKey))
		{
			internal.POST("/notifications/send", notificationHandler.Send)
		}
	}
}

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	authUsecase "github.com/carvalholeo/sistema-caronas-sub001/internal/auth/usecase"
	notificationDelivery "github.com/carvalholeo/sistema-caronas-sub001/internal/notification/delivery"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/usecase"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/config"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/logging"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase         authUsecase.AuthUsecase
	notificationHandler *notificationDelivery.NotificationHandler
	metrics             *metrics.Recorder
	config              *config.Config
}

func NewHandler(authUc authUsecase.AuthUsecase, subscriptionUc usecase.SubscriptionUsecase, dispatcher usecase.Dispatcher, rec *metrics.Recorder, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:         authUc,
		notificationHandler: notificationDelivery.NewNotificationHandler(subscriptionUc, dispatcher),
		metrics:             rec,
		config:              cfg,
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Internal-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.authUsecase, h.notificationHandler, h.metrics, h.config)
	return r
}

// Start serves until ctx is canceled, then drains in-flight requests
func (h *Handler) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logging.Component("http")
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("remote_addr", c.ClientIP()).
			Msg("http request")
	}
}

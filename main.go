package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	api "github.com/carvalholeo/sistema-caronas-sub001/cmd/api"
	authUsecase "github.com/carvalholeo/sistema-caronas-sub001/internal/auth/usecase"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/policy"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/provider"
	notifRepo "github.com/carvalholeo/sistema-caronas-sub001/internal/notification/repository"
	notifUsecase "github.com/carvalholeo/sistema-caronas-sub001/internal/notification/usecase"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/clock"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/config"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/database"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/fcm"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/logging"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/metrics"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/ses"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	log := logging.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate database schemas
	if err := notifRepo.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Initialize repositories (dependency injection)
	subscriptionRepo := notifRepo.NewSubscriptionRepository(db)
	auditRepo := notifRepo.NewAuditRepository(db)
	suppressionRepo := notifRepo.NewSuppressionRepository(db)

	clk := clock.Real{}
	rec := metrics.New()

	// Channel providers; a platform without one is skipped at dispatch
	var registry provider.Registry
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize FCM client, push notifications disabled")
		} else {
			registry.Web = provider.NewPushProvider(fcmClient, subscriptionRepo, fcm.TargetWeb)
			registry.Android = provider.NewPushProvider(fcmClient, subscriptionRepo, fcm.TargetAndroid)
			registry.IOS = provider.NewPushProvider(fcmClient, subscriptionRepo, fcm.TargetAPNS)
		}
	} else {
		log.Warn().Msg("no Firebase credentials configured, push notifications disabled")
	}

	if cfg.SESSender != "" {
		mailer, err := ses.NewMailer(ctx, cfg.AWSRegion, cfg.SESSender)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize SES mailer, email disabled")
		} else {
			registry.Email = provider.NewEmailProvider(mailer)
		}
	} else {
		log.Warn().Msg("SES_SENDER not configured, email disabled")
	}

	// Initialize use cases (dependency injection)
	dispatcher := notifUsecase.NewDispatcher(
		subscriptionRepo,
		notifUsecase.NewAuditLog(auditRepo, clk),
		suppressionRepo,
		policy.New(clk),
		registry,
		rec,
		clk,
		notifUsecase.DispatchConfig{Workers: cfg.DispatchWorkers, SendTimeout: cfg.DispatchSendTimeout},
	)
	subscriptionUc := notifUsecase.NewSubscriptionUsecase(subscriptionRepo, auditRepo)
	authUc := authUsecase.NewAuthUsecase(cfg.JWTSecret)

	// Initialize Notification intake (Pub/Sub)
	// Only start if project ID is configured
	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		intake, err := notification.NewService(ctx, cfg.GoogleProjectID, topicName, cfg.GooglePubSubSubscription, cfg.GoogleCredentials, dispatcher, clk)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize notification intake")
		} else {
			defer intake.Close()
			go func() {
				if err := intake.Start(ctx); err != nil {
					log.Error().Err(err).Msg("notification intake stopped")
				}
			}()
		}
	} else {
		log.Warn().Msg("GOOGLE_PROJECT_ID not configured, Pub/Sub intake disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(authUc, subscriptionUc, dispatcher, rec, cfg)

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := handler.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
	log.Info().Msg("server stopped")
}

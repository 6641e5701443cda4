package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/cache"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/db"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/events"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/export"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/search"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service/payment"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/storage"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg       *config.Config
	DB        *sqlx.DB
	Redis     *cache.Redis // nil without REDIS_URL
	Storage   storage.Storage
	Publisher events.Publisher
	meili     *search.Meili

	GoalRepository          repository.GoalRepository
	TranscriptionRepository repository.TranscriptionRepository

	AuthService          *service.AuthService
	UserService          *service.UserService
	EmailService         *service.EmailService
	FileService          *service.FileService
	SubscriptionService  *service.SubscriptionService
	PaymentService       payment.Provider // nil when payments are not configured
	GoalService          *service.GoalService
	TranscriptionService *service.TranscriptionService
	ActivityService      *service.ActivityService
	TrackingService      *service.TrackingService
	QuoteService         *service.QuoteService
	SearchService        *search.Service
	ExportService        *export.Service
	ReplitOAuth          *service.ReplitOAuth  // nil unless REPLIT_CLIENT_ID is set
	FirebaseAuth         *service.FirebaseAuth // nil unless FIREBASE_API_KEY is set
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{Cfg: cfg, DB: database}
	err = a.init()
	if err != nil {
		closeErr := a.Close()
		if closeErr != nil {
			slog.Error("failed to close app after init error", "error", closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg := a.Cfg
	database := a.DB

	// Repositories
	userRepository := repository.NewUserRepository(database)
	fileRepository := repository.NewFileRepository(database)
	subscriptionRepository := repository.NewSubscriptionRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	transcriptionRepository := repository.NewTranscriptionRepository(database)
	activityRepository := repository.NewActivityRepository(database)
	trackingRepository := repository.NewTrackingRepository(database)
	quoteRepository := repository.NewQuoteRepository(database)
	a.GoalRepository = goalRepository
	a.TranscriptionRepository = transcriptionRepository

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = fileStorage

	// Optional infrastructure
	if cfg.RedisURL != "" {
		a.Redis, err = cache.NewRedis(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		slog.Info("redis enabled")
	}

	a.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		a.Publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaActivityTopic)
		slog.Info("kafka activity events enabled", "brokers", strings.Join(cfg.KafkaBrokers, ","), "topic", cfg.KafkaActivityTopic)
	}

	var engine search.Engine
	if cfg.MeiliURL != "" {
		a.meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
		engine = a.meili
	}
	a.SearchService = search.NewService(engine, search.NewSQL(goalRepository, transcriptionRepository))

	// Services
	a.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	a.ActivityService = service.NewActivityService(activityRepository, a.Publisher)
	a.SubscriptionService = service.NewSubscriptionService(subscriptionRepository)
	a.AuthService = service.NewAuthService(
		userRepository,
		a.SubscriptionService,
		a.EmailService,
		a.ActivityService,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.IsProduction(),
	)
	a.UserService = service.NewUserService(userRepository)
	a.GoalService = service.NewGoalService(goalRepository, transcriptionRepository, a.ActivityService, a.SearchService)
	a.TranscriptionService = service.NewTranscriptionService(transcriptionRepository, goalRepository, a.ActivityService, a.SearchService)
	a.TrackingService = service.NewTrackingService(trackingRepository, goalRepository, a.ActivityService)
	a.QuoteService = service.NewQuoteService(quoteRepository, a.Redis)
	a.FileService = service.NewFileService(fileRepository, goalRepository, transcriptionRepository, fileStorage, a.ActivityService)
	a.ExportService = export.NewService(export.Sources{
		Goals:          goalRepository,
		Transcriptions: transcriptionRepository,
		Tracking:       trackingRepository,
		Users:          userRepository,
		Files:          fileRepository,
	}, fileStorage, a.ActivityService, export.Options{
		AppURL:     cfg.AppURL,
		ChromePath: cfg.ChromePath,
		Timeout:    cfg.ExportTimeout,
	})

	if cfg.ReplitEnabled() {
		a.ReplitOAuth = service.NewReplitOAuth(
			cfg.ReplitIssuerURL,
			cfg.ReplitClientID,
			cfg.ReplitClientSecret,
			strings.TrimRight(cfg.AppURL, "/")+"/api/callback",
		)
	}
	if cfg.FirebaseEnabled() {
		a.FirebaseAuth = service.NewFirebaseAuth(cfg.FirebaseAPIKey)
	}

	// Initialize payment provider based on config
	a.PaymentService, err = payment.NewProvider(cfg, a.SubscriptionService)
	if errors.Is(err, payment.ErrNotConfigured) {
		slog.Warn("payments disabled", "provider", cfg.PaymentProvider, "reason", err)
		a.PaymentService = nil
	} else if err != nil {
		return fmt.Errorf("failed to initialize payment provider: %w", err)
	}

	return nil
}

func (a *App) Close() error {
	if a.meili != nil {
		a.meili.Close()
	}

	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

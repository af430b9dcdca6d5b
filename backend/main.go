package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"treasurehunt/backend/accounts"
	"treasurehunt/backend/config"
	"treasurehunt/backend/metrics"
	"treasurehunt/backend/middleware"
	"treasurehunt/backend/progress"
	"treasurehunt/backend/questions"
	"treasurehunt/backend/remote"
	"treasurehunt/backend/routes"
	"treasurehunt/backend/service"
	"treasurehunt/backend/sessions"
	"treasurehunt/backend/store"
	"treasurehunt/backend/utils"
)

// @title Treasure Hunt API
// @version 1.0
// @description Riddle and security-key treasure hunt with progress storage and an admin dashboard.
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat})

	// Initialize user storage
	repo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Fatalf("Error initializing storage: %v", err)
	}
	hasher := accounts.Hasher{Legacy: cfg.PasswordScheme == config.PasswordSHA256}
	accountManager := accounts.NewManager(repo, hasher, logger)

	// Question bank
	bank := questions.Default()
	if err := questions.LoadAnswers(bank, cfg.AnswersFile, logger); err != nil {
		logger.Printf("Ignoring answers file: %v", err)
	}
	source := &questions.Source{Local: bank, Logger: logger}

	m := metrics.New()

	// Progress storage: remote first when configured, the user file always last
	var (
		client        *remote.Client
		remoteBackend *progress.RemoteBackend
		backends      []progress.Backend
	)
	if cfg.RemoteEnabled() {
		client = remote.NewClient(cfg.RemoteAPIURL, cfg.RemoteTimeout)
		remoteBackend = progress.NewRemoteBackend(client)
		backends = append(backends, remoteBackend)
		source.Remote = client
		logger.Printf("Remote API enabled at %s", cfg.RemoteAPIURL)
	}
	backends = append(backends, progress.NewLocalBackend(accountManager))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameService := service.NewGameService(ctx, service.Deps{
		Accounts: accountManager,
		Storage:  progress.NewFallbackBackend(logger, m, backends...),
		Remote:   remoteBackend,
		Client:   client,
		Sessions: sessions.NewRegistry(cfg.SessionTTL, m),
		Source:   source,
		Metrics:  m,
		Logger:   logger,
	})
	logger.Printf("Loaded %d questions from %s", gameService.Engine().Total(), gameService.QuestionSource())

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Treasure Hunt",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Remote-Token",
	}))
	app.Use(middleware.LoggingMiddleware(logger))
	app.Use(middleware.MetricsMiddleware(m))

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		Cfg:      cfg,
		Game:     gameService,
		Accounts: accountManager,
		Client:   client,
		Metrics:  m,
		Logger:   logger,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Printf("Shutdown: %v", err)
		}
	}()

	// Start server
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
	logger.Println("Server stopped")
}

func openRepository(cfg *config.Config, logger *log.Logger) (store.Repository, error) {
	if cfg.StorageDriver == config.StoragePostgres {
		db, err := utils.InitDB(cfg)
		if err != nil {
			return nil, err
		}
		return store.NewGormRepository(db)
	}
	return store.NewJSONRepository(cfg.UsersFile, logger)
}

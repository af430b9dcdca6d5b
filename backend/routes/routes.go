package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"treasurehunt/backend/accounts"
	"treasurehunt/backend/config"
	"treasurehunt/backend/controllers"
	_ "treasurehunt/backend/docs"
	"treasurehunt/backend/metrics"
	"treasurehunt/backend/middleware"
	"treasurehunt/backend/remote"
	"treasurehunt/backend/service"
)

// Deps is everything the HTTP layer needs. Client is nil when no remote API
// is configured.
type Deps struct {
	Cfg      *config.Config
	Game     *service.GameService
	Accounts *accounts.Manager
	Client   *remote.Client
	Metrics  *metrics.Metrics
	Logger   *log.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	// Probes
	healthController := controllers.NewHealthController(d.Client, d.Game)
	app.Get("/healthz", healthController.Health)
	app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(d.Cfg)
	playerMiddleware := middleware.PlayerMiddleware()
	adminMiddleware := middleware.AdminMiddleware(d.Cfg)
	loginLimiter := middleware.LoginLimiter(d.Cfg.LoginRateLimit)

	// Auth routes
	authController := controllers.NewAuthController(d.Game, d.Cfg, d.Logger)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", loginLimiter, authController.Login)
	app.Post("/api/auth/logout", authMiddleware, playerMiddleware, authController.Logout)
	app.Post("/api/admin/login", loginLimiter, authController.AdminLogin)

	// Game routes
	gameController := controllers.NewGameController(d.Game, d.Logger)
	gameGroup := app.Group("/api/game", authMiddleware, playerMiddleware)
	gameGroup.Get("/state", gameController.GetState)
	gameGroup.Post("/answer", gameController.SubmitAnswer)
	gameGroup.Post("/hint", gameController.RequestHint)
	gameGroup.Post("/key", gameController.SubmitKey)
	gameGroup.Post("/security-hint", gameController.RequestSecurityHint)
	gameGroup.Post("/save", gameController.Save)
	gameGroup.Delete("/progress", gameController.ResetProgress)

	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)

	// Admin dashboard
	analyticsController := controllers.NewAnalyticsController(d.Accounts, d.Logger)
	admin.Get("/stats", analyticsController.GetStats)
	admin.Get("/users", analyticsController.GetUsers)
	admin.Get("/leaderboard", analyticsController.GetLeaderboard)
	admin.Get("/levels", analyticsController.GetLevelDistribution)

	// Admin account management
	userController := controllers.NewUserController(d.Accounts, d.Game, d.Logger)
	admin.Post("/users", userController.CreateUser)
	admin.Get("/users/:username", userController.GetUser)
	admin.Put("/users/:username", userController.UpdateUser)
	admin.Post("/users/:username/disable", userController.DisableUser)
	admin.Post("/users/:username/activate", userController.ActivateUser)
	admin.Delete("/users/:username", userController.DeleteUser)

	// Question bank, proxied to the remote API
	questionsController := controllers.NewQuestionsController(d.Client, d.Game, d.Logger)
	admin.Post("/questions/login", questionsController.Login)
	admin.Get("/questions", questionsController.ListQuestions)
	admin.Post("/questions", questionsController.CreateQuestion)
	admin.Put("/questions/:level", questionsController.UpdateQuestion)
	admin.Delete("/questions/:level", questionsController.DeleteQuestion)

	progressController := controllers.NewProgressController(d.Client, d.Logger)
	admin.Get("/progress", progressController.GetAllProgress)
}

package routes

import (
	"log"

	"quizhub/backend/config"
	"quizhub/backend/controllers"
	"quizhub/backend/middleware"
	"quizhub/backend/relay"
	"quizhub/backend/sessionstore"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, store *sessionstore.Store, rc *relay.Client, logger *log.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)
	app.Get("/api/user/activity", authMiddleware, userController.GetUserActivity)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress", authMiddleware, progressController.GetProgress)
	app.Get("/api/progress/overview", authMiddleware, progressController.GetProgressOverview)

	// Overview routes
	overviewController := controllers.NewOverviewController(db, cfg)
	app.Get("/api/overview", authMiddleware, overviewController.GetUserOverview)
	app.Get("/api/overview/quizzes", authMiddleware, overviewController.SearchQuizzes)

	// Quiz catalog routes
	quizzesController := controllers.NewQuizzesController(db, cfg)
	commentsController := controllers.NewCommentsController(db, cfg)
	analyticsController := controllers.NewAnalyticsController(db, cfg)
	quizzes := app.Group("/api/quizzes", authMiddleware)
	quizzes.Get("/", quizzesController.GetUserQuizzes)
	quizzes.Get("/available", quizzesController.GetAvailableQuizzes)
	quizzes.Get("/:id", quizzesController.GetQuizDetails)
	quizzes.Get("/:id/result", quizzesController.GetQuizResult)
	quizzes.Get("/:id/comments", commentsController.GetQuizComments)
	quizzes.Post("/:id/comments", commentsController.AddQuizComment)
	quizzes.Get("/:id/analytics", analyticsController.GetQuizAnalytics)

	// Live attempt routes
	sessionsController := controllers.NewSessionsController(db, cfg, store, rc, logger)
	quizzes.Post("/:id/sessions", sessionsController.StartSession)
	sessions := app.Group("/api/sessions", authMiddleware)
	sessions.Get("/:token", sessionsController.GetSession)
	sessions.Post("/:token/answer", sessionsController.SubmitAnswer)
	sessions.Post("/:token/hint", sessionsController.RequestHint)
	sessions.Post("/:token/advance", sessionsController.Advance)
	sessions.Post("/:token/finish", sessionsController.Finish)

	// Analytics routes
	app.Get("/api/analytics/progress", authMiddleware, analyticsController.GetUserProgressAnalytics)
	app.Get("/api/analytics/platform", authMiddleware, adminMiddleware, analyticsController.GetPlatformAnalytics)

	// Admin routes for quizzes
	adminQuizzes := app.Group("/api/admin/quizzes", authMiddleware, adminMiddleware)
	adminQuizzes.Post("/", quizzesController.CreateQuiz)
	adminQuizzes.Put("/:id/description", quizzesController.UpdateQuizDescription)
	adminQuizzes.Post("/:id/questions", quizzesController.AddQuestion)
	adminQuizzes.Put("/:id/questions/:questionId", quizzesController.UpdateQuestion)
	adminQuizzes.Put("/:id/settings", quizzesController.UpdateQuizSettings)
}

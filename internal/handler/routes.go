package handler

import (
	"doc-quiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API under /api and the health check at the root.
func RegisterRoutes(app *fiber.App, quiz *QuizHandler, sessions *SessionHandler, health *HealthHandler) {
	app.Get("/health", health.Health)

	api := app.Group("/api")

	api.Post("/quiz", quiz.GenerateQuiz)
	api.Post("/quiz/ask", quiz.AskFollowUp)

	vm := middleware.NewValidationMiddleware()
	api.Post("/sessions", sessions.CreateSession)
	session := api.Group("/sessions/:id", vm.ValidateSessionID())
	session.Get("", sessions.GetSession)
	session.Delete("", sessions.DeleteSession)
	session.Post("/document", sessions.SubmitDocument)
	session.Post("/messages", sessions.Ask)
	session.Get("/reveal", sessions.StreamReveal)
	session.Post("/reveal/skip", sessions.SkipReveal)
	session.Get("/quiz/download", sessions.DownloadQuiz)
}

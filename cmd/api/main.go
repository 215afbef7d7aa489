// @title Doc Quiz API
// @version 1.0
// @description Turns uploaded documents into quizzes and answers follow-up questions about them.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "doc-quiz/cmd/api/docs"
	adaptercache "doc-quiz/internal/adapter/cache"
	"doc-quiz/internal/adapter/llm"
	"doc-quiz/internal/cache"
	"doc-quiz/internal/config"
	"doc-quiz/internal/domain"
	"doc-quiz/internal/extractor"
	"doc-quiz/internal/handler"
	"doc-quiz/internal/logger"
	"doc-quiz/internal/middleware"
	"doc-quiz/internal/presenter"
	"doc-quiz/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// multipart framing on top of the document itself
const bodyOverhead = 1024 * 1024

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != llm.ProviderOllama && cfg.LLM.Provider != llm.ProviderVertex {
		appLogger.Warn("No LLM API key configured; generation requests will fail until one is set",
			zap.String("provider", cfg.LLM.Provider))
	}
	appLogger.Info("LLM client initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Duration("timeout", cfg.LLM.Timeout))

	var generator domain.Generator = llmClient
	var replyCache domain.Cache
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		replyCache = adaptercache.NewRedisCache(redisClient)
		generator = llm.NewCachedGenerator(llmClient, replyCache, cfg.Cache.TTL, cfg.LLM.Provider, cfg.LLM.Model)
		appLogger.Info("LLM reply cache enabled", zap.String("redis", cfg.Redis.Address), zap.Duration("ttl", cfg.Cache.TTL))
	}

	docExtractor := extractor.New()
	appLogger.Info("Document extractor initialized", zap.Strings("media_types", docExtractor.SupportedMediaTypes()))

	quizService := service.NewQuizService(docExtractor, generator)
	sessions := service.NewSessionManager(quizService, presenter.Every(cfg.Reveal.TickInterval), cfg.Session.IdleTTL)
	go sessions.Run(ctx, cfg.Session.CleanupInterval)

	quizHandler := handler.NewQuizHandler(quizService, int64(cfg.Upload.MaxBytes))
	sessionHandler := handler.NewSessionHandler(sessions, int64(cfg.Upload.MaxBytes))
	healthHandler := handler.NewHealthHandler(replyCache)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Upload.MaxBytes + bodyOverhead,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID", MaxAge: 300}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(app, quizHandler, sessionHandler, healthHandler)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	stop()
	sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-poem-api/internal/config"
	"github.com/noah-isme/gema-poem-api/internal/database"
	"github.com/noah-isme/gema-poem-api/internal/handler"
	"github.com/noah-isme/gema-poem-api/internal/middleware"
	"github.com/noah-isme/gema-poem-api/internal/models"
	"github.com/noah-isme/gema-poem-api/internal/repository"
	"github.com/noah-isme/gema-poem-api/internal/router"
	"github.com/noah-isme/gema-poem-api/internal/service"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Poem{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, poem list cache disabled")
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, poem events limited to redis")
		} else {
			defer natsConn.Drain()
		}
	}

	clients := providerClients(cfg, logger)
	gateway := ai.NewGateway(ai.GatewayConfig{
		DefaultProvider: cfg.AIProvider,
		Timeout:         cfg.AITimeout,
	}, logger, clients...)

	logger.Info().
		Strs("providers", gateway.Router().Providers()).
		Str("default_provider", gateway.Router().Resolve("")).
		Dur("timeout", cfg.AITimeout).
		Msg("evaluation gateway ready")

	validate := validator.New(validator.WithRequiredStructEnabled())

	poemRepo := repository.NewPoemRepository(db)
	events := service.NewPoemEventPublisher(redisClient, natsConn, cfg.EventChannel, logger)

	evaluationService := service.NewEvaluationService(gateway, gateway.Router(), validate, logger)
	poemService := service.NewPoemService(poemRepo, gateway, validate, service.PoemServiceOptions{
		Resolver: gateway.Router(),
		Events:   events,
		Cache:    redisClient,
		CacheTTL: cfg.PoemCacheTTL,
	}, logger)

	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)
	poemHandler := handler.NewPoemHandler(poemService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		// Provider calls may take up to the configured timeout.
		ReadTimeout:  cfg.AITimeout + 10*time.Second,
		WriteTimeout: cfg.AITimeout + 10*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: evaluationHandler,
		PoemHandler:       poemHandler,
		Providers:         gateway.Router(),
		AIRateLimit:       router.DefaultAIRateLimit(cfg),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// providerClients builds a client for every provider with credentials.
func providerClients(cfg config.Config, logger zerolog.Logger) []ai.ProviderClient {
	clients := make([]ai.ProviderClient, 0, 2)

	if cfg.GeminiAPIKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		gemini, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			BaseURL:         cfg.GeminiBaseURL,
			SafetyThreshold: cfg.GeminiSafetyLevel,
			Logger:          logger,
		})
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("gemini provider disabled")
		} else {
			clients = append(clients, gemini)
		}
	}

	if cfg.OpenAIAPIKey != "" {
		openai, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Logger:  logger,
		})
		if err != nil {
			logger.Error().Err(err).Msg("gpt provider disabled")
		} else {
			clients = append(clients, openai)
		}
	}

	return clients
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

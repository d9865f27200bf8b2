package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/alert"
	"github.com/sipca/backend/internal/api/handlers"
	"github.com/sipca/backend/internal/batch"
	"github.com/sipca/backend/internal/cache/redis"
	"github.com/sipca/backend/internal/chat"
	"github.com/sipca/backend/internal/metrics"
	"github.com/sipca/backend/internal/middleware/ratelimit"
	"github.com/sipca/backend/internal/middleware/security"
	"github.com/sipca/backend/internal/middleware/validation"
	"github.com/sipca/backend/internal/model"
	"github.com/sipca/backend/internal/notify/telegram"
	"github.com/sipca/backend/internal/predict"
	"github.com/sipca/backend/internal/preprocess"
	"github.com/sipca/backend/internal/registry"
	"github.com/sipca/backend/internal/storage/sqlite"
	"github.com/sipca/backend/pkg/config"
	appLogger "github.com/sipca/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting SIPCA water quality API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	artifacts, err := model.Load(cfg.Artifacts.ScalerPath, cfg.Artifacts.ForestPath)
	if err != nil {
		appLogger.Fatal("Failed to load model artifacts", zap.Error(err))
	}

	normalizer, err := preprocess.NewNormalizer(artifacts.Scaler)
	if err != nil {
		appLogger.Fatal("Failed to build normalizer", zap.Error(err))
	}

	classifier := predict.NewClassifier(artifacts.Forest, cfg.Predictor.Threshold)
	runner := batch.NewRunner(normalizer, classifier, cfg.Batch.Workers)

	var store registry.Store
	switch cfg.Registry.Store {
	case "memory":
		store = registry.NewMemoryStore()
	default:
		store = registry.NewSQLiteStore(sqliteClient)
	}

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamHandler := handlers.NewStreamHandler()

	policy := alert.Policy{
		PHSafeMin: cfg.Alerting.PHSafeMin,
		PHSafeMax: cfg.Alerting.PHSafeMax,
	}

	var dispatcher *alert.Dispatcher
	if cfg.Telegram.Token != "" {
		tgClient := telegram.NewClient(cfg.Telegram.Token)
		dispatcher = alert.NewDispatcher(policy, tgClient,
			alert.WithAlertLog(sqliteClient),
			alert.WithEventSink(streamHandler.Publish),
			alert.WithSendTimeout(time.Duration(cfg.Alerting.SendTimeout)*time.Second),
			alert.WithRetryable(telegram.IsRetryable),
		)

		listener := telegram.NewListener(tgClient, store, cfg.Telegram.PollTimeout)
		go listener.Run(ctx)
	} else {
		appLogger.Warn("Telegram token not configured, alerting disabled")
	}

	var assistant *chat.Assistant
	if cfg.Chat.Enabled && cfg.Chat.APIKey != "" {
		var opts []chat.Option
		if cache != nil {
			opts = append(opts, chat.WithCache(cache))
		}
		if len(cfg.Chat.GuidelineURLs) > 0 {
			fetchCtx, fetchCancel := context.WithTimeout(ctx, time.Minute)
			reference := chat.NewGuidelineFetcher().FetchAll(fetchCtx, cfg.Chat.GuidelineURLs)
			fetchCancel()
			if reference != "" {
				opts = append(opts, chat.WithReferenceContext(reference))
			}
		}
		assistant, err = chat.NewAssistant(chat.Config{
			Provider:    cfg.Chat.Provider,
			APIKey:      cfg.Chat.APIKey,
			Model:       cfg.Chat.Model,
			Temperature: cfg.Chat.Temperature,
			MaxTokens:   cfg.Chat.MaxTokens,
			MaxHistory:  cfg.Chat.MaxHistory,
		}, opts...)
		if err != nil {
			appLogger.Fatal("Failed to create chat assistant", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{Logger: appLogger.GetLogger()})
	defer limiter.Stop()
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{Logger: appLogger.GetLogger()}))

	predictHandler := handlers.NewPredictHandler(normalizer, classifier, dispatcher, store, sqliteClient, cache)
	batchHandler := handlers.NewBatchHandler(runner, dispatcher, store, streamHandler, cfg.Batch.MaxRows)
	subscriberHandler := handlers.NewSubscriberHandler(store)
	chatHandler := handlers.NewChatHandler(assistant)

	api := app.Group("/api/v1")

	api.Post("/predict", predictHandler.HandlePredict)
	api.Get("/predict/history", predictHandler.GetHistory)
	api.Post("/predict/batch", batchHandler.HandleBatch)

	api.Get("/subscribers", subscriberHandler.ListSubscribers)
	api.Delete("/subscribers/:identity", subscriberHandler.Unsubscribe)

	api.Post("/chat", chatHandler.HandleChat)
	api.Delete("/chat/:id", chatHandler.ResetConversation)

	api.Get("/alerts/stream", websocket.New(streamHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	cancel()
	app.Shutdown()
	appLogger.Info("Server stopped")
}

package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"auracoach/internal/config"
	"auracoach/internal/database"
	"auracoach/internal/handlers"
	"auracoach/internal/logging"
	"auracoach/internal/middleware"
	"auracoach/internal/preflight"
	"auracoach/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting AuraCoach Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Language model provider
	providersConfig, err := config.LoadProviders(cfg.ProvidersPath)
	if err != nil {
		log.Fatalf("❌ Failed to load providers: %v", err)
	}
	provider := providersConfig.DefaultProvider()
	if provider == nil {
		log.Fatal("❌ No enabled provider in providers config")
	}
	llm := services.NewOpenAIClient(*provider, cfg.LLMTimeout, cfg.LLMMaxTokens, cfg.LLMRatePerSec, cfg.LLMBurst)
	log.Printf("✅ Language model provider: %s (%s)", provider.Name, provider.Model)

	// Hot-reload providers when the file changes on disk
	go watchProviders(cfg.ProvidersPath, llm)

	// Stores: SQLite when a path is configured, in-memory otherwise
	var profiles services.ProfileStore
	var turns services.ConversationStore
	var db *database.DB
	if cfg.DatabasePath != "" {
		db, err = database.New(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("❌ Failed to open database: %v", err)
		}
		defer db.Close()
		if err := db.Initialize(); err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		stores := services.NewSQLStores(db)
		profiles, turns = stores, stores
	} else {
		log.Println("⚠️  DATABASE_PATH empty, using in-memory stores")
		stores := services.NewMemoryStores()
		profiles, turns = stores, stores
	}

	// Pre-flight checks: refuse to start half-broken
	checks := preflight.NewChecker(db, providersConfig)
	if preflight.HasFailures(checks.RunAll()) {
		log.Fatal("❌ Pre-flight checks failed, aborting startup")
	}

	// Response cache: Redis when configured, in-process otherwise
	var responseCache services.ResponseCache
	if cfg.RedisURL != "" {
		redisClient, err := services.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		responseCache = services.NewRedisResponseCache(redisClient, cfg.ResponseCacheTTL)
	} else {
		responseCache = services.NewMemoryResponseCache(cfg.ResponseCacheTTL)
		log.Println("✅ In-process response cache initialized")
	}

	// Metrics
	services.InitMetrics()

	// Core pipeline services
	extractor := services.NewExtractionService()
	intake := services.NewIntakeService(profiles, turns, extractor, llm, responseCache, cfg.LLMMaxTokens)
	suggestions := services.NewSuggestionService(llm, profiles)

	scheduler, err := services.NewSuggestionScheduler(suggestions, turns, cfg.SuggestionInterval, cfg.SuggestionWindow)
	if err != nil {
		log.Fatalf("❌ Failed to create suggestion scheduler: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start suggestion scheduler: %v", err)
	}
	defer scheduler.Stop()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "AuraCoach",
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(fiberlogger.New())

	rateLimits := middleware.LoadRateLimitConfig()
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimits))

	prometheus := fiberprometheus.New("auracoach")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	chatHandler := handlers.NewChatHandler(intake)
	suggestionHandler := handlers.NewSuggestionHandler(suggestions, scheduler, turns)
	healthHandler := handlers.NewHealthHandler()

	app.Get("/health", healthHandler.Handle)
	app.Post("/api/chat", middleware.ChatRateLimiter(rateLimits), chatHandler.Handle)
	app.Get("/api/suggestions/:userID", suggestionHandler.Handle)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down...")
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}

// watchProviders hot-reloads the providers file so model or key changes
// don't require a restart.
func watchProviders(path string, llm *services.OpenAIClient) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️ Failed to create providers watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Printf("⚠️ Failed to watch providers dir: %v", err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			providersConfig, err := config.LoadProviders(path)
			if err != nil {
				log.Printf("⚠️ Providers reload failed: %v", err)
				continue
			}
			if provider := providersConfig.DefaultProvider(); provider != nil {
				llm.SetProvider(*provider)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️ Providers watcher error: %v", err)
		}
	}
}

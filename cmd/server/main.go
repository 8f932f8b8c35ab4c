package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/handlers"
	"taskflow/internal/jobs"
	"taskflow/internal/logging"
	"taskflow/internal/middleware"
	"taskflow/internal/preflight"
	"taskflow/internal/services"
	"taskflow/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize structured logging (JSON in production, text in dev)
	slogger := logging.Init(cfg.Environment)

	log.Printf("🚀 Starting Taskflow Server (Port: %s, Environment: %s)", cfg.Port, cfg.Environment)

	// Persistence: MongoDB when configured, in-memory stores otherwise
	var mongoDB *database.MongoDB
	var stores *services.Stores
	if cfg.MongoURI != "" {
		log.Println("🔗 Connecting to MongoDB...")
		var err error
		mongoDB, err = database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Close(context.Background())

		if err := mongoDB.Initialize(context.Background()); err != nil {
			log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
		}
		stores = services.NewMongoStores(mongoDB)
		log.Println("✅ MongoDB connected successfully")
	} else {
		stores = services.NewMemoryStores()
		log.Println("⚠️  MONGODB_URI not set - using in-memory stores")
	}

	// Pre-flight checks
	var dbPinger preflight.Pinger
	if mongoDB != nil {
		dbPinger = mongoDB
	}
	if results := preflight.NewChecker(cfg, dbPinger).RunAll(); preflight.HasFailures(results) {
		log.Fatal("❌ Pre-flight checks failed, refusing to start")
	}

	// Core services
	core := services.NewCore(stores, cfg.UserCacheTTL, slogger)
	core.Notifications.SetFrontendURL(cfg.FrontendURL)
	core.Notifications.SetPageSizes(int64(cfg.NotificationPageSize), int64(cfg.NotificationMaxPageSize))
	core.Activity.SetPageSize(int64(cfg.ActivityPageSize))

	// Realtime push (optional)
	var publisher *services.RedisPublisher
	if cfg.RedisURL != "" {
		var err error
		publisher, err = services.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Failed to connect to Redis: %v (realtime push disabled)", err)
		} else {
			core.Notifications.SetPublisher(publisher)
			log.Println("✅ Redis publisher connected (realtime push enabled)")
		}
	} else {
		log.Println("⚠️  REDIS_URL not set - realtime push disabled")
	}

	// Invitation e-mail
	if cfg.SMTPConfigured() {
		core.Notifications.SetMailer(services.NewSMTPMailer(services.SMTPConfig{
			Host:          cfg.SMTPHost,
			Port:          cfg.SMTPPort,
			Username:      cfg.SMTPUser,
			Password:      cfg.SMTPPass,
			From:          cfg.SMTPFrom,
			RatePerMinute: cfg.MailRatePerMinute,
		}))
		log.Printf("✅ SMTP mailer configured (%s:%d)", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		log.Println("⚠️  SMTP not configured - invitation e-mails are logged only")
	}

	// Identity
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		var err error
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, cfg.JWTAccessExpiry)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT authentication enabled")
	} else {
		log.Println("⚠️  JWT_SECRET not set - authentication bypassed (development mode)")
	}

	// Background jobs
	jobScheduler := jobs.NewJobScheduler()
	sweepJob, err := jobs.NewOrphanSweepJob(core.Projects, cfg.OrphanSweepCron)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := jobScheduler.Register("orphan_task_sweep", sweepJob); err != nil {
		log.Fatalf("❌ Failed to register job: %v", err)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Taskflow v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("taskflow")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Fiber's CORS middleware does not allow AllowCredentials with wildcard origins
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	rateLimitConfig := middleware.NewRateLimitConfig(cfg.RateLimit.GlobalAPI, cfg.RateLimit.Mutations, cfg.Environment == "development")
	log.Printf("🛡️  [RATE-LIMIT] Global=%d/min, Mutations=%d/min", rateLimitConfig.GlobalAPIMax, rateLimitConfig.MutationMax)

	// Health (unauthenticated)
	healthHandler := handlers.NewHealthHandler(jobScheduler)
	if mongoDB != nil {
		healthHandler.AddDependency("mongodb", mongoDB)
	}
	if publisher != nil {
		healthHandler.AddDependency("redis", publisher)
	}
	app.Get("/health", healthHandler.Handle)

	// Authenticated API
	api := app.Group("/api",
		middleware.GlobalAPIRateLimiter(rateLimitConfig),
		middleware.LocalAuthMiddleware(jwtAuth),
		middleware.IdentitySync(core.Users),
		middleware.MutationRateLimiter(rateLimitConfig),
	)
	handlers.NewAPI(core).Register(api)

	// Start job scheduler
	if err := jobScheduler.Start(); err != nil {
		log.Printf("⚠️  Failed to start job scheduler: %v", err)
	} else {
		log.Println("✅ Background job scheduler started")
	}

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down server...")

		// Stop background jobs
		jobScheduler.Stop()

		if publisher != nil {
			if err := publisher.Close(); err != nil {
				log.Printf("⚠️ Error closing Redis: %v", err)
			}
		}

		// Shutdown Fiber
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"ticketing-backend/config"
	"ticketing-backend/handlers"
	"ticketing-backend/logger"
	"ticketing-backend/store"
	"ticketing-backend/verification"
)

func connectToDatabase(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Log.Info("[main] Successfully connected to the database")
	return pool, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using default environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx := context.Background()

	var st store.Store
	if cfg.DatabaseURL == config.MemoryDatabaseURL {
		logger.Log.Warn("[main] DATABASE_URL=memory, data will not survive a restart")
		st = store.NewMemoryStore()
	} else {
		pool, err := connectToDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v\n", err)
		}
		defer pool.Close()

		if err := store.Migrate(ctx, pool); err != nil {
			log.Fatalf("Database migration failed: %v\n", err)
		}
		st = store.NewPostgresStore(pool)
	}

	engine := verification.NewEngine(st, verification.Config{
		Policy:   cfg.Policy,
		MaxMarks: cfg.MaxMarks,
	})
	aggregator := verification.NewAggregator(st, cfg.StatsLocation, cfg.RecentLimit)
	logger.Log.Info("[main] verification engine ready", "policy", engine.Policy(), "max_marks", cfg.MaxMarks)

	// Create handlers
	userHandler := handlers.NewUserHandler(st)
	eventHandler := handlers.NewEventHandler(st)
	verificationHandler := handlers.NewVerificationHandler(st, engine, aggregator)

	// Setup Gin
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-User-ID"}
	router.Use(cors.New(corsConfig))

	// API routes
	api := router.Group("/api/v1")
	api.Use(handlers.Authenticate(cfg.JWTSecret))
	handlers.RegisterRoutes(api, userHandler, eventHandler, verificationHandler)

	api.GET("/test-db", func(c *gin.Context) {
		if err := st.Ping(c); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection failed: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "Database connection OK"})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"policy":    engine.Policy(),
			"timestamp": time.Now().Unix(),
		})
	})

	logger.Log.Info("[main] Server starting", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v\n", err)
	}
}

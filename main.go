package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf-service/config"
	"bookshelf-service/database"
	"bookshelf-service/handlers"
	"bookshelf-service/middleware"
	"bookshelf-service/services"
	"bookshelf-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Initialize database
	if err := database.InitDB(config.AppConfig.DBPath); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	db := database.GetDB()

	// Rate-limit counters live in Redis when configured, otherwise in-process
	var store middleware.CounterStore
	if config.AppConfig.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: config.AppConfig.RedisAddr})
		store = middleware.NewRedisCounterStore(rdb)
		log.Printf("Rate limiting via Redis at %s", config.AppConfig.RedisAddr)
	} else {
		store = middleware.NewMemoryCounterStore()
	}
	limiter := middleware.NewLimiter(store)

	// Start aggregate refresh loops
	aggregation := services.NewAggregationService(db,
		config.AppConfig.ViewCountRefreshInterval,
		config.AppConfig.StatsRefreshInterval)
	aggregation.Start()

	viewHandler := handlers.NewViewHandler(db, config.AppConfig.DBTimeout)
	bookHandler := handlers.NewBookHandler(db, config.AppConfig.DBTimeout)
	statsHandler := handlers.NewStatisticsHandler(db, config.AppConfig.DBTimeout)
	syncHandler := handlers.NewSyncHandler(db, config.AppConfig.DBTimeout)
	adminHandler := handlers.NewAdminHandler(db, aggregation)

	// Setup Gin router
	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		utils.MethodNotAllowedResponse(c)
	})

	// CORS and security headers on every endpoint
	router.Use(middleware.CORSMiddleware())

	// Client-side view deduplicator
	router.Static("/static", "./web/static")

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	public := router.Group("/api")
	{
		public.GET("/books", bookHandler.ListBooks)
		public.GET("/statistics", statsHandler.GetBookshelfStats)

		// View ingestion with rate limiting
		public.POST("/views",
			middleware.RateLimitMiddleware(limiter,
				config.AppConfig.ViewRateLimitMax,
				config.AppConfig.ViewRateLimitWindow),
			viewHandler.TrackView)

		public.POST("/admin/login", adminHandler.Login)
	}

	// Site sync (API-key authenticated)
	sync := router.Group("/api")
	sync.Use(middleware.SiteAuthMiddleware())
	{
		sync.POST("/sync", syncHandler.SyncBooks)
	}

	// Admin routes (bearer authenticated)
	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminAuthMiddleware())
	{
		admin.POST("/refresh", adminHandler.TriggerRefresh)
		admin.POST("/sites", adminHandler.RegisterSite)
	}

	// Start server; shut down the refresh loops on SIGINT/SIGTERM
	srv := &http.Server{
		Addr:    ":" + config.AppConfig.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	aggregation.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown:", err)
	}
}

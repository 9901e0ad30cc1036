package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/config"
	"github.com/smarttransit/rail-planner-backend/internal/database"
	"github.com/smarttransit/rail-planner-backend/internal/handlers"
	"github.com/smarttransit/rail-planner-backend/internal/ingest"
	"github.com/smarttransit/rail-planner-backend/internal/middleware"
	"github.com/smarttransit/rail-planner-backend/internal/services"
	"github.com/smarttransit/rail-planner-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting rail planner backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	// Repositories
	routeRepository := database.NewRouteRepository(db, logger)
	tripRepository := database.NewTripRepository(db)

	// Route dataset
	var source services.RouteSource
	switch cfg.Dataset.Source {
	case "csv":
		source = services.NewCSVRouteSource(cfg.Dataset.CSVPath, ingest.NewLoader(logger))
	default:
		source = services.NewDatabaseRouteSource(routeRepository)
	}

	catalog := services.NewRouteCatalog(logger)
	if _, err := catalog.Load(source); err != nil {
		// Serve anyway; searches return 503 until a reload succeeds
		logger.WithError(err).Error("Initial route dataset load failed")
	}

	cronService := services.NewCronService(catalog, source, logger)
	if err := cronService.Start(cfg.Dataset.ReloadCron); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	// Search cache
	var searchCache services.SearchCache = services.NoopSearchCache{}
	if cfg.Cache.RedisURL != "" {
		redisCache, err := services.NewRedisSearchCache(cfg.Cache.RedisURL, cfg.Cache.TTL, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, search cache disabled")
		} else {
			defer redisCache.Close()
			searchCache = redisCache
			logger.WithField("ttl", cfg.Cache.TTL.String()).Info("Search cache enabled")
		}
	}

	// Services
	policy, err := cfg.Planner.LayoverPolicy()
	if err != nil {
		logger.Fatalf("Invalid layover policy: %v", err)
	}
	searchService := services.NewSearchService(catalog, searchCache, services.SearchSettings{
		Policy:          policy,
		DefaultMaxStops: cfg.Planner.DefaultMaxStops,
		ResultLimit:     cfg.Planner.ResultLimit,
	}, logger)
	bookingService := services.NewBookingService(catalog, tripRepository, policy, logger)
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Handlers
	searchHandler := handlers.NewSearchHandler(searchService, catalog, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	adminHandler := handlers.NewAdminHandler(catalog, source, cronService, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if cfg.Server.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !containsWildcard(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db, catalog))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/routes", searchHandler.ListRoutes)
		v1.POST("/search", searchHandler.SearchItineraries)

		trips := v1.Group("/trips")
		{
			trips.POST("", bookingHandler.BookTrip)
			trips.GET("", bookingHandler.GetTrips)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService, logger))
		admin.Use(middleware.RequireRole(middleware.RoleOperator))
		{
			admin.POST("/routes/reload", adminHandler.ReloadRoutes)
			admin.GET("/routes/status", adminHandler.RouteStatus)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// Browsers refuse credentialed responses that allow any origin
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// healthCheckHandler reports database and route dataset status
func healthCheckHandler(db database.DB, catalog *services.RouteCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		dataset := "loaded"
		routes := 0
		if snapshot, err := catalog.Snapshot(); err != nil {
			dataset = "not_loaded"
		} else {
			routes = len(snapshot.Routes)
		}

		c.JSON(http.StatusOK, gin.H{
			"status":          "healthy",
			"database":        "healthy",
			"dataset":         dataset,
			"routes":          routes,
			"dataset_version": catalog.Version(),
			"version":         version,
			"timestamp":       time.Now().Unix(),
		})
	}
}

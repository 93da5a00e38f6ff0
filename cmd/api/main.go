package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/handlers"
	"github.com/genrefy/backend/internal/middleware"
	"github.com/genrefy/backend/internal/models"
	"github.com/genrefy/backend/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	lastfmService, err := services.NewLastFMService(cfg)
	if err != nil {
		log.Fatalf("Failed to init Last.fm service: %v", err)
	}
	spotifyService, err := services.NewSpotifyService(cfg)
	if err != nil {
		log.Fatalf("Failed to init Spotify service: %v", err)
	}
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(db, redisClient, cfg, emailService)
	userService := services.NewUserService(db)
	adminService := services.NewAdminService(db, cfg)
	catalogService := services.NewCatalogService(db, cfg, lastfmService)
	trackService := services.NewTrackService(db, cfg, spotifyService)
	analyticsService := services.NewAnalyticsService(db, cfg, lastfmService)
	reportService := services.NewReportService(analyticsService)
	shareService := services.NewShareService(cfg)

	// Create admin user if not exists
	if err := adminService.CreateDefaultAdmin(); err != nil {
		log.Printf("Failed to create default admin: %v", err)
	}

	// Periodic genre statistics refresh
	go func() {
		if cfg.StatsRecomputeOnBoot {
			if err := catalogService.RecomputeGenreStatistics(); err != nil {
				log.Printf("Genre statistics recompute error: %v", err)
			}
		}
		for {
			time.Sleep(cfg.StatsRecomputeEvery)
			if err := catalogService.RecomputeGenreStatistics(); err != nil {
				log.Printf("Genre statistics recompute error: %v", err)
			}
		}
	}()

	// Periodic cleanup of expired refresh tokens
	go func() {
		for {
			time.Sleep(1 * time.Hour)
			if err := authService.CleanupExpiredTokens(); err != nil {
				log.Printf("Refresh token cleanup error: %v", err)
			}
		}
	}()

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(adminService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	trackHandler := handlers.NewTrackHandler(trackService, shareService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, reportService)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Setup routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.Auth(authService), authHandler.Logout)
			auth.GET("/me", middleware.Auth(authService), authHandler.Me)
		}

		// Public catalog routes
		catalog := api.Group("/catalog")
		{
			catalog.GET("/genres", catalogHandler.ListGenres)
			catalog.GET("/genres/:id", catalogHandler.GetGenre)
			catalog.GET("/genres/:id/tracks", trackHandler.GetTracksByGenre)
			catalog.GET("/search", catalogHandler.Search)
			catalog.GET("/tracks/resolve", catalogHandler.GetOrCreateTrack)
			catalog.GET("/tracks/:id", trackHandler.GetTrack)
			catalog.GET("/tracks/spotify/:spotify_id", trackHandler.GetTrackBySpotify)
			catalog.GET("/tracks/:id/qr.png", trackHandler.ShareQR)
			catalog.GET("/spotify/search", trackHandler.SearchSpotify)
			catalog.GET("/analytics", analyticsHandler.GetAnalytics)
			catalog.GET("/analytics/report.pdf", analyticsHandler.DownloadReport)
		}

		// User routes
		user := api.Group("/user")
		user.Use(middleware.Auth(authService))
		{
			user.GET("/profile", userHandler.GetProfile)
			user.PUT("/profile", userHandler.UpdateProfile)
			user.GET("/favorites", userHandler.ListFavorites)
			user.POST("/favorites", userHandler.AddFavorite)
			user.DELETE("/favorites/:type/:id", userHandler.RemoveFavorite)
			user.GET("/genres/favorites", catalogHandler.GetFavorites)
			user.POST("/genres/favorites", catalogHandler.AddFavoriteGenres)
			user.DELETE("/genres/favorites/:id", catalogHandler.RemoveFavoriteGenre)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(authService))
		admin.Use(middleware.AdminOnly(authService))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:username/active", adminHandler.SetUserActive)
			admin.POST("/tracks/import", trackHandler.ImportFromSpotify)
			admin.POST("/tracks/:id/refresh", catalogHandler.RefreshTrack)
			admin.POST("/statistics/recompute", catalogHandler.RecomputeStatistics)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

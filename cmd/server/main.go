package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auth_gateway/internal/client"
	"auth_gateway/internal/config"
	"auth_gateway/internal/gateway"
	"auth_gateway/internal/handler"
	"auth_gateway/internal/middleware"
	"auth_gateway/internal/repository"
	"auth_gateway/internal/service"
	"auth_gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	extraRoutes, err := cfg.ExtraOpenRoutes()
	if err != nil {
		log.Fatalf("Invalid open routes: %v", err)
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(dbPool); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Initialize Utilities ---
	tokenIssuer := utils.NewTokenIssuer(cfg.AccessTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenSecret, cfg.RefreshTokenTTL)
	rolePolicy := service.NewRolePolicy(cfg.PrivilegedRoles)

	var restaurants service.RestaurantLookup
	if cfg.RestaurantServiceURL != "" {
		restaurants = client.NewRestaurantClient(cfg.RestaurantServiceURL, cfg.RestaurantCreatorPath, cfg.RestaurantTimeout)
	} else {
		log.Println("RESTAURANT_SERVICE_URL not set, restaurant lookups disabled")
	}

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)

	// --- Initialize Services ---
	referralLinker := service.NewReferralLinker(userRepo)
	authService := service.NewAuthService(userRepo, referralLinker, tokenIssuer, restaurants, cfg.BcryptCost)
	accountService := service.NewAccountService(userRepo, rolePolicy, cfg.BcryptCost)

	// --- Forward-auth ---
	openRoutes := append(gateway.DefaultOpenRoutes(cfg.BaseEndpoint), extraRoutes...)
	verifyEndpoint := gateway.NewEndpoint(gateway.NewRouteAuthorizer(openRoutes), authService)

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService, verifyEndpoint)
	accountHandler := handler.NewAccountHandler(accountService)

	// --- Setup Gin Router ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", handler.HeaderUser)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// --- Initialize Middlewares ---
	authenticator := middleware.NewAuthenticator(authService, rolePolicy)

	// --- Register Routes ---
	authGroup := router.Group(cfg.BaseEndpoint)
	authHandler.RegisterAuthRoutes(authGroup)
	accountHandler.RegisterAccountRoutes(authGroup, authenticator)

	router.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/Tobijimoh/trade-capture-system/internal/auth"
	"github.com/Tobijimoh/trade-capture-system/internal/database"
	"github.com/Tobijimoh/trade-capture-system/internal/refdata"
	"github.com/Tobijimoh/trade-capture-system/internal/settlement"
	"github.com/Tobijimoh/trade-capture-system/internal/trading"
	"github.com/Tobijimoh/trade-capture-system/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trade capture server with graceful shutdown
// support. It sets up all required services, database connections and API
// routes.
func main() {
	// Initialize database
	db, err := database.NewDatabase(os.Getenv("DB_PATH"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "trade-capture-secret-key"
	}

	// Initialize services and handlers
	authService := auth.NewService(jwtSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials for each desk role
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret, auth.RoleTrader)
	authService.RegisterAPICredentials("sales-api-key", "sales-api-secret", auth.RoleSales)
	authService.RegisterAPICredentials("support-api-key", "support-api-secret", auth.RoleSupport)

	refdataService := refdata.NewService(db)
	refdataHandlers := refdata.NewGinHandlers(refdataService)
	if err := refdataService.GetDB().SeedTradeStatuses(); err != nil {
		zlog.Fatal().Err(err).Msg("Failed to seed trade statuses")
	}

	tradingService := trading.NewService(db, refdataService.GetDB())
	tradingHandlers := trading.NewGinHandlers(tradingService)

	// Create and start settlement processor
	settlementProcessor := settlement.NewProcessor(db)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go settlementProcessor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, jwtSecret, authHandlers, tradingHandlers, refdataHandlers)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers.
// Routes are grouped by concern:
// - Auth routes: public endpoints for authentication
// - Trade routes: JWT-protected lifecycle operations, gated per desk role
// - Refdata routes: JWT-protected book/counterparty/status maintenance
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	tradingHandlers *trading.GinHandlers,
	refdataHandlers *refdata.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Trade lifecycle routes
		trades := v1.Group("/trades")
		trades.Use(middleware.JWTAuth(jwtSecret))
		{
			trades.POST("", auth.RequirePrivilege(auth.OperationCreate), tradingHandlers.CreateTradeHandler())
			trades.GET("/:trade_id", auth.RequirePrivilege(auth.OperationView), tradingHandlers.GetTradeHandler())
			trades.GET("/:trade_id/cashflows", auth.RequirePrivilege(auth.OperationView), tradingHandlers.GetTradeCashflowsHandler())
			trades.PUT("/:trade_id", auth.RequirePrivilege(auth.OperationAmend), tradingHandlers.AmendTradeHandler())
			trades.POST("/:trade_id/cancel", auth.RequirePrivilege(auth.OperationCancel), tradingHandlers.CancelTradeHandler())
			trades.POST("/:trade_id/terminate", auth.RequirePrivilege(auth.OperationTerminate), tradingHandlers.TerminateTradeHandler())
		}

		// Reference data routes
		ref := v1.Group("/refdata")
		ref.Use(middleware.JWTAuth(jwtSecret))
		{
			ref.GET("/books", refdataHandlers.ListBooksHandler())
			ref.POST("/books", refdataHandlers.CreateBookHandler())
			ref.DELETE("/books/:id", refdataHandlers.DeactivateBookHandler())
			ref.GET("/counterparties", refdataHandlers.ListCounterpartiesHandler())
			ref.POST("/counterparties", refdataHandlers.CreateCounterpartyHandler())
			ref.DELETE("/counterparties/:id", refdataHandlers.DeactivateCounterpartyHandler())
			ref.GET("/statuses", refdataHandlers.ListTradeStatusesHandler())
		}
	}
}

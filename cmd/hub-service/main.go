package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"auction-hub/internal/config"
	"auction-hub/internal/hub"
	"auction-hub/internal/infrastructure/mysql"
	"auction-hub/internal/infrastructure/redis"
	ws "auction-hub/internal/infrastructure/websocket"
	"auction-hub/internal/services"
	"auction-hub/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting Auction Presentation Hub")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Repositories and redis-backed capabilities
	sessionRepo := mysql.NewMySQLAuctionSessionRepository(db)
	lotRepo := mysql.NewMySQLLotRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	displayRepo := mysql.NewMySQLDisplayRepository(db)
	tokenStore := redis.NewRedisTokenStore(rdb)
	eventPublisher := redis.NewEventPublisher(rdb)

	// The hub state is one shared instance for the process lifetime.
	clock := clockwork.NewRealClock()
	registry := hub.NewRegistry(log)
	groups := hub.NewSessionGroups(log)
	dispatcher := hub.NewDispatcher(registry, groups, log)
	clockSync := services.NewClockSyncEngine(clock, log)
	media := services.NewMediaState(clock)

	coordinator := services.NewCoordinator(
		registry,
		groups,
		dispatcher,
		clockSync,
		media,
		sessionRepo,
		lotRepo,
		bidRepo,
		displayRepo,
		tokenStore,
		eventPublisher,
		cfg.Hub.SessionOptimism,
		clock,
		log,
	)

	sweeper := services.NewSessionSweeper(registry, coordinator, clock, cfg.Hub.SweepInterval, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	// Websocket endpoints
	wsHandler := ws.NewHandler(coordinator, cfg.Hub.SendQueueSize, log)
	e.Any("/ws/*", echo.WrapHandler(wsHandler.Router()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-hub",
			"timestamp": time.Now().Format(time.RFC3339),
			"displays":  len(registry.Displays()),
			"panels":    len(registry.Panels()),
		})
	})

	// Start background sweeper
	go func() {
		if err := sweeper.Start(context.Background()); err != nil {
			log.Error("Failed to start session sweeper", "error", err)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting hub server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction hub...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop session sweeper", "error", err)
	}

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction hub stopped")
}

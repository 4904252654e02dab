package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	httpHandler "collaborative-whiteboard/internal/handler/http"
	wsHandler "collaborative-whiteboard/internal/handler/websocket"
	"collaborative-whiteboard/internal/hub"
	"collaborative-whiteboard/internal/infra/setup"
	"collaborative-whiteboard/internal/infra/state/memory"
	redisstate "collaborative-whiteboard/internal/infra/state/redis"
	"collaborative-whiteboard/internal/middleware"
	"collaborative-whiteboard/internal/service"
	"collaborative-whiteboard/internal/worker"
)

// App holds every component of the server.
type App struct {
	Config       *Config
	Log          *logrus.Logger
	RedisClient  *redis.Client
	Hub          *hub.Hub
	HttpServer   *http.Server
	WorkerServer *worker.WorkerServer
	Ticker       *worker.TickerScheduler

	cancel context.CancelFunc
}

// NewApp loads configuration and wires all components.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig wires all components from cfg.
func NewAppWithConfig(cfg *Config) (*App, error) {
	// 1. Logger (the standard logger, so every package logs the same way)
	log := initLogger(cfg)
	log.Info("Configuration loaded successfully")

	// 2. Room store and services
	log.Info("Initializing state...")
	roomStore := memory.NewRoomStore()
	roomService := service.NewRoomService(roomStore, service.WithPasswordHashCost(cfg.PasswordHashCost))
	canvasService := service.NewCanvasService(roomStore)
	sweepHandler := worker.NewSweepHandler(roomService)
	log.Info("Services initialized")

	// 3. Hub
	hubInstance := hub.NewHub(roomService, canvasService, hub.WithMaxMessageSize(cfg.WSMaxMessageSize))
	log.Info("Hub initialized")

	app := &App{
		Config: cfg,
		Log:    log,
		Hub:    hubInstance,
	}

	// 4. Optional Redis stack: rate limiting and the asynq sweep.
	// Without it the sweep runs on an in-process ticker.
	var limiter middleware.Limiter
	if cfg.UseRedis() {
		// Bounded: an unreachable REDIS_ADDR fails startup.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := setup.InitRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		log.Info("Redis client initialized")
		app.RedisClient = redisClient
		limiter = redisstate.NewRateLimiter(redisClient, cfg.KeyPrefix)

		// asynq keeps its own connection pool, so it gets options, not the client.
		redisClientOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		app.WorkerServer = worker.NewWorkerServer(redisClientOpt, sweepHandler, cfg.CleanupInterval, log)
		log.Info("Asynq worker server initialized")
	} else {
		app.Ticker = worker.NewTickerScheduler(sweepHandler, cfg.CleanupInterval)
		log.Warn("REDIS_ADDR not set: using in-process cleanup ticker and no rate limiting")
	}

	// 5. Handlers and HTTP server
	roomHandler := httpHandler.NewRoomHandler(roomService, hubInstance)
	wsh := wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSAllowedOrigin)
	app.HttpServer = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           newRouter(cfg, log, limiter, roomHandler, wsh),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("Application assembled successfully")
	return app, nil
}

func initLogger(cfg *Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	log.Infof("Logger initialized (Level: %s)", level.String())
	return log
}

func newRouter(cfg *Config, log *logrus.Logger, limiter middleware.Limiter, roomHandler *httpHandler.RoomHandler, wsh *wsHandler.WebSocketHandler) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log)) // uses the App's logger
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))

	// /ws sits outside /api and is not rate limited.

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	router.GET("/ws", wsh.HandleConnection)

	api := router.Group("/api")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter, cfg.RateLimitMax, cfg.RateLimitWindow))
	}
	api.POST("/rooms/validate", roomHandler.ValidateRoom)
	api.GET("/stats", roomHandler.Stats)
	return router
}

// Start launches the hub, the cleanup scheduler and the HTTP server.
func (a *App) Start() error {
	// One context stops both the hub and the ticker on Shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.Hub.Run(ctx)
	a.Log.Info("Hub routine started")

	// Exactly one of WorkerServer and Ticker is set.
	if a.WorkerServer != nil {
		if err := a.WorkerServer.Start(); err != nil {
			cancel()
			return err
		}
	}
	if a.Ticker != nil {
		go a.Ticker.Run(ctx)
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
	return nil
}

// Shutdown stops accepting connections, then stops the hub, the scheduler and Redis.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. Stop accepting HTTP and websocket upgrades
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. Stop the hub (closes every client's send queue) and the ticker
	if a.cancel != nil {
		a.cancel()
	}

	// 3. Stop the asynq scheduler and wait for an in-flight sweep
	if a.WorkerServer != nil {
		a.WorkerServer.Shutdown()
	}

	// 4. Close Redis last; the worker may still use it until step 3 returns

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs every request with its status and latency.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		// Log level follows the status class.
		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}

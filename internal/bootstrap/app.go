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
	"gorm.io/gorm"

	httpHandler "locusfocus-backend/internal/handler/http"
	wsHandler "locusfocus-backend/internal/handler/websocket"
	"locusfocus-backend/internal/hub"
	gormpersistence "locusfocus-backend/internal/infra/persistence/gorm"
	"locusfocus-backend/internal/infra/setup"
	redisstate "locusfocus-backend/internal/infra/state/redis"
	"locusfocus-backend/internal/middleware"
	"locusfocus-backend/internal/service"
	"locusfocus-backend/internal/worker"
)

// App holds every long-lived component of the server.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Hub         *hub.Hub
	RoomService *service.RoomService
	Router      *gin.Engine
	HttpServer  *http.Server

	// Exactly one of these runs the periodic cleanup.
	WorkerServer *worker.WorkerServer
	Sweeper      *worker.Sweeper
}

// NewLogger builds the application logger for cfg.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.IsProduction() {
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

	// Packages log through the standard logger; keep it in line.
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	return log
}

// NewApp creates and wires every component. Nothing is started yet.
func NewApp(cfg *Config) (*App, error) {
	// 1. Logger
	log := NewLogger(cfg)
	log.Infof("Logger initialized (Level: %s)", log.GetLevel().String())

	// 2. Infrastructure
	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		log.Info("Redis client initialized")
	} else {
		log.Info("REDIS_ADDR not set, rate limiting disabled and cleanup runs in-process")
	}

	// 3. Repository, hub and service
	roomRepo := gormpersistence.NewGormRoomRepository(db, nil)
	hubInstance := hub.NewHub()
	roomService := service.NewRoomService(roomRepo, hubInstance)
	log.Info("Repository, hub and service initialized")

	// 4. Background cleanup
	app := &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		Hub:         hubInstance,
		RoomService: roomService,
	}
	if redisClient != nil {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		app.WorkerServer = worker.NewWorkerServer(redisOpt, roomService, cfg.CleanupSchedule, cfg.CleanupDays, log)
		log.Info("Worker server initialized")
	} else {
		app.Sweeper = worker.NewSweeper(roomService, cfg.CleanupInterval, cfg.CleanupDays, log)
		log.Info("In-process sweeper initialized")
	}

	// 5. Router and HTTP server
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	var counter *redisstate.RedisCounter
	if redisClient != nil {
		counter = redisstate.NewRedisCounter(redisClient, cfg.RedisKeyPrefix)
	}
	app.Router = NewRouter(RouterDeps{
		Config:      cfg,
		Log:         log,
		Hub:         hubInstance,
		RoomService: roomService,
		Counter:     counter,
	})
	app.HttpServer = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("Application assembled successfully")
	return app, nil
}

// Start launches the background cleanup and the HTTP server.
func (a *App) Start() error {
	if a.WorkerServer != nil {
		if err := a.WorkerServer.RegisterPeriodicTasks(); err != nil {
			return err
		}
		if err := a.WorkerServer.Start(); err != nil {
			return err
		}
	}
	if a.Sweeper != nil {
		a.Sweeper.Start()
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

// Shutdown stops components in reverse dependency order.
func (a *App) Shutdown(ctx context.Context) {
	a.Log.Info("Shutting down application...")

	if a.HttpServer != nil {
		if err := a.HttpServer.Shutdown(ctx); err != nil {
			a.Log.Errorf("Error shutting down HTTP server: %v", err)
		} else {
			a.Log.Info("HTTP server shut down gracefully.")
		}
	}

	// Hijacked websocket connections are not covered by HttpServer.Shutdown.
	if a.Hub != nil {
		a.Hub.Close()
	}

	if a.WorkerServer != nil {
		a.WorkerServer.Shutdown()
	}
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			} else {
				a.Log.Info("Database connection closed.")
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// RouterDeps are the components NewRouter mounts.
type RouterDeps struct {
	Config      *Config
	Log         *logrus.Logger
	Hub         *hub.Hub
	RoomService *service.RoomService
	// Counter enables rate limiting on /api when non-nil.
	Counter *redisstate.RedisCounter
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.CORS(d.Config.CORSAllowedOrigin))

	var redisPinger httpHandler.Pinger
	if d.Counter != nil {
		redisPinger = d.Counter
	}
	roomHandler := httpHandler.NewRoomHandler(d.RoomService)
	lockHandler := httpHandler.NewLockHandler(d.RoomService)
	adminHandler := httpHandler.NewAdminHandler(d.RoomService, redisPinger)
	ws := wsHandler.NewWebSocketHandler(d.Hub, d.RoomService, d.Config.CORSAllowedOrigin)

	router.GET("/health", adminHandler.Health)
	// The extension connects to the server root; /ws is an alias.
	router.GET("/", ws.HandleConnection)
	router.GET("/ws", ws.HandleConnection)

	api := router.Group("/api")
	if d.Counter != nil {
		api.Use(middleware.RateLimit(d.Counter, d.Config.RateLimitMax, d.Config.RateLimitWindow))
	}
	rooms := api.Group("/rooms/:roomId")
	{
		rooms.GET("", roomHandler.GetRoom)
		rooms.POST("/join", roomHandler.JoinRoom)
		rooms.POST("/leave", roomHandler.LeaveRoom)
		rooms.POST("/lock", lockHandler.SetLock)
		rooms.GET("/locks", lockHandler.GetAllLocks)
		rooms.GET("/locks/:userId", lockHandler.GetLockStatus)
	}
	api.POST("/admin/cleanup", adminHandler.Cleanup)

	return router
}

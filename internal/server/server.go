// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"snapgram/internal/appwrite"
	"snapgram/internal/cache"
	"snapgram/internal/config"
	"snapgram/internal/database"
	"snapgram/internal/middleware"
	"snapgram/internal/notifications"
	"snapgram/internal/observability"
	"snapgram/internal/realtime"
	"snapgram/internal/repository"
	"snapgram/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	hub            *notifications.Hub
	subscriber     *realtime.Subscriber
	stopWorkers    context.CancelFunc
	workers        sync.WaitGroup

	posts PostAPI
	users UserAPI
	auth  AuthAPI
	files *service.FileService
}

// Deps are already-initialized collaborators for NewServerWithDeps.
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client
	Posts PostAPI
	Users UserAPI
	Auth  AuthAPI
	Files *service.FileService
	Hub   *notifications.Hub
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	client, err := PlatformClient(cfg)
	if err != nil {
		return nil, err
	}

	cols := Collections(cfg)
	docs := appwrite.NewDatabases(client)
	storage := appwrite.NewStorage(client)

	userRepo := repository.NewUserRepository(docs, cols)
	postRepo := repository.NewPostRepository(docs, cols)
	saveRepo := repository.NewSaveRepository(docs, cols)
	fileRepo := repository.NewFileRepository(storage, cols)
	orphanRepo := repository.NewOrphanRepository(db)

	files := service.NewFileService(fileRepo, orphanRepo, cfg)
	hub := notifications.NewHub()

	s, err := NewServerWithDeps(cfg, Deps{
		DB:    db,
		Redis: redisClient,
		Posts: service.NewPostService(postRepo, saveRepo, files),
		Users: service.NewUserService(userRepo, files),
		Auth:  service.NewAuthService(appwrite.NewAccounts(client), appwrite.NewAvatars(client), userRepo),
		Files: files,
		Hub:   hub,
	})
	if err != nil {
		return nil, err
	}

	if cfg.RealtimeEnabled {
		sub, err := realtime.NewSubscriber(realtime.Config{
			Endpoint:   cfg.AppwriteEndpoint,
			ProjectID:  cfg.AppwriteProjectID,
			Channels:   []string{realtime.DocumentsChannel(cfg.DatabaseID, cfg.PostCollectionID)},
			SelfSigned: cfg.AppwriteSelfSigned,
		}, realtime.PostsHandler(hub))
		if err != nil {
			return nil, fmt.Errorf("realtime subscriber: %w", err)
		}
		s.subscriber = sub
	}

	return s, nil
}

// PlatformClient builds the backend-as-a-service client from configuration.
func PlatformClient(cfg *config.Config) (*appwrite.Client, error) {
	client, err := appwrite.NewClient(appwrite.Config{
		Endpoint:   cfg.AppwriteEndpoint,
		ProjectID:  cfg.AppwriteProjectID,
		APIKey:     cfg.AppwriteAPIKey,
		SelfSigned: cfg.AppwriteSelfSigned,
		Timeout:    cfg.AppwriteTimeout(),
		RetryMax:   cfg.AppwriteRetryMax,
	})
	if err != nil {
		return nil, fmt.Errorf("platform client: %w", err)
	}
	return client, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps.Posts == nil || deps.Users == nil || deps.Auth == nil {
		return nil, errors.New("post, user and auth services are required")
	}
	middleware.InitMiddleware(cfg)

	return &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("snapgram-api"),
		hub:            deps.Hub,
		posts:          deps.Posts,
		users:          deps.Users,
		auth:           deps.Auth,
		files:          deps.Files,
	}, nil
}

// Collections maps configuration onto repository collection ids.
func Collections(cfg *config.Config) repository.Collections {
	return repository.Collections{
		DatabaseID: cfg.DatabaseID,
		Users:      cfg.UserCollectionID,
		Posts:      cfg.PostCollectionID,
		Saves:      cfg.SavesCollectionID,
		Bucket:     cfg.StorageID,
	}
}

// NewApp builds a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "snapgram",
		BodyLimit: (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/navigation", s.GetNavigation)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.SignUp)
	auth.Post("/signin", middleware.RateLimit(s.redis, 10, 5*time.Minute, "signin"), s.SignIn)
	auth.Post("/signout", middleware.AuthRequired, s.SignOut)
	auth.Get("/me", middleware.OptionalAuth, s.GetMe)

	protected := api.Group("", middleware.AuthRequired)

	posts := protected.Group("/posts")
	posts.Get("/", s.GetInfinitePosts)
	posts.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	// Specific routes before generic /:id
	posts.Get("/recent", s.GetRecentPosts)
	posts.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchPosts)
	posts.Put("/:id/likes", s.LikePost)
	posts.Post("/:id/save", s.SavePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	protected.Delete("/saves/:id", s.DeleteSavedPost)
	protected.Get("/saved", s.GetSavedPosts)

	users := protected.Group("/users")
	users.Get("/", s.GetUsers)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", s.UpdateUser)

	app.Get("/ws/feed", middleware.WebSocketAuthRequired, s.FeedUpgrade, s.FeedHandler())
}

// orphanSweepInterval is how often a running server retries failed
// compensating deletes.
const orphanSweepInterval = 15 * time.Minute

// Start launches background workers. It returns immediately.
func (s *Server) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.stopWorkers = cancel

	if s.subscriber != nil {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			if err := s.subscriber.Run(ctx); err != nil {
				observability.GlobalLogger.ErrorContext(ctx, "realtime subscriber stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if s.files != nil && s.db != nil {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			s.sweepOrphans(ctx, orphanSweepInterval)
		}()
	}
}

func (s *Server) sweepOrphans(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.files.SweepOrphans(ctx, service.DefaultSweepBatch, service.DefaultSweepMaxAttempts)
			if err != nil {
				observability.GlobalLogger.WarnContext(ctx, "orphan sweep failed", slog.String("error", err.Error()))
				continue
			}
			if res.Resolved > 0 || res.Retrying > 0 {
				observability.GlobalLogger.InfoContext(ctx, "orphan sweep",
					slog.Int("resolved", res.Resolved),
					slog.Int("retrying", res.Retrying),
				)
			}
		}
	}
}

// Shutdown releases server resources. The HTTP listener is stopped by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.stopWorkers != nil {
		s.stopWorkers()
		if s.subscriber != nil {
			_ = s.subscriber.Close()
		}
		done := make(chan struct{})
		go func() {
			s.workers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("background workers: %w", ctx.Err()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("feed hub: %w", err))
		}
	}

	if s.redis != nil {
		if err := cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database: %w", err))
			}
		}
	}

	return errors.Join(errs...)
}

// HealthCheck reports the state of local dependencies.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "unavailable"
	if s.db != nil {
		dbStatus = "healthy"
		sqlDB, err := s.db.DB()
		if err != nil {
			dbStatus = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	feedClients := 0
	if s.hub != nil {
		feedClients = s.hub.Count()
	}

	// Redis is optional; only the orphan ledger is required.
	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"feed_clients": feedClients,
		"time":         time.Now(),
	})
}

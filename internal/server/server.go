// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/daniyal2335/eprojectfitness/internal/auth"
	"github.com/daniyal2335/eprojectfitness/internal/cache"
	"github.com/daniyal2335/eprojectfitness/internal/config"
	"github.com/daniyal2335/eprojectfitness/internal/database"
	"github.com/daniyal2335/eprojectfitness/internal/middleware"
	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/notifications"
	"github.com/daniyal2335/eprojectfitness/internal/observability"
	"github.com/daniyal2335/eprojectfitness/internal/repository"
	"github.com/daniyal2335/eprojectfitness/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	forumRepo        repository.ForumRepository
	notificationRepo repository.NotificationRepository

	limiter     *middleware.RateLimiter
	notifier    *notifications.Notifier
	hub         *notifications.Hub
	broadcaster service.Broadcaster

	notificationService *service.NotificationService
	forumService        *service.ForumService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client keeps delivery on the local hub only.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   middleware.InitMetrics(observability.ServiceName),
		shutdownCtx:      ctx,
		shutdownFn:       cancel,
		userRepo:         repository.NewUserRepository(db),
		forumRepo:        repository.NewForumRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		hub:              notifications.NewHub(),
		limiter:          middleware.NewRateLimiter(redisClient, cfg.RateLimitEnabled(), middleware.FailOpen),
	}

	s.broadcaster = s.hub
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
			log.Printf("failed to start %s wiring, delivering locally: %v", s.hub.Name(), err)
		} else {
			s.broadcaster = notifications.NewRelay(s.notifier, s.hub)
		}
	}

	s.notificationService = service.NewNotificationService(s.notificationRepo, s.broadcaster)
	s.forumService = service.NewForumService(s.forumRepo, s.userRepo, s.notificationService)

	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Fitness API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Propagate request, user and trace ids for the context-aware logger
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" || origins == "*" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	protected := api.Group("", s.AuthRequired())

	protected.Post("/auth/logout", s.Logout)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)

	forum := protected.Group("/forum")
	forum.Get("/", s.ListForumPosts)
	forum.Post("/", s.limiter.Limit("forum_post", 5, time.Minute), s.CreateForumPost)
	// Specific /:id/:resource routes before the generic /:id route
	forum.Get("/:id/followers", s.GetPostFollowers)
	forum.Post("/:id/reply", s.limiter.Limit("forum_reply", 20, time.Minute), s.ReplyToPost)
	forum.Post("/:id/like", s.TogglePostLike)
	forum.Post("/:id/follow/toggle", s.TogglePostFollow)
	forum.Post("/:id/follow", s.FollowPost)
	forum.Delete("/:id/follow", s.UnfollowPost)
	forum.Get("/:id", s.GetForumPost)

	notes := protected.Group("/notifications")
	notes.Get("/", s.GetNotifications)
	notes.Get("/unread-count", s.GetUnreadCount)
	notes.Post("/", s.limiter.Limit("notification", 30, time.Minute), s.CreateNotification)
	notes.Post("/mark-read-all", s.MarkAllNotificationsRead)
	notes.Patch("/read-all", s.MarkAllNotificationsRead)
	notes.Post("/mark-read/:id", s.MarkNotificationRead)
	notes.Patch("/:id/read", s.MarkNotificationRead)

	protected.Post("/ws/ticket", s.limiter.Limit("ws_ticket", 10, time.Minute), s.IssueWSTicket)
	protected.Get("/ws", s.WebsocketHandler())
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Without Redis the app still serves a single instance.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && !strings.HasPrefix(c.Path(), "/api/ws/ticket")

		// 1. Single-use WebSocket ticket
		if ticket := c.Query("ticket"); ticket != "" && isWSPath {
			userID, ok := s.consumeWSTicket(c.Context(), ticket)
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			return s.authenticated(c, userID)
		}

		// 2. Bearer token, or ?token= for clients that cannot set headers
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, claims, err := auth.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		// Check JTI for revocation
		if claims.ID != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.Context(), cache.RevokedKey(claims.ID)).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("claims", claims)
		return s.authenticated(c, userID)
	}
}

func (s *Server) authenticated(c *fiber.Ctx, userID uint) error {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
	return c.Next()
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the Redis subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.hub.Name(), err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

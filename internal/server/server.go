// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"commune/internal/cache"
	"commune/internal/config"
	"commune/internal/database"
	"commune/internal/middleware"
	"commune/internal/models"
	"commune/internal/repository"
	"commune/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo repository.UserRepository

	feedService      service.FeedService
	postService      service.PostService
	commentService   service.CommentService
	userService      service.UserService
	followService    service.FollowService
	pageService      service.PageService
	communityService service.CommunityService
	auditRepo        repository.AuditRepository
}

// NewServer creates a server instance, establishing the database and Redis
// connections itself.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this to inject an in-memory database and a miniredis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	followRepo := repository.NewFollowRepository(db)
	pageRepo := repository.NewPageRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	feedRepo := repository.NewFeedRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	prom := middleware.InitMetrics("commune-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		auditRepo:      auditRepo,
	}

	server.feedService = service.NewFeedService(feedRepo, cfg.FeedDefaultLimit, cfg.FeedMaxLimit)
	server.postService = service.NewPostService(postRepo, likeRepo, bookmarkRepo, pageRepo, communityRepo, auditRepo)
	server.commentService = service.NewCommentService(commentRepo, postRepo)
	server.userService = service.NewUserService(userRepo, cfg.JWTSecret)
	server.followService = service.NewFollowService(followRepo, userRepo, pageRepo)
	server.pageService = service.NewPageService(pageRepo, auditRepo)
	server.communityService = service.NewCommunityService(communityRepo, auditRepo)

	middleware.InitMiddleware(cfg)
	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app.
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

	// CORS before anything that can short-circuit, so error responses still
	// carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global per-IP rate limit; endpoint-specific budgets are layered on in
	// SetupRoutes.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Commune Backend Metrics Dashboard",
	}))

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// The feed serves both authenticated and anonymous viewers from one
	// endpoint; OptionalAuth resolves the viewer if a token is present.
	api.Get("/feed", middleware.OptionalAuth, s.GetFeed)

	// Public post routes
	publicPosts := api.Group("/posts")
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	// Public page and community routes
	api.Get("/pages/:slug", s.GetPage)
	api.Get("/pages/:slug/posts", middleware.OptionalAuth, s.GetPagePosts)
	api.Get("/communities/:slug", s.GetCommunity)
	api.Get("/communities/:slug/posts", middleware.OptionalAuth, s.GetCommunityPosts)

	// Public user routes
	api.Get("/users/:id/posts", middleware.OptionalAuth, s.GetUserPosts)
	api.Get("/users/:id", s.GetUserProfile)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	me := protected.Group("/me")
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Get("/bookmarks", s.GetMyBookmarks)
	me.Get("/pages", s.GetMyPages)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Post("/:id/bookmark", s.BookmarkPost)
	posts.Delete("/:id/bookmark", s.UnbookmarkPost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	follows := protected.Group("/follows")
	follows.Get("/requests", s.GetFollowRequests)
	follows.Post("/requests/:requestId/accept", s.AcceptFollowRequest)
	follows.Post("/requests/:requestId/decline", s.DeclineFollowRequest)
	follows.Post("/:userId", middleware.RateLimit(
		s.redis, 30, 5*time.Minute, "follow"), s.FollowUser)
	follows.Delete("/:userId", s.UnfollowUser)

	protected.Get("/users/:id/followers", s.GetFollowers)
	protected.Get("/users/:id/following", s.GetFollowing)

	pages := protected.Group("/pages")
	pages.Post("/", s.CreatePage)
	pages.Post("/:id/follow", s.FollowPage)
	pages.Delete("/:id/follow", s.UnfollowPage)
	pages.Put("/:id", s.UpdatePage)
	pages.Delete("/:id", s.DeletePage)

	communities := protected.Group("/communities")
	communities.Post("/", s.CreateCommunity)
	communities.Post("/:id/join", s.JoinCommunity)
	communities.Delete("/:id/join", s.LeaveCommunity)
	communities.Get("/:id/members", s.GetCommunityMembers)
	communities.Put("/:id", s.UpdateCommunity)
	communities.Delete("/:id", s.DeleteCommunity)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/audit/:entityType/:entityId", s.GetAuditLog)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
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

	// The cache is optional; readiness only reports it.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

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
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdminByUserID(c.Context(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// Start starts the server.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Commune API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
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

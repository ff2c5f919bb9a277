package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/halcyonchat/halcyon-backend/internal/cache"
	"github.com/halcyonchat/halcyon-backend/internal/channel"
	"github.com/halcyonchat/halcyon-backend/internal/handlers"
	"github.com/halcyonchat/halcyon-backend/internal/handlers/ws"
	"github.com/halcyonchat/halcyon-backend/internal/middleware"
	"github.com/halcyonchat/halcyon-backend/internal/presence"
	"github.com/halcyonchat/halcyon-backend/internal/repository"
	"github.com/halcyonchat/halcyon-backend/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName: "Halcyon Backend",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Database
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Redis
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	presenceCache := cache.NewPresenceCache(redisCache)
	groupCache := cache.NewGroupCache(redisCache)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	mentionRepo := repository.NewMentionRepository(db)
	reactionRepo := repository.NewReactionRepository(db)

	// Shared in-memory state: the presence registry and the channel map.
	registry := presence.NewRegistry()
	channels := channel.NewManager()
	hub := ws.NewHub()

	// Services
	mentionService := service.NewMentionService(registry, userRepo, groupRepo, mentionRepo, groupCache, hub)
	dispatcher := service.NewDispatcher(registry, channels, messageRepo, mentionService, hub)
	reactionService := service.NewReactionService(registry, channels, messageRepo, reactionRepo, hub)
	presenceService := service.NewPresenceService(registry, channels, userRepo, groupRepo, messageRepo, presenceCache, groupCache, hub)
	groupService := service.NewGroupService(registry, channels, groupRepo, messageRepo, groupCache, hub)

	// Handlers
	wsHandler := handlers.NewWebSocketHandler(hub, presenceService, dispatcher, reactionService, mentionService, groupService)
	groupHandler := handlers.NewGroupHandler(groupService, presenceCache)

	// Membership mutation routes; these drive live channel joins/evictions.
	api := app.Group("/api", middleware.OriginAllowed(), middleware.AuthRequired())
	mutations := api.Group("/groups", limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))
	mutations.Post("/:id/members", groupHandler.AddMember)
	mutations.Delete("/:id/members/:user_id", groupHandler.RemoveMember)
	mutations.Put("/:id/members/:user_id/role", groupHandler.ChangeRole)
	mutations.Delete("/:id", groupHandler.DeleteGroup)
	api.Get("/presence/online", groupHandler.OnlineUsers)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"sessions": hub.Count(),
			"online":   registry.OnlineCount(),
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

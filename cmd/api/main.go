package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"portal-comments/internal/config"
	"portal-comments/internal/domain"
	"portal-comments/internal/handler"
	"portal-comments/internal/middleware"
	"portal-comments/internal/moderation"
	"portal-comments/internal/platform"
	"portal-comments/internal/repository"
	"portal-comments/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	directoryDB, err := config.NewDirectoryDB(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to user directory: %v (role-based auto-approval disabled)", err)
	}
	var roles moderation.RoleSource
	if directoryDB != nil {
		defer directoryDB.Close()
		roles = platform.NewDirectoryRoleSource(directoryDB)
	}

	store := platform.NewStore(db)
	subjects := domain.NewSubjectRegistry()
	authors := domain.NewAuthorRegistry()
	store.RegisterDefaults(subjects, authors)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, redis, cfg, subjects, authors, roles, store)
	handlers := handler.NewHandlers(services)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(middleware.Auth(cfg))

	setupRoutes(app, handlers)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRoutes(app *fiber.App, h *handler.Handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	threads := v1.Group("/threads")
	threads.Post("/", h.Thread.Create)
	threads.Get("/", h.Thread.Show)
	threads.Delete("/:threadId", h.Thread.Delete)

	comments := v1.Group("/comments")
	comments.Post("/", h.Comment.Create)
	comments.Get("/", h.Comment.List)
	comments.Get("/:commentId", h.Comment.Show)
	comments.Post("/:commentId/approve", h.Comment.Approve)
	comments.Post("/:commentId/draft", h.Comment.Draft)
	comments.Put("/:commentId", h.Comment.Update)
	comments.Delete("/:commentId", h.Comment.Delete)

	blocks := v1.Group("/blocked-entities")
	blocks.Post("/", h.Block.Create)
	blocks.Get("/", h.Block.Show)
	blocks.Delete("/", h.Block.Delete)
}

package server

import (
	"backend-fieldnotes/internal/auth"
	"backend-fieldnotes/internal/config"
	"backend-fieldnotes/internal/export"
	"backend-fieldnotes/internal/fieldnote"
	"backend-fieldnotes/internal/objectstore"
	"backend-fieldnotes/internal/photo"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
	Store *objectstore.Store
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
		Store: objectstore.New(cfg.ObjectStoreDir, cfg.ObjectStoreSecret, cfg.PublicBaseURL),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	noteSvc := fieldnote.NewService(s.DB, s.Redis)
	photoSvc := photo.NewService(s.DB, s.Store)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))

	// export first: /export.csv must win over the /:id route below
	notes := s.App.Group("/api/field-notes")
	export.RegisterRoutes(notes, export.NewService(noteSvc, photoSvc), jwtMiddleware)
	fieldnote.RegisterRoutes(notes, noteSvc, jwtMiddleware)

	photo.RegisterRoutes(s.App.Group("/api/photos"), photoSvc, s.Store, jwtMiddleware)
	objectstore.RegisterRoutes(s.App.Group("/objects"), s.Store)
}

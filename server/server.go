package server

import (
	"context"
	"time"

	"arcade/config"
	"arcade/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RequestMetrics records HTTP and leaderboard timings
type RequestMetrics interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	MeasureLeaderboard() func()
}

// Deps are the services the HTTP surface is built over
type Deps struct {
	Users        service.UserService
	Scores       service.ScoreService
	Achievements service.AchievementService
	Leaderboard  service.LeaderboardService
	Metrics      RequestMetrics // optional
}

// Server is the public HTTP API
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	deps    Deps
	handler *handlers
}

// New builds the fiber app and registers every route
func New(cfg *config.Config, deps Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "arcade",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})

	s := &Server{
		app:  app,
		cfg:  cfg,
		deps: deps,
		handler: &handlers{
			deps:      deps,
			jwtSecret: []byte(cfg.JWTSecret),
			tokenTTL:  cfg.TokenTTL,
		},
	}

	app.Use(recover.New())
	app.Use(requestID())
	app.Use(requestLogger(deps.Metrics))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	h := s.handler
	auth := authMiddleware(h.jwtSecret)

	s.app.Get("/health", h.health)

	api := s.app.Group("/api")
	api.Get("/achievements", h.listAchievements)

	users := api.Group("/users")
	users.Post("/", h.registerUser)
	users.Get("/:id", h.getUser)
	users.Get("/:id/achievements", h.getUserAchievements)
	users.Get("/:id/scores", h.getUserScores)
	users.Post("/:id/reevaluate", auth, h.reevaluate)

	api.Post("/scores", auth, h.submitScore)

	api.Get("/leaderboard", h.getLeaderboard)
	api.Get("/leaderboard/users/:id", h.getUserRank)
}

// App exposes the fiber app for in-process requests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.HTTPAddr)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

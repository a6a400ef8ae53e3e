package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"gestao/internal/dashboard"
	"gestao/internal/timeframe"
)

// DefaultWaitTimeout bounds how long a synchronous dashboard request waits for its cycle
const DefaultWaitTimeout = 30 * time.Second

// Deps are the components handlers read from
type Deps struct {
	Controller  *dashboard.Controller
	Parser      *timeframe.RangeParser
	Logger      *slog.Logger
	Gatherer    prometheus.Gatherer
	WaitTimeout time.Duration

	// DB is nil when the snapshot cache is disabled
	DB *gorm.DB
}

// Context gives handlers the request plus the application components
type Context struct {
	*fiber.Ctx
	Logger *slog.Logger
	Deps   *Deps
}

// Handler is an application route handler
type Handler func(ctx *Context) error

// Server is the fiber app with application-aware routing helpers
type Server struct {
	App  *fiber.App
	deps *Deps
}

func NewServer(deps *Deps) *Server {
	if deps.WaitTimeout <= 0 {
		deps.WaitTimeout = DefaultWaitTimeout
	}

	app := fiber.New(fiber.Config{
		AppName:               "gestao",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(deps.Logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	return &Server{App: app, deps: deps}
}

func (s *Server) Deps() *Deps {
	return s.deps
}

func (s *Server) wrap(h Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := s.deps.Logger
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			logger = logger.With(slog.String("request_id", id))
		}
		return h(&Context{Ctx: c, Logger: logger, Deps: s.deps})
	}
}

func (s *Server) Get(path string, h Handler, middleware ...fiber.Handler) {
	s.App.Get(path, append(middleware, s.wrap(h))...)
}

func (s *Server) Head(path string, h Handler, middleware ...fiber.Handler) {
	s.App.Head(path, append(middleware, s.wrap(h))...)
}

func (s *Server) Post(path string, h Handler, middleware ...fiber.Handler) {
	s.App.Post(path, append(middleware, s.wrap(h))...)
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	return s.App.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("Request failed",
				slog.String("path", c.Path()),
				slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

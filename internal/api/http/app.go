package httpapi

import (
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// Options configures NewApp.
type Options struct {
	Development bool
	CORSOrigins string
	// AccessLog enables the request log middleware.
	AccessLog bool
	Logger    zerolog.Logger
	Metrics   *Metrics
}

// NewApp builds the Fiber application with middleware, the API routes, health,
// metrics and the unmatched-route handler.
func NewApp(service *weather.Service, opts Options) *fiber.App {
	log := opts.Logger.With().Str("component", "http").Logger()

	app := fiber.New(fiber.Config{
		AppName:      "weather-favorites",
		ErrorHandler: ErrorHandler(opts.Development, log),
	})

	useMiddleware(app, opts, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	if opts.Metrics != nil {
		app.Get("/metrics", opts.Metrics.Handler())
	}

	RegisterRoutes(app, service, opts.Metrics)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})

	return app
}

// stackKey holds the panic stack captured by the recover middleware.
const stackKey = "stack"

// useMiddleware installs the shared middleware chain. Metrics sits outside recover so
// requests that panic are still counted.
func useMiddleware(app *fiber.App, opts Options, log zerolog.Logger) {
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	if opts.Metrics != nil {
		app.Use(opts.Metrics.Middleware())
	}
	app.Use(recover.New(recover.Config{
		EnableStackTrace: opts.Development,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			c.Locals(stackKey, string(debug.Stack()))
			log.Error().Interface("panic", e).Str("path", c.Path()).Msg("recovered from panic")
		},
	}))
	app.Use(helmet.New())
	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{AllowOrigins: origins}))
}

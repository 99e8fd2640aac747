package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"brickshelf/internal/logger"
	"brickshelf/internal/middleware"
	"brickshelf/internal/services"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/lo"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the services and ambient pieces the HTTP layer needs.
type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
	Log     *logger.Logger
	// AccessLog receives fiber's access log lines; nil disables it.
	AccessLog io.Writer
	Checks    map[string]HealthCheck
}

// NewApp builds the fiber application with every route mounted under /api/v1.
func NewApp(deps Deps) *fiber.App {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "brickshelf",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if deps.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{Output: deps.AccessLog}))
	}
	app.Use(middleware.RequestLogger(deps.Log))

	apiV1 := app.Group("/api/v1")
	NewAuthHandler(deps.Auth).RegisterRoutes(apiV1)
	NewCatalogHandler(deps.Catalog).RegisterRoutes(apiV1)

	app.Get("/health", healthHandler(deps.Checks))

	return app
}

func healthHandler(checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		results := lo.MapValues(checks, func(check HealthCheck, _ string) string {
			if err := check(ctx); err != nil {
				return err.Error()
			}
			return "ok"
		})
		healthy := lo.EveryBy(lo.Values(results), func(r string) bool { return r == "ok" })

		status, state := fiber.StatusOK, "healthy"
		if !healthy {
			status, state = fiber.StatusServiceUnavailable, "unhealthy"
		}
		return c.Status(status).JSON(fiber.Map{
			"status": state,
			"time":   time.Now().Format(time.RFC3339),
			"checks": results,
		})
	}
}

// errorHandler renders errors that escape a handler, such as unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code == fiber.StatusInternalServerError {
		logger.FromContext(c.UserContext()).Error().Err(err).Msg("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{
		"message": err.Error(),
	})
}

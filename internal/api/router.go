package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/skyads/marketplace/internal/api/handler"
	"github.com/skyads/marketplace/internal/api/middleware"
	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
	"github.com/skyads/marketplace/internal/core/validation"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Users    ports.UserService
	Ads      ports.AdService
	Comments ports.CommentService

	// Checks are probed by /health/ready.
	Checks []handler.DependencyCheck

	JWTSecret     string
	ImageMaxBytes int64
	Logger        zerolog.Logger

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = validation.New()

	registerer, gatherer := deps.Registerer, deps.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string { return ksuid.New().String() },
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "marketplace",
		Registerer: registerer,
	}))
	// multipart overhead on top of the largest accepted image
	e.Use(echomiddleware.BodyLimit(fmt.Sprintf("%dK", deps.ImageMaxBytes/1024+64)))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Users)
	userHandler := handler.NewUserHandler(deps.Users, deps.ImageMaxBytes)
	adHandler := handler.NewAdHandler(deps.Ads, deps.ImageMaxBytes)
	commentHandler := handler.NewCommentHandler(deps.Comments)
	authenticated := []echo.MiddlewareFunc{
		middleware.Auth(deps.JWTSecret, deps.Users),
		middleware.RBAC(domain.RoleUser, domain.RoleAdmin),
	}

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewHealthDependenciesHandler(deps.Checks...).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)

	// --- Public image streams ---
	e.GET("/users/image/:id", userHandler.Image)
	e.GET("/ads/image/:id", adHandler.Image)

	// --- Account ---
	users := e.Group("/users", authenticated...)
	users.GET("/me", userHandler.Me)
	users.PATCH("/me", userHandler.UpdateMe)
	users.POST("/set_password", userHandler.SetPassword)
	users.PATCH("/me/image", userHandler.UpdateImage)

	// --- Ads and comments ---
	ads := e.Group("/ads", authenticated...)
	ads.GET("", adHandler.List)
	ads.POST("", adHandler.Create)
	ads.GET("/me", adHandler.ListMine)
	ads.GET("/find/:title", adHandler.Search)
	ads.GET("/:id", adHandler.Get)
	ads.PATCH("/:id", adHandler.Update)
	ads.DELETE("/:id", adHandler.Delete)
	ads.PATCH("/:id/image", adHandler.UpdateImage)

	ads.GET("/:id/comments", commentHandler.List)
	ads.POST("/:id/comments", commentHandler.Create)
	ads.GET("/:adId/comments/:commentId", commentHandler.Get)
	ads.PATCH("/:adId/comments/:commentId", commentHandler.Update)
	ads.DELETE("/:adId/comments/:commentId", commentHandler.Delete)

	return e
}

// requestLogger writes one zerolog line per request, tagged with the request id.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

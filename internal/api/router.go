package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/wafflestudio/seminar-system/docs"
	"github.com/wafflestudio/seminar-system/internal/api/handler"
	"github.com/wafflestudio/seminar-system/internal/api/middleware"
	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

// Deps are the services the router exposes. Translator may be nil.
type Deps struct {
	Log        zerolog.Logger
	Translator Translator
	Verifier   ports.TokenVerifier
	Auth       ports.AuthService
	Users      ports.UserService
	Seminars   ports.SeminarService
	Activity   ports.ActivityService
	Health     map[string]handler.Pinger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Translator)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(d.Log))

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	seminarHandler := handler.NewSeminarHandler(d.Seminars, d.Activity)
	healthHandler := handler.NewHealthHandler(d.Health)

	// --- Health probes and tooling (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/api/v1")

	// --- Auth routes ---
	v1.POST("/signup", authHandler.SignUp)
	v1.POST("/signin", authHandler.SignIn)

	authed := v1.Group("", middleware.Auth(d.Verifier))

	// --- User routes ---
	authed.GET("/me", userHandler.GetMe)
	authed.PUT("/me", userHandler.UpdateMe)
	authed.DELETE("/user", userHandler.Delete)
	authed.GET("/user/:user_id", userHandler.Get)
	authed.GET("/users", userHandler.List)
	authed.POST("/user/participant", userHandler.RegisterParticipant, middleware.RBAC(domain.RoleInstructor))

	// --- Seminar routes ---
	authed.POST("/seminar", seminarHandler.Make)
	authed.PUT("/seminar", seminarHandler.Update)
	authed.GET("/seminar", seminarHandler.List)
	authed.GET("/seminar/:seminar_id", seminarHandler.Get)
	authed.POST("/seminar/:seminar_id/user", seminarHandler.Participate)
	authed.DELETE("/seminar/:seminar_id/user", seminarHandler.Drop)
	authed.GET("/seminar/:seminar_id/activity", seminarHandler.Activity)

	return e
}

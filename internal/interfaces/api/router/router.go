package router

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"remindme/internal/interfaces/api/handler"
	"remindme/internal/pkg/logger"
)

// Config holds the dependencies for the router.
type Config struct {
	ReminderHandler *handler.ReminderHandler
	WebhookHandler  *handler.WebhookHandler
	HealthHandler   *handler.HealthHandler
	Logger          logger.Logger
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	// Use custom logger that integrates with our logger interface
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogHost:      true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		MaxAge:       300,
	}))

	// Reminder CRUD API
	api := e.Group("/api")
	api.GET("/reminders", cfg.ReminderHandler.List)
	api.POST("/reminders", cfg.ReminderHandler.Create)
	api.DELETE("/reminders", cfg.ReminderHandler.BulkDelete)
	api.GET("/reminders/:id", cfg.ReminderHandler.Get)
	api.PUT("/reminders/:id", cfg.ReminderHandler.Update)
	api.DELETE("/reminders/:id", cfg.ReminderHandler.Delete)

	// Delayed-callback endpoints used in event mode. They authenticate by
	// signature, not by middleware, so the raw body stays untouched.
	e.POST("/webhooks/reminder-alert", cfg.WebhookHandler.HandleAlert)
	e.POST("/webhooks/cleanup", cfg.WebhookHandler.HandleCleanup)

	// Observability
	e.GET("/healthz", cfg.HealthHandler.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	cfg.Logger.Info("Router initialized with routes.")
	return e
}

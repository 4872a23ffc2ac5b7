// Package api wires pkg/dtwinclient behind an HTTP surface using
// labstack/echo, grounded on the teacher's http/server.go: the same
// standard middleware stack (logger, recover, body limit, CORS, request
// ID, optional rate limiting), the same ErrorResponse/CustomHTTPErrorHandler
// shape, and the same StartServer/GracefulShutdown pair, generalized here
// from EVE's generic service scaffolding to this service's twin/
// relationship/model/query/job routes.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/evalgo/digitaltwins/internal/config"
	"github.com/evalgo/digitaltwins/pkg/dtwinclient"
)

// ServerConfig controls Echo construction, mirroring
// config.ServerConfig plus the CORS/rate-limit knobs the teacher's
// ServerConfig also carries.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	RateLimit       float64 // requests/sec; 0 disables the limiter
	Debug           bool
}

// FromConfig adapts config.ServerConfig into a ServerConfig with this
// service's CORS/rate-limit defaults.
func FromConfig(cfg config.ServerConfig) ServerConfig {
	return ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		AllowedOrigins:  []string{"*"},
	}
}

// NewServer builds an Echo instance with the standard middleware stack
// and every route bound to client, serving the one graph client is
// scoped to.
func NewServer(client *dtwinclient.Client, cfg ServerConfig, log *logrus.Logger, serviceName, version string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Debug
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("50M"))
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		}))
	}
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}

	e.GET("/healthz", healthHandler(client, serviceName, version))
	registerRoutes(e, client)

	return e
}

// StartServer runs e until the server exits, e.g. when the caller runs
// GracefulShutdown concurrently.
func StartServer(e *echo.Echo, cfg ServerConfig) error {
	s := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: server exited: %w", err)
	}
	return nil
}

// GracefulShutdown stops e, waiting up to timeout for in-flight requests.
func GracefulShutdown(e *echo.Echo, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("api: graceful shutdown: %w", err)
	}
	return nil
}

func requestLogger(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.WithFields(logrus.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     c.Request().Method,
				"path":       c.Path(),
				"status":     c.Response().Status,
				"latency":    time.Since(start).String(),
			}).Info("request handled")
			return err
		}
	}
}

func healthHandler(client *dtwinclient.Client, serviceName, version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": serviceName,
			"version": version,
			"graph":   client.Graph(),
		})
	}
}

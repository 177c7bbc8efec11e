package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	handlers "github.com/vihaglobalsystems-prog/selt-backend/internal/adapter/handler/http"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/config"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/middleware/auth"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/logger"
)

const (
	corsMaxAge    = 86400
	syncBodyLimit = "1M"
)

// Handlers groups the route handlers the server mounts
type Handlers struct {
	Webhook      *handlers.WebhookHandler
	Subscription *handlers.SubscriptionHandler
	Refund       *handlers.RefundHandler
	Checkout     *handlers.CheckoutHandler
	Cron         *handlers.CronHandler
	Admin        *handlers.AdminHandler
	Sync         *handlers.SyncHandler
	Health       *handlers.HealthHandler
}

// Registry is where request metrics are registered and scraped from
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, h Handlers, registry Registry, log *zap.Logger) *Server {
	e := echo.New()
	e.Validator = handlers.NewRequestValidator()

	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return gonanoid.Must() },
	}))
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.CORSWithConfig(corsConfig(cfg.Service.ClientURL)))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "selt_http",
		Registerer: registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
	}
	s.setupRoutes(h, registry)
	return s
}

func corsConfig(clientURL string) middleware.CORSConfig {
	origin := clientURL
	if origin == "" {
		origin = "*"
	}
	return middleware.CORSConfig{
		AllowOrigins: []string{origin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			auth.HeaderUserID,
			auth.HeaderUserEmail,
			auth.HeaderAdminEmail,
			auth.HeaderCronSecret,
		},
		MaxAge: corsMaxAge,
	}
}

func (s *Server) setupRoutes(h Handlers, registry Registry) {
	e := s.echo

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: registry}))

	api := e.Group("/api")
	api.GET("/health", h.Health.Check)

	// Stripe signs the raw body, so nothing may read it before the handler
	api.POST("/webhooks/stripe", h.Webhook.HandleStripe)

	api.GET("/subscription/status", h.Subscription.GetStatus, auth.RequireUser(s.logger, "userId required"))
	api.POST("/refunds", h.Refund.CreateRefund, auth.RequireUser(s.logger, "Authentication required"))
	api.POST("/checkout", h.Checkout.CreateSession)

	sync := api.Group("/sync", middleware.BodyLimit(syncBodyLimit), auth.RequireUserEmail(s.logger))
	sync.GET("/profile", h.Sync.GetProfile)
	sync.POST("/profile", h.Sync.SaveProfile)
	sync.GET("/results", h.Sync.ListResults)
	sync.POST("/results", h.Sync.SaveResult)

	api.POST("/cron/billing-reminders", h.Cron.BillingReminders, auth.RequireCronSecret(s.config.Service.CronSecret, s.logger))

	// Sign-in carries the email in the body; every other admin route needs the header
	api.POST("/admin/auth", h.Admin.Authenticate)

	admin := api.Group("/admin", auth.RequireAdmin(s.config.Service, s.logger))
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/users/:id", h.Admin.GetUser)
	admin.GET("/subscriptions", h.Admin.ListSubscriptions)
	admin.POST("/subscriptions/:id/cancel", h.Admin.CancelSubscription)
	admin.GET("/refunds", h.Admin.ListRefunds)
	admin.POST("/refunds", h.Admin.CreateRefund)
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Address()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets tests drive the router without a listener
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/m3rciful/leadgenbot/core/logger"
)

// HealthBody is the static liveness marker returned by the health routes.
const HealthBody = "OK"

// ServerOptions configures the HTTP listener shared by health checks and webhook delivery.
type ServerOptions struct {
	Addr string
	// WebhookPath and Webhook are set together in webhook mode.
	WebhookPath string
	Webhook     http.Handler
}

// NewServerHandler builds the gin engine serving liveness probes and, optionally, webhook updates.
func NewServerHandler(opts ServerOptions) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	health := func(c *gin.Context) {
		c.String(http.StatusOK, HealthBody)
	}
	engine.GET("/", health)
	engine.HEAD("/", health)
	engine.GET("/healthz", health)

	if opts.Webhook != nil && opts.WebhookPath != "" {
		engine.POST(opts.WebhookPath, gin.WrapH(opts.Webhook))
	}
	return engine
}

// Server wraps http.Server with start/stop helpers bound to the bot lifecycle.
type Server struct {
	srv *http.Server
}

// NewServer constructs a Server for the provided options.
func NewServer(opts ServerOptions) *Server {
	return &Server{srv: &http.Server{
		Addr:              opts.Addr,
		Handler:           NewServerHandler(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start begins serving in the background. Listener errors are logged.
func (s *Server) Start() {
	logger.HTTP.Info("http listening",
		slog.String("event", "listen"),
		slog.String("listen", s.srv.Addr),
	)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("http server failed",
				slog.String("event", "listen"),
				slog.String("listen", s.srv.Addr),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

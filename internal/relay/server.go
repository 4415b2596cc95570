package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/rs/zerolog"

	"github.com/diogo/cleansight/internal/config"
	"github.com/diogo/cleansight/internal/logging"
	"github.com/diogo/cleansight/internal/models"
)

const (
	// DefaultAddr is the default address the server listens on.
	DefaultAddr = "localhost:3000"

	// ReadTimeout covers reading a full request, inline images included.
	ReadTimeout = 30 * time.Second

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout = 60 * time.Second

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 15 * time.Second
)

// Server hosts the relay endpoint and health check
type Server struct {
	addr   string
	h      *server.Hertz
	logger zerolog.Logger
}

// NewServer wires the routes and middleware. gen must already hold the
// provider credential.
func NewServer(cfg config.RelayConfig, gen Generator, logger zerolog.Logger) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	hertzLogger := logging.NewHertzLogger(logger)
	hlog.SetLogger(hertzLogger)
	hlog.SetLevel(hlog.LevelWarn)

	// The write deadline must outlast the upstream call
	writeTimeout := cfg.Timeout() + 10*time.Second
	if cfg.Timeout() <= 0 {
		writeTimeout = 70 * time.Second
	}

	handler := NewHandler(gen, cfg.MaxBodyBytes)

	// The handler enforces maxBodyBytes with its own 400; the framework
	// limit only stops bodies far past it.
	h := server.Default(
		server.WithHostPorts(addr),
		server.WithReadTimeout(ReadTimeout),
		server.WithWriteTimeout(writeTimeout),
		server.WithIdleTimeout(IdleTimeout),
		server.WithMaxRequestBodySize(2*handler.maxBodyBytes),
		server.WithDisablePrintRoute(true),
	)

	h.Use(
		RequestLogger(logger),
		Recovery(),
		CORS(cfg.AllowedOrigin),
	)

	h.Any(models.RelayPath, handler.Handle)
	h.GET(models.HealthPath, handleHealth)

	return &Server{
		addr:   addr,
		h:      h,
		logger: logger,
	}
}

// Engine exposes the router so requests can be served without a listener
func (s *Server) Engine() *route.Engine {
	return s.h.Engine
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	running := make(chan struct{})
	s.h.OnRun = append(s.h.OnRun, func(context.Context) error {
		close(running)
		return nil
	})

	go func() {
		s.logger.Info().Str("addr", s.addr).Str("path", models.RelayPath).Msg("relay listening")
		errCh <- s.h.Run()
	}()

	select {
	case <-ctx.Done():
		// Shutdown is refused until Run has marked the engine running
		select {
		case <-running:
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		}

		s.logger.Info().Msg("shutting down relay")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := s.h.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		s.logger.Info().Msg("relay stopped")
		return nil

	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

func handleHealth(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

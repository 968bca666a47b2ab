// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/matthewbaird/leadpilot/internal/activity"
	"github.com/matthewbaird/leadpilot/internal/chat"
	"github.com/matthewbaird/leadpilot/internal/eventbus"
	"github.com/matthewbaird/leadpilot/internal/handler"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

// Config holds server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	Logger          *zap.Logger

	Model    *workspace.Model
	Bus      *eventbus.Bus
	Activity activity.Store
	Chat     *chat.Manager
}

// NewRouter registers every route on a chi router wrapped in the request
// middleware.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(handler.Recovery(logger))
	r.Use(handler.Logging(logger.Named("http")))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		eh := handler.NewExplainHandler()
		r.Post("/explanations", eh.Explain)
		r.Post("/explanations/digest", eh.Digest)
		r.Post("/emails/analyze", eh.AnalyzeEmail)

		wh := handler.NewWorkspaceHandler(cfg.Model)
		r.Get("/workspaces", wh.ListWorkspaces)
		r.Get("/workspaces/active", wh.GetActive)
		r.Post("/workspaces/active", wh.SwitchActive)
		r.Put("/workspaces/active/consent", wh.UpdateConsent)
		r.Put("/workspaces/active/pitch-mode", wh.UpdatePitchMode)
		r.Put("/workspaces/active/enterprise-mode", wh.UpdateEnterpriseMode)
		r.Get("/permissions", wh.ListPermissions)
		r.Get("/permissions/{permission}", wh.CheckPermission)
		r.Post("/metrics/adjust", wh.AdjustMetric)
		r.Post("/collections/scope", wh.ScopeCollection)

		if cfg.Chat != nil {
			ch := handler.NewChatHandler(cfg.Chat, cfg.Model)
			r.Post("/chat/sessions", ch.CreateSession)
			r.Get("/chat/sessions/{id}", ch.GetSession)
			r.Post("/chat/sessions/{id}/messages", ch.SendMessage)
		}

		if cfg.Activity != nil {
			r.Get("/audit-logs", handler.NewAuditHandler(cfg.Activity, cfg.Model).ListAuditLogs)
		}

		if cfg.Bus != nil {
			r.Get("/events", handler.NewEventStream(cfg.Bus, cfg.Model, logger).ServeHTTP)
		}
	})

	return r
}

// Run starts the HTTP server with all routes registered and shuts it down
// when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("starting server", zap.String("addr", addr))

	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,

		// Long-lived event streams end when ctx does.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

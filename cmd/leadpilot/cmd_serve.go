package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/leadpilot/internal/chat"
	"github.com/matthewbaird/leadpilot/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	conversations := chat.NewManager(chat.ManagerOptions{
		Backend:     a.apiClient(cfg, logger),
		Persister:   chat.NewSettingsPersister(a.settings),
		Bus:         a.bus,
		Logger:      logger,
		MaxAge:      cfg.Chat.MaxAge,
		IdleTimeout: cfg.Chat.IdleTimeout,
	})

	logger.Info("serving",
		zap.String("workspace", a.model.Active().ID),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Int("subscribers", a.bus.Len()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, server.Config{
			Port:            port,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			Logger:          logger,
			Model:           a.model,
			Bus:             a.bus,
			Activity:        a.activity,
			Chat:            conversations,
		})
	})
	g.Go(func() error {
		return conversations.RunCleanup(gctx, cfg.Chat.CleanupInterval)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/matthewbaird/leadpilot/internal/activity"
	"github.com/matthewbaird/leadpilot/internal/apiclient"
	"github.com/matthewbaird/leadpilot/internal/config"
	"github.com/matthewbaird/leadpilot/internal/event"
	"github.com/matthewbaird/leadpilot/internal/eventbus"
	"github.com/matthewbaird/leadpilot/internal/settings"
	"github.com/matthewbaird/leadpilot/internal/types"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

// app holds the shared dependencies every command builds on.
type app struct {
	store    settings.Store
	settings *settings.Service
	bus      *eventbus.Bus
	activity *activity.MemoryStore
	model    *workspace.Model
	kafka    *eventbus.KafkaSink
}

// newApp wires settings storage, the event bus and its consumers, and the
// workspace model. An empty database URL keeps settings in memory.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		bus:      eventbus.New(logger),
		activity: activity.NewMemoryStore(),
	}

	if cfg.Database.URL == "" {
		a.store = settings.NewMemoryStore()
	} else {
		store, err := settings.OpenSQLStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	a.bus.Subscribe("activity", event.NewActivityRecorder(a.activity))
	a.bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	if cfg.Kafka.Enabled() {
		a.kafka = eventbus.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		a.bus.Subscribe("kafka", a.kafka)
		logger.Info("publishing events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.EventsTopic))
	}

	a.settings = settings.NewService(a.store, a.bus)

	var catalog []types.Workspace
	if cfg.Catalog != "" {
		var err error
		if catalog, err = workspace.LoadCatalog(cfg.Catalog); err != nil {
			a.Close()
			return nil, err
		}
	}
	model, err := workspace.NewModel(ctx, workspace.Options{
		Catalog:  catalog,
		Settings: a.settings,
		Bus:      a.bus,
		Logger:   logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading workspace model: %w", err)
	}
	a.model = model
	return a, nil
}

// apiClient builds a backend client that keeps its tokens in app settings.
func (a *app) apiClient(cfg *config.Config, logger *zap.Logger) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:    cfg.Backend.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Backend.Timeout},
		Settings:   a.settings,
		Logger:     logger,
	})
}

func (a *app) Close() error {
	var errs []error
	if a.kafka != nil {
		errs = append(errs, a.kafka.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

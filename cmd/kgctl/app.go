package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ternarybob/kgraph/internal/chunker"
	"github.com/ternarybob/kgraph/internal/commitingest"
	"github.com/ternarybob/kgraph/internal/config"
	"github.com/ternarybob/kgraph/internal/deriver"
	"github.com/ternarybob/kgraph/internal/embedding"
	"github.com/ternarybob/kgraph/internal/git"
	"github.com/ternarybob/kgraph/internal/graph"
	"github.com/ternarybob/kgraph/internal/linker"
	"github.com/ternarybob/kgraph/internal/logging"
	"github.com/ternarybob/kgraph/internal/ops"
	"github.com/ternarybob/kgraph/internal/orchestrator"
	"github.com/ternarybob/kgraph/internal/schema"
	"github.com/ternarybob/kgraph/internal/sprint"
	"github.com/ternarybob/kgraph/internal/subgraph"
	"github.com/ternarybob/kgraph/internal/symbols"
	"github.com/ternarybob/kgraph/internal/telemetry"
	"github.com/ternarybob/kgraph/internal/validator"

	"github.com/prometheus/client_golang/prometheus"
)

// app bundles every wired component a kgctl subcommand might need.
// Built once per invocation from the layered config.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	client  *graph.Client
	store   ops.Store
	orch    *orchestrator.Orchestrator
	valid   *validator.Validator
	subeng  *subgraph.Engine
}

func buildApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		JSON:       cfg.Logging.JSON,
		OutputFile: cfg.Logging.OutputFile,
	})
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	client, err := graph.NewClient(ctx, graph.Config{
		URI:      cfg.GraphStore.URI,
		User:     cfg.GraphStore.User,
		Password: cfg.GraphStore.Password,
		Database: cfg.GraphStore.Database,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to graph store: %w", err)
	}

	store, err := ops.Open(cfg.OpsStore.Type, cfg.OpsStore.PostgresDSN, cfg.OpsStore.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open ops store: %w", err)
	}

	reader := git.NewReader(cfg.RepoPath)
	registry := ops.NewRegistry(store)
	schemaManager := schema.NewManager(client, logger)
	commitSvc := commitingest.NewService(reader, client, logger)
	chunkSvc := chunker.NewService(client, logger)
	sprintSvc := sprint.NewService(client, reader, cfg.RepoPath, logger)
	derivSvc := deriver.NewService(client, logger)
	embedClient := embedding.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, logger)
	symbolsSvc := symbols.NewService(client, logger)
	linkerSvc := linker.NewService(client, logger)
	metrics := telemetry.New(prometheus.DefaultRegisterer)

	orch := orchestrator.New(registry, schemaManager, reader, client,
		commitSvc, chunkSvc, sprintSvc, derivSvc, embedClient, symbolsSvc, linkerSvc, metrics, logger)

	valid := validator.New(client, store, logger)

	subEngine := subgraph.NewEngine(client, metrics, logger)
	if cfg.Cache.RedisAddr != "" {
		subEngine = subEngine.WithRedisCache(subgraph.NewRedisCache(cfg.Cache.RedisAddr))
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		store:  store,
		orch:   orch,
		valid:  valid,
		subeng: subEngine,
	}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.client.Close(ctx); err != nil {
		a.logger.WithError(err).Warn("error closing graph client")
	}
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Warn("error closing ops store")
	}
}

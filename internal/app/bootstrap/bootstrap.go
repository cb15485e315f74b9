package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	ballotledger "electionledger/contexts/election-operations/ballot-ledger"
	boltadapter "electionledger/contexts/election-operations/ballot-ledger/adapters/bolt"
	memoryadapter "electionledger/contexts/election-operations/ballot-ledger/adapters/memory"
	postgresadapter "electionledger/contexts/election-operations/ballot-ledger/adapters/postgres"
	workerapp "electionledger/contexts/election-operations/ballot-ledger/application/workers"
	"electionledger/internal/platform/config"
	"electionledger/internal/platform/db"
	"electionledger/internal/platform/httpserver"
	"electionledger/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	bolt     *boltadapter.Mirror
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	app := &APIApp{logger: logger}
	deps := ballotledger.Dependencies{
		QueueCapacity:     cfg.QueueCapacity,
		CandidateCapacity: cfg.CandidateCapacity,
		VoterBuckets:      cfg.VoterBuckets,
		Candidates:        seedCandidates(cfg),
		Logger:            logger,
	}

	// Mirror selection: postgres when a DSN is set, bolt for single-node
	// durability, otherwise the in-memory store.
	switch {
	case strings.TrimSpace(cfg.PostgresDSN) != "":
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.Migrate(); err != nil {
			_ = pg.Close()
			return nil, err
		}
		app.postgres = pg
		deps.Mirror = repo
		deps.Clock = postgresadapter.SystemClock{}
		deps.IDGen = postgresadapter.UUIDGenerator{}
	case strings.TrimSpace(cfg.BoltPath) != "":
		mirror, err := boltadapter.Open(cfg.BoltPath, logger)
		if err != nil {
			return nil, err
		}
		app.bolt = mirror
		deps.Mirror = mirror
		deps.Clock = postgresadapter.SystemClock{}
		deps.IDGen = postgresadapter.UUIDGenerator{}
	default:
		store := memoryadapter.NewStore()
		deps.Mirror = store
		deps.Clock = store
		deps.IDGen = store
	}

	module, err := ballotledger.NewModule(deps)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.server = httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required for the outbox relay")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.RelayInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	if a.bolt != nil {
		return a.bolt.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func seedCandidates(cfg config.Config) []ballotledger.CandidateSeed {
	seeds := make([]ballotledger.CandidateSeed, 0, len(cfg.SeedCandidates))
	for _, seed := range cfg.SeedCandidates {
		seeds = append(seeds, ballotledger.CandidateSeed{
			CandidateID: seed.CandidateID,
			DisplayName: seed.DisplayName,
		})
	}
	return seeds
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

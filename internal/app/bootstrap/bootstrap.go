package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	electionengine "ballotbox/contexts/civic-voting/election-engine"
	electionmemory "ballotbox/contexts/civic-voting/election-engine/adapters/memory"
	electionpostgres "ballotbox/contexts/civic-voting/election-engine/adapters/postgres"
	workerapp "ballotbox/contexts/civic-voting/election-engine/application/workers"
	accountservice "ballotbox/contexts/identity-access/account-service"
	accountmemory "ballotbox/contexts/identity-access/account-service/adapters/memory"
	accountpostgres "ballotbox/contexts/identity-access/account-service/adapters/postgres"
	"ballotbox/contexts/identity-access/account-service/adapters/security"
	accountentities "ballotbox/contexts/identity-access/account-service/domain/entities"
	"ballotbox/internal/app/identity"
	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/db"
	"ballotbox/internal/platform/httpserver"
	"ballotbox/internal/platform/logging"
	"ballotbox/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const tokenIssuer = "ballotbox"

type APIApp struct {
	server       *httpserver.Server
	postgres     *db.Postgres
	relay        workerapp.OutboxRelay
	audit        workerapp.AuditConsumer
	embedWorker  bool
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	audit        workerapp.AuditConsumer
	pollInterval time.Duration
	logger       *slog.Logger
}

// wiring is the state shared by the api and worker processes.
type wiring struct {
	cfg       config.Config
	logger    *slog.Logger
	postgres  *db.Postgres
	bus       *messaging.Bus
	elections electionengine.Module
	accounts  accountservice.Module
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	w, err := buildWiring(ctx, "api")
	if err != nil {
		return nil, err
	}
	server := httpserver.New(
		w.elections,
		w.accounts,
		w.logger,
		normalizeAddr(w.cfg.HTTPPort),
		w.cfg.CORSAllowedOrigins,
	)
	return &APIApp{
		server:       server,
		postgres:     w.postgres,
		relay:        w.elections.OutboxRelay,
		audit:        newAuditConsumer(w),
		embedWorker:  w.cfg.MemoryMode(),
		pollInterval: w.cfg.OutboxPollInterval,
		logger:       w.logger,
	}, nil
}

// BuildWorker needs Postgres: in-memory state lives inside the api process,
// which relays its own outbox in that mode.
func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.MemoryMode() {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	w, err := buildWiringFrom(ctx, cfg, "worker")
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		postgres:     w.postgres,
		outboxRelay:  w.elections.OutboxRelay,
		audit:        newAuditConsumer(w),
		pollInterval: w.cfg.OutboxPollInterval,
		logger:       w.logger,
	}, nil
}

func buildWiring(ctx context.Context, process string) (wiring, error) {
	cfg, err := config.Load()
	if err != nil {
		return wiring{}, err
	}
	return buildWiringFrom(ctx, cfg, process)
}

func buildWiringFrom(ctx context.Context, cfg config.Config, process string) (wiring, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With("service", cfg.ServiceName, "process", process)
	w := wiring{
		cfg:    cfg,
		logger: logger,
		bus:    messaging.NewBus(logger),
	}
	if cfg.MemoryMode() {
		return buildMemory(w)
	}
	return buildPostgres(ctx, w)
}

func buildMemory(w wiring) (wiring, error) {
	hasher := security.BcryptHasher{}
	var (
		users []accountentities.User
		seed  electionmemory.Seed
	)
	if w.cfg.SeedDemoData {
		now := time.Now().UTC()
		demoUsers, err := accountmemory.DemoUsers(hasher, now)
		if err != nil {
			return wiring{}, fmt.Errorf("hash demo passwords: %w", err)
		}
		users = demoUsers
		seed = electionmemory.DemoSeed(now)
	}

	w.accounts = accountservice.NewInMemoryModule(users, w.cfg.JWTSecret, w.cfg.AccessTokenTTL, w.logger)
	w.elections = electionengine.NewInMemoryModule(
		seed,
		identity.AccountDirectory{Users: w.accounts.Users},
		w.bus,
		w.logger,
	)
	w.elections.OutboxRelay.BatchSize = w.cfg.OutboxBatchSize

	w.logger.Info("in-memory stores ready",
		"event", "bootstrap_memory_mode",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"seeded", w.cfg.SeedDemoData,
	)
	return w, nil
}

func buildPostgres(ctx context.Context, w wiring) (wiring, error) {
	pg, err := db.Connect(ctx, w.cfg.PostgresDSN)
	if err != nil {
		return wiring{}, err
	}
	w.postgres = pg
	if w.cfg.RunMigrations {
		if err := pg.Migrate(ctx, w.logger); err != nil {
			_ = pg.Close()
			return wiring{}, err
		}
	}

	accountRepo := accountpostgres.NewRepository(pg.DB, w.logger)
	electionRepo := electionpostgres.NewRepository(pg.DB, w.logger)
	hasher := security.BcryptHasher{}

	if w.cfg.SeedDemoData {
		if err := seedPostgres(ctx, hasher, accountRepo, electionRepo); err != nil {
			_ = pg.Close()
			return wiring{}, err
		}
	}

	w.accounts = accountservice.NewModule(accountservice.Dependencies{
		Users:  accountRepo,
		Hasher: hasher,
		Tokens: security.NewJWTIssuer(w.cfg.JWTSecret, tokenIssuer, w.cfg.AccessTokenTTL),
		Clock:  accountpostgres.SystemClock{},
		IDGen:  accountpostgres.UUIDGenerator{},
		Logger: w.logger,
	})
	w.elections = electionengine.NewModule(electionengine.Dependencies{
		Elections:       electionRepo,
		Votes:           electionRepo,
		Identity:        identity.AccountDirectory{Users: accountRepo},
		Outbox:          electionRepo,
		OutboxReader:    electionRepo,
		Publisher:       w.bus,
		Clock:           electionpostgres.SystemClock{},
		IDGen:           electionpostgres.UUIDGenerator{},
		OutboxBatchSize: w.cfg.OutboxBatchSize,
		Logger:          w.logger,
	})
	return w, nil
}

// seedPostgres inserts the demo board; rows that already exist are kept.
func seedPostgres(
	ctx context.Context,
	hasher security.BcryptHasher,
	accounts *accountpostgres.Repository,
	elections *electionpostgres.Repository,
) error {
	now := time.Now().UTC()
	users, err := accountmemory.DemoUsers(hasher, now)
	if err != nil {
		return fmt.Errorf("hash demo passwords: %w", err)
	}
	if err := accounts.Seed(ctx, users); err != nil {
		return fmt.Errorf("seed demo accounts: %w", err)
	}
	board := electionmemory.DemoSeed(now)
	if err := elections.Seed(ctx, board.Elections, board.Votes); err != nil {
		return fmt.Errorf("seed demo elections: %w", err)
	}
	return nil
}

func newAuditConsumer(w wiring) workerapp.AuditConsumer {
	consumer := w.elections.Audit
	consumer.Subscriber = w.bus
	consumer.ConsumerGroup = w.cfg.ServiceName + "-audit-cg"
	return consumer
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_worker", a.embedWorker,
	)
	if a.embedWorker {
		if err := a.audit.Start(ctx); err != nil {
			return err
		}
		go runRelayLoop(ctx, a.relay, a.pollInterval, a.logger)
	}
	return a.server.Run(ctx)
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.audit.Start(ctx); err != nil {
		return err
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	runRelayLoop(ctx, w.outboxRelay, w.pollInterval, w.logger)
	return nil
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// runRelayLoop drains the outbox every interval until ctx is done. A failed
// cycle is already logged by the relay and retried on the next tick.
func runRelayLoop(ctx context.Context, relay workerapp.OutboxRelay, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := relay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("outbox relay cycle failed; retrying next tick",
				"event", "bootstrap_relay_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
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

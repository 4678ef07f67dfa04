package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"

	"github.com/appetiteclub/controlrest/services/ledger/internal/ledger"
	"github.com/appetiteclub/controlrest/services/ledger/internal/mongo"
	"github.com/appetiteclub/controlrest/services/ledger/internal/postgres"
)

// storage is the durability backend picked by db.driver.
type storage struct {
	Snapshots ledger.SnapshotStore
	Tracker   seed.Tracker
	Ping      apt.HealthCheck
	Stop      func(ctx context.Context) error
}

func openStorage(ctx context.Context, config *apt.Config, logger apt.Logger) (*storage, error) {
	driver := strings.ToLower(config.GetStringOrDef("db.driver", "memory"))

	switch driver {
	case "mongo", "mongodb":
		baseRepo := mongo.NewBaseRepo(config, logger)
		if err := baseRepo.Start(ctx); err != nil {
			return nil, fmt.Errorf("cannot start base repository: %w", err)
		}
		db := baseRepo.GetDatabase()
		if db == nil {
			_ = baseRepo.Stop(ctx)
			return nil, errors.New("repository database is nil")
		}
		return &storage{
			Snapshots: mongo.NewSnapshotRepo(db),
			Tracker:   seed.NewMongoTracker(db),
			Ping:      baseRepo.Ping,
			Stop:      baseRepo.Stop,
		}, nil

	case "postgres", "postgresql":
		repo := postgres.NewSnapshotRepo(config, logger)
		if err := repo.Start(ctx); err != nil {
			return nil, fmt.Errorf("cannot start snapshot repository: %w", err)
		}
		return &storage{
			Snapshots: repo,
			Tracker:   repo.SeedTracker(),
			Ping:      repo.Ping,
			Stop:      repo.Stop,
		}, nil

	case "memory", "":
		logger.Info("using in-memory storage, state is lost on restart")
		return &storage{
			Snapshots: ledger.NewMemorySnapshotStore(),
			Tracker:   ledger.NewMemorySeedTracker(),
			Stop:      func(context.Context) error { return nil },
		}, nil
	}

	return nil, fmt.Errorf("unknown db.driver %q", driver)
}

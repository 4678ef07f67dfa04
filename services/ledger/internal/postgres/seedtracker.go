package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt/seed"
)

// SeedTracker is the seed.Tracker for the postgres driver.
type SeedTracker struct {
	repo *SnapshotRepo
}

func (t *SeedTracker) HasRun(ctx context.Context, id string) (bool, error) {
	if t.repo == nil || t.repo.pool == nil {
		return false, errors.New("postgres seed tracker is not started")
	}
	var found bool
	err := t.repo.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ledger_seeds WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("query seed %s: %w", id, err)
	}
	return found, nil
}

func (t *SeedTracker) MarkRun(ctx context.Context, record seed.Record) error {
	if t.repo == nil || t.repo.pool == nil {
		return errors.New("postgres seed tracker is not started")
	}
	if record.ID == "" {
		return errors.New("seed record ID is required")
	}
	_, err := t.repo.pool.Exec(ctx,
		`INSERT INTO ledger_seeds (id, application, description, applied_at) VALUES ($1, $2, $3, $4)`,
		record.ID, record.Application, record.Description, record.AppliedAt)
	if err != nil {
		return fmt.Errorf("insert seed record %s: %w", record.ID, err)
	}
	return nil
}

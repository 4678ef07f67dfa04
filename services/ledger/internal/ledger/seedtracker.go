package ledger

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt/seed"
)

// MemorySeedTracker remembers applied seeds for the life of the process. It
// backs the memory driver, where the ledger itself starts empty every run.
type MemorySeedTracker struct {
	mu      sync.Mutex
	records map[string]seed.Record
}

func NewMemorySeedTracker() *MemorySeedTracker {
	return &MemorySeedTracker{records: map[string]seed.Record{}}
}

func (t *MemorySeedTracker) HasRun(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[id]
	return ok, nil
}

func (t *MemorySeedTracker) MarkRun(ctx context.Context, record seed.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[record.ID] = record
	return nil
}

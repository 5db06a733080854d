package snapshot

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/klinechart/internal/domain"
)

// Load reads the stored snapshot and validates both the envelope and the
// column schema.
func Load(ctx context.Context, store domain.SnapshotStore) (domain.Snapshot, error) {
	raw, err := store.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snap, err := domain.DecodeSnapshot(raw)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot: load %s: %w", store.Location(), err)
	}
	if err := snap.CheckEnvelope(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot: load %s: %w", store.Location(), err)
	}
	if err := snap.Data.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot: load %s: %w", store.Location(), err)
	}
	return snap, nil
}

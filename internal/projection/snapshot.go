package projection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/attaboy/academy/internal/domain"
)

// DefaultSnapshotKey is the storage key of the learner snapshot.
const DefaultSnapshotKey = "academy:progress"

// SnapshotStore loads and saves the learner snapshot.
// Load returns an error wrapping ErrNotFound when nothing has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, p *domain.Snapshot) error
}

// SnapshotRepository stores the snapshot as one JSON document under a fixed key.
type SnapshotRepository struct {
	store  Store
	key    string
	logger *slog.Logger
}

// NewSnapshotRepository creates a repository. An empty key selects DefaultSnapshotKey.
func NewSnapshotRepository(store Store, key string, logger *slog.Logger) *SnapshotRepository {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &SnapshotRepository{store: store, key: key, logger: logger}
}

// Key returns the storage key in use.
func (r *SnapshotRepository) Key() string {
	return r.key
}

func (r *SnapshotRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	var p domain.Snapshot
	if err := GetJSON(ctx, r.store, r.key, &p); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if repairs := p.Normalize(); len(repairs) > 0 {
		r.logger.Warn("stored snapshot repaired", "key", r.key, "learner_id", p.ID, "repairs", repairs)
	}
	return &p, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, p *domain.Snapshot) error {
	if err := SetJSON(ctx, r.store, r.key, p, 0); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

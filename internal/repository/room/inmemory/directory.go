package inmemory

import (
	"context"

	"github.com/couchsync/server/internal/repository/room"
)

// Directory serves room summaries straight from the registry when no external mirror is configured.
type Directory struct {
	registry *Registry
}

func NewDirectory(registry *Registry) *Directory {
	return &Directory{registry: registry}
}

func (d *Directory) SetSummary(context.Context, room.Summary) error {
	return nil
}

func (d *Directory) RemoveSummary(context.Context, string) error {
	return nil
}

func (d *Directory) GetSummary(ctx context.Context, roomID string) (room.Summary, error) {
	return d.registry.Summary(ctx, roomID)
}

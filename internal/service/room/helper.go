package room

import (
	"context"

	"github.com/couchsync/server/internal/repository/room"
)

// syncSummary mirrors the room into the directory. Directory errors never fail the caller.
// A room closed while the summary was being written has its record removed again.
func (s service) syncSummary(ctx context.Context, roomID string) {
	var summary room.Summary
	if !s.roomRepo.WithRoom(roomID, func(rm *room.Room) {
		summary = room.NewSummary(rm)
	}) {
		s.removeSummary(ctx, roomID)
		return
	}

	if err := s.directory.SetSummary(ctx, summary); err != nil {
		s.logger.WarnContext(ctx, "failed to set room summary", "error", err)
		return
	}

	if !s.roomRepo.WithRoom(roomID, func(*room.Room) {}) {
		s.logger.DebugContext(ctx, "room closed during summary write", "room_id", roomID)
		s.removeSummary(ctx, roomID)
	}
}

func (s service) removeSummary(ctx context.Context, roomID string) {
	if err := s.directory.RemoveSummary(ctx, roomID); err != nil {
		s.logger.WarnContext(ctx, "failed to remove room summary", "error", err)
	}
}

func (s service) GetRoom(ctx context.Context, roomID string) (room.Summary, error) {
	return s.directory.GetSummary(ctx, room.NormalizeID(roomID))
}

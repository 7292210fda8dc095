package room

import (
	"context"
	"fmt"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/repository/room"
	"github.com/google/uuid"
)

type PlaybackParams struct {
	RoomID   string
	SenderID uuid.UUID
	Type     string
	Playback message.Playback
}

// UpdatePlayer applies PLAY, PAUSE, SEEK or UPDATE and forwards it to the other members.
func (s service) UpdatePlayer(ctx context.Context, params *PlaybackParams) error {
	var apply func(*domain.PlayerStatus)
	switch params.Type {
	case message.TypePlay:
		apply = func(p *domain.PlayerStatus) { *p = domain.NewPlaying(params.Playback.Time) }
	case message.TypePause:
		apply = func(p *domain.PlayerStatus) { *p = domain.NewPaused(params.Playback.Time) }
	case message.TypeSeek, message.TypeUpdate:
		apply = func(p *domain.PlayerStatus) { p.Seek(params.Playback.Time) }
	default:
		return fmt.Errorf("unsupported player message type: %s", params.Type)
	}

	if err := s.mutateAsMember(params.RoomID, params.SenderID, func(rm *room.Room, _ *room.User) {
		apply(&rm.PlayerStatus)
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update player", "error", err)
		return err
	}

	s.roomRepo.BroadcastExcluding(params.RoomID,
		message.NewFrom(params.SenderID, params.Type, params.Playback),
		params.SenderID,
	)

	if params.Type != message.TypeUpdate {
		s.syncSummary(ctx, params.RoomID)
	}

	return nil
}

// mutateAsMember runs fn under the room's exclusive lock once the sender is confirmed to be in it.
func (s service) mutateAsMember(roomID string, senderID uuid.UUID, fn func(*room.Room, *room.User)) error {
	found := false
	if !s.roomRepo.WithRoomMut(roomID, func(rm *room.Room) {
		var u *room.User
		if u, found = rm.User(senderID); found {
			fn(rm, u)
		}
	}) {
		return room.ErrRoomNotFound
	}

	if !found {
		return ErrMemberNotFound
	}

	return nil
}

func (s service) checkMember(roomID string, senderID uuid.UUID) error {
	found := false
	if !s.roomRepo.WithRoom(roomID, func(rm *room.Room) {
		_, found = rm.User(senderID)
	}) {
		return room.ErrRoomNotFound
	}

	if !found {
		return ErrMemberNotFound
	}

	return nil
}

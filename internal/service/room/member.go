package room

import (
	"context"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/repository/room"
	"github.com/google/uuid"
)

type ChatParams struct {
	RoomID   string
	SenderID uuid.UUID
	Chat     message.Chat
}

func (s service) Chat(ctx context.Context, params *ChatParams) error {
	if err := s.checkMember(params.RoomID, params.SenderID); err != nil {
		s.logger.InfoContext(ctx, "failed to send chat", "error", err)
		return err
	}

	s.roomRepo.BroadcastExcluding(params.RoomID,
		message.NewFrom(params.SenderID, message.TypeChat, params.Chat),
		params.SenderID,
	)

	return nil
}

type SelectVideoParams struct {
	RoomID        string
	SenderID      uuid.UUID
	SelectedVideo message.SelectedVideo
}

func (s service) SelectVideo(ctx context.Context, params *SelectVideoParams) error {
	if err := s.mutateAsMember(params.RoomID, params.SenderID, func(_ *room.Room, u *room.User) {
		u.Meta.State = domain.NewVideoSelected(params.SelectedVideo.Video)
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to select video", "error", err)
		return err
	}

	s.roomRepo.BroadcastExcluding(params.RoomID,
		message.NewFrom(params.SenderID, message.TypeSelectedVideo, params.SelectedVideo),
		params.SenderID,
	)

	return nil
}

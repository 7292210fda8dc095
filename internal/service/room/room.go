package room

import (
	"context"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/repository/room"
	"github.com/google/uuid"
)

// Membership is what a connection needs to enter its loop.
type Membership struct {
	RoomID       string
	UserID       uuid.UUID
	Outbound     <-chan message.Envelope
	Users        []domain.UserMeta
	PlayerStatus domain.PlayerStatus
}

func (m Membership) RoomState() message.RoomState {
	return message.RoomState{
		RoomID:       m.RoomID,
		UserID:       m.UserID,
		Users:        m.Users,
		PlayerStatus: m.PlayerStatus,
	}
}

func (s service) newUser(username string) (room.User, chan message.Envelope) {
	outbound := make(chan message.Envelope, s.outboundBuffer)
	return room.User{Meta: domain.NewUserMeta(username), Outbound: outbound}, outbound
}

type CreateRoomParams struct {
	Username string
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (Membership, error) {
	user, outbound := s.newUser(params.Username)

	roomID, err := s.roomRepo.CreateRoom(ctx, user)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to create room", "error", err)
		return Membership{}, err
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomID, "user_id", user.Meta.ID)
	s.syncSummary(ctx, roomID)

	return Membership{
		RoomID:       roomID,
		UserID:       user.Meta.ID,
		Outbound:     outbound,
		Users:        []domain.UserMeta{user.Meta},
		PlayerStatus: domain.NewPaused(0),
	}, nil
}

type JoinRoomParams struct {
	Username string
	RoomID   string
}

// JoinRoom adds a user to an existing room and tells the others about it.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (Membership, error) {
	user, outbound := s.newUser(params.Username)

	info, err := s.roomRepo.JoinRoom(ctx, params.RoomID, user)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to join room", "room_id", params.RoomID, "error", err)
		return Membership{}, err
	}

	s.roomRepo.BroadcastExcluding(info.RoomID, message.New(message.TypeUserJoined, message.UserJoined{
		NewUser:      user.Meta.ID,
		Users:        info.Users,
		PlayerStatus: info.PlayerStatus,
	}), user.Meta.ID)

	s.logger.InfoContext(ctx, "user joined room", "room_id", info.RoomID, "user_id", user.Meta.ID)
	s.syncSummary(ctx, info.RoomID)

	return Membership{
		RoomID:       info.RoomID,
		UserID:       user.Meta.ID,
		Outbound:     outbound,
		Users:        info.Users,
		PlayerStatus: info.PlayerStatus,
	}, nil
}

type DisconnectParams struct {
	RoomID string
	UserID uuid.UUID
}

type DisconnectResponse struct {
	IsRoomDeleted bool
}

// Disconnect removes the user from its room. The host leaving closes the room,
// since the host is never replaced.
func (s service) Disconnect(ctx context.Context, params *DisconnectParams) DisconnectResponse {
	var (
		isHost       bool
		remaining    []domain.UserMeta
		playerStatus domain.PlayerStatus
	)
	if !s.roomRepo.WithRoom(params.RoomID, func(rm *room.Room) {
		host, ok := rm.Host()
		isHost = ok && host.Meta.ID == params.UserID
		playerStatus = rm.PlayerStatus
		for _, u := range rm.Users {
			if u.Meta.ID != params.UserID {
				remaining = append(remaining, u.Meta)
			}
		}
	}) {
		return DisconnectResponse{IsRoomDeleted: true}
	}

	if isHost {
		return s.closeRoom(ctx, params, remaining, playerStatus)
	}

	users, ok := s.roomRepo.RemoveUser(ctx, params.RoomID, params.UserID)
	if !ok {
		s.logger.InfoContext(ctx, "last user left, room removed")
		s.removeSummary(ctx, params.RoomID)
		return DisconnectResponse{IsRoomDeleted: true}
	}

	s.roomRepo.WithRoom(params.RoomID, func(rm *room.Room) {
		playerStatus = rm.PlayerStatus
	})
	s.roomRepo.BroadcastExcluding(params.RoomID, message.New(message.TypeUserLeft, message.UserLeft{
		UserLeft:     params.UserID,
		Users:        users,
		PlayerStatus: playerStatus,
	}), params.UserID)

	s.logger.InfoContext(ctx, "user left room", "users", len(users))
	s.syncSummary(ctx, params.RoomID)

	return DisconnectResponse{}
}

func (s service) closeRoom(ctx context.Context, params *DisconnectParams, remaining []domain.UserMeta, playerStatus domain.PlayerStatus) DisconnectResponse {
	if len(remaining) > 0 {
		s.roomRepo.BroadcastExcluding(params.RoomID, message.New(message.TypeUserLeft, message.UserLeft{
			UserLeft:     params.UserID,
			Users:        remaining,
			PlayerStatus: playerStatus,
		}), params.UserID)
	}

	s.roomRepo.CloseRoom(ctx, params.RoomID, message.New(message.TypeRoomClosed, message.RoomClosed{
		RoomID: params.RoomID,
	}), params.UserID)

	s.logger.InfoContext(ctx, "host left, room closed", "notified", len(remaining))
	s.removeSummary(ctx, params.RoomID)

	return DisconnectResponse{IsRoomDeleted: true}
}

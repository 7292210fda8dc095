package message

import (
	"github.com/couchsync/server/internal/domain"
	"github.com/google/uuid"
)

const (
	TypeRoomCreated = "ROOM_CREATED"
	TypeRoomJoined  = "ROOM_JOINED"
	TypeUserJoined  = "USER_JOINED"
	TypeUserLeft    = "USER_LEFT"
	TypeRoomClosed  = "ROOM_CLOSED"
	TypeError       = "ERROR"
)

// RoomState is the payload of ROOM_CREATED and ROOM_JOINED.
type RoomState struct {
	RoomID       string              `json:"room_id"`
	UserID       uuid.UUID           `json:"user_id"`
	Users        []domain.UserMeta   `json:"users"`
	PlayerStatus domain.PlayerStatus `json:"player_status"`
}

type UserJoined struct {
	NewUser      uuid.UUID           `json:"new_user"`
	Users        []domain.UserMeta   `json:"users"`
	PlayerStatus domain.PlayerStatus `json:"player_status"`
}

type UserLeft struct {
	UserLeft     uuid.UUID           `json:"user_left"`
	Users        []domain.UserMeta   `json:"users"`
	PlayerStatus domain.PlayerStatus `json:"player_status"`
}

type Error struct {
	Message string `json:"message"`
}

// RoomClosed is sent to everyone left in a room when its host disconnects.
type RoomClosed struct {
	RoomID string `json:"room_id"`
}

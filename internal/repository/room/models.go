package room

import (
	"strings"
	"time"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/message"
	"github.com/google/uuid"
)

// User is a room participant. Outbound is only the sending half; the connection loop owns the queue.
type User struct {
	Meta     domain.UserMeta
	Outbound chan<- message.Envelope
}

// Room is the mutable per-room state. Users[0] is the host.
type Room struct {
	ID             string
	Users          []User
	PlayerStatus   domain.PlayerStatus
	PublishSession *domain.PublishSession
}

func (r *Room) Host() (User, bool) {
	if len(r.Users) == 0 {
		return User{}, false
	}

	return r.Users[0], true
}

func (r *Room) User(id uuid.UUID) (*User, bool) {
	for i := range r.Users {
		if r.Users[i].Meta.ID == id {
			return &r.Users[i], true
		}
	}

	return nil, false
}

func (r *Room) UserMetas() []domain.UserMeta {
	metas := make([]domain.UserMeta, 0, len(r.Users))
	for _, u := range r.Users {
		metas = append(metas, u.Meta)
	}

	return metas
}

type JoinInfo struct {
	RoomID       string
	UserID       uuid.UUID
	Users        []domain.UserMeta
	PlayerStatus domain.PlayerStatus
}

// Summary is the public, connection-free view of a room.
type Summary struct {
	RoomID       string              `json:"room_id"`
	HostName     string              `json:"host_name"`
	UserCount    int                 `json:"user_count"`
	PlayerStatus domain.PlayerStatus `json:"player_status"`
	UpdatedAt    int64               `json:"updated_at"`
}

func NewSummary(r *Room) Summary {
	s := Summary{
		RoomID:       r.ID,
		UserCount:    len(r.Users),
		PlayerStatus: r.PlayerStatus,
		UpdatedAt:    time.Now().Unix(),
	}
	if host, ok := r.Host(); ok {
		s.HostName = host.Meta.Name
	}

	return s
}

// NormalizeID returns the canonical form of a user-typed room code.
func NormalizeID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

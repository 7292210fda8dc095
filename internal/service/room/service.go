package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/repository/room"
	"github.com/google/uuid"
)

var ErrMemberNotFound = errors.New("member not found")

type iRoomRepo interface {
	CreateRoom(context.Context, room.User) (string, error)
	JoinRoom(context.Context, string, room.User) (room.JoinInfo, error)
	WithRoom(roomID string, fn func(*room.Room)) bool
	WithRoomMut(roomID string, fn func(*room.Room)) bool
	RemoveUser(ctx context.Context, roomID string, userID uuid.UUID) ([]domain.UserMeta, bool)
	CloseRoom(ctx context.Context, roomID string, env message.Envelope, excluded ...uuid.UUID) bool
	BroadcastExcluding(roomID string, env message.Envelope, excluded ...uuid.UUID)
}

// iDirectory publishes connection-free room summaries for lookups.
type iDirectory interface {
	SetSummary(context.Context, room.Summary) error
	RemoveSummary(context.Context, string) error
	GetSummary(context.Context, string) (room.Summary, error)
}

type Config struct {
	OutboundBuffer int
}

type service struct {
	roomRepo       iRoomRepo
	directory      iDirectory
	outboundBuffer int
	logger         *slog.Logger
}

func NewService(roomRepo iRoomRepo, directory iDirectory, cfg *Config, logger *slog.Logger) *service {
	outboundBuffer := cfg.OutboundBuffer
	if outboundBuffer < 1 {
		outboundBuffer = 10
	}

	return &service{
		roomRepo:       roomRepo,
		directory:      directory,
		outboundBuffer: outboundBuffer,
		logger:         logger,
	}
}

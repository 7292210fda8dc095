package controller

import (
	"context"
	"log/slog"
	"net/http"

	repoRoom "github.com/couchsync/server/internal/repository/room"
	"github.com/couchsync/server/internal/service/room"
	"github.com/couchsync/server/internal/service/signaling"
	"github.com/couchsync/server/pkg/validator"
	"github.com/gorilla/websocket"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.Membership, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.Membership, error)
	Disconnect(context.Context, *room.DisconnectParams) room.DisconnectResponse
	Chat(context.Context, *room.ChatParams) error
	SelectVideo(context.Context, *room.SelectVideoParams) error
	UpdatePlayer(context.Context, *room.PlaybackParams) error
	GetRoom(context.Context, string) (repoRoom.Summary, error)
}

type iRelay interface {
	Handle(context.Context, *signaling.Session, *signaling.Request, signaling.Replier) error
}

type controller struct {
	roomService iRoomService
	relay       iRelay
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
}

func NewController(roomService iRoomService, relay iRelay, logger *slog.Logger) *controller {
	return &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		relay:       relay,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
}

package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/couchsync/server/internal/message"
	repoRoom "github.com/couchsync/server/internal/repository/room"
	"github.com/couchsync/server/internal/service/room"
	"github.com/couchsync/server/pkg/ctxlogger"
	"github.com/go-chi/chi/v5"
)

type hostRoomInput struct {
	Name  string `query:"name" validate:"required,max=32"`
	Codec string `query:"codec" validate:"omitempty,oneof=json msgpack"`
}

func (c controller) hostRoom(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := hostRoomInput{
		Name:  query.Get("name"),
		Codec: query.Get("codec"),
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.DebugContext(r.Context(), "invalid host request", "errors", validationErrors)
		c.writeJSON(w, http.StatusBadRequest, envelope{"errors": validationErrors})
		return
	}

	codec, err := message.CodecByName(input.Codec)
	if err != nil {
		c.writeJSON(w, http.StatusBadRequest, envelope{"error": err.Error()})
		return
	}

	membership, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Username: input.Name,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to create room", "error", err)
		c.writeServiceError(w, err)
		return
	}

	c.serve(w, r, membership, codec, message.TypeRoomCreated)
}

type joinRoomInput struct {
	Name   string `query:"name" validate:"required,max=32"`
	RoomID string `query:"room_id" validate:"required,alphanum,max=16"`
	Codec  string `query:"codec" validate:"omitempty,oneof=json msgpack"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := joinRoomInput{
		Name:   query.Get("name"),
		RoomID: query.Get("room_id"),
		Codec:  query.Get("codec"),
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.DebugContext(r.Context(), "invalid join request", "errors", validationErrors)
		c.writeJSON(w, http.StatusBadRequest, envelope{"errors": validationErrors})
		return
	}

	codec, err := message.CodecByName(input.Codec)
	if err != nil {
		c.writeJSON(w, http.StatusBadRequest, envelope{"error": err.Error()})
		return
	}

	membership, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		Username: input.Name,
		RoomID:   input.RoomID,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to join room", "room_id", input.RoomID, "error", err)
		c.writeServiceError(w, err)
		return
	}

	c.serve(w, r, membership, codec, message.TypeRoomJoined)
}

// serve upgrades the request and runs the connection loop. The user is removed
// from its room when the loop ends, whatever the reason.
func (c controller) serve(w http.ResponseWriter, r *http.Request, membership room.Membership, codec message.Codec, greeting string) {
	ctx := ctxlogger.AppendCtx(r.Context(),
		slog.String("room_id", membership.RoomID),
		slog.String("user_id", membership.UserID.String()),
	)
	ctx = context.WithValue(ctx, roomIDCtxKey, membership.RoomID)
	ctx = context.WithValue(ctx, userIDCtxKey, membership.UserID)

	defer c.roomService.Disconnect(context.WithoutCancel(ctx), &room.DisconnectParams{
		RoomID: membership.RoomID,
		UserID: membership.UserID,
	})

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	cn := newConnection(conn, codec, c.logger)
	if err := cn.write(message.New(greeting, membership.RoomState())); err != nil {
		c.logger.WarnContext(ctx, "failed to write greeting", "error", err)
		return
	}

	c.logger.InfoContext(ctx, "connection established", "codec", codec.Name())
	cn.run(ctx, membership.Outbound, c.getWSRouter(cn))
	c.logger.InfoContext(ctx, "connection closed")
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room-id")

	summary, err := c.roomService.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, repoRoom.ErrRoomNotFound) {
			c.writeJSON(w, http.StatusNotFound, envelope{"error": err.Error()})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get room", "error", err)
		c.writeJSON(w, http.StatusInternalServerError, envelope{"error": err.Error()})
		return
	}

	c.writeJSON(w, http.StatusOK, envelope{"data": summary})
}

package controller

import (
	"context"
	"fmt"

	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/service/room"
	"github.com/couchsync/server/internal/service/signaling"
	"github.com/couchsync/server/pkg/wsrouter"
)

func (c controller) handleAlive(context.Context, message.Alive) error {
	return nil
}

func (c controller) handleChat(ctx context.Context, input message.Chat) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if err := c.roomService.Chat(ctx, &room.ChatParams{
		RoomID:   c.getRoomIDFromCtx(ctx),
		SenderID: c.getUserIDFromCtx(ctx),
		Chat:     input,
	}); err != nil {
		return fmt.Errorf("failed to send chat: %w", err)
	}

	return nil
}

func (c controller) handleSelectedVideo(ctx context.Context, input message.SelectedVideo) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if err := c.roomService.SelectVideo(ctx, &room.SelectVideoParams{
		RoomID:        c.getRoomIDFromCtx(ctx),
		SenderID:      c.getUserIDFromCtx(ctx),
		SelectedVideo: input,
	}); err != nil {
		return fmt.Errorf("failed to select video: %w", err)
	}

	return nil
}

// handlePlayback serves PLAY, PAUSE, SEEK and UPDATE.
func (c controller) handlePlayback(ctx context.Context, input message.Playback) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if err := c.roomService.UpdatePlayer(ctx, &room.PlaybackParams{
		RoomID:   c.getRoomIDFromCtx(ctx),
		SenderID: c.getUserIDFromCtx(ctx),
		Type:     wsrouter.GetMessageTypeFromCtx(ctx),
		Playback: input,
	}); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

// relayHandler passes signaling messages to the relay together with the connection's session.
// Replies are written straight to the connection, outside the outbound queue.
func (c controller) relayHandler(cn *connection) wsrouter.HandlerFunc[wsrouter.Input] {
	return func(ctx context.Context, in wsrouter.Input) error {
		msg, err := message.DecodeRelay(in)
		if err != nil {
			return err
		}

		return c.relay.Handle(ctx, &cn.session, &signaling.Request{
			RoomID:  c.getRoomIDFromCtx(ctx),
			UserID:  c.getUserIDFromCtx(ctx),
			Message: msg,
		}, func(env message.Envelope) {
			if err := cn.write(env); err != nil {
				c.logger.InfoContext(ctx, "failed to write relay reply", "type", env.Type, "error", err)
			}
		})
	}
}

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/service/signaling"
	"github.com/couchsync/server/pkg/wsrouter"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	// must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// enough for SDP offers
	maxMessageSize = 64 * 1024
)

// connection is one participant's websocket. All writes happen on the loop goroutine.
type connection struct {
	conn    *websocket.Conn
	codec   message.Codec
	session signaling.Session
	logger  *slog.Logger
}

func newConnection(conn *websocket.Conn, codec message.Codec, logger *slog.Logger) *connection {
	return &connection{
		conn:   conn,
		codec:  codec,
		logger: logger,
	}
}

func (cn *connection) write(env message.Envelope) error {
	data, err := cn.codec.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", env.Type, err)
	}

	cn.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cn.conn.WriteMessage(cn.codec.FrameType(), data)
}

func (cn *connection) writeClose(code int, text string) {
	cn.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}

// readPump owns the read side. It stops on the first read error or when done is closed.
func (cn *connection) readPump(inbound chan<- []byte, readErr chan<- error, done <-chan struct{}) {
	cn.conn.SetReadLimit(maxMessageSize)
	cn.conn.SetReadDeadline(time.Now().Add(pongWait))
	cn.conn.SetPongHandler(func(string) error {
		return cn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cn.conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}

		select {
		case inbound <- data:
		case <-done:
			return
		}
	}
}

func (cn *connection) run(ctx context.Context, outbound <-chan message.Envelope, router *wsrouter.WSRouter) {
	inbound := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go cn.readPump(inbound, readErr, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-inbound:
			cn.handle(ctx, data, router)

		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				cn.logger.InfoContext(ctx, "connection read failed", "error", err)
			}
			return

		case env := <-outbound:
			if err := cn.write(env); err != nil {
				cn.logger.InfoContext(ctx, "failed to write message", "type", env.Type, "error", err)
				return
			}
			if env.Type == message.TypeRoomClosed {
				cn.writeClose(websocket.CloseNormalClosure, "room closed")
				return
			}

		case <-ticker.C:
			if err := cn.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cn.logger.InfoContext(ctx, "failed to ping", "error", err)
				return
			}

		case <-ctx.Done():
			cn.writeClose(websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

func (cn *connection) handle(ctx context.Context, data []byte, router *wsrouter.WSRouter) {
	frame, err := message.DecodeFrame(cn.codec, data)
	if err == nil {
		err = router.Dispatch(ctx, frame)
	}
	if err == nil {
		return
	}

	cn.logger.InfoContext(ctx, "failed to handle message", "type", frame.Type, "error", err)

	if isClientError(err) {
		if err := cn.write(message.New(message.TypeError, message.Error{Message: err.Error()})); err != nil {
			cn.logger.InfoContext(ctx, "failed to write error", "error", err)
		}
	}
}

// isClientError reports errors caused by a message the client should not have sent
// in that shape. Signaling rejections are not among them and stay unanswered.
func isClientError(err error) bool {
	return errors.Is(err, message.ErrMalformed) ||
		errors.Is(err, wsrouter.ErrDecode) ||
		errors.Is(err, wsrouter.ErrUnknownType) ||
		errors.Is(err, ErrValidationError)
}

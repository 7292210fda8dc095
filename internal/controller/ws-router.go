package controller

import (
	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/pkg/wsrouter"
)

func (c controller) getWSRouter(cn *connection) *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIDMw(), c.loggerWSMw())

	wsrouter.Handle(mux, message.TypeAlive, c.handleAlive)

	// client
	wsrouter.Handle(mux, message.TypeChat, c.handleChat)
	wsrouter.Handle(mux, message.TypeSelectedVideo, c.handleSelectedVideo)
	for _, t := range []string{message.TypePlay, message.TypePause, message.TypeSeek, message.TypeUpdate} {
		wsrouter.Handle(mux, t, c.handlePlayback)
	}

	// signaling
	relay := c.relayHandler(cn)
	for _, t := range message.RelayTypes {
		mux.HandleInput(t, relay)
	}

	return mux
}

package signaling

import (
	"context"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/pkg/callsclient"
)

// CallsSFU adapts the Calls REST client to the relay.
type CallsSFU struct {
	*callsclient.Client
}

func NewCallsSFU(client *callsclient.Client) CallsSFU {
	return CallsSFU{Client: client}
}

func (c CallsSFU) AddTracks(ctx context.Context, sessionID string, offer *string, tracks []domain.Track, remoteSessionID *string) (*string, error) {
	converted := make([]callsclient.Track, 0, len(tracks))
	for _, t := range tracks {
		converted = append(converted, callsclient.Track(t))
	}

	return c.Client.AddTracks(ctx, sessionID, offer, converted, remoteSessionID)
}

package callsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var ErrNoSessionID = errors.New("calls api: response has no session id")

// NewSession creates a session, optionally negotiating offer right away.
func (c *Client) NewSession(ctx context.Context, offer *string) (string, *string, error) {
	var req newSessionRequest
	if offer != nil {
		req.SessionDescription = &SessionDescription{SDP: *offer, Type: sdpTypeOffer}
	}

	var resp newSessionResponse
	url := fmt.Sprintf("%s/apps/%s/sessions/new", c.baseURL, c.appID)
	if err := c.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	if resp.SessionID == "" {
		return "", nil, ErrNoSessionID
	}

	return resp.SessionID, sdpOf(resp.SessionDescription), nil
}

// AddTracks adds local tracks described by offer, or pulls tracks from remoteSessionID when it is set.
func (c *Client) AddTracks(ctx context.Context, sessionID string, offer *string, tracks []Track, remoteSessionID *string) (*string, error) {
	location := locationLocal
	if remoteSessionID != nil {
		location = locationRemote
	}

	req := tracksRequest{Tracks: make([]trackObject, 0, len(tracks))}
	if offer != nil {
		req.SessionDescription = &SessionDescription{SDP: *offer, Type: sdpTypeOffer}
	}
	for _, t := range tracks {
		req.Tracks = append(req.Tracks, trackObject{
			Location:  location,
			Mid:       t.Mid,
			TrackName: t.TrackName,
			SessionID: remoteSessionID,
		})
	}

	var resp tracksResponse
	if err := c.do(ctx, http.MethodPost, c.sessionURL(sessionID, "tracks/new"), req, &resp); err != nil {
		return nil, fmt.Errorf("failed to add tracks: %w", err)
	}

	return sdpOf(resp.SessionDescription), nil
}

func (c *Client) Renegotiate(ctx context.Context, sessionID string, sdp string) error {
	req := renegotiateRequest{
		SessionDescription: SessionDescription{SDP: sdp, Type: sdpTypeAnswer},
	}

	if err := c.do(ctx, http.MethodPut, c.sessionURL(sessionID, "renegotiate"), req, nil); err != nil {
		return fmt.Errorf("failed to renegotiate: %w", err)
	}

	return nil
}

// NewDataChannel creates a data channel in sessionID, subscribed to remoteSessionID's channel when set.
func (c *Client) NewDataChannel(ctx context.Context, sessionID string, remoteSessionID *string, name string) (*uint32, error) {
	location := locationLocal
	if remoteSessionID != nil {
		location = locationRemote
	}

	req := dataChannelsRequest{
		DataChannels: []dataChannelObject{{
			Location:        location,
			SessionID:       remoteSessionID,
			DataChannelName: name,
		}},
	}

	var resp dataChannelsResponse
	if err := c.do(ctx, http.MethodPost, c.sessionURL(sessionID, "datachannels/new"), req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create data channel: %w", err)
	}

	if len(resp.DataChannels) == 0 {
		return nil, nil
	}

	return resp.DataChannels[0].ID, nil
}

func sdpOf(sd *SessionDescription) *string {
	if sd == nil || sd.SDP == "" {
		return nil
	}

	sdp := sd.SDP
	return &sdp
}

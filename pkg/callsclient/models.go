package callsclient

const (
	locationLocal  = "local"
	locationRemote = "remote"

	sdpTypeOffer  = "offer"
	sdpTypeAnswer = "answer"
)

type Track struct {
	Mid       *string
	TrackName *string
}

type SessionDescription struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

type newSessionRequest struct {
	SessionDescription *SessionDescription `json:"sessionDescription,omitempty"`
}

type newSessionResponse struct {
	SessionID          string              `json:"sessionId"`
	SessionDescription *SessionDescription `json:"sessionDescription"`
}

type trackObject struct {
	Location  string  `json:"location"`
	Mid       *string `json:"mid,omitempty"`
	TrackName *string `json:"trackName,omitempty"`
	SessionID *string `json:"sessionId,omitempty"`
}

type tracksRequest struct {
	SessionDescription *SessionDescription `json:"sessionDescription,omitempty"`
	Tracks             []trackObject       `json:"tracks"`
}

type tracksResponse struct {
	RequiresImmediateRenegotiation bool                `json:"requiresImmediateRenegotiation"`
	SessionDescription             *SessionDescription `json:"sessionDescription"`
}

type renegotiateRequest struct {
	SessionDescription SessionDescription `json:"sessionDescription"`
}

type dataChannelObject struct {
	Location        string  `json:"location"`
	SessionID       *string `json:"sessionId,omitempty"`
	DataChannelName string  `json:"dataChannelName"`
}

type dataChannelsRequest struct {
	DataChannels []dataChannelObject `json:"dataChannels"`
}

type dataChannelsResponse struct {
	DataChannels []struct {
		ID              *uint32 `json:"id"`
		DataChannelName string  `json:"dataChannelName"`
	} `json:"dataChannels"`
}

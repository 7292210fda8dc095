package message

import (
	"fmt"

	"github.com/couchsync/server/internal/domain"
	"github.com/google/uuid"
)

const (
	TypePublishOffer       = "PUBLISH_OFFER"
	TypePublishAnswer      = "PUBLISH_ANSWER"
	TypeRequestJoinOffer   = "REQUEST_JOIN_OFFER"
	TypeJoinAnswer         = "JOIN_ANSWER"
	TypeRequestMediaRelay  = "REQUEST_MEDIA_RELAY"
	TypeMediaOffer         = "MEDIA_OFFER"
	TypeRenegotiateLocal   = "RENEGOTIATE_LOCAL"
	TypeRequestDataChannel = "REQUEST_DATA_CHANNEL"
	TypeDataChannelReady   = "DATA_CHANNEL_READY"
	TypeRelayFailed        = "RELAY_FAILED"
)

// RelayTypes lists every relay message type, including the server-to-client ones.
var RelayTypes = []string{
	TypePublishOffer,
	TypePublishAnswer,
	TypeRequestJoinOffer,
	TypeJoinAnswer,
	TypeRequestMediaRelay,
	TypeMediaOffer,
	TypeRenegotiateLocal,
	TypeRequestDataChannel,
	TypeDataChannelReady,
	TypeRelayFailed,
}

// RelayMessage is the closed set of signaling messages. Only this package implements it.
type RelayMessage interface {
	RelayType() string
	relayMessage()
}

// PublishOffer is sent by the host to publish its tracks.
type PublishOffer struct {
	SDP    string         `json:"sdp"`
	Tracks []domain.Track `json:"tracks"`
}

type PublishAnswer struct {
	SDP string `json:"sdp"`
}

// RequestJoinOffer asks for a control-channel session for a non-host.
type RequestJoinOffer struct {
	SDP string `json:"sdp"`
}

type JoinAnswer struct {
	SDP string `json:"sdp"`
}

// RequestMediaRelay asks for the host's published tracks.
type RequestMediaRelay struct{}

type MediaOffer struct {
	SDP string `json:"sdp"`
}

type RenegotiateLocal struct {
	SDP string `json:"sdp"`
}

type RequestDataChannel struct {
	Name string `json:"name"`
}

type DataChannelReady struct {
	Name   string     `json:"name"`
	ID     uint32     `json:"id"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// RelayFailed tells the client that a request it is waiting on will not be answered.
type RelayFailed struct {
	Request string `json:"request"`
	Reason  string `json:"reason"`
}

func (PublishOffer) RelayType() string       { return TypePublishOffer }
func (PublishAnswer) RelayType() string      { return TypePublishAnswer }
func (RequestJoinOffer) RelayType() string   { return TypeRequestJoinOffer }
func (JoinAnswer) RelayType() string         { return TypeJoinAnswer }
func (RequestMediaRelay) RelayType() string  { return TypeRequestMediaRelay }
func (MediaOffer) RelayType() string         { return TypeMediaOffer }
func (RenegotiateLocal) RelayType() string   { return TypeRenegotiateLocal }
func (RequestDataChannel) RelayType() string { return TypeRequestDataChannel }
func (DataChannelReady) RelayType() string   { return TypeDataChannelReady }
func (RelayFailed) RelayType() string        { return TypeRelayFailed }

func (PublishOffer) relayMessage()       {}
func (PublishAnswer) relayMessage()      {}
func (RequestJoinOffer) relayMessage()   {}
func (JoinAnswer) relayMessage()         {}
func (RequestMediaRelay) relayMessage()  {}
func (MediaOffer) relayMessage()         {}
func (RenegotiateLocal) relayMessage()   {}
func (RequestDataChannel) relayMessage() {}
func (DataChannelReady) relayMessage()   {}
func (RelayFailed) relayMessage()        {}

func NewRelay(msg RelayMessage) Envelope {
	return New(msg.RelayType(), msg)
}

func DecodeRelay(f PayloadDecoder) (RelayMessage, error) {
	switch f.MessageType() {
	case TypePublishOffer:
		return decodeRelay[PublishOffer](f)
	case TypePublishAnswer:
		return decodeRelay[PublishAnswer](f)
	case TypeRequestJoinOffer:
		return decodeRelay[RequestJoinOffer](f)
	case TypeJoinAnswer:
		return decodeRelay[JoinAnswer](f)
	case TypeRequestMediaRelay:
		return RequestMediaRelay{}, nil
	case TypeMediaOffer:
		return decodeRelay[MediaOffer](f)
	case TypeRenegotiateLocal:
		return decodeRelay[RenegotiateLocal](f)
	case TypeRequestDataChannel:
		return decodeRelay[RequestDataChannel](f)
	case TypeDataChannelReady:
		return decodeRelay[DataChannelReady](f)
	case TypeRelayFailed:
		return decodeRelay[RelayFailed](f)
	default:
		return nil, fmt.Errorf("%w: %q is not a relay message", ErrMalformed, f.MessageType())
	}
}

func decodeRelay[T RelayMessage](f PayloadDecoder) (RelayMessage, error) {
	msg, err := DecodePayload[T](f)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

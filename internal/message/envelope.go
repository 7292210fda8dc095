package message

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrMalformed    = errors.New("malformed message")
	ErrUnknownCodec = errors.New("unknown codec")
)

// Envelope is every message the server writes. From is set on rebroadcast client messages.
type Envelope struct {
	Type    string     `json:"type"`
	From    *uuid.UUID `json:"from,omitempty"`
	Payload any        `json:"payload"`
}

func New(messageType string, payload any) Envelope {
	return Envelope{Type: messageType, Payload: payload}
}

func NewFrom(from uuid.UUID, messageType string, payload any) Envelope {
	return Envelope{Type: messageType, From: &from, Payload: payload}
}

// Frame is an inbound message whose payload is not decoded yet.
type Frame struct {
	Type  string
	data  []byte
	codec Codec
}

type header struct {
	Type string `json:"type"`
}

type body struct {
	Payload any `json:"payload"`
}

func DecodeFrame(codec Codec, data []byte) (Frame, error) {
	var h header
	if err := codec.Unmarshal(data, &h); err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if h.Type == "" {
		return Frame{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	return Frame{Type: h.Type, data: data, codec: codec}, nil
}

func (f Frame) MessageType() string {
	return f.Type
}

// Decode unmarshals the frame's payload into v. A missing payload leaves v untouched.
func (f Frame) Decode(v any) error {
	b := body{Payload: v}
	if err := f.codec.Unmarshal(f.data, &b); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return nil
}

// PayloadDecoder is implemented by Frame and by routers that pass frames along.
type PayloadDecoder interface {
	MessageType() string
	Decode(v any) error
}

func DecodePayload[T any](d PayloadDecoder) (T, error) {
	var payload T
	err := d.Decode(&payload)
	return payload, err
}

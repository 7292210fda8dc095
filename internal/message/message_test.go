package message

import (
	"testing"

	"github.com/couchsync/server/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame(JSON, []byte(`{"type":"PLAY","payload":{"time":12.5}}`))
	require.NoError(t, err)
	assert.Equal(t, TypePlay, f.Type)

	p, err := DecodePayload[Playback](f)
	require.NoError(t, err)
	assert.Equal(t, 12.5, p.Time)
}

func TestDecodeFrameMalformed(t *testing.T) {
	for _, data := range []string{`not json`, `{"payload":{}}`, `[]`} {
		_, err := DecodeFrame(JSON, []byte(data))
		assert.ErrorIs(t, err, ErrMalformed, data)
	}
}

func TestDecodeRelay(t *testing.T) {
	f, err := DecodeFrame(JSON, []byte(`{"type":"PUBLISH_OFFER","payload":{"sdp":"x","tracks":[{"mid":"0","track_name":"cam"}]}}`))
	require.NoError(t, err)

	msg, err := DecodeRelay(f)
	require.NoError(t, err)
	offer, ok := msg.(PublishOffer)
	require.True(t, ok)
	assert.Equal(t, "x", offer.SDP)
	require.Len(t, offer.Tracks, 1)
	assert.Equal(t, "0", *offer.Tracks[0].Mid)
	assert.Equal(t, "cam", *offer.Tracks[0].TrackName)

	f, err = DecodeFrame(JSON, []byte(`{"type":"REQUEST_MEDIA_RELAY"}`))
	require.NoError(t, err)
	msg, err = DecodeRelay(f)
	require.NoError(t, err)
	assert.Equal(t, RequestMediaRelay{}, msg)

	f, err = DecodeFrame(JSON, []byte(`{"type":"CHAT","payload":{"text":"hi"}}`))
	require.NoError(t, err)
	_, err = DecodeRelay(f)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMsgPackEnvelope(t *testing.T) {
	user := domain.NewUserMeta("host")
	env := New(TypeRoomCreated, RoomState{
		RoomID:       "AB12",
		UserID:       user.ID,
		Users:        []domain.UserMeta{user},
		PlayerStatus: domain.NewPaused(0),
	})

	data, err := MsgPack.Marshal(env)
	require.NoError(t, err)

	f, err := DecodeFrame(MsgPack, data)
	require.NoError(t, err)
	assert.Equal(t, TypeRoomCreated, f.Type)

	state, err := DecodePayload[RoomState](f)
	require.NoError(t, err)
	assert.Equal(t, "AB12", state.RoomID)
	assert.Equal(t, user.ID, state.UserID)
	require.Len(t, state.Users, 1)
	assert.Equal(t, "host", state.Users[0].Name)
	assert.Equal(t, domain.Paused, state.PlayerStatus.State)
}

func TestNewFromSetsSender(t *testing.T) {
	id := uuid.New()
	data, err := JSON.Marshal(NewFrom(id, TypeChat, Chat{Text: "hi"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"CHAT","from":"`+id.String()+`","payload":{"text":"hi"}}`, string(data))
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, JSON, c)

	c, err = CodecByName("msgpack")
	require.NoError(t, err)
	assert.Equal(t, MsgPack, c)

	_, err = CodecByName("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

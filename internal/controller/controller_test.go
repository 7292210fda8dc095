package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/repository/room/inmemory"
	"github.com/couchsync/server/internal/service/room"
	"github.com/couchsync/server/internal/service/signaling"
	"github.com/couchsync/server/pkg/callsclient"
	"github.com/couchsync/server/pkg/randstr"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSDP = "v=0\r\no=- 4215775240449105457 2 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n"

// fakeCalls answers the Calls REST endpoints the relay uses.
type fakeCalls struct {
	mu       sync.Mutex
	sessions int
	paths    []string
}

func (f *fakeCalls) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	var req struct {
		SessionDescription *struct {
			SDP string `json:"sdp"`
		} `json:"sessionDescription"`
		Tracks []struct {
			Location string `json:"location"`
		} `json:"tracks"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/sessions/new"):
		f.mu.Lock()
		f.sessions++
		id := fmt.Sprintf("S%d", f.sessions)
		f.mu.Unlock()

		resp := map[string]any{"sessionId": id}
		if req.SessionDescription != nil {
			resp["sessionDescription"] = map[string]string{"type": "answer", "sdp": "join-" + id}
		}
		json.NewEncoder(w).Encode(resp)
	case strings.HasSuffix(r.URL.Path, "/tracks/new"):
		sdp := "y"
		if len(req.Tracks) > 0 && req.Tracks[0].Location == "remote" {
			sdp = "relay-offer"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sessionDescription": map[string]string{"type": "answer", "sdp": sdp},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"errorCode": "not_found"})
	}
}

func (f *fakeCalls) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.paths...)
}

type testServer struct {
	*httptest.Server
	calls    *fakeCalls
	registry *inmemory.Registry
}

func newTestServer(t *testing.T) *testServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	calls := &fakeCalls{}
	callsSrv := httptest.NewServer(calls)
	t.Cleanup(callsSrv.Close)

	registry := inmemory.NewRegistry(randstr.New([]byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")), &inmemory.Config{MembersLimit: 3}, logger)
	roomService := room.NewService(registry, inmemory.NewDirectory(registry), &room.Config{OutboundBuffer: 10}, logger)
	sfu := signaling.NewCallsSFU(callsclient.New(&callsclient.Config{BaseURL: callsSrv.URL, AppID: "app", AppSecret: "secret"}))
	relay := signaling.NewRelay(sfu, registry, logger)

	srv := httptest.NewServer(NewController(roomService, relay, logger).GetMux())
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, calls: calls, registry: registry}
}

func (s *testServer) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + path
}

func (s *testServer) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(s.wsURL(path), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	return conn
}

type received struct {
	Type    string          `json:"type"`
	From    *uuid.UUID      `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func readPayload[T any](t *testing.T, conn *websocket.Conn, messageType string) T {
	t.Helper()

	msg := readMessage(t, conn)
	require.Equal(t, messageType, msg.Type, string(msg.Payload))

	var payload T
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))

	return payload
}

func send(t *testing.T, conn *websocket.Conn, messageType string, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(message.New(messageType, payload)))
}

func TestWatchTogetherScenario(t *testing.T) {
	s := newTestServer(t)

	host := s.dial(t, "/api/v1/ws/host?name=host")
	created := readPayload[message.RoomState](t, host, message.TypeRoomCreated)
	require.Len(t, created.RoomID, 4)
	require.Len(t, created.Users, 1)

	mid, trackName := "0", "cam"
	send(t, host, message.TypePublishOffer, message.PublishOffer{
		SDP:    testSDP,
		Tracks: []domain.Track{{Mid: &mid, TrackName: &trackName}},
	})
	answer := readPayload[message.PublishAnswer](t, host, message.TypePublishAnswer)
	assert.Equal(t, "y", answer.SDP)

	guest := s.dial(t, "/api/v1/ws/join?name=guest&room_id="+strings.ToLower(created.RoomID))
	joined := readPayload[message.RoomState](t, guest, message.TypeRoomJoined)
	assert.Equal(t, created.RoomID, joined.RoomID)
	require.Len(t, joined.Users, 2)
	assert.Equal(t, created.UserID, joined.Users[0].ID)
	assert.Equal(t, joined.UserID, joined.Users[1].ID)

	userJoined := readPayload[message.UserJoined](t, host, message.TypeUserJoined)
	assert.Equal(t, joined.UserID, userJoined.NewUser)

	send(t, guest, message.TypeRequestMediaRelay, message.RequestMediaRelay{})
	offer := readPayload[message.MediaOffer](t, guest, message.TypeMediaOffer)
	assert.Equal(t, "relay-offer", offer.SDP)

	assert.Equal(t, []string{
		"POST /apps/app/sessions/new",
		"POST /apps/app/sessions/S1/tracks/new",
		"POST /apps/app/sessions/new",
		"POST /apps/app/sessions/S2/tracks/new",
	}, s.calls.Paths())
}

func TestClientMessagesAreRebroadcast(t *testing.T) {
	s := newTestServer(t)

	host := s.dial(t, "/api/v1/ws/host?name=host")
	created := readPayload[message.RoomState](t, host, message.TypeRoomCreated)
	guest := s.dial(t, "/api/v1/ws/join?name=guest&room_id="+created.RoomID)
	joined := readPayload[message.RoomState](t, guest, message.TypeRoomJoined)
	readPayload[message.UserJoined](t, host, message.TypeUserJoined)

	send(t, guest, message.TypeChat, message.Chat{Text: "hello"})
	msg := readMessage(t, host)
	assert.Equal(t, message.TypeChat, msg.Type)
	require.NotNil(t, msg.From)
	assert.Equal(t, joined.UserID, *msg.From)
	assert.JSONEq(t, `{"text":"hello"}`, string(msg.Payload))

	send(t, host, message.TypePlay, message.Playback{Time: 4.5})
	play := readPayload[message.Playback](t, guest, message.TypePlay)
	assert.Equal(t, 4.5, play.Time)
}

func TestInvalidMessagesKeepConnection(t *testing.T) {
	s := newTestServer(t)

	host := s.dial(t, "/api/v1/ws/host?name=host")
	readPayload[message.RoomState](t, host, message.TypeRoomCreated)

	require.NoError(t, host.WriteMessage(websocket.TextMessage, []byte("garbage")))
	readPayload[message.Error](t, host, message.TypeError)

	send(t, host, "NOT_A_TYPE", nil)
	readPayload[message.Error](t, host, message.TypeError)

	send(t, host, message.TypeChat, message.Chat{})
	readPayload[message.Error](t, host, message.TypeError)

	// rejected signaling gets no answer, the next valid request does
	send(t, host, message.TypeJoinAnswer, message.JoinAnswer{SDP: testSDP})
	send(t, host, message.TypeRequestJoinOffer, message.RequestJoinOffer{SDP: testSDP})
	answer := readPayload[message.JoinAnswer](t, host, message.TypeJoinAnswer)
	assert.Equal(t, "join-S1", answer.SDP)
}

func TestJoinErrorsBeforeUpgrade(t *testing.T) {
	s := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(s.wsURL("/api/v1/ws/join?name=guest&room_id=ZZZZ"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	_, resp, err = websocket.DefaultDialer.Dial(s.wsURL("/api/v1/ws/join?room_id=ZZZZ"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, 0, s.registry.Len())
}

func TestJoinFullRoom(t *testing.T) {
	s := newTestServer(t)

	host := s.dial(t, "/api/v1/ws/host?name=host")
	created := readPayload[message.RoomState](t, host, message.TypeRoomCreated)
	s.dial(t, "/api/v1/ws/join?name=a&room_id="+created.RoomID)
	s.dial(t, "/api/v1/ws/join?name=b&room_id="+created.RoomID)

	_, resp, err := websocket.DefaultDialer.Dial(s.wsURL("/api/v1/ws/join?name=c&room_id="+created.RoomID), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestHostLeaveClosesRoom(t *testing.T) {
	s := newTestServer(t)

	host := s.dial(t, "/api/v1/ws/host?name=host")
	created := readPayload[message.RoomState](t, host, message.TypeRoomCreated)
	guest := s.dial(t, "/api/v1/ws/join?name=guest&room_id="+created.RoomID)
	readPayload[message.RoomState](t, guest, message.TypeRoomJoined)
	readPayload[message.UserJoined](t, host, message.TypeUserJoined)

	require.NoError(t, host.Close())

	left := readPayload[message.UserLeft](t, guest, message.TypeUserLeft)
	assert.Equal(t, created.UserID, left.UserLeft)
	readPayload[message.RoomClosed](t, guest, message.TypeRoomClosed)

	guest.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := guest.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	resp, err := http.Get(s.URL + "/api/v1/rooms/" + created.RoomID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMsgPackCodec(t *testing.T) {
	s := newTestServer(t)

	host := s.dial(t, "/api/v1/ws/host?name=host&codec=msgpack")
	host.SetReadDeadline(time.Now().Add(5 * time.Second))
	frameType, data, err := host.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, frameType)

	frame, err := message.DecodeFrame(message.MsgPack, data)
	require.NoError(t, err)
	require.Equal(t, message.TypeRoomCreated, frame.Type)
	created, err := message.DecodePayload[message.RoomState](frame)
	require.NoError(t, err)

	guest := s.dial(t, "/api/v1/ws/join?name=guest&room_id="+created.RoomID)
	readPayload[message.RoomState](t, guest, message.TypeRoomJoined)

	chat, err := message.MsgPack.Marshal(message.New(message.TypeChat, message.Chat{Text: "packed"}))
	require.NoError(t, err)

	// drain USER_JOINED, then send as the host
	host.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = host.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, host.WriteMessage(websocket.BinaryMessage, chat))

	got := readPayload[message.Chat](t, guest, message.TypeChat)
	assert.Equal(t, "packed", got.Text)
}

func TestGetRoom(t *testing.T) {
	s := newTestServer(t)

	host := s.dial(t, "/api/v1/ws/host?name=host")
	created := readPayload[message.RoomState](t, host, message.TypeRoomCreated)

	resp, err := http.Get(s.URL + "/api/v1/rooms/" + strings.ToLower(created.RoomID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			RoomID    string `json:"room_id"`
			HostName  string `json:"host_name"`
			UserCount int    `json:"user_count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, created.RoomID, body.Data.RoomID)
	assert.Equal(t, "host", body.Data.HostName)
	assert.Equal(t, 1, body.Data.UserCount)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package signaling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/repository/room"
	"github.com/google/uuid"
)

var (
	ErrUnexpectedDirection = errors.New("message is sent by the server only")
	ErrNotHost             = errors.New("only the host can publish")
	ErrAlreadyPublished    = errors.New("room already has a publish session")
	ErrAlreadyJoined       = errors.New("connection already has an sfu session")
	ErrNoSession           = errors.New("connection has no sfu session")
	ErrNoPublishSession    = errors.New("room has no publish session")
	ErrHostDataChannel     = errors.New("host cannot request a data channel from itself")
	ErrEmptyResponse       = errors.New("sfu returned no session description")
)

type iSFU interface {
	NewSession(ctx context.Context, offer *string) (string, *string, error)
	AddTracks(ctx context.Context, sessionID string, offer *string, tracks []domain.Track, remoteSessionID *string) (*string, error)
	Renegotiate(ctx context.Context, sessionID string, sdp string) error
	NewDataChannel(ctx context.Context, sessionID string, remoteSessionID *string, name string) (*uint32, error)
}

type iRoomRepo interface {
	WithRoom(roomID string, fn func(*room.Room)) bool
	WithRoomMut(roomID string, fn func(*room.Room)) bool
	SendToUser(roomID string, userID uuid.UUID, env message.Envelope) bool
}

// Session is the per-connection signaling state. It is owned by one connection loop.
type Session struct {
	SessionID string
}

func (s *Session) hasSFUSession() bool {
	return s.SessionID != ""
}

type Request struct {
	RoomID  string
	UserID  uuid.UUID
	Message message.RelayMessage
}

// Replier writes a message back to the sender's connection.
type Replier func(message.Envelope)

type Relay struct {
	sfu      iSFU
	roomRepo iRoomRepo
	logger   *slog.Logger
}

func NewRelay(sfu iSFU, roomRepo iRoomRepo, logger *slog.Logger) *Relay {
	return &Relay{
		sfu:      sfu,
		roomRepo: roomRepo,
		logger:   logger,
	}
}

// Handle brokers one relay message between the sender and the SFU. Rejected
// requests return an error and leave every state untouched. No room lock is held
// while the SFU is called.
func (r *Relay) Handle(ctx context.Context, sess *Session, req *Request, reply Replier) error {
	switch msg := req.Message.(type) {
	case message.PublishOffer:
		return r.publish(ctx, sess, req, msg, reply)
	case message.RequestJoinOffer:
		return r.joinOffer(ctx, sess, msg, reply)
	case message.RequestMediaRelay:
		return r.mediaRelay(ctx, sess, req, msg, reply)
	case message.RenegotiateLocal:
		return r.renegotiate(ctx, sess, msg, reply)
	case message.RequestDataChannel:
		return r.dataChannel(ctx, sess, req, msg, reply)
	case message.PublishAnswer, message.JoinAnswer, message.MediaOffer, message.DataChannelReady, message.RelayFailed:
		return fmt.Errorf("%w: %s", ErrUnexpectedDirection, msg.RelayType())
	default:
		return fmt.Errorf("%w: %T", ErrUnexpectedDirection, msg)
	}
}

func (r *Relay) publish(ctx context.Context, sess *Session, req *Request, msg message.PublishOffer, reply Replier) error {
	if sess.hasSFUSession() {
		return ErrAlreadyJoined
	}

	var checkErr error
	if !r.roomRepo.WithRoom(req.RoomID, func(rm *room.Room) {
		checkErr = canPublish(rm, req.UserID)
	}) {
		return room.ErrRoomNotFound
	}
	if checkErr != nil {
		return checkErr
	}

	if err := validateSDP(msg.SDP); err != nil {
		return r.fail(ctx, msg, err, reply)
	}

	sessionID, _, err := r.sfu.NewSession(ctx, nil)
	if err != nil {
		return r.fail(ctx, msg, err, reply)
	}

	answer, err := r.sfu.AddTracks(ctx, sessionID, &msg.SDP, msg.Tracks, nil)
	if err != nil {
		return r.fail(ctx, msg, err, reply)
	}
	if answer == nil {
		return r.fail(ctx, msg, ErrEmptyResponse, reply)
	}

	// a concurrent publish may have won while the SFU was called
	if !r.roomRepo.WithRoomMut(req.RoomID, func(rm *room.Room) {
		if checkErr = canPublish(rm, req.UserID); checkErr != nil {
			return
		}
		rm.PublishSession = &domain.PublishSession{
			SessionID: sessionID,
			Tracks:    append([]domain.Track(nil), msg.Tracks...),
		}
	}) {
		return room.ErrRoomNotFound
	}
	if checkErr != nil {
		r.logger.WarnContext(ctx, "publish lost the race, sfu session abandoned", "session_id", sessionID)
		return checkErr
	}

	sess.SessionID = sessionID
	r.logger.InfoContext(ctx, "host published", "session_id", sessionID, "tracks", len(msg.Tracks))
	reply(message.NewRelay(message.PublishAnswer{SDP: *answer}))

	return nil
}

func canPublish(rm *room.Room, userID uuid.UUID) error {
	host, ok := rm.Host()
	if !ok || host.Meta.ID != userID {
		return ErrNotHost
	}

	if rm.PublishSession != nil {
		return ErrAlreadyPublished
	}

	return nil
}

func (r *Relay) joinOffer(ctx context.Context, sess *Session, msg message.RequestJoinOffer, reply Replier) error {
	if sess.hasSFUSession() {
		return ErrAlreadyJoined
	}

	if err := validateSDP(msg.SDP); err != nil {
		return r.fail(ctx, msg, err, reply)
	}

	sessionID, answer, err := r.sfu.NewSession(ctx, &msg.SDP)
	if err != nil {
		return r.fail(ctx, msg, err, reply)
	}
	if answer == nil {
		return r.fail(ctx, msg, ErrEmptyResponse, reply)
	}

	sess.SessionID = sessionID
	reply(message.NewRelay(message.JoinAnswer{SDP: *answer}))

	return nil
}

func (r *Relay) mediaRelay(ctx context.Context, sess *Session, req *Request, msg message.RequestMediaRelay, reply Replier) error {
	var publish *domain.PublishSession
	if !r.roomRepo.WithRoom(req.RoomID, func(rm *room.Room) {
		if rm.PublishSession != nil {
			p := rm.PublishSession.Clone()
			publish = &p
		}
	}) {
		return room.ErrRoomNotFound
	}
	if publish == nil {
		return ErrNoPublishSession
	}

	if !sess.hasSFUSession() {
		sessionID, _, err := r.sfu.NewSession(ctx, nil)
		if err != nil {
			return r.fail(ctx, msg, err, reply)
		}
		sess.SessionID = sessionID
	}

	offer, err := r.sfu.AddTracks(ctx, sess.SessionID, nil, publish.Tracks, &publish.SessionID)
	if err != nil {
		return r.fail(ctx, msg, err, reply)
	}
	if offer == nil {
		return r.fail(ctx, msg, ErrEmptyResponse, reply)
	}

	reply(message.NewRelay(message.MediaOffer{SDP: *offer}))

	return nil
}

func (r *Relay) renegotiate(ctx context.Context, sess *Session, msg message.RenegotiateLocal, reply Replier) error {
	if !sess.hasSFUSession() {
		return ErrNoSession
	}

	// no reply type exists for renegotiation, failures are only logged
	if err := validateSDP(msg.SDP); err != nil {
		r.logger.WarnContext(ctx, "invalid renegotiation sdp", "session_id", sess.SessionID, "error", err)
		return err
	}

	if err := r.sfu.Renegotiate(ctx, sess.SessionID, msg.SDP); err != nil {
		r.logger.WarnContext(ctx, "failed to renegotiate", "session_id", sess.SessionID, "error", err)
		return err
	}

	return nil
}

func (r *Relay) dataChannel(ctx context.Context, sess *Session, req *Request, msg message.RequestDataChannel, reply Replier) error {
	if !sess.hasSFUSession() {
		return ErrNoSession
	}

	var (
		hostID        uuid.UUID
		hostSessionID string
	)
	if !r.roomRepo.WithRoom(req.RoomID, func(rm *room.Room) {
		if host, ok := rm.Host(); ok {
			hostID = host.Meta.ID
		}
		if rm.PublishSession != nil {
			hostSessionID = rm.PublishSession.SessionID
		}
	}) {
		return room.ErrRoomNotFound
	}

	if hostSessionID == "" {
		return ErrNoPublishSession
	}
	if hostSessionID == sess.SessionID {
		return ErrHostDataChannel
	}

	id, err := r.sfu.NewDataChannel(ctx, sess.SessionID, nil, msg.Name)
	if err != nil {
		return r.fail(ctx, msg, err, reply)
	}
	if id == nil {
		return r.fail(ctx, msg, ErrEmptyResponse, reply)
	}

	subscriberSessionID := sess.SessionID
	hostChannelID, err := r.sfu.NewDataChannel(ctx, hostSessionID, &subscriberSessionID, msg.Name)
	if err != nil {
		return r.fail(ctx, msg, err, reply)
	}
	if hostChannelID == nil {
		return r.fail(ctx, msg, ErrEmptyResponse, reply)
	}

	reply(message.NewRelay(message.DataChannelReady{Name: msg.Name, ID: *id}))

	userID := req.UserID
	if !r.roomRepo.SendToUser(req.RoomID, hostID, message.NewRelay(message.DataChannelReady{
		Name:   msg.Name + "-sub",
		ID:     *hostChannelID,
		UserID: &userID,
	})) {
		r.logger.WarnContext(ctx, "failed to notify host about data channel", "name", msg.Name)
	}

	return nil
}

// fail answers a request that cannot complete with RELAY_FAILED so the client stops waiting.
func (r *Relay) fail(ctx context.Context, msg message.RelayMessage, err error, reply Replier) error {
	r.logger.WarnContext(ctx, "relay request failed", "request", msg.RelayType(), "error", err)
	reply(message.NewRelay(message.RelayFailed{
		Request: msg.RelayType(),
		Reason:  err.Error(),
	}))

	return err
}

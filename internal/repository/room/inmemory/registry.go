package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/message"
	"github.com/couchsync/server/internal/repository/room"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	CodeLength      int
	MaxCodeAttempts int
	// MembersLimit caps users per room, 0 means unlimited.
	MembersLimit int
}

type entry struct {
	mu     sync.RWMutex
	room   room.Room
	closed bool
}

// Registry owns all live rooms. The map lock and a room's lock are never held together.
type Registry struct {
	mu        sync.RWMutex
	rooms     map[string]*entry
	generator iGenerator
	cfg       Config
	logger    *slog.Logger
}

func NewRegistry(generator iGenerator, cfg *Config, logger *slog.Logger) *Registry {
	c := *cfg
	if c.CodeLength < 1 {
		c.CodeLength = 4
	}
	if c.MaxCodeAttempts < 1 {
		c.MaxCodeAttempts = 16
	}

	return &Registry{
		rooms:     make(map[string]*entry),
		generator: generator,
		cfg:       c,
		logger:    logger,
	}
}

func (r *Registry) lookup(roomID string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.rooms[room.NormalizeID(roomID)]
	return e, ok
}

func (r *Registry) CreateRoom(ctx context.Context, user room.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < r.cfg.MaxCodeAttempts; attempt++ {
		roomID := room.NormalizeID(r.generator.GenerateRandomString(r.cfg.CodeLength))
		if _, exists := r.rooms[roomID]; exists {
			r.logger.DebugContext(ctx, "room id collision", "room_id", roomID, "attempt", attempt)
			continue
		}

		r.rooms[roomID] = &entry{
			room: room.Room{
				ID:           roomID,
				Users:        []room.User{user},
				PlayerStatus: domain.NewPaused(0),
			},
		}

		return roomID, nil
	}

	return "", room.ErrKeyGenerationFailed
}

func (r *Registry) JoinRoom(ctx context.Context, roomID string, user room.User) (room.JoinInfo, error) {
	e, ok := r.lookup(roomID)
	if !ok {
		return room.JoinInfo{}, room.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return room.JoinInfo{}, room.ErrRoomNotFound
	}

	if r.cfg.MembersLimit > 0 && len(e.room.Users) >= r.cfg.MembersLimit {
		return room.JoinInfo{}, room.ErrRoomFull
	}

	e.room.Users = append(e.room.Users, user)
	r.logger.DebugContext(ctx, "user joined room", "room_id", e.room.ID, "user_id", user.Meta.ID, "users", len(e.room.Users))

	return room.JoinInfo{
		RoomID:       e.room.ID,
		UserID:       user.Meta.ID,
		Users:        e.room.UserMetas(),
		PlayerStatus: e.room.PlayerStatus,
	}, nil
}

// WithRoom runs fn under the room's shared lock. fn must not modify the room.
// It reports false when the room does not exist.
func (r *Registry) WithRoom(roomID string, fn func(*room.Room)) bool {
	e, ok := r.lookup(roomID)
	if !ok {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return false
	}

	fn(&e.room)
	return true
}

// WithRoomMut runs fn under the room's exclusive lock.
func (r *Registry) WithRoomMut(roomID string, fn func(*room.Room)) bool {
	e, ok := r.lookup(roomID)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}

	fn(&e.room)
	return true
}

// RemoveUser removes the user and returns who is left. An emptied room is deleted
// and reported as gone.
func (r *Registry) RemoveUser(ctx context.Context, roomID string, userID uuid.UUID) ([]domain.UserMeta, bool) {
	e, ok := r.lookup(roomID)
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, false
	}

	e.room.Users = slices.DeleteFunc(e.room.Users, func(u room.User) bool {
		return u.Meta.ID == userID
	})

	if len(e.room.Users) == 0 {
		e.closed = true
		id := e.room.ID
		e.mu.Unlock()

		r.deleteEntry(id, e)
		r.logger.DebugContext(ctx, "empty room removed", "room_id", id)
		return nil, false
	}

	users := e.room.UserMetas()
	e.mu.Unlock()

	return users, true
}

// CloseRoom removes the room and delivers env to everyone still in it except excluded.
func (r *Registry) CloseRoom(ctx context.Context, roomID string, env message.Envelope, excluded ...uuid.UUID) bool {
	e, ok := r.lookup(roomID)
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.closed = true
	id := e.room.ID
	recipients := recipientsExcluding(&e.room, excluded)
	e.room.Users = nil
	e.mu.Unlock()

	r.deleteEntry(id, e)
	r.logger.DebugContext(ctx, "room closed", "room_id", id, "notified", len(recipients))

	for _, u := range recipients {
		r.deliver(id, u, env)
	}

	return true
}

func (r *Registry) deleteEntry(roomID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomID] == e {
		delete(r.rooms, roomID)
	}
}

// BroadcastExcluding queues env for every user of the room except excluded.
// Senders are copied under the shared lock and delivery happens after it is released.
func (r *Registry) BroadcastExcluding(roomID string, env message.Envelope, excluded ...uuid.UUID) {
	var recipients []room.User
	if !r.WithRoom(roomID, func(rm *room.Room) {
		recipients = recipientsExcluding(rm, excluded)
	}) {
		r.logger.Debug("broadcast to missing room", "room_id", roomID, "type", env.Type)
		return
	}

	for _, u := range recipients {
		r.deliver(roomID, u, env)
	}
}

func (r *Registry) SendToUser(roomID string, userID uuid.UUID, env message.Envelope) bool {
	var (
		recipient room.User
		found     bool
	)
	r.WithRoom(roomID, func(rm *room.Room) {
		var u *room.User
		if u, found = rm.User(userID); found {
			recipient = *u
		}
	})
	if !found {
		r.logger.Debug("send to missing user", "room_id", roomID, "user_id", userID, "type", env.Type)
		return false
	}

	return r.deliver(roomID, recipient, env)
}

// deliver never blocks: a full queue loses this copy of the message.
func (r *Registry) deliver(roomID string, u room.User, env message.Envelope) bool {
	select {
	case u.Outbound <- env:
		return true
	default:
		r.logger.Warn("outbound queue full, message dropped",
			"room_id", roomID,
			"user_id", u.Meta.ID,
			"type", env.Type,
		)
		return false
	}
}

func (r *Registry) Summary(ctx context.Context, roomID string) (room.Summary, error) {
	var s room.Summary
	if !r.WithRoom(roomID, func(rm *room.Room) {
		s = room.NewSummary(rm)
	}) {
		return room.Summary{}, room.ErrRoomNotFound
	}

	return s, nil
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func recipientsExcluding(rm *room.Room, excluded []uuid.UUID) []room.User {
	recipients := make([]room.User, 0, len(rm.Users))
	for _, u := range rm.Users {
		if !slices.Contains(excluded, u.Meta.ID) {
			recipients = append(recipients, u)
		}
	}

	return recipients
}

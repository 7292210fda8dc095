package redis

import (
	"context"
	"fmt"

	"github.com/couchsync/server/internal/domain"
	"github.com/couchsync/server/internal/repository/room"
)

type summaryRecord struct {
	RoomID      string `redis:"room_id"`
	HostName    string `redis:"host_name"`
	UserCount   int    `redis:"user_count"`
	PlayerState string `redis:"player_state"`
	PlayerTime  string `redis:"player_time"`
	UpdatedAt   int64  `redis:"updated_at"`
}

func (r repo) getRoomKey(roomID string) string {
	return "room:" + room.NormalizeID(roomID)
}

func (r repo) SetSummary(ctx context.Context, s room.Summary) error {
	r.logger.DebugContext(ctx, "called", "room_id", s.RoomID)
	pipe := r.rc.TxPipeline()

	key := r.getRoomKey(s.RoomID)
	r.hSetStruct(ctx, pipe, key, summaryRecord{
		RoomID:      s.RoomID,
		HostName:    s.HostName,
		UserCount:   s.UserCount,
		PlayerState: string(s.PlayerStatus.State),
		PlayerTime:  fmt.Sprintf("%g", s.PlayerStatus.Time),
		UpdatedAt:   s.UpdatedAt,
	})
	pipe.Expire(ctx, key, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set room summary: %w", err)
	}

	return nil
}

func (r repo) GetSummary(ctx context.Context, roomID string) (room.Summary, error) {
	key := r.getRoomKey(roomID)
	cmd := r.rc.HGetAll(ctx, key)
	if err := cmd.Err(); err != nil {
		return room.Summary{}, fmt.Errorf("failed to get room summary: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return room.Summary{}, room.ErrRoomNotFound
	}

	var rec summaryRecord
	if err := cmd.Scan(&rec); err != nil {
		return room.Summary{}, fmt.Errorf("failed to scan room summary: %w", err)
	}

	return room.Summary{
		RoomID:    rec.RoomID,
		HostName:  rec.HostName,
		UserCount: rec.UserCount,
		PlayerStatus: domain.PlayerStatus{
			State: domain.PlaybackState(rec.PlayerState),
			Time:  r.fieldToFloat64(rec.PlayerTime),
		},
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (r repo) RemoveSummary(ctx context.Context, roomID string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)
	if err := r.rc.Del(ctx, r.getRoomKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to remove room summary: %w", err)
	}

	return nil
}

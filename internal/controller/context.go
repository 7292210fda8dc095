package controller

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	roomIDCtxKey contextKey = iota
	userIDCtxKey
)

func (c controller) getRoomIDFromCtx(ctx context.Context) string {
	roomID, ok := ctx.Value(roomIDCtxKey).(string)
	if !ok {
		return ""
	}

	return roomID
}

func (c controller) getUserIDFromCtx(ctx context.Context) uuid.UUID {
	userID, ok := ctx.Value(userIDCtxKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}

	return userID
}

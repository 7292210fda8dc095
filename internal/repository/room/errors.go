package room

import "errors"

var (
	ErrRoomNotFound        = errors.New("room does not exist")
	ErrRoomFull            = errors.New("room is full")
	ErrKeyGenerationFailed = errors.New("failed to generate unique room id")
)

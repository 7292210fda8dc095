package domain

import "github.com/google/uuid"

type UserStateKind string

const (
	VideoNotSelected UserStateKind = "video_not_selected"
	VideoSelected    UserStateKind = "video_selected"
)

type UserState struct {
	Kind  UserStateKind `json:"kind"`
	Video string        `json:"video,omitempty"`
}

func NewVideoSelected(video string) UserState {
	return UserState{Kind: VideoSelected, Video: video}
}

type UserMeta struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	State UserState `json:"state"`
}

func NewUserMeta(name string) UserMeta {
	return UserMeta{
		ID:    uuid.New(),
		Name:  name,
		State: UserState{Kind: VideoNotSelected},
	}
}

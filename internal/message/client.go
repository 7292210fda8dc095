package message

const (
	TypeAlive         = "ALIVE"
	TypeChat          = "CHAT"
	TypeSelectedVideo = "SELECTED_VIDEO"
	TypePlay          = "PLAY"
	TypePause         = "PAUSE"
	TypeSeek          = "SEEK"
	TypeUpdate        = "UPDATE"
)

type Alive struct{}

type Chat struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type SelectedVideo struct {
	Video string `json:"video" validate:"required,max=512"`
}

// Playback is the payload of PLAY, PAUSE, SEEK and UPDATE.
type Playback struct {
	Time float64 `json:"time" validate:"gte=0"`
}

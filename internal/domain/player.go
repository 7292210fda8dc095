package domain

type PlaybackState string

const (
	Playing PlaybackState = "playing"
	Paused  PlaybackState = "paused"
)

// PlayerStatus is the shared playback position, in the content's own time unit.
type PlayerStatus struct {
	State PlaybackState `json:"state"`
	Time  float64       `json:"time"`
}

func NewPlaying(time float64) PlayerStatus {
	return PlayerStatus{State: Playing, Time: time}
}

func NewPaused(time float64) PlayerStatus {
	return PlayerStatus{State: Paused, Time: time}
}

// Seek moves the position and keeps the playback state.
func (p *PlayerStatus) Seek(time float64) {
	p.Time = time
}

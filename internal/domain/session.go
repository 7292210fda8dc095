package domain

// Track identifies one published media stream inside an SFU session.
type Track struct {
	Mid       *string `json:"mid"`
	TrackName *string `json:"track_name"`
}

// PublishSession is the host's SFU session and the tracks published into it.
type PublishSession struct {
	SessionID string  `json:"session_id"`
	Tracks    []Track `json:"tracks"`
}

func (p PublishSession) Clone() PublishSession {
	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)

	return PublishSession{SessionID: p.SessionID, Tracks: tracks}
}

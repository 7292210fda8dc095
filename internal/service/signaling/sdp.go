package signaling

import (
	"errors"
	"fmt"

	"github.com/pion/sdp/v3"
)

var ErrInvalidSDP = errors.New("invalid session description")

func validateSDP(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSDP)
	}

	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(raw)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSDP, err)
	}

	return nil
}

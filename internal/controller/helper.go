package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	repoRoom "github.com/couchsync/server/internal/repository/room"
	"github.com/google/uuid"
)

var ErrValidationError = errors.New("validation error")

type envelope map[string]any

func (c controller) writeJSON(w http.ResponseWriter, status int, data envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Warn("failed to write json response", "error", err)
	}
}

// writeServiceError answers a failed create or join before the connection is upgraded.
func (c controller) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repoRoom.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repoRoom.ErrRoomFull):
		status = http.StatusConflict
	}

	c.writeJSON(w, status, envelope{"error": err.Error()})
}

func (c controller) validateInput(input any) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", ErrValidationError, validationErrors)
	}

	return nil
}

func (c controller) generateTimeBasedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinQuery struct {
	Name   string `query:"name" validate:"required,max=16"`
	RoomID string `query:"room_id" validate:"required,alphanum,max=8"`
	Codec  string `query:"codec" validate:"omitempty,oneof=json msgpack"`
}

func TestValidateOK(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(joinQuery{Name: "ann", RoomID: "AB12"})
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateReportsQueryNames(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(joinQuery{Name: "a-very-long-user-name", Codec: "xml"})
	require.False(t, ok)
	require.Len(t, errs, 3)

	assert.Equal(t, ValidationError{Field: "name", Code: "MAX", Message: "name must not exceed 16 characters"}, errs[0])
	assert.Equal(t, "room_id", errs[1].Field)
	assert.Equal(t, "REQUIRED", errs[1].Code)
	assert.Equal(t, "codec", errs[2].Field)
	assert.Equal(t, "ONEOF", errs[2].Code)
}

type chat struct {
	Text string `json:"text" validate:"required"`
}

func TestValidateJSONNames(t *testing.T) {
	errs, ok := NewValidator().Validate(chat{})
	require.False(t, ok)
	assert.Equal(t, "text", errs[0].Field)
}

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfigDefaults(t *testing.T) {
	cmd := newRootCmd()

	cfg, err := loadAppConfig(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 4, cfg.RoomCodeLength)
	assert.Equal(t, 10, cfg.OutboundBuffer)
	assert.Equal(t, 24*time.Hour, cfg.RoomTTL)
	assert.Empty(t, cfg.RedisHost)
}

func TestLoadAppConfigPrecedence(t *testing.T) {
	t.Setenv("COUCHSYNC_PORT", "9000")
	t.Setenv("CALLS_APP_ID", "from-env")
	t.Setenv("REDIS_ROOM_TTL", "2h")

	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--calls-app-id", "from-flag"}))

	cfg, err := loadAppConfig(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "from-flag", cfg.CallsAppID)
	assert.Equal(t, 2*time.Hour, cfg.RoomTTL)
}

package redis

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// repo mirrors room summaries into redis so tooling outside the process can look rooms up.
type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
	logger         *slog.Logger
}

func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		logger:         logger,
	}
}
